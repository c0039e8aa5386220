package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/dgrijalva/jwt-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	accessTokenTTL       = 24 * time.Hour
	verificationTokenTTL = 48 * time.Hour

	purposeAccess       = "access"
	purposeVerification = "verify"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims represents the JWT claims
type Claims struct {
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	jwt.StandardClaims
}

// ObjectID returns the authenticated user's id.
func (c *Claims) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.UserID)
}

// IsAdmin reports whether the token carries the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// TokenManager signs and verifies HS256 tokens with a shared secret.
type TokenManager struct {
	key []byte
	now func() time.Time
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{key: []byte(secret), now: time.Now}
}

// GenerateJWT generates an access token for a user
func (m *TokenManager) GenerateJWT(user *models.User) (string, error) {
	return m.sign(&Claims{
		UserID:  user.ID.Hex(),
		Email:   user.Email,
		Role:    user.Role,
		Purpose: purposeAccess,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: m.now().Add(accessTokenTTL).Unix(),
			IssuedAt:  m.now().Unix(),
		},
	})
}

// GenerateVerificationToken generates the token mailed to confirm an email
// address. It cannot be used to authenticate.
func (m *TokenManager) GenerateVerificationToken(email string) (string, error) {
	return m.sign(&Claims{
		Email:   email,
		Purpose: purposeVerification,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: m.now().Add(verificationTokenTTL).Unix(),
			IssuedAt:  m.now().Unix(),
		},
	})
}

// ParseJWT verifies an access token and returns its claims.
func (m *TokenManager) ParseJWT(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, purposeAccess)
}

// ParseVerificationToken verifies an email verification token.
func (m *TokenManager) ParseVerificationToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, purposeVerification)
}

func (m *TokenManager) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

func (m *TokenManager) parse(tokenStr, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
