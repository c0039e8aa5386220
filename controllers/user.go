package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/store"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserStore is the persistence the user handlers need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
}

// VerificationMailer delivers account verification links.
type VerificationMailer interface {
	SendVerificationEmail(toEmail, token string) error
}

// UserController handles user-related requests
type UserController struct {
	base
	users  UserStore
	tokens *utils.TokenManager
	mailer VerificationMailer
}

// NewUserController creates a new UserController
func NewUserController(users UserStore, tokens *utils.TokenManager, mailer VerificationMailer, log *zap.Logger, timeout time.Duration) *UserController {
	return &UserController{
		base:   newBase(log, timeout),
		users:  users,
		tokens: tokens,
		mailer: mailer,
	}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Please enter a valid email")
		return
	}
	if len(req.Password) < minPasswordLength {
		utils.RespondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		uc.respondError(w, r, err)
		return
	}
	token, err := uc.tokens.GenerateVerificationToken(email)
	if err != nil {
		uc.respondError(w, r, err)
		return
	}

	user := &models.User{
		Name:              strings.TrimSpace(req.Name),
		Email:             email,
		Password:          string(hashedPassword),
		Role:              "user",
		VerificationToken: token,
	}

	ctx, cancel := uc.context(r)
	defer cancel()
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.RespondError(w, http.StatusBadRequest, "User already exists")
			return
		}
		uc.respondError(w, r, err)
		return
	}

	if err := uc.mailer.SendVerificationEmail(user.Email, token); err != nil {
		uc.log.Error("verification email failed", zap.String("email", user.Email), zap.Error(err))
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully. Please check your email to verify your account.",
	})
}

// VerifyEmail handles email verification
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.RespondError(w, http.StatusBadRequest, "Verification token missing")
		return
	}
	if _, err := uc.tokens.ParseVerificationToken(token); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid token")
		return
	}

	ctx, cancel := uc.context(r)
	defer cancel()
	user, err := uc.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusBadRequest, "User not found or already verified")
			return
		}
		uc.respondError(w, r, err)
		return
	}
	if err := uc.users.MarkVerified(ctx, user.ID); err != nil {
		uc.respondError(w, r, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email verified successfully. You can now log in.",
	})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &creds) {
		return
	}

	ctx, cancel := uc.context(r)
	defer cancel()
	user, err := uc.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		uc.respondError(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !user.IsVerified {
		utils.RespondError(w, http.StatusUnauthorized, "Email not verified")
		return
	}

	token, err := uc.tokens.GenerateJWT(user)
	if err != nil {
		uc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"token": token})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := uc.context(r)
	defer cancel()
	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		uc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
