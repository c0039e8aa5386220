package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func whoami(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Write([]byte(claims.Email))
}

func serve(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("test-secret")
	handler := AuthMiddleware(tokens)(http.HandlerFunc(whoami))
	user := &models.User{ID: primitive.NewObjectID(), Email: "a@example.com", Role: "user"}
	token, err := tokens.GenerateJWT(user)
	require.NoError(t, err)

	rec := serve(handler, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@example.com", rec.Body.String())

	for _, header := range []string{"", "Token " + token, "Bearer", "Bearer not.a.token"} {
		rec := serve(handler, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["message"])
	}
}

func TestAdminMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("test-secret")
	handler := AuthMiddleware(tokens)(AdminMiddleware(http.HandlerFunc(whoami)))

	admin, err := tokens.GenerateJWT(&models.User{ID: primitive.NewObjectID(), Email: "root@example.com", Role: "admin"})
	require.NoError(t, err)
	user, err := tokens.GenerateJWT(&models.User{ID: primitive.NewObjectID(), Email: "a@example.com", Role: "user"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(handler, "Bearer "+admin).Code)
	assert.Equal(t, http.StatusForbidden, serve(handler, "Bearer "+user).Code)
	assert.Equal(t, http.StatusForbidden, serve(AdminMiddleware(http.HandlerFunc(whoami)), "").Code)
}
