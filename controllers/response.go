package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/middleware"
	"github.com/RahulGosh/ecommerce-sub000/services"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// base carries what every controller needs.
type base struct {
	log     *zap.Logger
	timeout time.Duration
}

func newBase(log *zap.Logger, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return base{log: log, timeout: timeout}
}

func (b base) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), b.timeout)
}

// respondError maps a service error to its HTTP status. Unclassified errors
// are logged and reported as a generic server error.
func (b base) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var se *services.Error
	if errors.As(err, &se) {
		status := http.StatusInternalServerError
		switch se.Kind {
		case services.KindValidation:
			status = http.StatusBadRequest
		case services.KindNotFound:
			status = http.StatusNotFound
		case services.KindStateConflict:
			status = http.StatusConflict
		case services.KindExternal:
			status = http.StatusBadGateway
			b.log.Error("external service failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
		utils.RespondError(w, status, se.Message)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		b.log.Warn("request timed out", zap.String("path", r.URL.Path))
		utils.RespondError(w, http.StatusGatewayTimeout, "Request timed out")
		return
	}
	b.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
}

// userID returns the authenticated user's id, answering 401 when absent.
func userID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, false
	}
	id, err := claims.ObjectID()
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathID parses the {id} route variable.
func pathID(w http.ResponseWriter, r *http.Request, message string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, message)
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseID parses an id taken from a request body or query.
func parseID(w http.ResponseWriter, value, message string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, message)
		return primitive.NilObjectID, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid input")
		return false
	}
	return true
}
