package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RahulGosh/ecommerce-sub000/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondErrorStatus(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{services.Validation(services.ErrMsgSizeRequired), http.StatusBadRequest, services.ErrMsgSizeRequired},
		{services.NotFound(services.ErrMsgOrderNotFound), http.StatusNotFound, services.ErrMsgOrderNotFound},
		{services.Conflict(services.ErrMsgCartEmpty), http.StatusConflict, services.ErrMsgCartEmpty},
		{services.External(services.ErrMsgPaymentSession, errors.New("card declined")), http.StatusBadGateway, services.ErrMsgPaymentSession},
		{fmt.Errorf("load cart: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "Request timed out"},
		{errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	b := newBase(zap.NewNop(), 0)
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		b.respondError(rec, httptest.NewRequest(http.MethodGet, "/orders", nil), tc.err)

		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, tc.message, body["message"])
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	b := newBase(zap.New(core), 0)
	rec := httptest.NewRecorder()
	b.respondError(rec, httptest.NewRequest(http.MethodPost, "/cart", nil), errors.New("mongo: no reachable servers"))

	assert.NotContains(t, rec.Body.String(), "mongo")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/cart", logs.All()[0].ContextMap()["path"])
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var v struct{ Size string }
	req := httptest.NewRequest(http.MethodPost, "/cart", nil)
	req.Body = http.NoBody
	rec := httptest.NewRecorder()
	assert.False(t, decodeJSON(rec, req, &v))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
