package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/middleware"
	"github.com/RahulGosh/ecommerce-sub000/payment"
	"github.com/RahulGosh/ecommerce-sub000/services"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"go.uber.org/zap"
)

const maxWebhookBytes = 64 << 10

// WebhookParser verifies and decodes a payment provider notification.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
}

// WebhookController receives payment provider notifications
type WebhookController struct {
	base
	parser WebhookParser
	orders *services.OrderService
}

func NewWebhookController(parser WebhookParser, orders *services.OrderService, log *zap.Logger, timeout time.Duration) *WebhookController {
	return &WebhookController{base: newBase(log, timeout), parser: parser, orders: orders}
}

// StripeWebhook confirms or abandons a checkout from a signed Stripe event.
// Events about unknown or already settled orders are acknowledged so the
// provider stops redelivering them; store failures answer 500 so it retries.
func (wc *WebhookController) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if wc.parser == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "Payments are not configured")
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	event, err := wc.parser.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		wc.log.Warn("rejected webhook", zap.Error(err))
		if errors.Is(err, payment.ErrInvalidSignature) {
			utils.RespondError(w, http.StatusBadRequest, "Invalid signature")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "Invalid event")
		return
	}

	ctx, cancel := wc.context(r)
	defer cancel()
	switch event.Type {
	case payment.WebhookCompleted:
		_, err = wc.orders.ConfirmPayment(ctx, event.OrderID, event.SessionID)
		middleware.RecordOrderOperation("confirm_payment", err == nil)
	case payment.WebhookExpired:
		_, err = wc.orders.AbandonCheckout(ctx, event.OrderID)
		middleware.RecordOrderOperation("abandon_checkout", err == nil)
	default:
		wc.log.Debug("ignored webhook event", zap.String("session_id", event.SessionID))
	}
	if err != nil {
		if kind, ok := services.KindOf(err); ok && kind != services.KindExternal {
			wc.log.Warn("webhook not applied",
				zap.String("order_id", event.OrderID.Hex()),
				zap.String("kind", kind.String()),
				zap.Error(err))
		} else {
			wc.respondError(w, r, err)
			return
		}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"received": true})
}
