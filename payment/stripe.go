package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Metadata keys attached to every checkout session.
const (
	MetadataOrderID = "orderId"
	MetadataUserID  = "userId"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMissingMetadata  = errors.New("checkout session has no order metadata")
)

// WebhookEventType is the outcome a webhook reports for a checkout.
type WebhookEventType string

const (
	WebhookCompleted WebhookEventType = "completed"
	WebhookExpired   WebhookEventType = "expired"
	WebhookIgnored   WebhookEventType = "ignored"
)

// WebhookEvent is a verified checkout notification.
type WebhookEvent struct {
	Type      WebhookEventType
	OrderID   primitive.ObjectID
	UserID    primitive.ObjectID
	SessionID string
}

// Config holds the Stripe account settings.
type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	ClientURL     string
}

type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Stripe creates hosted checkout sessions and verifies webhook deliveries.
type Stripe struct {
	sessions      sessionCreator
	webhookSecret string
	currency      string
	clientURL     string
}

func NewStripe(cfg Config) *Stripe {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return newStripe(sc.CheckoutSessions, cfg)
}

func newStripe(sessions sessionCreator, cfg Config) *Stripe {
	currency := cfg.Currency
	if currency == "" {
		currency = "inr"
	}
	return &Stripe{
		sessions:      sessions,
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		clientURL:     cfg.ClientURL,
	}
}

// CreateCheckoutSession opens a payment session for the order total. The
// order and user ids travel as session metadata and come back in webhooks.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, order *models.Order) (*models.PaymentSession, error) {
	amount := MinorUnits(order.TotalPrice)
	if amount <= 0 {
		return nil, fmt.Errorf("order %s has no amount to charge", order.ID.Hex())
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(fmt.Sprintf("%s/verify?success=true&orderId=%s", s.clientURL, order.ID.Hex())),
		CancelURL:         stripe.String(fmt.Sprintf("%s/verify?success=false&orderId=%s", s.clientURL, order.ID.Hex())),
		ClientReferenceID: stripe.String(order.ID.Hex()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Order " + order.OrderNumber),
					},
					UnitAmount: stripe.Int64(amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderID, order.ID.Hex())
	params.AddMetadata(MetadataUserID, order.UserID.Hex())

	session, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &models.PaymentSession{ID: session.ID, URL: session.URL}, nil
}

// ParseWebhook verifies a webhook signature and extracts the checkout
// outcome. Event types other than session completion and expiry are
// reported as WebhookIgnored.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var kind WebhookEventType
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		kind = WebhookCompleted
	case stripe.EventTypeCheckoutSessionExpired, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		kind = WebhookExpired
	default:
		return &WebhookEvent{Type: WebhookIgnored}, nil
	}
	if event.Data == nil {
		return nil, ErrMissingMetadata
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	// Delayed payment methods complete the session before the money moves.
	if kind == WebhookCompleted && session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return &WebhookEvent{Type: WebhookIgnored, SessionID: session.ID}, nil
	}

	orderID, err := primitive.ObjectIDFromHex(session.Metadata[MetadataOrderID])
	if err != nil {
		return nil, ErrMissingMetadata
	}
	userID, _ := primitive.ObjectIDFromHex(session.Metadata[MetadataUserID])
	return &WebhookEvent{
		Type:      kind,
		OrderID:   orderID,
		UserID:    userID,
		SessionID: session.ID,
	}, nil
}

// MinorUnits converts an amount to the currency's smallest unit.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
