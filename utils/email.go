package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer sends a single HTML email.
type Mailer interface {
	SendEmail(toEmail, subject, htmlContent string) error
}

// MailConfig selects and configures the mail provider. An empty Provider
// logs messages instead of sending them.
type MailConfig struct {
	Provider       string
	SendGridAPIKey string
	PostmarkToken  string
	Sender         string
	// AppURL is the public base URL of this API, used in verification links.
	AppURL string
}

type sendGridMailer struct {
	client *sendgrid.Client
	from   string
}

func (m *sendGridMailer) SendEmail(toEmail, subject, htmlContent string) error {
	message := mail.NewSingleEmail(mail.NewEmail("", m.from), subject, mail.NewEmail("", toEmail), "", htmlContent)
	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

type postmarkMailer struct {
	client *postmark.Client
	from   string
}

func (m *postmarkMailer) SendEmail(toEmail, subject, htmlContent string) error {
	resp, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.ErrorCode != 0 {
		return fmt.Errorf("failed to send email: postmark error %d: %s", resp.ErrorCode, resp.Message)
	}
	return nil
}

type logMailer struct {
	log *zap.Logger
}

func (m *logMailer) SendEmail(toEmail, subject, _ string) error {
	m.log.Info("email not sent, no mail provider configured",
		zap.String("to", toEmail),
		zap.String("subject", subject))
	return nil
}

// EmailService renders and sends the emails of the storefront.
type EmailService struct {
	mailer Mailer
	appURL string
	log    *zap.Logger
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(cfg MailConfig, log *zap.Logger) (*EmailService, error) {
	var mailer Mailer
	switch cfg.Provider {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid mail provider")
		}
		mailer = &sendGridMailer{client: sendgrid.NewSendClient(cfg.SendGridAPIKey), from: cfg.Sender}
	case "postmark":
		if cfg.PostmarkToken == "" {
			return nil, fmt.Errorf("POSTMARK_SERVER_TOKEN is required for the postmark mail provider")
		}
		mailer = &postmarkMailer{client: postmark.NewClient(cfg.PostmarkToken, ""), from: cfg.Sender}
	case "":
		mailer = &logMailer{log: log}
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
	return newEmailService(mailer, cfg.AppURL, log), nil
}

func newEmailService(mailer Mailer, appURL string, log *zap.Logger) *EmailService {
	return &EmailService{mailer: mailer, appURL: appURL, log: log}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if err := es.mailer.SendEmail(toEmail, subject, htmlContent); err != nil {
		return err
	}
	es.log.Debug("email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// SendVerificationEmail sends an email verification link to the user
func (es *EmailService) SendVerificationEmail(toEmail, token string) error {
	link := fmt.Sprintf("%s/verify?token=%s", es.appURL, url.QueryEscape(token))
	html, err := render(verificationTemplate, map[string]string{"Link": link})
	if err != nil {
		return err
	}
	return es.SendEmail(toEmail, "Verify Your Email", html)
}

// SendOrderConfirmationEmail sends an order confirmation email to the user
func (es *EmailService) SendOrderConfirmationEmail(toEmail string, order *models.Order) error {
	html, err := render(orderTemplate, orderView{
		Heading: "Thank you for your purchase!",
		Intro:   "Your order has been placed successfully.",
		Order:   order,
	})
	if err != nil {
		return err
	}
	return es.SendEmail(toEmail, "Order Confirmation "+order.OrderNumber, html)
}

// SendPaymentConfirmedEmail tells the user their card payment went through.
func (es *EmailService) SendPaymentConfirmedEmail(toEmail string, order *models.Order) error {
	html, err := render(orderTemplate, orderView{
		Heading: "Payment received",
		Intro:   "We have received your payment and your order is confirmed.",
		Order:   order,
	})
	if err != nil {
		return err
	}
	return es.SendEmail(toEmail, "Payment Received "+order.OrderNumber, html)
}

type orderView struct {
	Heading string
	Intro   string
	Order   *models.Order
}

var verificationTemplate = template.Must(template.New("verify").Parse(
	`<strong>Please verify your email by clicking on the following link:</strong> <a href="{{.Link}}">Verify Email</a>`))

var orderTemplate = template.Must(template.New("order").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<strong>{{.Heading}}</strong><br><br>
{{.Intro}} Order number: <strong>{{.Order.OrderNumber}}</strong><br><br>
<table>
{{range .Order.Items}}<tr><td>{{.Name}} ({{.Size}})</td><td>x{{.Quantity}}</td><td>{{money .Price}}</td></tr>
{{end}}</table><br>
Items: {{money .Order.ItemsPrice}}<br>
Tax: {{money .Order.TaxPrice}}<br>
Shipping: {{money .Order.ShippingPrice}}<br>
{{if .Order.DiscountPrice}}Discount: -{{money .Order.DiscountPrice}}<br>
{{end}}Total Amount: <strong>{{money .Order.TotalPrice}}</strong><br>
Payment Method: <strong>{{.Order.PaymentMethod}}</strong><br><br>
Shipping to {{.Order.Address.FullName}}, {{.Order.Address.Street}}, {{.Order.Address.City}}<br><br>
Thank you for shopping with us!`))

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
