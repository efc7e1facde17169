package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/config"
	"github.com/safesuite/provisioning/internal/domain/entity"
)

const brevoSendEndpoint = "https://api.brevo.com/v3/smtp/email"

type emailSender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type emailTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type emailRequest struct {
	Sender      emailSender `json:"sender"`
	To          []emailTo   `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
	TextContent string      `json:"textContent"`
}

// BrevoMailer sends transactional mail through the Brevo API. It carries the
// informational purchase summaries to the operations inbox; delivery failures
// are reported to the caller, who treats them as best-effort.
type BrevoMailer struct {
	http      *resty.Client
	endpoint  string
	fromEmail string
	fromName  string
	opsEmail  string
	logger    *zap.Logger
}

func NewBrevoMailer(cfg config.BrevoConfig, logger *zap.Logger) *BrevoMailer {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("api-key", cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &BrevoMailer{
		http:      client,
		endpoint:  brevoSendEndpoint,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		opsEmail:  cfg.OpsEmail,
		logger:    logger,
	}
}

// SendPurchaseSummary mails a short purchase recap to the operations inbox.
func (m *BrevoMailer) SendPurchaseSummary(ctx context.Context, summary *entity.PurchaseSummary) error {
	if m.opsEmail == "" {
		return fmt.Errorf("brevo ops email is not configured")
	}

	apps := make([]string, 0, len(summary.Apps))
	for _, app := range summary.Apps {
		apps = append(apps, string(app))
	}

	kind := "purchase"
	if summary.Bundle {
		kind = "bundle purchase"
	}

	subject := fmt.Sprintf("New %s: %s", kind, summary.Email)
	text := fmt.Sprintf(
		"Customer: %s\nApps: %s\nAmount: %s %s\nEvent: %s\n",
		summary.Email,
		strings.Join(apps, ", "),
		summary.Amount(),
		strings.ToUpper(summary.Currency),
		summary.EventID,
	)
	html := fmt.Sprintf(
		"<p>Customer: <b>%s</b></p><p>Apps: %s</p><p>Amount: %s %s</p><p>Event: %s</p>",
		summary.Email,
		strings.Join(apps, ", "),
		summary.Amount(),
		strings.ToUpper(summary.Currency),
		summary.EventID,
	)

	req := emailRequest{
		Sender:      emailSender{Name: m.fromName, Email: m.fromEmail},
		To:          []emailTo{{Email: m.opsEmail}},
		Subject:     subject,
		HTMLContent: html,
		TextContent: text,
	}

	resp, err := m.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(m.endpoint)
	if err != nil {
		return fmt.Errorf("failed to send purchase summary: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("brevo API error: status %d: %s", resp.StatusCode(), resp.String())
	}

	m.logger.Info("Purchase summary sent",
		zap.String("customer", summary.Email),
		zap.String("event_id", summary.EventID))

	return nil
}
