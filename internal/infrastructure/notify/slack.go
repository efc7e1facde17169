package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/config"
	"github.com/safesuite/provisioning/internal/domain/entity"
)

const alertColor = "#CC0000"

// SlackNotifier delivers provisioning failure alerts to the operations
// channel via an incoming webhook.
type SlackNotifier struct {
	webhookURL string
	channel    string
	logger     *zap.Logger
}

func NewSlackNotifier(cfg config.SlackConfig, logger *zap.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		logger:     logger,
	}
}

// SendAlert posts one message per alert. The message carries everything an
// operator needs to act without opening another tool: customer, amount,
// failed apps, and a pre-filled remediation link.
func (n *SlackNotifier) SendAlert(ctx context.Context, alert *entity.ProvisioningFailureAlert) error {
	if n.webhookURL == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}

	failed := make([]string, 0, len(alert.Failed))
	for _, f := range alert.Failed {
		failed = append(failed, fmt.Sprintf("%s (%d attempts: %s)", f.App, f.Attempts, f.Error))
	}

	attachment := slack.Attachment{
		Color: alertColor,
		Title: "Provisioning failed after payment",
		Text:  fmt.Sprintf("Customer *%s* paid %s %s but did not receive access.", alert.Email, alert.Amount(), strings.ToUpper(alert.Currency)),
		Fields: []slack.AttachmentField{
			{Title: "Customer", Value: alert.Email, Short: true},
			{Title: "Amount", Value: fmt.Sprintf("%s %s", alert.Amount(), strings.ToUpper(alert.Currency)), Short: true},
			{Title: "Event", Value: fmt.Sprintf("%s (%s)", alert.EventID, alert.EventType), Short: true},
			{Title: "Failed apps", Value: strings.Join(failed, "\n"), Short: false},
			{Title: "Remediate", Value: alert.RemediationURL, Short: false},
		},
		Footer: "alert " + alert.ID.String(),
	}

	msg := &slack.WebhookMessage{
		Channel:     n.channel,
		Attachments: []slack.Attachment{attachment},
	}

	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to post slack alert: %w", err)
	}

	n.logger.Info("Slack alert delivered",
		zap.String("alert_id", alert.ID.String()),
		zap.String("email", alert.Email))

	return nil
}
