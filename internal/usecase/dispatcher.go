package usecase

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/domain/entity"
	domainErrors "github.com/safesuite/provisioning/internal/domain/errors"
	"github.com/safesuite/provisioning/internal/domain/model"
	"github.com/safesuite/provisioning/internal/domain/repository"
	apperrors "github.com/safesuite/provisioning/pkg/errors"
)

// DuplicateGuard is the fast-path filter over fully processed event IDs.
// Seen is a pure read; Mark is called only after processing succeeds, so a
// failed delivery is never suppressed on redelivery.
type DuplicateGuard interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// PurchaseNotifier sends the best-effort informational summary of a
// completed checkout.
type PurchaseNotifier interface {
	SendPurchaseSummary(ctx context.Context, summary *entity.PurchaseSummary) error
}

// ProcessingOutcome describes what handling one webhook delivery did.
type ProcessingOutcome struct {
	EventID   string
	EventType string
	// Duplicate is set when the event was already fully processed; the
	// delivery is acknowledged without side effects.
	Duplicate bool
	// Ignored is set for event types this service does not act on.
	Ignored bool
	Sync    *entity.SyncResult
}

// WebhookDispatcher verifies inbound billing events, classifies them, and
// drives the resolver and sync orchestrator. The webhook secret is injected
// at construction.
type WebhookDispatcher struct {
	webhookSecret string
	syncService   *SyncService
	escalation    *EscalationService
	events        repository.BillingEventRepository
	guard         DuplicateGuard
	purchases     PurchaseNotifier
	logger        *zap.Logger
}

// NewWebhookDispatcher creates a new webhook dispatcher. guard and purchases
// may be nil, disabling the fast-path dedup and the purchase summary mail.
func NewWebhookDispatcher(
	webhookSecret string,
	syncService *SyncService,
	escalation *EscalationService,
	events repository.BillingEventRepository,
	guard DuplicateGuard,
	purchases PurchaseNotifier,
	logger *zap.Logger,
) *WebhookDispatcher {
	return &WebhookDispatcher{
		webhookSecret: webhookSecret,
		syncService:   syncService,
		escalation:    escalation,
		events:        events,
		guard:         guard,
		purchases:     purchases,
		logger:        logger,
	}
}

// Handle processes one raw webhook delivery. A signature failure returns an
// UNAUTHENTICATED error and produces no side effects; provisioning failures
// after that point are escalated rather than surfaced, since provider-side
// redelivery would not fix them.
func (d *WebhookDispatcher) Handle(ctx context.Context, body []byte, signature string) (*ProcessingOutcome, error) {
	event, err := webhook.ConstructEventWithOptions(
		body,
		signature,
		d.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		d.logger.Error("Webhook signature verification failed", zap.Error(err))
		return nil, apperrors.NewAppError(apperrors.ErrUnauthenticated, "webhook signature verification failed", err)
	}

	outcome := &ProcessingOutcome{
		EventID:   event.ID,
		EventType: string(event.Type),
	}

	d.logger.Info("Webhook event received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID))

	if d.alreadyProcessed(ctx, event.ID) {
		d.logger.Info("Duplicate webhook delivery skipped", zap.String("id", event.ID))
		outcome.Duplicate = true
		return outcome, nil
	}

	d.saveEvent(ctx, event)

	procErr := d.dispatch(ctx, event, outcome)
	if procErr != nil {
		if markErr := d.events.MarkFailed(ctx, event.ID, procErr); markErr != nil {
			d.logger.Error("Failed to record event failure", zap.String("id", event.ID), zap.Error(markErr))
		}
		return nil, procErr
	}

	if err := d.events.MarkProcessed(ctx, event.ID); err != nil {
		d.logger.Error("Failed to mark event processed", zap.String("id", event.ID), zap.Error(err))
	}

	if d.guard != nil {
		if err := d.guard.Mark(ctx, event.ID); err != nil {
			d.logger.Warn("Failed to record event in duplicate guard", zap.String("id", event.ID), zap.Error(err))
		}
	}

	return outcome, nil
}

// alreadyProcessed consults the fast-path guard and the durable event store.
// Either store being unavailable degrades to processing the event again;
// downstream effects are idempotent, so that is the safe direction.
func (d *WebhookDispatcher) alreadyProcessed(ctx context.Context, eventID string) bool {
	if d.guard != nil {
		seen, err := d.guard.Seen(ctx, eventID)
		if err != nil {
			d.logger.Warn("Duplicate guard unavailable", zap.Error(err))
		} else if seen {
			return true
		}
	}

	stored, err := d.events.GetEvent(ctx, eventID)
	if err != nil {
		d.logger.Warn("Event store lookup failed", zap.String("id", eventID), zap.Error(err))
		return false
	}

	return stored != nil && stored.Status == model.EventStatusCompleted
}

func (d *WebhookDispatcher) saveEvent(ctx context.Context, event stripe.Event) {
	if err := d.events.SaveEvent(ctx, event.ID, string(event.Type), customerEmail(event), event.Data.Raw); err != nil {
		d.logger.Error("Failed to persist billing event", zap.String("id", event.ID), zap.Error(err))
	}
}

func (d *WebhookDispatcher) dispatch(ctx context.Context, event stripe.Event, outcome *ProcessingOutcome) error {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return d.handleCheckoutCompleted(ctx, event, outcome)

	case stripe.EventTypeCustomerSubscriptionUpdated:
		return d.handleSubscriptionUpdated(ctx, event, outcome)

	case stripe.EventTypeCustomerSubscriptionDeleted:
		return d.handleSubscriptionDeleted(ctx, event, outcome)

	case stripe.EventTypeInvoicePaymentFailed:
		return d.handleInvoicePaymentFailed(event)

	default:
		d.logger.Warn("Unhandled event type", zap.String("type", string(event.Type)))
		outcome.Ignored = true
		return nil
	}
}

func (d *WebhookDispatcher) handleCheckoutCompleted(ctx context.Context, event stripe.Event, outcome *ProcessingOutcome) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		d.logger.Error("Error parsing checkout session", zap.Error(err))
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "error parsing checkout session", err)
	}

	email := checkoutEmail(&session)
	if email == "" {
		d.logger.Error("Checkout session without customer email", zap.String("id", event.ID))
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "checkout session has no customer email", domainErrors.ErrMissingCustomerEmail)
	}

	desired := entity.ResolveEntitlements(session.Metadata)
	bundle := entity.IsBundle(session.Metadata)

	d.logger.Info("Checkout session completed",
		zap.String("email", email),
		zap.Strings("apps", desired.Strings()),
		zap.Bool("bundle", bundle),
		zap.Int64("amount_total", session.AmountTotal))

	// A completed checkout is a fresh signup: nothing to revoke.
	result := d.syncService.Sync(ctx, model.ActorSystem, email, desired, entity.EntitlementSet{})
	outcome.Sync = &result

	if failed := result.FailedResults(); len(failed) > 0 {
		d.escalation.Escalate(ctx, email, session.AmountTotal, string(session.Currency), event.ID, string(event.Type), failed)
	}

	// The purchase summary goes out regardless of the provisioning outcome.
	if d.purchases != nil {
		summary := &entity.PurchaseSummary{
			Email:       email,
			Apps:        desired.Apps(),
			AmountCents: session.AmountTotal,
			Currency:    string(session.Currency),
			Bundle:      bundle,
			EventID:     event.ID,
		}
		if err := d.purchases.SendPurchaseSummary(ctx, summary); err != nil {
			d.logger.Warn("Failed to send purchase summary", zap.String("email", email), zap.Error(err))
		}
	}

	return nil
}

func (d *WebhookDispatcher) handleSubscriptionUpdated(ctx context.Context, event stripe.Event, outcome *ProcessingOutcome) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		d.logger.Error("Error parsing subscription", zap.Error(err))
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "error parsing subscription", err)
	}

	email := sub.Metadata[entity.MetadataKeyEmail]
	if email == "" {
		d.logger.Error("Subscription event without customer email", zap.String("id", event.ID))
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "subscription has no customer email", domainErrors.ErrMissingCustomerEmail)
	}

	desired := entity.ResolveEntitlements(sub.Metadata)
	amountCents, currency := subscriptionAmount(&sub)

	// When the provider reports what changed, diff against the prior app
	// list instead of re-asserting everything.
	if prevMeta, ok := previousMetadata(event); ok {
		if _, hasApps := prevMeta[entity.MetadataKeyApps]; hasApps {
			previous := entity.ResolveEntitlements(prevMeta)
			d.logger.Info("Subscription apps changed",
				zap.String("email", email),
				zap.Strings("previous", previous.Strings()),
				zap.Strings("desired", desired.Strings()))
			return d.runSync(ctx, event, outcome, email, desired, previous, amountCents, currency)
		}
	}

	switch sub.Status {
	case stripe.SubscriptionStatusActive:
		// Idempotent re-assertion of the current set.
		return d.runSync(ctx, event, outcome, email, desired, entity.EntitlementSet{}, amountCents, currency)
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid:
		return d.runSync(ctx, event, outcome, email, entity.EntitlementSet{}, desired, amountCents, currency)
	default:
		d.logger.Info("Subscription status requires no entitlement change",
			zap.String("email", email),
			zap.String("status", string(sub.Status)))
		return nil
	}
}

func (d *WebhookDispatcher) handleSubscriptionDeleted(ctx context.Context, event stripe.Event, outcome *ProcessingOutcome) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		d.logger.Error("Error parsing subscription deletion", zap.Error(err))
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "error parsing subscription deletion", err)
	}

	email := sub.Metadata[entity.MetadataKeyEmail]
	if email == "" {
		d.logger.Error("Subscription deletion without customer email", zap.String("id", event.ID))
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "subscription deletion has no customer email", domainErrors.ErrMissingCustomerEmail)
	}

	revoke := entity.ResolveEntitlements(sub.Metadata)
	amountCents, currency := subscriptionAmount(&sub)
	d.logger.Info("Subscription deleted, revoking access",
		zap.String("email", email),
		zap.Strings("apps", revoke.Strings()))

	return d.runSync(ctx, event, outcome, email, entity.EntitlementSet{}, revoke, amountCents, currency)
}

// handleInvoicePaymentFailed only records the failure; dunning is not
// automated and the entitlements stay untouched.
func (d *WebhookDispatcher) handleInvoicePaymentFailed(event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		d.logger.Error("Error parsing invoice", zap.Error(err))
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "error parsing invoice", err)
	}

	d.logger.Warn("Invoice payment failed",
		zap.String("invoice_id", invoice.ID),
		zap.String("email", invoice.CustomerEmail),
		zap.Int64("amount_due", invoice.AmountDue))

	return nil
}

func (d *WebhookDispatcher) runSync(ctx context.Context, event stripe.Event, outcome *ProcessingOutcome, email string, desired, previous entity.EntitlementSet, amountCents int64, currency string) error {
	result := d.syncService.Sync(ctx, model.ActorSystem, email, desired, previous)
	outcome.Sync = &result

	if failed := result.FailedResults(); len(failed) > 0 {
		d.escalation.Escalate(ctx, email, amountCents, currency, event.ID, string(event.Type), failed)
	}

	return nil
}

// subscriptionAmount totals the subscription's line items so escalation
// alerts show the real charge.
func subscriptionAmount(sub *stripe.Subscription) (int64, string) {
	if sub.Items == nil {
		return 0, string(sub.Currency)
	}

	var total int64
	for _, item := range sub.Items.Data {
		if item.Price == nil {
			continue
		}
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		total += item.Price.UnitAmount * qty
	}

	return total, string(sub.Currency)
}

// checkoutEmail prefers the collected customer details over the prefilled
// checkout email.
func checkoutEmail(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return session.CustomerDetails.Email
	}
	return session.CustomerEmail
}

// customerEmail extracts the customer identity for the durable event record.
func customerEmail(event stripe.Event) string {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err == nil {
			return checkoutEmail(&session)
		}
	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err == nil {
			return sub.Metadata[entity.MetadataKeyEmail]
		}
	case stripe.EventTypeInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err == nil {
			return invoice.CustomerEmail
		}
	}
	return ""
}

// previousMetadata pulls the prior metadata map out of the event's
// previous_attributes, when the provider included one.
func previousMetadata(event stripe.Event) (map[string]string, bool) {
	raw, ok := event.Data.PreviousAttributes["metadata"]
	if !ok {
		return nil, false
	}

	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, false
	}

	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, true
}
