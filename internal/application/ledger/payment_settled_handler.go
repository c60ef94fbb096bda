package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	auditapp "github.com/zeniva/backend/internal/application/audit"
	"github.com/zeniva/backend/internal/domain/audit"
	"github.com/zeniva/backend/internal/domain/ledger"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/trip"
	"github.com/zeniva/backend/internal/infrastructure/telemetry"
)

// SystemActor is the audit actor email of postings made by event handlers
const SystemActor = "system@ledger"

// PaymentSettledHandler posts ledger entries when a payment settles.
// A payment is posted at most once: the repository check and the unique
// index on (payment, account, type) back up the idempotency store that
// wraps this handler.
type PaymentSettledHandler struct {
	files   trip.FileRepository
	clients trip.ClientRepository
	entries ledger.Repository
	policy  ledger.Policy
	audit   *auditapp.Recorder
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger
}

// NewPaymentSettledHandler creates the posting handler. metrics may be nil.
func NewPaymentSettledHandler(
	files trip.FileRepository,
	clients trip.ClientRepository,
	entries ledger.Repository,
	policy ledger.Policy,
	recorder *auditapp.Recorder,
	metrics *telemetry.BusinessMetrics,
	logger *zap.Logger,
) *PaymentSettledHandler {
	return &PaymentSettledHandler{
		files:   files,
		clients: clients,
		entries: entries,
		policy:  policy,
		audit:   recorder,
		metrics: metrics,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentSettledHandler) EventTypes() []string {
	return []string{trip.EventTypePaymentSettled}
}

// PostingKey is the idempotency key of an event: the payment for
// settlements, so repeated settlements of one payment share a key.
func PostingKey(ev shared.DomainEvent) string {
	if settled, ok := ev.(*trip.PaymentSettledEvent); ok {
		return ledger.IdempotencyKey(settled.PaymentID)
	}
	return ev.EventID().String()
}

// Handle posts the split of the settled payment
func (h *PaymentSettledHandler) Handle(ctx context.Context, event shared.DomainEvent) (err error) {
	settled, ok := event.(*trip.PaymentSettledEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", trip.EventTypePaymentSettled),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trip.EventTypePaymentSettled, event.EventType())
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "LedgerPosting", "PaymentSettled",
		telemetry.Attr("trip.id", settled.TripID.String()),
		telemetry.Attr("payment.id", settled.PaymentID.String()),
	)
	defer func() { telemetry.End(span, err) }()

	tenantID := settled.TenantID()
	fields := []zap.Field{
		zap.String("trip_id", settled.TripID.String()),
		zap.String("payment_id", settled.PaymentID.String()),
	}

	exists, err := h.entries.ExistsForPayment(ctx, tenantID, settled.PaymentID)
	if err != nil {
		h.logger.Error("failed to check existing ledger entries", append(fields, zap.Error(err))...)
		return fmt.Errorf("failed to check existing ledger entries: %w", err)
	}
	if exists {
		h.logger.Warn("ledger entries already posted for payment, skipping", fields...)
		return nil
	}

	f, err := h.files.FindByID(ctx, tenantID, settled.TripID)
	if err != nil {
		h.logger.Error("failed to load trip for posting", append(fields, zap.Error(err))...)
		return fmt.Errorf("failed to load trip: %w", err)
	}
	payment, ok := f.Payment(settled.PaymentID)
	if !ok {
		return shared.NewDomainError("NOT_FOUND", "Payment not found on trip")
	}

	client, err := h.clients.FindByID(ctx, tenantID, f.ClientID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("failed to load client: %w", err)
		}
		h.logger.Warn("client of settled trip not found, posting without agent share", fields...)
		client = nil
	}

	actor := audit.Actor{TenantID: tenantID, Email: SystemActor}
	entries := h.policy.Post(f, client, payment)
	if len(entries) == 0 {
		h.logger.Info("nothing to post for payment: trip has no sell value", fields...)
		h.audit.Record(ctx, audit.NewEntry(actor, audit.ActionLedgerPosted, "payment", settled.PaymentID.String(),
			audit.OutcomeIgnored, map[string]any{"trip_id": f.ID.String(), "reason": "no sell value"}))
		return nil
	}

	if err = h.entries.Append(ctx, entries); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			h.logger.Warn("concurrent posting detected, entries already exist", fields...)
			return nil
		}
		h.logger.Error("failed to append ledger entries", append(fields, zap.Error(err))...)
		return fmt.Errorf("failed to append ledger entries: %w", err)
	}

	for _, e := range entries {
		h.metrics.RecordLedgerEntry(ctx, string(e.Account), string(e.Type), string(e.Currency), e.Amount)
	}
	total := ledger.Sum(entries)
	h.audit.Record(ctx, audit.NewEntry(actor, audit.ActionLedgerPosted, "payment", settled.PaymentID.String(),
		audit.OutcomeApplied, map[string]any{
			"trip_id": f.ID.String(),
			"entries": len(entries),
			"total":   total.String(),
		}))
	h.logger.Info("ledger entries posted",
		append(fields, zap.Int("entries", len(entries)), zap.String("total", total.String()))...)
	return nil
}

var _ shared.EventHandler = (*PaymentSettledHandler)(nil)
