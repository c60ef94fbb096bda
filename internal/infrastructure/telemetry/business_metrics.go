package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor gets no meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// BusinessMetrics counts back-office activity: trips opened, payments
// settled, ledger entries posted and login attempts.
type BusinessMetrics struct {
	tripsCreated    *Counter
	paymentsSettled *Counter
	settledAmount   *FloatCounter
	ledgerEntries   *Counter
	ledgerAmount    *FloatCounter
	loginAttempts   *Counter
	auditEntries    *Counter
}

// NewBusinessMetrics registers the instruments on meter.
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{}
	var err error

	if bm.tripsCreated, err = NewCounter(meter, "zeniva_trips_created_total", "Trip files opened", "{trips}"); err != nil {
		return nil, err
	}
	if bm.paymentsSettled, err = NewCounter(meter, "zeniva_payments_settled_total", "Payments that reached Paid", "{payments}"); err != nil {
		return nil, err
	}
	if bm.settledAmount, err = NewFloatCounter(meter, "zeniva_payments_settled_amount", "Settled payment amount per currency", "{currency_unit}"); err != nil {
		return nil, err
	}
	if bm.ledgerEntries, err = NewCounter(meter, "zeniva_ledger_entries_total", "Ledger entries posted", "{entries}"); err != nil {
		return nil, err
	}
	if bm.ledgerAmount, err = NewFloatCounter(meter, "zeniva_ledger_amount", "Posted ledger amount per account and type", "{currency_unit}"); err != nil {
		return nil, err
	}
	if bm.loginAttempts, err = NewCounter(meter, "zeniva_login_attempts_total", "Login attempts by outcome", "{attempts}"); err != nil {
		return nil, err
	}
	if bm.auditEntries, err = NewCounter(meter, "zeniva_audit_entries_total", "Audit entries by outcome", "{entries}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordTripCreated counts a new trip file
func (bm *BusinessMetrics) RecordTripCreated(ctx context.Context, tenantID string) {
	if bm == nil {
		return
	}
	bm.tripsCreated.Inc(ctx, AttrTenantID.String(tenantID))
}

// RecordPaymentSettled counts a payment that reached Paid
func (bm *BusinessMetrics) RecordPaymentSettled(ctx context.Context, tenantID, method, currency string, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.paymentsSettled.Inc(ctx, AttrTenantID.String(tenantID), AttrPaymentMethod.String(method))
	bm.settledAmount.Add(ctx, amount.InexactFloat64(), AttrTenantID.String(tenantID), AttrCurrency.String(currency))
}

// RecordLedgerEntry counts one posted entry
func (bm *BusinessMetrics) RecordLedgerEntry(ctx context.Context, account, entryType, currency string, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrLedgerAccount.String(account), AttrLedgerType.String(entryType)}
	bm.ledgerEntries.Inc(ctx, attrs...)
	bm.ledgerAmount.Add(ctx, amount.InexactFloat64(), append(attrs, AttrCurrency.String(currency))...)
}

// RecordLogin counts a login attempt; outcome is success, failed or locked
func (bm *BusinessMetrics) RecordLogin(ctx context.Context, space, outcome string) {
	if bm == nil {
		return
	}
	bm.loginAttempts.Inc(ctx, AttrSpace.String(space), AttrOutcome.String(outcome))
}

// RecordAudit counts an appended audit entry
func (bm *BusinessMetrics) RecordAudit(ctx context.Context, outcome string) {
	if bm == nil {
		return
	}
	bm.auditEntries.Inc(ctx, AttrOutcome.String(outcome))
}
