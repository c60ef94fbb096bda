package trip

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeniva/backend/internal/domain/pricing"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/cases"
)

// Status is the stage of a trip file
type Status string

const (
	StatusDraft          Status = "Draft"
	StatusQuoted         Status = "Quoted"
	StatusApproved       Status = "Approved"
	StatusPendingPayment Status = "Pending Payment"
	StatusBooked         Status = "Booked"
	StatusTicketed       Status = "Ticketed"
	StatusCompleted      Status = "Completed"
)

var statusSequence = []Status{
	StatusDraft,
	StatusQuoted,
	StatusApproved,
	StatusPendingPayment,
	StatusBooked,
	StatusTicketed,
	StatusCompleted,
}

// Statuses returns the linear status sequence
func Statuses() []Status {
	return slices.Clone(statusSequence)
}

// Rank is the position of the status in the sequence, -1 if unknown
func (s Status) Rank() int {
	return slices.Index(statusSequence, s)
}

// IsValid checks if the status is part of the sequence
func (s Status) IsValid() bool {
	return s.Rank() >= 0
}

// Next returns the following status, or false at the end of the sequence
func (s Status) Next() (Status, bool) {
	r := s.Rank()
	if r < 0 || r == len(statusSequence)-1 {
		return "", false
	}
	return statusSequence[r+1], true
}

// File is a client's trip dossier aggregating priced components,
// payments and documents.
type File struct {
	shared.TenantAggregateRoot
	ClientID              uuid.UUID
	Title                 string
	Status                Status
	Currency              valueobject.Currency
	MarginOverridePct     *decimal.Decimal
	CommissionOverridePct *decimal.Decimal
	IsRebooking           bool
	Components            []*Component
	Payments              []*Payment
	Documents             []*Document
}

// NewFile creates a draft trip file. When isRebooking is nil the flag is
// derived from the title.
func NewFile(tenantID, clientID uuid.UUID, title string, currency valueobject.Currency, isRebooking *bool) (*File, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TRIP", "Trip title is required")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TRIP", "Trip must belong to a client")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	rebooking := TitleSuggestsRebooking(title)
	if isRebooking != nil {
		rebooking = *isRebooking
	}

	f := &File{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ClientID:            clientID,
		Title:               title,
		Status:              StatusDraft,
		Currency:            currency,
		IsRebooking:         rebooking,
		Components:          make([]*Component, 0),
		Payments:            make([]*Payment, 0),
		Documents:           make([]*Document, 0),
	}
	f.AddDomainEvent(NewTripCreatedEvent(f))
	return f, nil
}

// TitleSuggestsRebooking reports whether the title mentions a rebooking
func TitleSuggestsRebooking(title string) bool {
	return strings.Contains(cases.Fold().String(title), "rebook")
}

// Rename changes the title
func (f *File) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TRIP", "Trip title is required")
	}
	f.Title = title
	f.changed()
	return nil
}

// SetRebooking sets the rebooking flag explicitly
func (f *File) SetRebooking(v bool) {
	f.IsRebooking = v
	f.changed()
}

// SetOverrides replaces the trip-level margin and commission percentages.
// A nil value clears the override.
func (f *File) SetOverrides(marginPct, commissionPct *decimal.Decimal) error {
	for _, p := range []*decimal.Decimal{marginPct, commissionPct} {
		if p != nil && (p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100))) {
			return shared.NewDomainError("INVALID_OVERRIDE", "Override percent must be between 0 and 100")
		}
	}
	f.MarginOverridePct = marginPct
	f.CommissionOverridePct = commissionPct
	f.changed()
	return nil
}

// SetStatus moves the trip forward in the status sequence. Steps may be
// skipped; moving backward is rejected.
func (f *File) SetStatus(next Status) error {
	if !next.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown trip status")
	}
	if next == f.Status {
		return nil
	}
	if next.Rank() < f.Status.Rank() {
		return shared.NewDomainError("INVALID_STATE", "Trip status cannot move from "+string(f.Status)+" back to "+string(next))
	}
	old := f.Status
	f.Status = next
	f.changed()
	f.AddDomainEvent(NewTripStatusChangedEvent(f, old))
	return nil
}

// AddComponent appends a component at the end of the list
func (f *File) AddComponent(c *Component) {
	c.TripID = f.ID
	c.Position = len(f.Components)
	f.Components = append(f.Components, c)
	f.changed()
}

// Component finds a component by ID
func (f *File) Component(id uuid.UUID) (*Component, bool) {
	for _, c := range f.Components {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// UpdateComponentPricing replaces the pricing of one component
func (f *File) UpdateComponentPricing(id uuid.UUID, p pricing.Pricing) error {
	c, ok := f.Component(id)
	if !ok {
		return shared.NewDomainError("NOT_FOUND", "Component not found")
	}
	c.Pricing = p
	c.Touch()
	f.changed()
	return nil
}

// RemoveComponent deletes a component and re-numbers the rest
func (f *File) RemoveComponent(id uuid.UUID) error {
	idx := slices.IndexFunc(f.Components, func(c *Component) bool { return c.ID == id })
	if idx < 0 {
		return shared.NewDomainError("NOT_FOUND", "Component not found")
	}
	f.Components = slices.Delete(f.Components, idx, idx+1)
	for i, c := range f.Components {
		c.Position = i
	}
	f.changed()
	return nil
}

// Lines returns the components as pricing inputs
func (f *File) Lines() []pricing.Line {
	lines := make([]pricing.Line, len(f.Components))
	for i, c := range f.Components {
		lines[i] = c.Line()
	}
	return lines
}

// Pricing aggregates the trip pricing honoring its overrides
func (f *File) Pricing() *pricing.Pricing {
	return pricing.Aggregate(f.Lines(), pricing.Overrides{
		CommissionPct: f.CommissionOverridePct,
		MarginPct:     f.MarginOverridePct,
	})
}

// Split computes the revenue split for an agent percentage (fraction)
func (f *File) Split(agentPct decimal.Decimal) pricing.TripSplit {
	return pricing.Split(f.Lines(), agentPct)
}

// AddPayment appends a pending payment
func (f *File) AddPayment(p *Payment) error {
	if p.Amount.Currency() != f.Currency {
		return shared.NewDomainError("INVALID_CURRENCY", "Payment currency must match trip currency "+string(f.Currency))
	}
	p.TripID = f.ID
	f.Payments = append(f.Payments, p)
	f.changed()
	return nil
}

// Payment finds a payment by ID
func (f *File) Payment(id uuid.UUID) (*Payment, bool) {
	for _, p := range f.Payments {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// SetPaymentStatus transitions a payment. It returns true when the payment
// reached Paid from another status, in which case a PaymentSettled event is
// queued. Setting the current status again is a no-op.
func (f *File) SetPaymentStatus(paymentID uuid.UUID, next PaymentStatus) (bool, error) {
	p, ok := f.Payment(paymentID)
	if !ok {
		return false, shared.NewDomainError("NOT_FOUND", "Payment not found")
	}
	if !next.IsValid() {
		return false, shared.NewDomainError("INVALID_STATUS", "Unknown payment status")
	}
	if p.Status == next {
		return false, nil
	}
	if !p.Status.CanTransitionTo(next) {
		return false, shared.NewDomainError("INVALID_STATE", "Payment cannot move from "+string(p.Status)+" to "+string(next))
	}

	old := p.Status
	p.Status = next
	p.Touch()
	f.changed()

	if next != PaymentPaid {
		return false, nil
	}
	now := p.UpdatedAt
	p.PaidAt = &now
	f.AddDomainEvent(NewPaymentSettledEvent(f, p, old))
	return true, nil
}

// AttachDocument lists an uploaded document on the trip
func (f *File) AttachDocument(d *Document) {
	d.TripID = f.ID
	f.Documents = append(f.Documents, d)
	f.changed()
}

func (f *File) changed() {
	f.Touch()
	f.IncrementVersion()
}
