package trip

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	auditapp "github.com/zeniva/backend/internal/application/audit"
	"github.com/zeniva/backend/internal/domain/audit"
	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/ledger"
	"github.com/zeniva/backend/internal/domain/pricing"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
	"github.com/zeniva/backend/internal/domain/trip"
	"github.com/zeniva/backend/internal/infrastructure/telemetry"
	"github.com/zeniva/backend/internal/infrastructure/validation"
)

const (
	spanService = "TripService"

	targetClient = "client"
	targetTrip   = "trip"
)

// ServiceConfig holds settings of the trip service
type ServiceConfig struct {
	// Policy supplies the agent share used when a split is requested
	// without an explicit percentage
	Policy ledger.Policy
	// DownloadURLExpiry is how long document download links stay valid
	DownloadURLExpiry time.Duration
	// MaxUploadSize caps a single document upload in bytes
	MaxUploadSize int64
}

// DefaultServiceConfig returns the default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Policy:            ledger.DefaultPolicy(),
		DownloadURLExpiry: time.Hour,
		MaxUploadSize:     20 << 20,
	}
}

// Service handles clients, trip files and everything attached to them.
// Every mutation is audited, including the ones that end up not applying.
type Service struct {
	clients   trip.ClientRepository
	files     trip.FileRepository
	documents DocumentStore
	publisher shared.EventPublisher
	audit     *auditapp.Recorder
	metrics   *telemetry.BusinessMetrics
	config    ServiceConfig
	logger    *zap.Logger
}

// NewService creates a new trip service. metrics may be nil.
func NewService(
	clients trip.ClientRepository,
	files trip.FileRepository,
	documents DocumentStore,
	publisher shared.EventPublisher,
	recorder *auditapp.Recorder,
	metrics *telemetry.BusinessMetrics,
	config ServiceConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		clients:   clients,
		files:     files,
		documents: documents,
		publisher: publisher,
		audit:     recorder,
		metrics:   metrics,
		config:    config,
		logger:    logger,
	}
}

// ============================================================================
// Clients
// ============================================================================

// CreateClient creates a client. Agents own the clients they create.
func (s *Service) CreateClient(ctx context.Context, p identity.Principal, in CreateClientInput) (resp *ClientResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "CreateClient")
	var clientID uuid.UUID
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionClientCreated, targetClient, clientID, err, map[string]any{"name": in.Name})
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermClientsWrite); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}

	origin, err := trip.ParseClientOrigin(in.Origin)
	if err != nil {
		return nil, err
	}
	owner := in.OwnerEmail
	if !p.SeesAllClients() {
		owner = p.Email
		if strings.TrimSpace(in.Origin) == "" {
			origin = trip.OriginAgent
		}
	}

	client, err := trip.NewClient(p.TenantID, in.Name, origin, owner)
	if err != nil {
		return nil, err
	}
	client.Email = identity.NormalizeEmail(in.Email)
	client.Phone = strings.TrimSpace(in.Phone)
	client.Notes = in.Notes
	client.SetCreatedBy(p.AccountID)
	clientID = client.ID

	if err = s.clients.Create(ctx, client); err != nil {
		s.logger.Error("failed to create client", zap.String("name", client.Name), zap.Error(err))
		return nil, err
	}
	s.logger.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("origin", string(client.Origin)),
		zap.String("owner_email", client.OwnerEmail),
	)
	r := ToClientResponse(client)
	return &r, nil
}

// UpdateClient replaces the client's contact details
func (s *Service) UpdateClient(ctx context.Context, p identity.Principal, id uuid.UUID, in UpdateClientInput) (resp *ClientResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "UpdateClient")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionClientUpdated, targetClient, id, err, nil)
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermClientsWrite); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	client, err := s.loadClient(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err = client.UpdateContact(in.Name, in.Email, in.Phone); err != nil {
		return nil, err
	}
	if in.Notes != nil {
		client.Notes = *in.Notes
	}
	if err = s.clients.Update(ctx, client); err != nil {
		return nil, err
	}
	r := ToClientResponse(client)
	return &r, nil
}

// AssignAgent adds an agent to the client. Only staff may hand clients to
// other agents.
func (s *Service) AssignAgent(ctx context.Context, p identity.Principal, id uuid.UUID, in AssignAgentInput) (resp *ClientResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "AssignAgent")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionClientAgent, targetClient, id, err, map[string]any{"agent_email": in.AgentEmail})
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermClientsWrite); err != nil {
		return nil, err
	}
	if !p.SeesAllClients() && identity.NormalizeEmail(in.AgentEmail) != identity.NormalizeEmail(p.Email) {
		return nil, shared.NewDomainError("FORBIDDEN", "Agents can only assign themselves")
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	client, err := s.loadClient(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err = client.AssignAgent(in.AgentEmail); err != nil {
		return nil, err
	}
	if err = s.clients.Update(ctx, client); err != nil {
		return nil, err
	}
	r := ToClientResponse(client)
	return &r, nil
}

// GetClient returns a client visible to the caller
func (s *Service) GetClient(ctx context.Context, p identity.Principal, id uuid.UUID) (*ClientResponse, error) {
	if err := authorize(p, identity.PermClientsRead); err != nil {
		return nil, err
	}
	client, err := s.loadClient(ctx, p, id)
	if err != nil {
		return nil, err
	}
	r := ToClientResponse(client)
	return &r, nil
}

// ListClients lists the clients visible to the caller
func (s *Service) ListClients(ctx context.Context, p identity.Principal, in ListClientsInput) (*shared.Paginated[ClientResponse], error) {
	if err := authorize(p, identity.PermClientsRead); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	filter := trip.ClientFilter{
		Filter: shared.Filter{
			Page: in.Page, PageSize: in.PageSize, Search: in.Search,
			OrderBy: in.OrderBy, OrderDir: in.OrderDir,
		}.Normalize(),
	}
	if in.Origin != "" {
		origin := trip.ClientOrigin(in.Origin)
		filter.Origin = &origin
	}
	if !p.SeesAllClients() {
		filter.AgentEmail = p.Email
	}

	clients, total, err := s.clients.FindAll(ctx, p.TenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ClientResponse, len(clients))
	for i, c := range clients {
		items[i] = ToClientResponse(c)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ============================================================================
// Trip files
// ============================================================================

// CreateTrip opens a draft trip file for a client
func (s *Service) CreateTrip(ctx context.Context, p identity.Principal, in CreateTripInput) (resp *TripResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "CreateTrip")
	var tripID uuid.UUID
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionTripCreated, targetTrip, tripID, err, map[string]any{
			"client_id": in.ClientID.String(),
			"title":     in.Title,
		})
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermTripsWrite); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err = s.loadClient(ctx, p, in.ClientID); err != nil {
		return nil, err
	}
	currency := valueobject.DefaultCurrency
	if in.Currency != "" {
		if currency, err = parseCurrency(in.Currency); err != nil {
			return nil, err
		}
	}

	f, err := trip.NewFile(p.TenantID, in.ClientID, in.Title, currency, in.IsRebooking)
	if err != nil {
		return nil, err
	}
	f.SetCreatedBy(p.AccountID)
	tripID = f.ID

	if err = s.files.Create(ctx, f); err != nil {
		s.logger.Error("failed to create trip", zap.String("client_id", in.ClientID.String()), zap.Error(err))
		return nil, err
	}
	s.publish(ctx, f)
	s.metrics.RecordTripCreated(ctx, p.TenantID.String())
	s.logger.Info("trip created",
		zap.String("trip_id", f.ID.String()),
		zap.String("client_id", f.ClientID.String()),
		zap.Bool("is_rebooking", f.IsRebooking),
	)
	r := ToTripResponse(f)
	return &r, nil
}

// UpdateTrip changes title, overrides and the rebooking flag
func (s *Service) UpdateTrip(ctx context.Context, p identity.Principal, id uuid.UUID, in UpdateTripInput) (resp *TripResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "UpdateTrip")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionTripUpdated, targetTrip, id, err, nil)
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermTripsWrite); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if err = f.Rename(*in.Title); err != nil {
			return nil, err
		}
	}
	switch {
	case in.ClearOverrides:
		err = f.SetOverrides(nil, nil)
	case in.MarginOverridePct != nil || in.CommissionOverridePct != nil:
		margin, commission := f.MarginOverridePct, f.CommissionOverridePct
		if in.MarginOverridePct != nil {
			margin = in.MarginOverridePct
		}
		if in.CommissionOverridePct != nil {
			commission = in.CommissionOverridePct
		}
		err = f.SetOverrides(margin, commission)
	}
	if err != nil {
		return nil, err
	}
	if in.IsRebooking != nil {
		f.SetRebooking(*in.IsRebooking)
	}

	return s.save(ctx, f)
}

// SetTripStatus moves the trip forward in the status sequence
func (s *Service) SetTripStatus(ctx context.Context, p identity.Principal, id uuid.UUID, in SetTripStatusInput) (resp *TripResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "SetTripStatus")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionTripStatus, targetTrip, id, err, map[string]any{"status": in.Status})
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermTripsWrite); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err = f.SetStatus(trip.Status(in.Status)); err != nil {
		return nil, err
	}
	return s.save(ctx, f)
}

// GetTrip returns a trip visible to the caller
func (s *Service) GetTrip(ctx context.Context, p identity.Principal, id uuid.UUID) (*TripResponse, error) {
	if err := authorize(p, identity.PermTripsRead); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, p, id)
	if err != nil {
		return nil, err
	}
	r := ToTripResponse(f)
	return &r, nil
}

// ListTrips lists the trips of the clients visible to the caller
func (s *Service) ListTrips(ctx context.Context, p identity.Principal, in ListTripsInput) (*shared.Paginated[TripResponse], error) {
	if err := authorize(p, identity.PermTripsRead); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	filter := trip.FileFilter{
		Filter: shared.Filter{
			Page: in.Page, PageSize: in.PageSize, Search: in.Search,
			OrderBy: in.OrderBy, OrderDir: in.OrderDir,
		}.Normalize(),
		ClientID: in.ClientID,
	}
	if in.Status != "" {
		status := trip.Status(in.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown trip status")
		}
		filter.Status = &status
	}
	if !p.SeesAllClients() {
		visible, err := trip.AllClients(ctx, s.clients, p.TenantID, trip.ClientFilter{AgentEmail: p.Email})
		if err != nil {
			return nil, err
		}
		filter.ClientIDs = trip.ClientIDs(visible)
	}

	files, total, err := s.files.FindAll(ctx, p.TenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]TripResponse, len(files))
	for i, f := range files {
		items[i] = ToTripResponse(f)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ============================================================================
// Components
// ============================================================================

// AddComponent prices and appends a component to the trip
func (s *Service) AddComponent(ctx context.Context, p identity.Principal, tripID uuid.UUID, in ComponentInput) (resp *TripResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "AddComponent")
	details := map[string]any{"kind": in.Kind}
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionComponentAdded, targetTrip, tripID, err, details)
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermTripsWrite); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, p, tripID)
	if err != nil {
		return nil, err
	}

	kind := pricing.ParseProductKind(in.Kind)
	priced, err := pricing.NewComponentPricing(f.Currency, in.Net, in.Sell, in.CommissionPct, kind)
	if err != nil {
		return nil, err
	}
	component, err := trip.NewComponent(f.ID, kind, in.Supplier, in.Description, priced)
	if err != nil {
		return nil, err
	}
	f.AddComponent(component)
	details["component_id"] = component.ID.String()

	return s.save(ctx, f)
}

// UpdateComponentPricing re-prices a component keeping its kind
func (s *Service) UpdateComponentPricing(ctx context.Context, p identity.Principal, tripID, componentID uuid.UUID, in UpdateComponentPricingInput) (resp *TripResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "UpdateComponentPricing")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionComponentUpdated, targetTrip, tripID, err, map[string]any{
			"component_id": componentID.String(),
		})
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermTripsWrite); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	component, ok := f.Component(componentID)
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", "Component not found")
	}
	priced, err := pricing.NewComponentPricing(f.Currency, in.Net, in.Sell, in.CommissionPct, component.Kind)
	if err != nil {
		return nil, err
	}
	if err = f.UpdateComponentPricing(componentID, priced); err != nil {
		return nil, err
	}
	return s.save(ctx, f)
}

// RemoveComponent deletes a component from the trip
func (s *Service) RemoveComponent(ctx context.Context, p identity.Principal, tripID, componentID uuid.UUID) (resp *TripResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "RemoveComponent")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionComponentRemoved, targetTrip, tripID, err, map[string]any{
			"component_id": componentID.String(),
		})
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermTripsWrite); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	if err = f.RemoveComponent(componentID); err != nil {
		return nil, err
	}
	return s.save(ctx, f)
}

// ============================================================================
// Payments
// ============================================================================

// AddPayment records a pending payment in the trip currency
func (s *Service) AddPayment(ctx context.Context, p identity.Principal, tripID uuid.UUID, in AddPaymentInput) (resp *TripResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "AddPayment")
	details := map[string]any{"amount": in.Amount.String(), "method": in.Method}
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionPaymentAdded, targetTrip, tripID, err, details)
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermPaymentsWrite); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, p, tripID)
	if err != nil {
		return nil, err
	}

	currency := f.Currency
	if in.Currency != "" {
		if currency, err = parseCurrency(in.Currency); err != nil {
			return nil, err
		}
	}
	amount, err := valueobject.NewMoney(in.Amount, currency)
	if err != nil {
		return nil, err
	}
	payment, err := trip.NewPayment(f.ID, amount, trip.ParsePaymentMethod(in.Method), strings.TrimSpace(in.Reference))
	if err != nil {
		return nil, err
	}
	if err = f.AddPayment(payment); err != nil {
		return nil, err
	}
	details["payment_id"] = payment.ID.String()

	return s.save(ctx, f)
}

// SetPaymentStatus transitions a payment. Reaching Paid publishes
// PaymentSettled after the trip is saved; ledger posting failures are
// logged by the event bus and never fail this call.
func (s *Service) SetPaymentStatus(ctx context.Context, p identity.Principal, tripID, paymentID uuid.UUID, in SetPaymentStatusInput) (resp *TripResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "SetPaymentStatus",
		telemetry.Attr("payment.id", paymentID.String()),
		telemetry.Attr("payment.status", in.Status),
	)
	details := map[string]any{"payment_id": paymentID.String(), "status": in.Status}
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionPaymentStatus, targetTrip, tripID, err, details)
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermPaymentsWrite); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	settled, err := f.SetPaymentStatus(paymentID, trip.PaymentStatus(in.Status))
	if err != nil {
		return nil, err
	}
	details["settled"] = settled

	resp, err = s.save(ctx, f)
	if err != nil {
		return nil, err
	}
	if settled {
		payment, _ := f.Payment(paymentID)
		s.metrics.RecordPaymentSettled(ctx, p.TenantID.String(), string(payment.Method),
			string(payment.Amount.Currency()), payment.Amount.Amount())
		s.logger.Info("payment settled",
			zap.String("trip_id", f.ID.String()),
			zap.String("payment_id", paymentID.String()),
			zap.String("amount", payment.Amount.String()),
		)
	}
	return resp, nil
}

// ============================================================================
// Pricing
// ============================================================================

// GetTripPricing aggregates the trip pricing. Pricing is nil for a trip
// without components.
func (s *Service) GetTripPricing(ctx context.Context, p identity.Principal, tripID uuid.UUID) (*pricing.Pricing, error) {
	if err := authorize(p, identity.PermTripsRead); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	return f.Pricing(), nil
}

// GetTripSplit computes the revenue split. agentPct is a fraction between
// 0 and 1; when nil the settlement policy for the trip's client applies.
func (s *Service) GetTripSplit(ctx context.Context, p identity.Principal, tripID uuid.UUID, agentPct *decimal.Decimal) (*SplitResponse, error) {
	if err := authorize(p, identity.PermTripsRead); err != nil {
		return nil, err
	}
	if agentPct != nil && (agentPct.IsNegative() || agentPct.GreaterThan(decimal.NewFromInt(1))) {
		return nil, shared.NewDomainError("INVALID_AGENT_PCT", "Agent percent must be a fraction between 0 and 1")
	}
	f, client, err := s.loadFileWithClient(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	pct := s.config.Policy.AgentPctFor(client)
	if agentPct != nil {
		pct = *agentPct
	}
	split := f.Split(pct)
	return &SplitResponse{
		TripID:   f.ID,
		Currency: string(f.Currency),
		Split:    split,
		Total:    split.TotalSell(),
	}, nil
}

// ============================================================================
// Helpers
// ============================================================================

func parseCurrency(raw string) (valueobject.Currency, error) {
	c, err := valueobject.ParseCurrency(raw)
	if err != nil {
		return "", shared.NewDomainErrorWithCause("INVALID_CURRENCY", "Currency must be a 3-letter ISO code", err)
	}
	return c, nil
}

func authorize(p identity.Principal, permission string) error {
	if !p.Can(permission) {
		return shared.NewDomainError("FORBIDDEN", "Missing permission "+permission)
	}
	return nil
}

// loadClient returns the client when the caller may see it. Clients hidden
// from an agent read as not found.
func (s *Service) loadClient(ctx context.Context, p identity.Principal, id uuid.UUID) (*trip.Client, error) {
	client, err := s.clients.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !p.SeesAllClients() && !client.VisibleTo(p.Email) {
		return nil, shared.NewDomainError("NOT_FOUND", "Client not found")
	}
	return client, nil
}

func (s *Service) loadFile(ctx context.Context, p identity.Principal, id uuid.UUID) (*trip.File, error) {
	f, _, err := s.loadFileWithClient(ctx, p, id)
	return f, err
}

func (s *Service) loadFileWithClient(ctx context.Context, p identity.Principal, id uuid.UUID) (*trip.File, *trip.Client, error) {
	f, err := s.files.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, nil, err
	}
	client, err := s.loadClient(ctx, p, f.ClientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewDomainError("NOT_FOUND", "Trip not found")
		}
		return nil, nil, err
	}
	return f, client, nil
}

// save persists the file and publishes its pending events
func (s *Service) save(ctx context.Context, f *trip.File) (*TripResponse, error) {
	if err := s.files.Save(ctx, f); err != nil {
		s.logger.Warn("failed to save trip", zap.String("trip_id", f.ID.String()), zap.Error(err))
		return nil, err
	}
	s.publish(ctx, f)
	r := ToTripResponse(f)
	return &r, nil
}

func (s *Service) publish(ctx context.Context, f *trip.File) {
	events := f.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	f.ClearDomainEvents()
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish trip events", zap.String("trip_id", f.ID.String()), zap.Error(err))
	}
}
