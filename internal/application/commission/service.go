package commission

import (
	"context"

	"go.uber.org/zap"

	"github.com/zeniva/backend/internal/domain/commission"
	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/trip"
	"github.com/zeniva/backend/internal/infrastructure/telemetry"
)

// Service computes agent commissions from trips on record
type Service struct {
	clients trip.ClientRepository
	files   trip.FileRepository
	logger  *zap.Logger
}

// NewService creates a new commission service
func NewService(clients trip.ClientRepository, files trip.FileRepository, logger *zap.Logger) *Service {
	return &Service{clients: clients, files: files, logger: logger}
}

// ListInput narrows the commission report
type ListInput struct {
	// AgentEmail is honored for staff; agents always get their own lines
	AgentEmail string `form:"agent_email"`
}

// Report is the commission lines with per-agent totals
type Report struct {
	AgentEmail string                    `json:"agent_email,omitempty"`
	Lines      []commission.Line         `json:"lines"`
	Summary    []commission.AgentSummary `json:"summary"`
}

// ListLines computes the commission lines visible to the caller
func (s *Service) ListLines(ctx context.Context, p identity.Principal, in ListInput) (report *Report, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "CommissionService", "ListLines")
	defer func() { telemetry.End(span, err) }()

	if !p.Can(identity.PermCommissionsRead) {
		return nil, shared.NewDomainError("FORBIDDEN", "Missing permission "+identity.PermCommissionsRead)
	}

	agentEmail := identity.NormalizeEmail(in.AgentEmail)
	if !p.SeesAllClients() {
		agentEmail = identity.NormalizeEmail(p.Email)
	}

	origin := trip.OriginAgent
	clients, err := trip.AllClients(ctx, s.clients, p.TenantID, trip.ClientFilter{
		Origin:     &origin,
		AgentEmail: agentEmail,
	})
	if err != nil {
		s.logger.Error("failed to load agent clients", zap.Error(err))
		return nil, err
	}
	files, err := s.files.FindByClientIDs(ctx, p.TenantID, trip.ClientIDs(clients))
	if err != nil {
		s.logger.Error("failed to load trips for commissions", zap.Error(err))
		return nil, err
	}

	lines := commission.Lines(files, clients, commission.Filter{AgentEmail: agentEmail})
	s.logger.Debug("commission lines computed",
		zap.String("agent_email", agentEmail),
		zap.Int("clients", len(clients)),
		zap.Int("trips", len(files)),
		zap.Int("lines", len(lines)),
	)
	return &Report{
		AgentEmail: agentEmail,
		Lines:      lines,
		Summary:    commission.Summarize(lines),
	}, nil
}
