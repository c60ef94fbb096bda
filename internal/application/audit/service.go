package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeniva/backend/internal/domain/audit"
	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/infrastructure/telemetry"
)

// Recorder appends audit entries for mutating operations. Recording never
// fails the audited operation: write errors are logged and dropped.
type Recorder struct {
	repo    audit.Repository
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger
}

// NewRecorder creates a recorder. metrics may be nil.
func NewRecorder(repo audit.Repository, metrics *telemetry.BusinessMetrics, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, metrics: metrics, logger: logger}
}

// Record appends entry
func (r *Recorder) Record(ctx context.Context, entry audit.Entry) {
	if err := r.repo.Append(ctx, &entry); err != nil {
		r.logger.Error("failed to append audit entry",
			zap.String("action", entry.Action),
			zap.String("target_type", entry.TargetType),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
		return
	}
	r.metrics.RecordAudit(ctx, string(entry.Outcome))
}

// Mutation records the outcome of a mutation by principal. The outcome is
// derived from err, so a lookup miss is recorded as ignored.
func (r *Recorder) Mutation(ctx context.Context, p identity.Principal, action, targetType string, targetID uuid.UUID, err error, details map[string]any) {
	id := ""
	if targetID != uuid.Nil {
		id = targetID.String()
	}
	if err != nil {
		if details == nil {
			details = map[string]any{}
		}
		details["error"] = err.Error()
	}
	r.Record(ctx, audit.NewEntry(ActorOf(p), action, targetType, id, audit.OutcomeFor(err), details))
}

// ActorOf converts the caller into an audit actor
func ActorOf(p identity.Principal) audit.Actor {
	return audit.Actor{TenantID: p.TenantID, ID: p.AccountID, Email: p.Email}
}

// Service reads the audit trail
type Service struct {
	repo audit.Repository
}

// NewService creates a new audit query service
func NewService(repo audit.Repository) *Service {
	return &Service{repo: repo}
}

// ListInput filters the audit listing
type ListInput struct {
	Page       int
	PageSize   int
	ActorID    *uuid.UUID
	Action     string
	TargetType string
	TargetID   string
}

// List returns audit entries of the caller's tenant, newest first
func (s *Service) List(ctx context.Context, p identity.Principal, in ListInput) (*shared.Paginated[audit.Entry], error) {
	if !p.Can(identity.PermAuditRead) {
		return nil, shared.ErrForbidden
	}
	filter := audit.Filter{
		Filter:     shared.Filter{Page: in.Page, PageSize: in.PageSize, OrderBy: "created_at", OrderDir: "desc"},
		ActorID:    in.ActorID,
		Action:     in.Action,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
	}
	filter.Filter = filter.Filter.Normalize()

	entries, total, err := s.repo.FindAll(ctx, p.TenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &page, nil
}
