package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/ledger"
	"github.com/zeniva/backend/internal/domain/shared"
)

// Service reads the ledger
type Service struct {
	repo ledger.Repository
}

// NewService creates a new ledger query service
func NewService(repo ledger.Repository) *Service {
	return &Service{repo: repo}
}

// ListInput filters ledger listings and totals
type ListInput struct {
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
	TripID    *uuid.UUID `form:"-"`
	PaymentID *uuid.UUID `form:"-"`
	Account   string     `form:"account"`
	Type      string     `form:"type"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// List returns ledger entries, newest first
func (s *Service) List(ctx context.Context, p identity.Principal, in ListInput) (*shared.Paginated[ledger.Entry], error) {
	filter, err := s.filter(p, in)
	if err != nil {
		return nil, err
	}
	entries, total, err := s.repo.FindAll(ctx, p.TenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Totals sums entries per account, type and currency
func (s *Service) Totals(ctx context.Context, p identity.Principal, in ListInput) ([]ledger.Total, error) {
	filter, err := s.filter(p, in)
	if err != nil {
		return nil, err
	}
	return s.repo.Totals(ctx, p.TenantID, filter)
}

func (s *Service) filter(p identity.Principal, in ListInput) (ledger.Filter, error) {
	if !p.Can(identity.PermLedgerRead) {
		return ledger.Filter{}, shared.NewDomainError("FORBIDDEN", "Missing permission "+identity.PermLedgerRead)
	}
	filter := ledger.Filter{
		Filter:    shared.Filter{Page: in.Page, PageSize: in.PageSize, OrderBy: "created_at", OrderDir: "desc"}.Normalize(),
		TripID:    in.TripID,
		PaymentID: in.PaymentID,
		From:      in.From,
		To:        in.To,
	}
	if in.Account != "" {
		account := ledger.Account(in.Account)
		if account != ledger.AccountTravel && account != ledger.AccountYacht {
			return ledger.Filter{}, shared.NewDomainError("INVALID_ACCOUNT", "Account must be TRAVEL or YACHT")
		}
		filter.Account = &account
	}
	if in.Type != "" {
		typ := ledger.EntryType(in.Type)
		switch typ {
		case ledger.TypeSplit, ledger.TypeCommission, ledger.TypeFee:
		default:
			return ledger.Filter{}, shared.NewDomainError("INVALID_ENTRY_TYPE", "Type must be split, commission or fee")
		}
		filter.Type = &typ
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return ledger.Filter{}, shared.NewDomainError("INVALID_RANGE", "to must not be before from")
	}
	return filter, nil
}
