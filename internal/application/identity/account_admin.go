package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeniva/backend/internal/domain/audit"
	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/infrastructure/telemetry"
	"github.com/zeniva/backend/internal/infrastructure/validation"
)

// ListAccounts lists the accounts of the caller's tenant
func (s *AuthService) ListAccounts(ctx context.Context, p identity.Principal, in ListAccountsInput) (*shared.Paginated[AccountResponse], error) {
	if err := authorizeAdmin(p); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	filter := identity.AccountFilter{
		Filter: shared.Filter{
			Page:     in.Page,
			PageSize: in.PageSize,
			Search:   in.Search,
			OrderBy:  in.OrderBy,
			OrderDir: in.OrderDir,
		},
	}
	if in.Status != "" {
		status := identity.AccountStatus(in.Status)
		filter.Status = &status
	}
	if in.Role != "" {
		role, ok := identity.NormalizeRole(in.Role)
		if !ok {
			return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
		}
		filter.Role = &role
	}
	filter.Filter = filter.Filter.Normalize()

	accounts, total, err := s.accounts.FindAll(ctx, p.TenantID, filter)
	if err != nil {
		s.logger.Error("failed to list accounts", zap.Error(err))
		return nil, err
	}
	items := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		items[i] = ToAccountResponse(a)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ApproveAccount activates a pending or suspended account
func (s *AuthService) ApproveAccount(ctx context.Context, p identity.Principal, id uuid.UUID) (resp *AccountResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "ApproveAccount")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionAccountApproved, targetAccount, id, err, nil)
		telemetry.End(span, err)
	}()

	if err = authorizeAdmin(p); err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err = account.Approve(); err != nil {
		return nil, err
	}
	if err = s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	s.publish(ctx, account)
	s.logger.Info("account approved", zap.String("account_id", id.String()), zap.String("by", p.Email))
	r := ToAccountResponse(account)
	return &r, nil
}

// SuspendAccount disables an account and ends all its sessions
func (s *AuthService) SuspendAccount(ctx context.Context, p identity.Principal, id uuid.UUID) (resp *AccountResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "SuspendAccount")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionAccountSuspended, targetAccount, id, err, nil)
		telemetry.End(span, err)
	}()

	if err = authorizeAdmin(p); err != nil {
		return nil, err
	}
	if id == p.AccountID {
		return nil, shared.NewDomainError("INVALID_STATE", "You cannot suspend your own account")
	}
	account, err := s.accounts.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err = account.Suspend(); err != nil {
		return nil, err
	}
	if err = s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	s.signOutEverywhere(ctx, id)
	s.publish(ctx, account)
	s.logger.Info("account suspended", zap.String("account_id", id.String()), zap.String("by", p.Email))
	r := ToAccountResponse(account)
	return &r, nil
}

// DeleteAccount hard-deletes an account. It is the only hard delete.
func (s *AuthService) DeleteAccount(ctx context.Context, p identity.Principal, id uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "DeleteAccount")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionAccountDeleted, targetAccount, id, err, nil)
		telemetry.End(span, err)
	}()

	if err = authorizeAdmin(p); err != nil {
		return err
	}
	if id == p.AccountID {
		return shared.NewDomainError("INVALID_STATE", "You cannot delete your own account")
	}
	if err = s.accounts.Delete(ctx, p.TenantID, id); err != nil {
		return err
	}
	s.signOutEverywhere(ctx, id)
	s.logger.Info("account deleted", zap.String("account_id", id.String()), zap.String("by", p.Email))
	return nil
}

// UpdateRoles replaces the roles of an account. Access tokens issued with the
// old roles stop working; sessions pick up the new roles on refresh.
func (s *AuthService) UpdateRoles(ctx context.Context, p identity.Principal, id uuid.UUID, in UpdateRolesInput) (resp *AccountResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "UpdateRoles")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionAccountRoles, targetAccount, id, err, map[string]any{"roles": in.Roles})
		telemetry.End(span, err)
	}()

	if err = authorizeAdmin(p); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err = account.SetRoles(in.Roles); err != nil {
		return nil, err
	}
	if in.Divisions != nil {
		account.SetDivisions(*in.Divisions)
	}
	if err = s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	if err = s.blacklist.RevokeAccount(ctx, id.String(), s.jwtService.AccessTokenExpiration()); err != nil {
		s.logger.Error("failed to revoke tokens after role change", zap.String("account_id", id.String()), zap.Error(err))
	}
	s.publish(ctx, account)
	r := ToAccountResponse(account)
	return &r, nil
}

func (s *AuthService) signOutEverywhere(ctx context.Context, accountID uuid.UUID) {
	if err := s.sessions.RevokeAllForAccount(ctx, accountID); err != nil {
		s.logger.Error("failed to revoke sessions", zap.String("account_id", accountID.String()), zap.Error(err))
	}
	if err := s.blacklist.RevokeAccount(ctx, accountID.String(), s.jwtService.AccessTokenExpiration()); err != nil {
		s.logger.Error("failed to revoke account tokens", zap.String("account_id", accountID.String()), zap.Error(err))
	}
}

func authorizeAdmin(p identity.Principal) error {
	if !p.Can(identity.PermAccountsManage) {
		return shared.NewDomainError("FORBIDDEN", "Missing permission "+identity.PermAccountsManage)
	}
	return nil
}
