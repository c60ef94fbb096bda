package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditapp "github.com/zeniva/backend/internal/application/audit"
	"github.com/zeniva/backend/internal/domain/audit"
	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/infrastructure/auth"
	"github.com/zeniva/backend/internal/infrastructure/telemetry"
	"github.com/zeniva/backend/internal/infrastructure/validation"
)

const (
	spanService   = "AuthService"
	targetAccount = "account"
	targetSession = "session"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	// TenantID scopes signups and logins of a single-tenant deployment
	TenantID         uuid.UUID
	MaxLoginAttempts int           // Failed logins before the account is locked
	LockDuration     time.Duration // How long the lock lasts
	SessionTTL       time.Duration
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
		SessionTTL:       7 * 24 * time.Hour,
	}
}

// AuthService handles signup, login, sessions and account administration
type AuthService struct {
	accounts   identity.AccountRepository
	sessions   identity.SessionRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	publisher  shared.EventPublisher
	audit      *auditapp.Recorder
	metrics    *telemetry.BusinessMetrics
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service. metrics may be nil.
func NewAuthService(
	accounts identity.AccountRepository,
	sessions identity.SessionRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	publisher shared.EventPublisher,
	recorder *auditapp.Recorder,
	metrics *telemetry.BusinessMetrics,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accounts:   accounts,
		sessions:   sessions,
		jwtService: jwtService,
		blacklist:  blacklist,
		publisher:  publisher,
		audit:      recorder,
		metrics:    metrics,
		config:     config,
		logger:     logger,
	}
}

// Signup registers an account. Travelers and partners are active at once;
// agent requests stay pending until HQ approves them.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (resp *AccountResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "Signup")
	actor := audit.Actor{TenantID: s.config.TenantID, Email: identity.NormalizeEmail(in.Email)}
	var accountID uuid.UUID
	defer func() {
		actor.ID = accountID
		details := map[string]any{"space": in.Space}
		if err != nil {
			details["error"] = err.Error()
		}
		s.audit.Record(ctx, audit.NewEntry(actor, audit.ActionSignup, targetAccount, idString(accountID), audit.OutcomeFor(err), details))
		telemetry.End(span, err)
	}()

	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	space, _ := identity.ParseSpace(in.Space)

	exists, err := s.accounts.ExistsByEmail(ctx, s.config.TenantID, in.Email)
	if err != nil {
		s.logger.Error("failed to check email availability", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}

	account, err := identity.NewAccount(s.config.TenantID, in.Email, in.Name, in.Password, []string{string(signupRole(space))})
	if err != nil {
		return nil, err
	}
	switch space {
	case identity.SpaceAgent:
		account.MarkPending()
		divisions := in.Divisions
		if len(divisions) == 0 {
			divisions = []string{identity.DivisionTravel}
		}
		account.SetDivisions(divisions)
	case identity.SpacePartner:
		if err = account.SetPartnerCompany(identity.PartnerCompany{
			Name:    in.Company.Name,
			Website: in.Company.Website,
			Phone:   in.Company.Phone,
		}); err != nil {
			return nil, err
		}
	default:
		profile := identity.TravelerProfile{}
		if in.Traveler != nil {
			profile = identity.TravelerProfile(*in.Traveler)
		}
		account.SetTravelerProfile(profile)
	}
	accountID = account.ID

	if err = s.accounts.Create(ctx, account); err != nil {
		s.logger.Error("failed to create account", zap.String("email", account.Email), zap.Error(err))
		return nil, err
	}
	s.publish(ctx, account)

	s.logger.Info("account signed up",
		zap.String("account_id", account.ID.String()),
		zap.String("space", string(space)),
		zap.String("status", string(account.Status)),
	)
	r := ToAccountResponse(account)
	return &r, nil
}

func signupRole(space identity.Space) identity.Role {
	switch space {
	case identity.SpaceAgent:
		return identity.RoleTravelAgent
	case identity.SpacePartner:
		return identity.RolePartnerOwner
	}
	return identity.RoleTraveler
}

// Login authenticates an account and opens a session in the requested space
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "Login")
	result, err := s.login(ctx, in)
	telemetry.End(span, err)
	return result, err
}

func (s *AuthService) login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	email := identity.NormalizeEmail(in.Email)
	s.logger.Info("Login attempt", zap.String("email", email), zap.String("ip", in.IP))

	account, err := s.accounts.FindByEmail(ctx, s.config.TenantID, email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("failed to load account for login", zap.Error(err))
			return nil, err
		}
		s.loginFailed(ctx, in, uuid.Nil, "unknown_email")
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	if err := account.CanLogin(); err != nil {
		s.logger.Warn("Login refused", zap.String("email", email), zap.Error(err))
		s.loginFailed(ctx, in, account.ID, string(account.Status))
		return nil, err
	}

	if !account.VerifyPassword(in.Password) {
		locked := account.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.accounts.Update(ctx, account); err != nil {
			s.logger.Error("Failed to update account after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("email", email),
				zap.Int("attempts", account.FailedAttempts))
			s.loginFailed(ctx, in, account.ID, "locked")
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		s.loginFailed(ctx, in, account.ID, "bad_password")
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	space := identity.DefaultSpace(account.Roles)
	if in.Space != "" {
		space, _ = identity.ParseSpace(in.Space)
		if !space.AllowsAny(account.Roles) {
			s.loginFailed(ctx, in, account.ID, "space_denied")
			return nil, shared.NewDomainError("FORBIDDEN", "Account cannot access this space")
		}
	}

	account.RecordLoginSuccess()
	if err := s.accounts.Update(ctx, account); err != nil {
		// the login itself still succeeds
		s.logger.Error("Failed to update account after successful login", zap.Error(err))
	}

	session := identity.NewSession(account, space, s.config.SessionTTL)
	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("Failed to create session", zap.Error(err))
		return nil, shared.NewDomainErrorWithCause("INTERNAL_ERROR", "Failed to create session", err)
	}

	result, err := s.issue(account, session)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(ctx, string(space), "success")
	s.audit.Mutation(ctx, principalOf(account, session), audit.ActionLogin, targetSession, session.ID, nil,
		map[string]any{"space": string(space), "ip": in.IP})
	s.logger.Info("Account logged in",
		zap.String("account_id", account.ID.String()),
		zap.String("session_id", session.ID.String()),
		zap.String("space", string(space)))
	return result, nil
}

func (s *AuthService) loginFailed(ctx context.Context, in LoginInput, accountID uuid.UUID, reason string) {
	outcome := "failed"
	if reason == "locked" {
		outcome = "locked"
	}
	s.metrics.RecordLogin(ctx, in.Space, outcome)
	actor := audit.Actor{TenantID: s.config.TenantID, Email: identity.NormalizeEmail(in.Email)}
	s.audit.Record(ctx, audit.NewEntry(actor, audit.ActionLoginFailed, targetAccount, idString(accountID), audit.OutcomeDenied,
		map[string]any{"reason": reason, "ip": in.IP}))
}

// Refresh rotates the token pair of a live session. The presented refresh
// token cannot be used again.
func (s *AuthService) Refresh(ctx context.Context, in RefreshInput) (result *AuthResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "Refresh")
	defer func() { telemetry.End(span, err) }()

	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	claims, err := s.jwtService.ValidateRefreshToken(in.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has already been used")
	}

	session, err := s.sessions.FindByID(ctx, claims.SessionUUID())
	if err != nil || !session.IsActive() {
		return nil, shared.NewDomainError("SESSION_EXPIRED", "Session has ended. Please log in again")
	}
	account, err := s.accounts.FindByID(ctx, session.TenantID, session.AccountID)
	if err != nil {
		return nil, shared.NewDomainError("SESSION_EXPIRED", "Session has ended. Please log in again")
	}
	if err = account.CanLogin(); err != nil {
		return nil, err
	}

	// roles may have changed since the session was opened
	if session.EffectiveRole != nil && !account.IsStaff() {
		session.ClearEffectiveRole()
	}
	if !session.ActiveSpace.AllowsAny(actingRoles(account, session)) {
		session.ActiveSpace = identity.DefaultSpace(actingRoles(account, session))
	}
	if err = s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	if err = s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke used refresh token", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Token refreshed", zap.String("account_id", account.ID.String()))
	return s.issue(account, session)
}

// Logout ends the caller's session and revokes the access token in use
func (s *AuthService) Logout(ctx context.Context, p identity.Principal) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "Logout")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionLogout, targetSession, p.SessionID, err, nil)
		telemetry.End(span, err)
	}()

	session, err := s.sessions.FindByID(ctx, p.SessionID)
	if err != nil {
		return err
	}
	session.Revoke()
	if err = s.sessions.Update(ctx, session); err != nil {
		return err
	}
	s.revokeToken(ctx, p)
	s.logger.Info("Account logged out",
		zap.String("account_id", p.AccountID.String()),
		zap.String("session_id", p.SessionID.String()))
	return nil
}

// SetEffectiveRole lets a staff member act as another role for the rest of
// the session. Tokens are reissued with the override.
func (s *AuthService) SetEffectiveRole(ctx context.Context, p identity.Principal, in EffectiveRoleInput) (result *AuthResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "SetEffectiveRole")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionEffectiveRoleSet, targetSession, p.SessionID, err, map[string]any{"role": in.Role})
		telemetry.End(span, err)
	}()

	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	account, session, err := s.loadSession(ctx, p)
	if err != nil {
		return nil, err
	}
	if err = session.SetEffectiveRole(account, in.Role); err != nil {
		return nil, err
	}
	if acting := actingRoles(account, session); !session.ActiveSpace.AllowsAny(acting) {
		session.ActiveSpace = identity.DefaultSpace(acting)
	}
	return s.reissue(ctx, p, account, session)
}

// ClearEffectiveRole drops the override and returns to the stored roles
func (s *AuthService) ClearEffectiveRole(ctx context.Context, p identity.Principal) (result *AuthResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "ClearEffectiveRole")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionEffectiveRoleClear, targetSession, p.SessionID, err, nil)
		telemetry.End(span, err)
	}()

	account, session, err := s.loadSession(ctx, p)
	if err != nil {
		return nil, err
	}
	session.ClearEffectiveRole()
	if !session.ActiveSpace.AllowsAny(account.Roles) {
		session.ActiveSpace = identity.DefaultSpace(account.Roles)
	}
	return s.reissue(ctx, p, account, session)
}

// SwitchSpace moves the session to another space the account may enter
func (s *AuthService) SwitchSpace(ctx context.Context, p identity.Principal, in SwitchSpaceInput) (result *AuthResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "SwitchSpace")
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionSpaceSwitched, targetSession, p.SessionID, err, map[string]any{"space": in.Space})
		telemetry.End(span, err)
	}()

	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	account, session, err := s.loadSession(ctx, p)
	if err != nil {
		return nil, err
	}
	space, _ := identity.ParseSpace(in.Space)
	if err = session.SwitchSpace(account, space); err != nil {
		return nil, err
	}
	return s.reissue(ctx, p, account, session)
}

// GetCurrentAccount returns the caller's account and session view
func (s *AuthService) GetCurrentAccount(ctx context.Context, p identity.Principal) (*CurrentAccountResult, error) {
	account, err := s.accounts.FindByID(ctx, p.TenantID, p.AccountID)
	if err != nil {
		return nil, err
	}
	result := &CurrentAccountResult{
		Account:     ToAccountResponse(account),
		ActiveSpace: string(p.ActiveSpace),
		Permissions: permissionsOf(account.Roles, p.EffectiveRole),
	}
	if p.EffectiveRole != nil {
		result.EffectiveRole = string(*p.EffectiveRole)
	}
	return result, nil
}

// loadSession loads the caller's live session and its account
func (s *AuthService) loadSession(ctx context.Context, p identity.Principal) (*identity.Account, *identity.Session, error) {
	session, err := s.sessions.FindByID(ctx, p.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.AccountID != p.AccountID || !session.IsActive() {
		return nil, nil, shared.NewDomainError("SESSION_EXPIRED", "Session has ended. Please log in again")
	}
	account, err := s.accounts.FindByID(ctx, p.TenantID, p.AccountID)
	if err != nil {
		return nil, nil, err
	}
	return account, session, nil
}

// reissue saves the session and replaces the caller's access token
func (s *AuthService) reissue(ctx context.Context, p identity.Principal, account *identity.Account, session *identity.Session) (*AuthResult, error) {
	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.Error("Failed to update session", zap.String("session_id", session.ID.String()), zap.Error(err))
		return nil, err
	}
	result, err := s.issue(account, session)
	if err != nil {
		return nil, err
	}
	s.revokeToken(ctx, p)
	return result, nil
}

func (s *AuthService) issue(account *identity.Account, session *identity.Session) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(account, session)
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainErrorWithCause("INTERNAL_ERROR", "Failed to generate authentication tokens", err)
	}
	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		Account:               ToAccountResponse(account),
		Session:               toSessionInfo(session),
		Permissions:           permissionsOf(account.Roles, session.EffectiveRole),
	}, nil
}

func (s *AuthService) revokeToken(ctx context.Context, p identity.Principal) {
	if p.TokenID == "" {
		return
	}
	ttl := time.Until(p.TokenExpiresAt)
	if ttl <= 0 {
		return
	}
	if err := s.blacklist.Revoke(ctx, p.TokenID, ttl); err != nil {
		s.logger.Error("Failed to blacklist access token", zap.String("jti", p.TokenID), zap.Error(err))
	}
}

func (s *AuthService) publish(ctx context.Context, a *identity.Account) {
	events := a.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	a.ClearDomainEvents()
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish account events", zap.String("account_id", a.ID.String()), zap.Error(err))
	}
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrInvalidTokenType):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
	return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
}

func principalOf(a *identity.Account, session *identity.Session) identity.Principal {
	return identity.Principal{
		TenantID:      a.TenantID,
		AccountID:     a.ID,
		SessionID:     session.ID,
		Email:         a.Email,
		Roles:         a.Roles,
		EffectiveRole: session.EffectiveRole,
		ActiveSpace:   session.ActiveSpace,
	}
}

func actingRoles(a *identity.Account, session *identity.Session) []identity.Role {
	if session.EffectiveRole != nil {
		return []identity.Role{*session.EffectiveRole}
	}
	return a.Roles
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
