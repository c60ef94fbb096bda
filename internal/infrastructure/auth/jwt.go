package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/infrastructure/config"
)

// Issued-at carries milliseconds so an account revocation cutoff can tell
// tokens minted just before it from tokens minted just after.
func init() {
	jwt.TimePrecision = time.Millisecond
}

// TokenType represents the type of JWT token
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims carries the session snapshot the gate and handlers need without a
// database round trip.
type Claims struct {
	jwt.RegisteredClaims
	TenantID      string    `json:"tid"`
	AccountID     string    `json:"aid"`
	SessionID     string    `json:"sid"`
	Email         string    `json:"email,omitempty"`
	Roles         []string  `json:"roles,omitempty"`
	ActiveSpace   string    `json:"space,omitempty"`
	EffectiveRole string    `json:"erole,omitempty"`
	TokenType     TokenType `json:"typ"`
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenID         string    `json:"-"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// JWTService signs and validates HS256 tokens.
type JWTService struct {
	accessSecret      []byte
	refreshSecret     []byte
	accessExpiration  time.Duration
	refreshExpiration time.Duration
	issuer            string
}

// NewJWTService falls back to the access secret when no refresh secret is set.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		accessSecret:      []byte(cfg.Secret),
		refreshSecret:     []byte(refreshSecret),
		accessExpiration:  cfg.AccessTokenExpiration,
		refreshExpiration: cfg.RefreshTokenExpiration,
		issuer:            cfg.Issuer,
	}
}

// GenerateTokenPair issues tokens for account within session. The refresh
// token never outlives the session.
func (s *JWTService) GenerateTokenPair(account *identity.Account, session *identity.Session) (*TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(s.accessExpiration)
	refreshExp := now.Add(s.refreshExpiration)
	if session.ExpiresAt.Before(refreshExp) {
		refreshExp = session.ExpiresAt
	}
	if refreshExp.Before(accessExp) {
		accessExp = refreshExp
	}

	access := &Claims{
		RegisteredClaims: s.registered(account.ID, now, accessExp),
		TenantID:         account.TenantID.String(),
		AccountID:        account.ID.String(),
		SessionID:        session.ID.String(),
		Email:            account.Email,
		Roles:            identity.RoleStrings(account.Roles),
		ActiveSpace:      string(session.ActiveSpace),
		EffectiveRole:    session.EffectiveRoleString(),
		TokenType:        TokenTypeAccess,
	}
	accessToken, err := sign(access, s.accessSecret)
	if err != nil {
		return nil, err
	}

	refresh := &Claims{
		RegisteredClaims: s.registered(account.ID, now, refreshExp),
		TenantID:         account.TenantID.String(),
		AccountID:        account.ID.String(),
		SessionID:        session.ID.String(),
		TokenType:        TokenTypeRefresh,
	}
	refreshToken, err := sign(refresh, s.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenID:         access.ID,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             "Bearer",
	}, nil
}

func (s *JWTService) registered(subject uuid.UUID, now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   subject.String(),
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(exp),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func sign(claims *Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateAccessToken validates an access token and returns its claims
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.validate(token, s.accessSecret, TokenTypeAccess)
}

// ValidateRefreshToken validates a refresh token and returns its claims
func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.validate(token, s.refreshSecret, TokenTypeRefresh)
}

func (s *JWTService) validate(raw string, secret []byte, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != want {
		return nil, ErrInvalidTokenType
	}
	if _, err := uuid.Parse(claims.TenantID); err != nil {
		return nil, ErrInvalidClaims
	}
	if _, err := uuid.Parse(claims.AccountID); err != nil {
		return nil, ErrInvalidClaims
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// AccessTokenExpiration returns the configured access token lifetime.
func (s *JWTService) AccessTokenExpiration() time.Duration {
	return s.accessExpiration
}

// The ids below were checked in validate, so parse errors cannot occur.

func (c *Claims) TenantUUID() uuid.UUID  { return uuid.MustParse(c.TenantID) }
func (c *Claims) AccountUUID() uuid.UUID { return uuid.MustParse(c.AccountID) }
func (c *Claims) SessionUUID() uuid.UUID { return uuid.MustParse(c.SessionID) }

// PermissionOptions feeds the claims into the RBAC check.
func (c *Claims) PermissionOptions() identity.PermissionOptions {
	return identity.PermissionOptions{Roles: c.Roles, Override: c.EffectiveRole}
}

// Principal converts access token claims into the caller of an operation.
// Unknown role names are dropped.
func (c *Claims) Principal() identity.Principal {
	p := identity.Principal{
		TenantID:       c.TenantUUID(),
		AccountID:      c.AccountUUID(),
		SessionID:      c.SessionUUID(),
		Email:          c.Email,
		Roles:          identity.NormalizeRoles(c.Roles),
		TokenID:        c.ID,
		TokenExpiresAt: c.ExpiresAtTime(),
	}
	if r, ok := identity.NormalizeRole(c.EffectiveRole); ok {
		p.EffectiveRole = &r
	}
	if space, ok := identity.ParseSpace(c.ActiveSpace); ok {
		p.ActiveSpace = space
	}
	return p
}

// ExpiresAtTime returns the token expiry, or the zero time.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// RemainingTTL is how long the token stays valid, never negative.
func (c *Claims) RemainingTTL() time.Duration {
	if d := time.Until(c.ExpiresAtTime()); d > 0 {
		return d
	}
	return 0
}
