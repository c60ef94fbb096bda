package identity

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeniva/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
)

// AccountStatus represents the status of an account
type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "pending"   // Awaiting HQ approval (agent requests)
	AccountStatusActive    AccountStatus = "active"    // Normal active status
	AccountStatusSuspended AccountStatus = "suspended" // Disabled by an administrator
)

// Known divisions an account can work for
const (
	DivisionTravel = "travel"
	DivisionYachts = "yachts"
	DivisionGroups = "groups"
)

const bcryptCost = 12

// PartnerCompany is the supplier company owned by a partner account
type PartnerCompany struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// TravelerProfile holds traveler-facing preferences
type TravelerProfile struct {
	Phone       string   `json:"phone,omitempty"`
	Nationality string   `json:"nationality,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
}

// Account is an identity that can log in to one or more spaces.
// It is the aggregate root for authentication and role assignment.
type Account struct {
	shared.TenantAggregateRoot
	Email           string
	Name            string
	PasswordHash    string
	Roles           []Role
	Divisions       []string
	Status          AccountStatus
	PartnerCompany  *PartnerCompany
	TravelerProfile *TravelerProfile
	LastLoginAt     *time.Time
	FailedAttempts  int
	LockedUntil     *time.Time
}

// NewAccount creates a new account. Roles are normalized and de-duplicated;
// at least one must be known.
func NewAccount(tenantID uuid.UUID, email, name, password string, roles []string) (*Account, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name is required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	normalized := NormalizeRoles(roles)
	if len(normalized) == 0 {
		return nil, shared.NewDomainError("INVALID_ROLE", "At least one valid role is required")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainErrorWithCause("PASSWORD_HASH_ERROR", "Failed to hash password", err)
	}

	account := &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               email,
		Name:                name,
		PasswordHash:        hash,
		Roles:               normalized,
		Divisions:           make([]string, 0),
		Status:              AccountStatusActive,
	}
	account.AddDomainEvent(NewAccountCreatedEvent(account))
	return account, nil
}

// NormalizeEmail trims and case-folds an email address
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// HasRole reports whether the account holds the role
func (a *Account) HasRole(r Role) bool {
	return slices.Contains(a.Roles, r)
}

// IsStaff reports whether the account holds hq or admin
func (a *Account) IsStaff() bool {
	return a.HasRole(RoleHQ) || a.HasRole(RoleAdmin)
}

// SetRoles replaces the account roles
func (a *Account) SetRoles(raw []string) error {
	normalized := NormalizeRoles(raw)
	if len(normalized) == 0 {
		return shared.NewDomainError("INVALID_ROLE", "At least one valid role is required")
	}
	old := a.Roles
	a.Roles = normalized
	a.Touch()
	a.IncrementVersion()
	a.AddDomainEvent(NewAccountRolesChangedEvent(a, old))
	return nil
}

// SetDivisions replaces the divisions, dropping blanks and duplicates
func (a *Account) SetDivisions(divisions []string) {
	out := make([]string, 0, len(divisions))
	for _, d := range divisions {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	a.Divisions = out
	a.Touch()
	a.IncrementVersion()
}

// SetPartnerCompany attaches the partner company
func (a *Account) SetPartnerCompany(company PartnerCompany) error {
	if strings.TrimSpace(company.Name) == "" {
		return shared.NewDomainError("INVALID_COMPANY", "Company name is required")
	}
	a.PartnerCompany = &company
	a.Touch()
	a.IncrementVersion()
	return nil
}

// SetTravelerProfile attaches the traveler profile
func (a *Account) SetTravelerProfile(profile TravelerProfile) {
	a.TravelerProfile = &profile
	a.Touch()
	a.IncrementVersion()
}

// MarkPending puts the account on hold until an administrator approves it
func (a *Account) MarkPending() {
	a.Status = AccountStatusPending
	a.Touch()
	a.IncrementVersion()
}

// Approve activates a pending or suspended account
func (a *Account) Approve() error {
	if a.Status == AccountStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Account is already active")
	}
	old := a.Status
	a.Status = AccountStatusActive
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.Touch()
	a.IncrementVersion()
	a.AddDomainEvent(NewAccountStatusChangedEvent(a, old))
	return nil
}

// Suspend disables the account
func (a *Account) Suspend() error {
	if a.Status == AccountStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Account is already suspended")
	}
	old := a.Status
	a.Status = AccountStatusSuspended
	a.Touch()
	a.IncrementVersion()
	a.AddDomainEvent(NewAccountStatusChangedEvent(a, old))
	return nil
}

// VerifyPassword verifies if the provided password matches
func (a *Account) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the password hash
func (a *Account) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainErrorWithCause("PASSWORD_HASH_ERROR", "Failed to hash password", err)
	}
	a.PasswordHash = hash
	a.Touch()
	a.IncrementVersion()
	return nil
}

// IsLocked reports whether a lock from failed logins is still in effect
func (a *Account) IsLocked() bool {
	return a.LockedUntil != nil && time.Now().Before(*a.LockedUntil)
}

// CanLogin returns nil when the account may log in, or the reason it may not
func (a *Account) CanLogin() error {
	switch a.Status {
	case AccountStatusPending:
		return shared.NewDomainError("ACCOUNT_PENDING", "Account is awaiting approval")
	case AccountStatusSuspended:
		return shared.NewDomainError("ACCOUNT_SUSPENDED", "Account has been suspended")
	}
	if a.IsLocked() {
		return shared.NewDomainError("ACCOUNT_LOCKED", "Account is temporarily locked")
	}
	return nil
}

// RecordLoginSuccess resets the failure counter
func (a *Account) RecordLoginSuccess() {
	now := time.Now()
	a.LastLoginAt = &now
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.Touch()
	a.IncrementVersion()
}

// RecordLoginFailure counts a failed login and locks the account once
// maxAttempts is reached. Returns true when the account got locked.
func (a *Account) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	a.FailedAttempts++
	a.Touch()
	a.IncrementVersion()
	if a.FailedAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		a.LockedUntil = &until
		return true
	}
	return false
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
