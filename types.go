package authcore

import (
	"context"
	"time"

	"github.com/authcore-dev/authcore/internal/audit"
)

// Channel identifies how a verification code is delivered.
type Channel uint8

const (
	// ChannelSMS delivers codes to the account's mobile number.
	ChannelSMS Channel = iota + 1
	// ChannelEmail delivers codes to the account's email address.
	ChannelEmail
)

// String returns the channel name used in policy lists.
func (c Channel) String() string {
	switch c {
	case ChannelSMS:
		return "mobile"
	case ChannelEmail:
		return "email"
	default:
		return "unknown"
	}
}

func (c Channel) valid() bool {
	return c == ChannelSMS || c == ChannelEmail
}

// Purpose identifies what a verification code authorizes.
type Purpose uint8

const (
	// PurposeSignUp codes authorize account creation.
	PurposeSignUp Purpose = iota + 1
	// PurposeSignIn codes authorize a session for an existing account.
	PurposeSignIn
	// PurposeResetPassword codes authorize a password reset.
	PurposeResetPassword
)

func (p Purpose) valid() bool {
	return p >= PurposeSignUp && p <= PurposeResetPassword
}

// Status is a discriminated outcome code. The core emits only these values;
// message localization belongs to the embedding boundary.
type Status string

const (
	StatusOK                       Status = audit.StatusOK
	StatusAccountNotExists         Status = audit.StatusAccountNotExists
	StatusAccountDisabled          Status = audit.StatusAccountDisabled
	StatusInvalidPassword          Status = audit.StatusInvalidPassword
	StatusPasswordAttemptsExceeded Status = audit.StatusPasswordAttemptsExceeded
	StatusInvalidCode              Status = audit.StatusInvalidCode
	StatusCodeIncorrect            Status = audit.StatusCodeIncorrect
	StatusCodeAttemptsExceeded     Status = audit.StatusCodeAttemptsExceeded
	StatusCodeExpired              Status = audit.StatusCodeExpired
)

// EventType is an audit event classification.
type EventType string

const (
	EventSignIn    EventType = audit.EventSignIn
	EventSignOut   EventType = audit.EventSignOut
	EventSignUp    EventType = audit.EventSignUp
	EventChangePwd EventType = audit.EventChangePwd
	EventResetPwd  EventType = audit.EventResetPwd
)

// IdentifierKind selects which account identifier a lookup uses. Exactly one
// kind is supplied per call.
type IdentifierKind string

const (
	IdentifierUsername IdentifierKind = "username"
	IdentifierMobile   IdentifierKind = "mobile"
	IdentifierEmail    IdentifierKind = "email"
)

// Account is the engine's view of an account as served by the provider. At
// least one identifier is set; PasswordHash may be empty for accounts that
// sign in by code only.
type Account struct {
	ID                string
	Username          string
	Mobile            string
	Email             string
	PasswordHash      string
	Disabled          bool
	Deleted           bool
	MustResetPassword bool
	LastLoginAt       time.Time
}

// AccountProvider is the engine's read/write contract for account data,
// owned by the embedding application. Lookups return (nil, nil) when no
// matching account exists; errors are reserved for storage failures.
type AccountProvider interface {
	AccountByID(ctx context.Context, id string) (*Account, error)
	AccountByUsername(ctx context.Context, username string) (*Account, error)
	AccountByMobile(ctx context.Context, mobile string) (*Account, error)
	AccountByEmail(ctx context.Context, email string) (*Account, error)

	// CreateAccount persists a new account and returns its ID. Duplicate
	// identifiers are a conflict owned by the provider.
	CreateAccount(ctx context.Context, account *Account) (string, error)

	UpdatePasswordHash(ctx context.Context, accountID, hash string) error
	SetMustResetPassword(ctx context.Context, accountID string, must bool) error
	TouchLastLogin(ctx context.Context, accountID string, at time.Time) error
}

// Permission is one grantable permission within an application. The code
// "*" is the reserved wildcard.
type Permission struct {
	ID            string
	Code          string
	ApplicationID string
}

// Role is a named permission grant. An empty OrgScopeID makes the role
// global; otherwise it applies only when the scope node is the account's
// organization placement or an ancestor of it.
type Role struct {
	ID          string
	Name        string
	Code        string
	OrgScopeID  string
	Permissions []Permission
}

// Directory is the live view of role and organization bindings, owned by the
// embedding application's admin layer. The engine reads it on every
// authorization check and never caches results across calls.
type Directory interface {
	// RolesForAccount returns every role currently bound to the account.
	RolesForAccount(ctx context.Context, accountID string) ([]Role, error)
	// OrgPlacement returns the account's organization ancestor path, ordered
	// from its own node up to the root, inclusive. Accounts without a
	// placement return an empty path.
	OrgPlacement(ctx context.Context, accountID string) ([]string, error)
}

// ClientInfo is request metadata attached to audit entries. Populate it on
// the context with [WithClientInfo].
type ClientInfo struct {
	IP      string
	OS      string
	Device  string
	Browser string
}

// IssueCodeResult is the outcome of one code issuance. When RateLimited is
// set no record was created and Code is empty.
type IssueCodeResult struct {
	Code        string
	ExpiresAt   time.Time
	RateLimited bool
}

// ValidateCodeResult is the outcome of one code validation attempt. Attempts
// is the record's incorrect-attempt count after the call.
type ValidateCodeResult struct {
	Status   Status
	Attempts int
}

// SignInResult is the outcome of a sign-in operation. AccessToken is set
// only on StatusOK.
type SignInResult struct {
	Status            Status
	AccountID         string
	AccessToken       string
	MustResetPassword bool
}

// SignUpResult is the outcome of a sign-up operation. The first session is
// minted on success.
type SignUpResult struct {
	Status      Status
	AccountID   string
	AccessToken string
}

// Session is a successfully authenticated session.
type Session struct {
	AccountID string
	TokenID   string
	IssuedAt  time.Time
}

// AuditEvent is one persisted audit entry.
type AuditEvent = audit.Event

// AuditSink receives audit events asynchronously, after the synchronous
// trail write. Implementations must be safe for concurrent use.
type AuditSink = audit.Sink
