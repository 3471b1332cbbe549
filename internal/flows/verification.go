package flows

import (
	"context"
	"errors"
	"time"

	"github.com/authcore-dev/authcore/internal/limiters"
	"github.com/authcore-dev/authcore/internal/stores"
)

// ErrFlowNotReady is returned when a required dependency is missing.
var ErrFlowNotReady = errors.New("flow dependencies not initialized")

// CodeIssue is the result of one issuance attempt. When RateLimited is set
// no record was created and Code is empty.
type CodeIssue struct {
	Code        string
	ExpiresAt   time.Time
	RateLimited bool
}

// VerificationMetrics carries metric IDs used by the code flows.
type VerificationMetrics struct {
	Issued           int
	IssueRateLimited int
	Consumed         int
	Incorrect        int
	AttemptsExceeded int
	Expired          int
	NoRecord         int
}

// VerificationDeps captures issuance/validation dependencies.
type VerificationDeps struct {
	Now          func() time.Time
	CodeDigits   int
	GenerateCode func(digits int) (string, error)
	HashCode     func(code string) [32]byte

	// Demo bypass: when DemoCode is non-empty and the subject is designated,
	// submitting DemoCode validates without touching the record store.
	DemoCode      string
	IsDemoSubject func(subject string) bool

	AllowSend      func(ctx context.Context, subject string, channel, purpose uint8, limit limiters.SendLimit) (bool, error)
	PutRecord      func(ctx context.Context, record *stores.VerificationRecord) error
	ValidateRecord func(ctx context.Context, subject string, channel, purpose uint8, hash [32]byte, maxAttempts int, now time.Time) (stores.ValidateOutcome, uint16, error)

	MetricInc func(int)
	Metrics   VerificationMetrics
}

// RunIssueCode counts the issuance against the send limit and, when within
// budget, installs a fresh record with a newly generated code.
func RunIssueCode(
	ctx context.Context,
	subject string,
	channel, purpose uint8,
	ttl time.Duration,
	limit limiters.SendLimit,
	deps VerificationDeps,
) (*CodeIssue, error) {
	deps.Now = defaultNow(deps.Now)
	deps.MetricInc = defaultMetricInc(deps.MetricInc)
	if deps.GenerateCode == nil || deps.HashCode == nil || deps.AllowSend == nil || deps.PutRecord == nil {
		return nil, ErrFlowNotReady
	}
	if deps.CodeDigits <= 0 {
		deps.CodeDigits = 6
	}

	allowed, err := deps.AllowSend(ctx, subject, channel, purpose, limit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		deps.MetricInc(deps.Metrics.IssueRateLimited)
		return &CodeIssue{RateLimited: true}, nil
	}

	code, err := deps.GenerateCode(deps.CodeDigits)
	if err != nil {
		return nil, err
	}

	now := deps.Now()
	expiresAt := now.Add(ttl)
	record := &stores.VerificationRecord{
		Subject:   subject,
		Channel:   channel,
		Purpose:   purpose,
		CodeHash:  deps.HashCode(code),
		CreatedAt: now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}
	if err := deps.PutRecord(ctx, record); err != nil {
		return nil, err
	}

	deps.MetricInc(deps.Metrics.Issued)
	return &CodeIssue{Code: code, ExpiresAt: expiresAt}, nil
}

// RunValidateCode runs one validation attempt against the current record.
// The attempt accounting happens inside the record store transaction; this
// flow only maps outcomes and handles the demo bypass.
func RunValidateCode(
	ctx context.Context,
	subject string,
	channel, purpose uint8,
	submitted string,
	maxAttempts int,
	deps VerificationDeps,
) (stores.ValidateOutcome, uint16, error) {
	deps.Now = defaultNow(deps.Now)
	deps.MetricInc = defaultMetricInc(deps.MetricInc)
	if deps.HashCode == nil || deps.ValidateRecord == nil {
		return stores.ValidateNoRecord, 0, ErrFlowNotReady
	}

	if deps.DemoCode != "" && deps.IsDemoSubject != nil &&
		deps.IsDemoSubject(subject) && submitted == deps.DemoCode {
		deps.MetricInc(deps.Metrics.Consumed)
		return stores.ValidateOK, 0, nil
	}

	outcome, attempts, err := deps.ValidateRecord(ctx, subject, channel, purpose, deps.HashCode(submitted), maxAttempts, deps.Now())
	if err != nil {
		return stores.ValidateNoRecord, 0, err
	}

	switch outcome {
	case stores.ValidateOK:
		deps.MetricInc(deps.Metrics.Consumed)
	case stores.ValidateMismatch:
		deps.MetricInc(deps.Metrics.Incorrect)
	case stores.ValidateAttemptsExceeded:
		deps.MetricInc(deps.Metrics.AttemptsExceeded)
	case stores.ValidateExpired:
		deps.MetricInc(deps.Metrics.Expired)
	case stores.ValidateNoRecord:
		deps.MetricInc(deps.Metrics.NoRecord)
	}
	return outcome, attempts, nil
}
