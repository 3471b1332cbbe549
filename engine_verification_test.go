package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

const testMobile = "13800000000"

func issueSignUpCode(t *testing.T, e *Engine, mobile string) string {
	t.Helper()
	result, err := e.IssueSignUpCode(context.Background(), ChannelSMS, mobile)
	if err != nil {
		t.Fatalf("issue sign-up code: %v", err)
	}
	if result.RateLimited {
		t.Fatal("issuance rate limited")
	}
	if result.Code == "" {
		t.Fatal("no code issued")
	}
	return result.Code
}

func TestSignUpCodeLifecycle(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	code := issueSignUpCode(t, e, testMobile)
	if len(code) != 6 {
		t.Fatalf("code %q, want 6 digits", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("code %q contains non-digit", code)
		}
	}

	wrong, err := e.ValidateCode(ctx, testMobile, ChannelSMS, PurposeSignUp, mutateCode(code))
	if err != nil {
		t.Fatalf("validate wrong: %v", err)
	}
	if wrong.Status != StatusCodeIncorrect {
		t.Fatalf("status = %s, want %s", wrong.Status, StatusCodeIncorrect)
	}
	if wrong.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", wrong.Attempts)
	}

	ok, err := e.ValidateCode(ctx, testMobile, ChannelSMS, PurposeSignUp, code)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok.Status != StatusOK {
		t.Fatalf("status = %s, want %s", ok.Status, StatusOK)
	}

	// The record is consumed; the same code never validates twice.
	again, err := e.ValidateCode(ctx, testMobile, ChannelSMS, PurposeSignUp, code)
	if err != nil {
		t.Fatalf("re-validate: %v", err)
	}
	if again.Status != StatusInvalidCode {
		t.Fatalf("status = %s, want %s", again.Status, StatusInvalidCode)
	}
}

func TestCodeAttemptBudget(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	code := issueSignUpCode(t, e, testMobile)
	wrong := mutateCode(code)

	// Default budget is 3 incorrect attempts; the last one locks the record.
	for attempt, want := range []Status{StatusCodeIncorrect, StatusCodeIncorrect, StatusCodeAttemptsExceeded} {
		result, err := e.ValidateCode(ctx, testMobile, ChannelSMS, PurposeSignUp, wrong)
		if err != nil {
			t.Fatalf("attempt %d: %v", attempt+1, err)
		}
		if result.Status != want {
			t.Fatalf("attempt %d status = %s, want %s", attempt+1, result.Status, want)
		}
		if result.Attempts != attempt+1 {
			t.Fatalf("attempt %d count = %d", attempt+1, result.Attempts)
		}
	}

	// Even the correct code is dead once the budget is spent.
	result, err := e.ValidateCode(ctx, testMobile, ChannelSMS, PurposeSignUp, code)
	if err != nil {
		t.Fatalf("validate after lockout: %v", err)
	}
	if result.Status != StatusInvalidCode {
		t.Fatalf("status = %s, want %s", result.Status, StatusInvalidCode)
	}
}

func TestCodeExpiry(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ctx := context.Background()

	code := issueSignUpCode(t, e, testMobile)
	clock.Advance(11 * time.Minute)

	result, err := e.ValidateCode(ctx, testMobile, ChannelSMS, PurposeSignUp, code)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Status != StatusCodeExpired {
		t.Fatalf("status = %s, want %s", result.Status, StatusCodeExpired)
	}
}

func TestIssueCodeSendLimit(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	// Default budget is 5 sends per hour per (subject, channel, purpose).
	for i := 0; i < 5; i++ {
		result, err := e.IssueSignUpCode(ctx, ChannelSMS, testMobile)
		if err != nil {
			t.Fatalf("issue %d: %v", i+1, err)
		}
		if result.RateLimited {
			t.Fatalf("issue %d rate limited within budget", i+1)
		}
	}

	result, err := e.IssueSignUpCode(ctx, ChannelSMS, testMobile)
	if err != nil {
		t.Fatalf("issue over budget: %v", err)
	}
	if !result.RateLimited {
		t.Fatal("sixth issue within the window not rate limited")
	}
	if result.Code != "" {
		t.Fatal("rate-limited issue still produced a code")
	}
}

func TestIssueSignInCodeHidesUnknownAccount(t *testing.T) {
	e, _, _ := newTestEngine(t)

	result, err := e.IssueSignInCode(context.Background(), IdentifierMobile, testMobile, ChannelSMS)
	if err != nil {
		t.Fatalf("issue for unknown account: %v", err)
	}
	// Indistinguishable from success so callers cannot probe for accounts.
	if result.RateLimited {
		t.Fatal("unknown account reported as rate limited")
	}
	if result.Code != "" {
		t.Fatal("code issued for unknown account")
	}
}

func TestIssueCodeRejectsDisallowedChannel(t *testing.T) {
	e, _, _ := newTestEngine(t)

	// The default policy allows only the mobile channel.
	_, err := e.IssueSignUpCode(context.Background(), ChannelEmail, "user@example.com")
	if !errors.Is(err, ErrChannelNotAllowed) {
		t.Fatalf("err = %v, want ErrChannelNotAllowed", err)
	}
}

func TestIssueCodeRejectsBadIdentifier(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.IssueSignUpCode(context.Background(), ChannelSMS, "not-a-mobile")
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("err = %v, want ErrInvalidIdentifier", err)
	}
}

func TestValidateCodeRejectsBadArguments(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.ValidateCode(ctx, testMobile, Channel(9), PurposeSignUp, "123456"); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("channel err = %v, want ErrInvalidChannel", err)
	}
	if _, err := e.ValidateCode(ctx, testMobile, ChannelSMS, Purpose(9), "123456"); !errors.Is(err, ErrInvalidPurpose) {
		t.Fatalf("purpose err = %v, want ErrInvalidPurpose", err)
	}
}

func TestDemoCodeBypassesRecordStore(t *testing.T) {
	e, _, _ := newTestEngineWith(t, func(cfg *Config) {
		cfg.Verification.DemoCode = "000000"
		cfg.Verification.DemoSubjects = []string{testMobile}
	})
	ctx := context.Background()

	// No code was ever issued; the demo code still validates for the
	// designated subject and for nobody else.
	result, err := e.ValidateCode(ctx, testMobile, ChannelSMS, PurposeSignUp, "000000")
	if err != nil {
		t.Fatalf("validate demo: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("status = %s, want %s", result.Status, StatusOK)
	}

	other, err := e.ValidateCode(ctx, "13911112222", ChannelSMS, PurposeSignUp, "000000")
	if err != nil {
		t.Fatalf("validate non-demo: %v", err)
	}
	if other.Status != StatusInvalidCode {
		t.Fatalf("status = %s, want %s", other.Status, StatusInvalidCode)
	}
}
