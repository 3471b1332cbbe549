package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPolicyDefaults(t *testing.T) {
	e, _, _ := newTestEngine(t)

	pol, err := e.Policy(context.Background())
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if len(pol.SignInChannels) != 1 || pol.SignInChannels[0] != "mobile" {
		t.Fatalf("sign-in channels = %v, want [mobile]", pol.SignInChannels)
	}
	if len(pol.PasswordIdentifiers) != 1 || pol.PasswordIdentifiers[0] != "username" {
		t.Fatalf("password identifiers = %v, want [username]", pol.PasswordIdentifiers)
	}
	if pol.SignInCodeTTL != 10*time.Minute {
		t.Fatalf("code ttl = %v, want 10m", pol.SignInCodeTTL)
	}
	if pol.LockoutWindow != 24*time.Hour || pol.LockoutMaxAttempts != 5 {
		t.Fatalf("lockout = %v/%d, want 24h/5", pol.LockoutWindow, pol.LockoutMaxAttempts)
	}
	if pol.SessionTTL != 0 {
		t.Fatalf("session ttl = %v, want 0 (session-scoped)", pol.SessionTTL)
	}
}

func TestPatchPolicyTakesEffect(t *testing.T) {
	e, provider, _ := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, provider, Account{Username: "alice"}, testPassword)

	if err := e.PatchPolicy(ctx, map[string]string{"password.lockout.max_attempts": "2"}); err != nil {
		t.Fatalf("patch: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := e.SignInWithPassword(ctx, IdentifierUsername, "alice", "wrong password!!"); err != nil {
			t.Fatalf("failure %d: %v", i+1, err)
		}
	}
	result, err := e.SignInWithPassword(ctx, IdentifierUsername, "alice", testPassword)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if result.Status != StatusPasswordAttemptsExceeded {
		t.Fatalf("status = %s, want %s under the patched limit", result.Status, StatusPasswordAttemptsExceeded)
	}
}

func TestPatchPolicyChannelList(t *testing.T) {
	e, provider, _ := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, provider, Account{Mobile: testMobile}, "")

	if err := e.PatchPolicy(ctx, map[string]string{"signin.channels": "email"}); err != nil {
		t.Fatalf("patch: %v", err)
	}

	_, err := e.SignInWithCode(ctx, IdentifierMobile, testMobile, ChannelSMS, "123456")
	if !errors.Is(err, ErrChannelNotAllowed) {
		t.Fatalf("err = %v, want ErrChannelNotAllowed after patch", err)
	}
}

func TestPatchPolicyRejectsUnknownKey(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	err := e.PatchPolicy(ctx, map[string]string{
		"signin.channels": "email",
		"bogus.key":       "1",
	})
	if !errors.Is(err, ErrUnknownPolicyKey) {
		t.Fatalf("err = %v, want ErrUnknownPolicyKey", err)
	}

	// The patch is all-or-nothing; the valid key was not applied either.
	value, err := e.PolicyValue(ctx, "signin.channels")
	if err != nil {
		t.Fatalf("policy value: %v", err)
	}
	if value != "mobile" {
		t.Fatalf("signin.channels = %q after rejected patch, want mobile", value)
	}
}

func TestPatchPolicyRejectsMalformedValue(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if err := e.PatchPolicy(context.Background(), map[string]string{"signin.code.ttl_minutes": "soon"}); err == nil {
		t.Fatal("malformed value accepted")
	}
}

func TestPolicyValues(t *testing.T) {
	e, _, _ := newTestEngine(t)

	values, err := e.PolicyValues(context.Background())
	if err != nil {
		t.Fatalf("policy values: %v", err)
	}
	if values["session.ttl_minutes"] != "0" {
		t.Fatalf("session.ttl_minutes = %q, want 0", values["session.ttl_minutes"])
	}
	if values["password.lockout.max_attempts"] != "5" {
		t.Fatalf("password.lockout.max_attempts = %q, want 5", values["password.lockout.max_attempts"])
	}

	if _, err := e.PolicyValue(context.Background(), "bogus.key"); !errors.Is(err, ErrUnknownPolicyKey) {
		t.Fatalf("unknown key err = %v, want ErrUnknownPolicyKey", err)
	}
}

func TestSessionTTLFromPolicy(t *testing.T) {
	e, provider, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.PatchPolicy(ctx, map[string]string{"session.ttl_minutes": "30"}); err != nil {
		t.Fatalf("patch: %v", err)
	}

	seedAccount(t, provider, Account{Username: "alice"}, testPassword)
	token := signIn(t, e, "alice", testPassword)

	session, err := e.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session == nil {
		t.Fatal("session with ttl rejected while fresh")
	}
}
