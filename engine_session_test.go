package authcore

import (
	"context"
	"testing"
)

func signIn(t *testing.T, e *Engine, username, pass string) string {
	t.Helper()
	result, err := e.SignInWithPassword(context.Background(), IdentifierUsername, username, pass)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("sign-in status = %s", result.Status)
	}
	return result.AccessToken
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	e, _, _ := newTestEngine(t)

	for _, raw := range []string{"", "garbage", "eyJhbGciOiJIUzI1NiJ9.e30.x"} {
		session, err := e.Authenticate(context.Background(), raw)
		if err != nil {
			t.Fatalf("authenticate %q: %v", raw, err)
		}
		if session != nil {
			t.Fatalf("garbage token %q authenticated", raw)
		}
	}
}

func TestSignOutRevokesSession(t *testing.T) {
	e, provider, _ := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, provider, Account{Username: "alice"}, testPassword)
	token := signIn(t, e, "alice", testPassword)

	if session, err := e.Authenticate(ctx, token); err != nil || session == nil {
		t.Fatalf("authenticate before sign-out: session=%v err=%v", session, err)
	}

	if err := e.SignOut(ctx, token); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	// The token is still cryptographically valid; the server-side record is
	// what kills it.
	session, err := e.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate after sign-out: %v", err)
	}
	if session != nil {
		t.Fatal("signed-out session authenticated")
	}

	// Sign-out is idempotent.
	if err := e.SignOut(ctx, token); err != nil {
		t.Fatalf("second sign-out: %v", err)
	}
}

func TestSignOutUnknownTokenIsNoOp(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if err := e.SignOut(context.Background(), "never-issued"); err != nil {
		t.Fatalf("sign out unknown token: %v", err)
	}
}

func TestRevokeSession(t *testing.T) {
	e, provider, _ := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, provider, Account{Username: "alice"}, testPassword)
	token := signIn(t, e, "alice", testPassword)

	if err := e.RevokeSession(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if session, _ := e.Authenticate(ctx, token); session != nil {
		t.Fatal("revoked session authenticated")
	}

	record, revoked, err := e.SessionRecord(ctx, token)
	if err != nil {
		t.Fatalf("session record: %v", err)
	}
	if record == nil || !revoked {
		t.Fatalf("record = %+v revoked = %v, want revoked record", record, revoked)
	}
}

func TestSessionRecordUnknownToken(t *testing.T) {
	e, _, _ := newTestEngine(t)

	record, revoked, err := e.SessionRecord(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("session record: %v", err)
	}
	if record != nil || revoked {
		t.Fatalf("record = %+v revoked = %v, want none", record, revoked)
	}
}

func TestAuthenticateRejectsDisabledAccount(t *testing.T) {
	e, provider, _ := newTestEngine(t)
	ctx := context.Background()

	id := seedAccount(t, provider, Account{Username: "alice"}, testPassword)
	token := signIn(t, e, "alice", testPassword)

	if err := provider.update(id, func(a *Account) { a.Disabled = true }); err != nil {
		t.Fatalf("disable account: %v", err)
	}

	// Disabling the account rejects its live sessions immediately.
	session, err := e.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session != nil {
		t.Fatal("session for disabled account authenticated")
	}
}

func TestCreateSessionOutOfBand(t *testing.T) {
	e, provider, _ := newTestEngine(t)
	ctx := context.Background()

	id := seedAccount(t, provider, Account{Username: "alice"}, "")

	token, err := e.CreateSession(ctx, id)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	session, err := e.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session == nil || session.AccountID != id {
		t.Fatalf("session = %+v, want account %s", session, id)
	}

	if _, err := e.CreateSession(ctx, ""); err == nil {
		t.Fatal("empty account id accepted")
	}
}
