package authcore

import (
	"context"
	"testing"
)

const nextPassword = "brand new secret 42"

func TestChangePassword(t *testing.T) {
	e, provider, _ := newTestEngine(t)
	ctx := context.Background()

	id := seedAccount(t, provider, Account{Username: "alice"}, testPassword)

	status, err := e.ChangePassword(ctx, id, "wrong password!!", nextPassword)
	if err != nil {
		t.Fatalf("change with wrong current: %v", err)
	}
	if status != StatusInvalidPassword {
		t.Fatalf("status = %s, want %s", status, StatusInvalidPassword)
	}

	status, err = e.ChangePassword(ctx, id, testPassword, nextPassword)
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if status != StatusOK {
		t.Fatalf("status = %s, want %s", status, StatusOK)
	}

	// Old credential is dead, new one signs in.
	result, err := e.SignInWithPassword(ctx, IdentifierUsername, "alice", testPassword)
	if err != nil {
		t.Fatalf("sign in old: %v", err)
	}
	if result.Status != StatusInvalidPassword {
		t.Fatalf("old password status = %s", result.Status)
	}
	result, err = e.SignInWithPassword(ctx, IdentifierUsername, "alice", nextPassword)
	if err != nil {
		t.Fatalf("sign in new: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("new password status = %s", result.Status)
	}
}

func TestChangePasswordUnknownAccount(t *testing.T) {
	e, _, _ := newTestEngine(t)

	status, err := e.ChangePassword(context.Background(), "acct-ghost", testPassword, nextPassword)
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if status != StatusAccountNotExists {
		t.Fatalf("status = %s, want %s", status, StatusAccountNotExists)
	}
}

func TestResetPasswordWithCode(t *testing.T) {
	e, provider, _ := newTestEngine(t)
	ctx := context.Background()

	id := seedAccount(t, provider, Account{Mobile: testMobile, MustResetPassword: true}, testPassword)

	issue, err := e.IssueResetCode(ctx, IdentifierMobile, testMobile, ChannelSMS)
	if err != nil {
		t.Fatalf("issue reset code: %v", err)
	}
	if issue.Code == "" {
		t.Fatal("no reset code for existing account")
	}

	status, err := e.ResetPasswordWithCode(ctx, IdentifierMobile, testMobile, ChannelSMS, mutateCode(issue.Code), nextPassword)
	if err != nil {
		t.Fatalf("reset with wrong code: %v", err)
	}
	if status != StatusCodeIncorrect {
		t.Fatalf("status = %s, want %s", status, StatusCodeIncorrect)
	}

	status, err = e.ResetPasswordWithCode(ctx, IdentifierMobile, testMobile, ChannelSMS, issue.Code, nextPassword)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if status != StatusOK {
		t.Fatalf("status = %s, want %s", status, StatusOK)
	}

	account := provider.get(t, id)
	if account.MustResetPassword {
		t.Fatal("must-reset flag not cleared by reset")
	}

	ok, err := e.credentials.VerifyPassword(nextPassword, account.PasswordHash)
	if err != nil {
		t.Fatalf("verify new password: %v", err)
	}
	if !ok {
		t.Fatal("new password does not verify against stored hash")
	}
}

func TestResetPasswordUnknownIdentifier(t *testing.T) {
	e, _, _ := newTestEngine(t)

	status, err := e.ResetPasswordWithCode(context.Background(), IdentifierMobile, testMobile, ChannelSMS, "123456", nextPassword)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if status != StatusAccountNotExists {
		t.Fatalf("status = %s, want %s", status, StatusAccountNotExists)
	}
}
