package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

func newEdManager(t *testing.T) *Manager {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "authcore-test",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestSignParseRoundTrip(t *testing.T) {
	m := newEdManager(t)
	now := time.Now()

	raw, err := m.Sign("acct-1", "tok-1", time.Hour, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := m.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AccountID() != "acct-1" {
		t.Fatalf("account = %q, want acct-1", claims.AccountID())
	}
	if claims.TokenID() != "tok-1" {
		t.Fatalf("token id = %q, want tok-1", claims.TokenID())
	}
	if claims.ExpiresAt == nil {
		t.Fatal("missing exp claim for positive ttl")
	}
}

func TestZeroTTLOmitsExpiry(t *testing.T) {
	m := newEdManager(t)

	raw, err := m.Sign("acct-1", "tok-1", 0, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := m.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Session-scoped tokens have no cryptographic lifetime at all.
	if claims.ExpiresAt != nil {
		t.Fatalf("exp = %v, want absent for zero ttl", claims.ExpiresAt)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := newEdManager(t)

	raw, err := m.Sign("acct-1", "tok-1", time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(raw); err == nil {
		t.Fatal("expired token parsed")
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	m := newEdManager(t)
	other := newEdManager(t)

	raw, err := m.Sign("acct-1", "tok-1", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := other.Parse(raw); err == nil {
		t.Fatal("token verified under a different key")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "other-issuer",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	verifier, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "authcore-test",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	raw, err := signer.Sign("acct-1", "tok-1", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.Parse(raw); err == nil {
		t.Fatal("token accepted with wrong issuer")
	}
}

func TestHS256RoundTrip(t *testing.T) {
	m, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	raw, err := m.Sign("acct-1", "tok-1", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := m.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AccountID() != "acct-1" {
		t.Fatalf("account = %q", claims.AccountID())
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: "rs512"}); err == nil {
		t.Fatal("unsupported method accepted")
	}
	if _, err := NewManager(Config{SigningMethod: MethodHS256}); err == nil {
		t.Fatal("hs256 without key accepted")
	}
	if _, err := NewManager(Config{SigningMethod: MethodEd25519, Leeway: time.Hour}); err == nil {
		t.Fatal("excessive leeway accepted")
	}
}
