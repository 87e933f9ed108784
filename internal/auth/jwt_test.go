package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestIssuer(now func() time.Time) *TokenIssuer {
	return NewTokenIssuer(map[TokenKind]KindConfig{
		KindAccess:   {Secret: strings.Repeat("a", 32), TTL: 15 * time.Minute},
		KindRefresh:  {Secret: strings.Repeat("r", 32), TTL: 7 * 24 * time.Hour},
		KindRecovery: {Secret: strings.Repeat("c", 32), TTL: 30 * time.Minute},
	}, WithClock(now))
}

func TestIssueAndVerifyEachKind(t *testing.T) {
	issuer := newTestIssuer(time.Now)

	for _, kind := range []TokenKind{KindAccess, KindRefresh, KindRecovery} {
		token, err := issuer.Issue(kind, "user-1")
		if err != nil {
			t.Fatalf("issue %s: %v", kind, err)
		}
		claims, err := issuer.Verify(kind, token)
		if err != nil {
			t.Fatalf("verify %s: %v", kind, err)
		}
		if claims.ID != "user-1" || claims.Subject != "user-1" {
			t.Fatalf("unexpected subject for %s: %+v", kind, claims)
		}
		if claims.ExpiresAt == nil || claims.IssuedAt == nil {
			t.Fatalf("expected iat/exp for %s", kind)
		}
	}
}

func TestVerifyRejectsTokenOfAnotherKind(t *testing.T) {
	issuer := newTestIssuer(time.Now)

	refresh, err := issuer.Issue(KindRefresh, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = issuer.Verify(KindAccess, refresh)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	current := issuedAt
	issuer := newTestIssuer(func() time.Time { return current })

	token, err := issuer.Issue(KindAccess, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	current = issuedAt.Add(16 * time.Minute)
	_, err = issuer.Verify(KindAccess, token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expired token must not be reported as invalid")
	}
	if !IsVerificationError(err) {
		t.Fatalf("expected verification error")
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	issuer := newTestIssuer(time.Now)

	_, err := issuer.Verify(KindAccess, "nao-e-um-jwt")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTTLPerKind(t *testing.T) {
	issuer := newTestIssuer(time.Now)

	if got := issuer.TTL(KindRefresh); got != 7*24*time.Hour {
		t.Fatalf("unexpected refresh ttl %s", got)
	}
	if got := issuer.TTL(KindRecovery); got != 30*time.Minute {
		t.Fatalf("unexpected recovery ttl %s", got)
	}
	if got := issuer.TTL(TokenKind("outro")); got != 0 {
		t.Fatalf("unknown kind must have no ttl, got %s", got)
	}
}

func TestIssueUnknownKind(t *testing.T) {
	issuer := NewTokenIssuer(map[TokenKind]KindConfig{
		KindAccess: {Secret: strings.Repeat("a", 32), TTL: time.Minute},
	})

	if _, err := issuer.Issue(KindRecovery, "user-1"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := issuer.Verify(KindRecovery, "x"); IsVerificationError(err) {
		t.Fatalf("unknown kind must not look like a verification error: %v", err)
	}
}

func TestArgon2HasherRoundTrip(t *testing.T) {
	hasher := NewArgon2Hasher(nil)

	hash, err := hasher.Hash("SenhaForte123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := hasher.Compare("SenhaForte123!", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = hasher.Compare("outra", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}

	if _, err := hasher.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}
