package token

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func knownMedia(ids ...string) func(context.Context, string) (bool, error) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(_ context.Context, id string) (bool, error) {
		return set[id], nil
	}
}

func newTestService(t *testing.T, now func() time.Time) *Service {
	t.Helper()
	svc, err := NewService([]byte("0123456789abcdef0123456789abcdef"), now)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestToken_RoundTrip(t *testing.T) {
	svc := newTestService(t, nil)
	tok, err := svc.Issue("media-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !svc.Validate(context.Background(), tok, "media-1", knownMedia("media-1")) {
		t.Fatal("freshly issued token should validate")
	}
}

func TestToken_Expired(t *testing.T) {
	current := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return current })

	tok, err := svc.Issue("media-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if svc.Validate(context.Background(), tok, "media-1", knownMedia("media-1")) {
		t.Fatal("expired token must not validate")
	}
}

func TestToken_WrongMedia(t *testing.T) {
	svc := newTestService(t, nil)
	tok, err := svc.Issue("media-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if svc.Validate(context.Background(), tok, "media-2", knownMedia("media-1", "media-2")) {
		t.Fatal("token bound to media-1 must not validate for media-2")
	}
}

func TestToken_UnknownMedia(t *testing.T) {
	svc := newTestService(t, nil)
	tok, err := svc.Issue("media-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if svc.Validate(context.Background(), tok, "media-1", knownMedia()) {
		t.Fatal("token for purged media must not validate")
	}
}

func TestToken_TamperedPayload(t *testing.T) {
	svc := newTestService(t, nil)
	tok, err := svc.Issue("media-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	forged := strings.Replace(string(raw), "media-1", "media-2", 1)
	forgedTok := base64.RawURLEncoding.EncodeToString([]byte(forged))
	if svc.Validate(context.Background(), forgedTok, "media-2", knownMedia("media-2")) {
		t.Fatal("forged media id must break the MAC")
	}
}

func TestToken_GarbageInput(t *testing.T) {
	svc := newTestService(t, nil)
	isKnown := knownMedia("media-1")
	for _, tok := range []string{"", "not-base64!!", base64.RawURLEncoding.EncodeToString([]byte("too\nfew"))} {
		if svc.Validate(context.Background(), tok, "media-1", isKnown) {
			t.Fatalf("garbage token validated: %q", tok)
		}
	}
}

func TestToken_DifferentSecretsDoNotCrossValidate(t *testing.T) {
	a, err := NewService(nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	b, err := NewService(nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	tok, err := a.Issue("media-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if b.Validate(context.Background(), tok, "media-1", knownMedia("media-1")) {
		t.Fatal("token signed by one process validated by another secret")
	}
}

func TestToken_IssueValidation(t *testing.T) {
	svc := newTestService(t, nil)
	if _, err := svc.Issue("", time.Minute); err == nil {
		t.Fatal("expected error for empty media id")
	}
	if _, err := svc.Issue("media-1", 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}
