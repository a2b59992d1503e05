package session

import (
	"context"
	"testing"
	"time"
)

func TestIssueAndLookup(t *testing.T) {
	svc := New()
	access, refresh, deviceID, err := svc.Issue(context.Background())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if access == "" || refresh == "" || deviceID == "" {
		t.Fatalf("expected non-empty tokens and device id")
	}
	if access == refresh {
		t.Fatalf("access and refresh tokens must differ")
	}

	got, err := svc.LookupByToken(context.Background(), access)
	if err != nil {
		t.Fatalf("lookup access: %v", err)
	}
	if got != deviceID {
		t.Fatalf("lookup access = %q, want %q", got, deviceID)
	}
	got, err = svc.LookupByToken(context.Background(), refresh)
	if err != nil {
		t.Fatalf("lookup refresh: %v", err)
	}
	if got != deviceID {
		t.Fatalf("lookup refresh = %q, want %q", got, deviceID)
	}
}

func TestLookupUnknownToken(t *testing.T) {
	svc := New()
	if _, err := svc.LookupByToken(context.Background(), "nope"); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshKeepsDeviceID(t *testing.T) {
	svc := New()
	_, refresh, deviceID, err := svc.Issue(context.Background())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	access, gotID, err := svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if gotID != deviceID {
		t.Fatalf("refresh device id = %q, want %q", gotID, deviceID)
	}
	if got, err := svc.LookupByToken(context.Background(), access); err != nil || got != deviceID {
		t.Fatalf("lookup new access = %q, %v", got, err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := New()
	svc.accessTTL = -time.Second
	access, _, _, err := svc.Issue(context.Background())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.LookupByToken(context.Background(), access); err != ErrInvalidToken {
		t.Fatalf("expired token err = %v, want ErrInvalidToken", err)
	}
}

func TestDistinctDevices(t *testing.T) {
	svc := New()
	_, _, a, _ := svc.Issue(context.Background())
	_, _, b, _ := svc.Issue(context.Background())
	if a == b {
		t.Fatalf("two sessions share a device id")
	}
}
