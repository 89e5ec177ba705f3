package config

import (
	"strings"
	"testing"
	"time"

	"github.com/notepulse-hq/note-pulse/internal/domain"
)

func TestValidateCookie(t *testing.T) {
	cases := []struct {
		name    string
		cookie  string
		wantErr string
	}{
		{"valid", "note_session=abc123", ""},
		{"empty", "", "empty"},
		{"no separator", "abc123", "key=value"},
		{"variable name pasted in", "NOTE_COOKIE=note_session=abc123", "variable name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCookie(tc.cookie)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid cookie, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCookieSuspiciouslyShort(t *testing.T) {
	if !CookieSuspiciouslyShort("note_session=abc") {
		t.Fatalf("a cookie this short should be flagged as truncated")
	}
	full := "note_session=" + strings.Repeat("x", 60)
	if CookieSuspiciouslyShort(full) {
		t.Fatalf("a full-length cookie must not be flagged")
	}
	if CookieSuspiciouslyShort("") {
		t.Fatalf("emptiness is ValidateCookie's concern, not a length warning")
	}
}

func TestCookieDaysRemaining(t *testing.T) {
	now := time.Date(2025, 8, 31, 12, 0, 0, 0, domain.JST)

	days, ok := CookieDaysRemaining("2025-08-01", now)
	if !ok {
		t.Fatalf("expected a parseable set date to resolve")
	}
	if days != CookieLifetimeDays-30 {
		t.Fatalf("expected %d days remaining, got %d", CookieLifetimeDays-30, days)
	}

	if _, ok := CookieDaysRemaining("", now); ok {
		t.Fatalf("no set date must report unknown")
	}
	if _, ok := CookieDaysRemaining("31/08/2025", now); ok {
		t.Fatalf("unparseable set date must report unknown")
	}

	expired, ok := CookieDaysRemaining("2025-05-01", now)
	if !ok || expired > 0 {
		t.Fatalf("expected a non-positive remainder for an old cookie, got %d ok=%v", expired, ok)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://note.com" {
		t.Fatalf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.LikesPageSize != 50 {
		t.Fatalf("unexpected page size %d", cfg.LikesPageSize)
	}
	if cfg.PageInterval != time.Second {
		t.Fatalf("unexpected page interval %v", cfg.PageInterval)
	}
	if cfg.MetaStaleness != 7*24*time.Hour {
		t.Fatalf("unexpected staleness window %v", cfg.MetaStaleness)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LIKES_PAGE_SIZE", "10")
	t.Setenv("PAGE_INTERVAL_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LikesPageSize != 10 {
		t.Fatalf("expected page size override, got %d", cfg.LikesPageSize)
	}
	if cfg.PageInterval != 250*time.Millisecond {
		t.Fatalf("expected interval override, got %v", cfg.PageInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("LIKES_PAGE_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for a zero page size")
	}
}
