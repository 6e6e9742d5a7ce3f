package entity

import (
	"testing"
	"time"
)

func TestOTPRecordIsActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	base := OTPRecord{
		ID:          1,
		SubjectID:   42,
		Purpose:     PurposeLogin2FA,
		MaxAttempts: 5,
		CreatedAt:   now.Add(-time.Minute),
		ExpiresAt:   now.Add(9 * time.Minute),
	}

	cases := map[string]struct {
		mutate func(r *OTPRecord)
		want   bool
	}{
		"Fresh":             {mutate: func(r *OTPRecord) {}, want: true},
		"Used":              {mutate: func(r *OTPRecord) { r.Used = true }, want: false},
		"Expired":           {mutate: func(r *OTPRecord) { r.Expired = true }, want: false},
		"PastTTL":           {mutate: func(r *OTPRecord) { r.ExpiresAt = now.Add(-time.Second) }, want: false},
		"ExpiresExactlyNow": {mutate: func(r *OTPRecord) { r.ExpiresAt = now }, want: false},
		"BudgetSpent":       {mutate: func(r *OTPRecord) { r.Attempts = 5 }, want: false},
		"OneAttemptLeft":    {mutate: func(r *OTPRecord) { r.Attempts = 4 }, want: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := base
			tc.mutate(&rec)
			if got := rec.IsActive(now); got != tc.want {
				t.Fatalf("IsActive = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPurpose(t *testing.T) {

	t.Run("RoundTrip", func(t *testing.T) {
		for _, p := range []Purpose{PurposeEmailVerification, PurposePasswordReset, PurposeLogin2FA} {
			if got := PurposeFromString(p.String()); got != p {
				t.Fatalf("round trip %v -> %q -> %v", p, p.String(), got)
			}
			if p.IsUnknown() {
				t.Fatalf("%v must be known", p)
			}
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		for _, str := range []string{"", "login_2fa", "SMS", "EMAIL"} {
			if p := PurposeFromString(str); !p.IsUnknown() {
				t.Fatalf("%q must map to unknown, got %v", str, p)
			}
		}
		if PurposeUnknown.String() != "UNKNOWN" {
			t.Fatalf("unknown purpose renders as %q", PurposeUnknown.String())
		}
		if Purpose(99).IsUnknown() != true {
			t.Fatalf("out of range purpose must be unknown")
		}
	})
}
