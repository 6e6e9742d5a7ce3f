package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuryana/vericode/internal/otp/entity"
	"github.com/andresuryana/vericode/internal/pkg/goerror"
)

func TestRequestCode(t *testing.T) {

	t.Run("IssuesAndPublishes", func(t *testing.T) {

		// Arrange
		f := newFixture(t)
		f.codeGen.codes = []string{"428619"}

		// Act
		out, err := f.uc.RequestCode(context.Background(), RequestCodeInput{
			SubjectID:      42,
			Purpose:        entity.PurposeEmailVerification,
			ContactAddress: " Alice@Example.COM ",
			RequestIP:      "203.0.113.9",
			RequestAgent:   "test-agent",
		})

		// Assert
		if err != nil {
			t.Fatalf("request code failed: %v", err)
		}
		if out.OTPID == 0 {
			t.Fatalf("expected a generated otp id")
		}
		if want := f.clock.At.Add(10 * time.Minute); !out.ExpiresAt.Equal(want) {
			t.Fatalf("expires_at = %v, want %v", out.ExpiresAt, want)
		}
		if want := f.clock.At.Add(60 * time.Second); !out.ResendAt.Equal(want) {
			t.Fatalf("resend_at = %v, want %v", out.ResendAt, want)
		}

		rec := f.db.record(t, out.OTPID)
		if rec.ContactAddress != "alice@example.com" {
			t.Fatalf("contact address = %q, want normalized lowercase", rec.ContactAddress)
		}
		if rec.CodeHash == "428619" {
			t.Fatalf("code stored in plain text")
		}
		if !f.hmac.Verify(rec.CodeHash, "428619") {
			t.Fatalf("stored hash does not match issued code")
		}
		if rec.Attempts != 0 || rec.Used || rec.Expired {
			t.Fatalf("fresh record must start unused with zero attempts, got %+v", rec)
		}
		if rec.RequestIP != "203.0.113.9" || rec.RequestAgent != "test-agent" {
			t.Fatalf("audit fields not persisted, got ip=%q agent=%q", rec.RequestIP, rec.RequestAgent)
		}

		ev := f.pub.waitEvent(t)
		if ev.OTPID != out.OTPID || ev.Code != "428619" {
			t.Fatalf("published event = %+v, want otp_id=%d code=428619", ev, out.OTPID)
		}
		if ev.ContactAddress != "alice@example.com" || ev.Purpose != "EMAIL_VERIFICATION" {
			t.Fatalf("published event carries wrong routing data: %+v", ev)
		}
	})

	t.Run("ThrottledWithinCooldown", func(t *testing.T) {

		// Arrange
		f := newFixture(t)
		in := RequestCodeInput{
			SubjectID:      42,
			Purpose:        entity.PurposeLogin2FA,
			ContactAddress: "alice@example.com",
		}
		f.issue(t, in)
		f.clock.Advance(30 * time.Second)

		// Act
		_, err := f.uc.RequestCode(context.Background(), in)

		// Assert
		if !errors.Is(err, ErrIssuanceThrottled) {
			t.Fatalf("expected throttled error, got %v", err)
		}
	})

	t.Run("ReissuesAfterCooldown", func(t *testing.T) {

		// Arrange
		f := newFixture(t)
		in := RequestCodeInput{
			SubjectID:      42,
			Purpose:        entity.PurposeLogin2FA,
			ContactAddress: "alice@example.com",
		}
		first := f.issue(t, in)
		f.clock.Advance(61 * time.Second)

		// Act
		second, err := f.uc.RequestCode(context.Background(), in)

		// Assert
		if err != nil {
			t.Fatalf("reissue after cooldown failed: %v", err)
		}
		if second.OTPID == first.OTPID {
			t.Fatalf("expected a new record on reissue")
		}
		if rec := f.db.record(t, first.OTPID); !rec.Expired {
			t.Fatalf("previous active record must be superseded")
		}
		f.pub.waitEvent(t)
	})

	t.Run("ReissuesAfterPriorExpired", func(t *testing.T) {

		// Arrange
		f := newFixture(t)
		in := RequestCodeInput{
			SubjectID:      7,
			Purpose:        entity.PurposePasswordReset,
			ContactAddress: "bob@example.com",
		}
		f.issue(t, in)
		f.clock.Advance(11 * time.Minute)

		// Act
		_, err := f.uc.RequestCode(context.Background(), in)

		// Assert
		if err != nil {
			t.Fatalf("reissue after ttl failed: %v", err)
		}
		f.pub.waitEvent(t)
	})

	t.Run("LostCreateRaceIsThrottled", func(t *testing.T) {

		// Arrange
		f := newFixture(t)
		f.db.createErr = goerror.ErrConflict

		// Act
		_, err := f.uc.RequestCode(context.Background(), RequestCodeInput{
			SubjectID:      42,
			Purpose:        entity.PurposeEmailVerification,
			ContactAddress: "alice@example.com",
		})

		// Assert
		if !errors.Is(err, ErrIssuanceThrottled) {
			t.Fatalf("expected throttled on create conflict, got %v", err)
		}
	})

	t.Run("RejectsInvalidInput", func(t *testing.T) {
		f := newFixture(t)

		cases := map[string]RequestCodeInput{
			"MissingSubject":  {Purpose: entity.PurposeLogin2FA, ContactAddress: "alice@example.com"},
			"BadContact":      {SubjectID: 42, Purpose: entity.PurposeLogin2FA, ContactAddress: "not-an-email"},
			"UnknownPurpose":  {SubjectID: 42, ContactAddress: "alice@example.com"},
			"NegativeSubject": {SubjectID: -1, Purpose: entity.PurposeLogin2FA, ContactAddress: "alice@example.com"},
		}

		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := f.uc.RequestCode(context.Background(), in)
				if err == nil {
					t.Fatalf("expected validation error")
				}

				var gErr *goerror.Error
				if !errors.As(err, &gErr) || gErr.Type() != goerror.TypeValidation {
					t.Fatalf("expected validation error, got %v", err)
				}
			})
		}
	})

	t.Run("ConfiguredTTLAndCooldown", func(t *testing.T) {

		// Arrange
		f := newFixture(t)
		f.cfg.values["modules.otp.ttl_minutes"] = 5
		f.cfg.values["modules.otp.cooldown_seconds"] = 120

		// Act
		out := f.issue(t, RequestCodeInput{
			SubjectID:      42,
			Purpose:        entity.PurposeEmailVerification,
			ContactAddress: "alice@example.com",
		})

		// Assert
		if want := f.clock.At.Add(5 * time.Minute); !out.ExpiresAt.Equal(want) {
			t.Fatalf("expires_at = %v, want %v", out.ExpiresAt, want)
		}
		if want := f.clock.At.Add(2 * time.Minute); !out.ResendAt.Equal(want) {
			t.Fatalf("resend_at = %v, want %v", out.ResendAt, want)
		}
	})
}
