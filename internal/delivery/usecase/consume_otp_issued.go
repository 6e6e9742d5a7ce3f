package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/andresuryana/vericode/internal/otp/entity"
	"github.com/andresuryana/vericode/internal/pkg/idempotency"
	"github.com/andresuryana/vericode/internal/pkg/mail"
)

type ConsumeOTPIssuedInput struct {
	OTPID          int64  `validate:"required,gt=0"`
	SubjectID      int64  `validate:"required,gt=0"`
	ContactAddress string `validate:"required,email"`
	Purpose        string `validate:"required"`
	Code           string `validate:"required,digitcode"`
	ExpiresAt      time.Time
}

const bodyTemplate = `Hi,

Your {{.reason}} code is: {{.code}}

This code will expire in {{.expires_in}} minutes.

If you didn't request this, please ignore this email.

Best regards,
{{.company_name}} Team
`

func subjectFor(p entity.Purpose, company string) (subject, reason string) {
	switch p {
	case entity.PurposePasswordReset:
		return "Password Reset - " + company, "password reset"
	case entity.PurposeLogin2FA:
		return "Login Verification - " + company, "login verification"
	default:
		return "Email Verification - " + company, "email verification"
	}
}

// ConsumeOTPIssued delivers the code to the contact address. Broker delivery
// is at-least-once, so a redis-backed idempotency key on the record id keeps
// a redelivered event from mailing the subject twice.
func (s *Usecase) ConsumeOTPIssued(ctx context.Context, in ConsumeOTPIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	key := "otp_issued:" + strconv.FormatInt(in.OTPID, 10)
	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		return s.sendCodeEmail(ctx, in)
	})
	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.InfoContext(ctx, "otp delivery already handled", "otp_id", in.OTPID)
		return nil
	}

	return err
}

func (s *Usecase) sendCodeEmail(ctx context.Context, in ConsumeOTPIssuedInput) error {
	company := s.cfg.GetString("app.name")

	expiresIn := int64(in.ExpiresAt.Sub(s.clock.Now()).Minutes())
	expiresIn = max(expiresIn, 1)

	subject, reason := subjectFor(entity.PurposeFromString(in.Purpose), company)
	body, err := s.renderTemplate("otp_issued", bodyTemplate, map[string]any{
		"reason":       reason,
		"code":         in.Code,
		"expires_in":   expiresIn,
		"company_name": company,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp email body", "otp_id", in.OTPID, "error", err)
		return err
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.ContactAddress},
		Subject:  subject,
		TextBody: body,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "otp_id", in.OTPID, "subject_id", in.SubjectID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "otp email sent", "otp_id", in.OTPID, "subject_id", in.SubjectID, "purpose", in.Purpose)

	return nil
}
