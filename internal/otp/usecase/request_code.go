package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/andresuryana/vericode/internal/otp/entity"
	"github.com/andresuryana/vericode/internal/pkg/goerror"
)

type RequestCodeInput struct {
	SubjectID      int64  `validate:"required,gt=0"`
	Purpose        entity.Purpose
	ContactAddress string `validate:"required,email"`
	RequestIP      string
	RequestAgent   string
}

type RequestCodeOutput struct {
	OTPID     int64
	ExpiresAt time.Time
	ResendAt  time.Time
}

func (s *Usecase) RequestCode(ctx context.Context, in RequestCodeInput) (*RequestCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestCode")
	defer span.End()

	in.ContactAddress = strings.TrimSpace(strings.ToLower(in.ContactAddress))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.Purpose.IsUnknown() {
		return nil, goerror.NewInvalidFormat("purpose is not recognized")
	}

	now := s.clock.Now()
	cooldown := s.issueCooldown()

	latest, err := s.repoDB.FindLatest(ctx, in.SubjectID, in.Purpose)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo find latest otp", "subject_id", in.SubjectID, "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}
	if latest != nil && latest.IsActive(now) && now.Sub(latest.CreatedAt) < cooldown {
		slog.WarnContext(ctx, "otp issuance throttled", "subject_id", in.SubjectID, "purpose", in.Purpose.String(), "last_issued_at", latest.CreatedAt)
		return nil, ErrIssuanceThrottled
	}

	code, err := s.code.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	rec := entity.CreateOTP{
		ID:             s.uid.Generate(),
		SubjectID:      in.SubjectID,
		ContactAddress: in.ContactAddress,
		Purpose:        in.Purpose,
		CodeHash:       string(codeHash),
		MaxAttempts:    s.maxAttempts(),
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.codeTTL()),
		RequestIP:      in.RequestIP,
		RequestAgent:   in.RequestAgent,
	}

	err = s.repoDB.Create(ctx, rec)
	if errors.Is(err, goerror.ErrConflict) {
		// A concurrent request won the active-row slot between the cooldown
		// check and the insert.
		slog.WarnContext(ctx, "otp issuance lost create race", "subject_id", in.SubjectID, "purpose", in.Purpose.String())
		return nil, ErrIssuanceThrottled
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create otp", "subject_id", in.SubjectID, "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "otp issued", "otp_id", rec.ID, "subject_id", in.SubjectID, "purpose", in.Purpose.String(), "expires_at", rec.ExpiresAt)

	// Delivery is fire-and-forget. A code that failed to publish is still a
	// valid, verifiable code; the subject can ask for a resend after the
	// cooldown.
	pubCtx := context.WithoutCancel(ctx)
	s.goroutine.Go(pubCtx, func(gCtx context.Context) error {
		if err := s.repoMessaging.PublishOTPIssued(gCtx, OTPIssuedEvent{
			OTPID:          rec.ID,
			SubjectID:      rec.SubjectID,
			ContactAddress: rec.ContactAddress,
			Purpose:        rec.Purpose.String(),
			Code:           code,
			ExpiresAt:      rec.ExpiresAt,
		}); err != nil {
			slog.ErrorContext(gCtx, "failed to publish otp issued", "otp_id", rec.ID, "error", err)
		}
		return nil
	})

	return &RequestCodeOutput{
		OTPID:     rec.ID,
		ExpiresAt: rec.ExpiresAt,
		ResendAt:  rec.CreatedAt.Add(cooldown),
	}, nil
}
