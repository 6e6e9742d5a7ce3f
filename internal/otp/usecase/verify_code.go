package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/andresuryana/vericode/internal/otp/entity"
	"github.com/andresuryana/vericode/internal/pkg/goerror"
)

type VerifyCodeInput struct {
	SubjectID int64  `validate:"required,gt=0"`
	Purpose   entity.Purpose
	Code      string `validate:"required,len=6,digitcode"`
}

type VerifyCodeOutput struct {
	OTPID      int64
	VerifiedAt time.Time
}

// VerifyCode checks a submitted code against the latest record for the pair.
// Every call that locates a non-used record costs exactly one attempt, right
// or wrong; the read-increment-decide cycle reruns when a concurrent call
// wins the attempts compare-and-swap.
func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) (*VerifyCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if in.Purpose.IsUnknown() {
		return nil, goerror.NewInvalidFormat("purpose is not recognized")
	}

	var out *VerifyCodeOutput
	backoff := retry.WithMaxRetries(5, retry.NewConstant(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		out, err = s.verifyOnce(ctx, in)
		if errors.Is(err, goerror.ErrConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, goerror.ErrConflict) {
		slog.ErrorContext(ctx, "otp verify gave up after attempt races", "subject_id", in.SubjectID, "purpose", in.Purpose.String())
		return nil, goerror.NewServer(err)
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Usecase) verifyOnce(ctx context.Context, in VerifyCodeInput) (*VerifyCodeOutput, error) {
	rec, err := s.repoDB.FindLatest(ctx, in.SubjectID, in.Purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp verify found no record", "subject_id", in.SubjectID, "purpose", in.Purpose.String())
		return nil, ErrCodeInvalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find latest otp", "subject_id", in.SubjectID, "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.Used {
		slog.WarnContext(ctx, "otp verify replay against used record", "otp_id", rec.ID)
		return nil, ErrCodeAlreadyUsed
	}

	attempts, err := s.repoDB.CompareAndIncrementAttempts(ctx, rec.ID, rec.Attempts)
	if errors.Is(err, goerror.ErrConflict) {
		return nil, goerror.ErrConflict
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo increment otp attempts", "otp_id", rec.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "otp attempt recorded", "otp_id", rec.ID, "attempts", attempts, "max_attempts", rec.MaxAttempts)

	if attempts >= rec.MaxAttempts {
		if err := s.repoDB.MarkExpired(ctx, rec.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark otp expired", "otp_id", rec.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		slog.WarnContext(ctx, "otp attempt budget exhausted", "otp_id", rec.ID, "attempts", attempts)
		return nil, ErrCodeAttemptsExhausted
	}

	now := s.clock.Now()
	if rec.Expired || !rec.ExpiresAt.After(now) {
		if err := s.repoDB.MarkExpired(ctx, rec.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark otp expired", "otp_id", rec.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		slog.WarnContext(ctx, "otp verify against expired record", "otp_id", rec.ID, "expires_at", rec.ExpiresAt)
		return nil, ErrCodeInvalid
	}

	if !s.hmac.Verify(rec.CodeHash, in.Code) {
		slog.WarnContext(ctx, "otp verify code mismatch", "otp_id", rec.ID, "attempts", attempts)
		return nil, ErrCodeInvalid
	}

	err = s.repoDB.MarkUsed(ctx, rec.ID, now)
	if errors.Is(err, goerror.ErrConflict) {
		// Another call consumed the record between our increment and here.
		slog.WarnContext(ctx, "otp verify lost mark-used race", "otp_id", rec.ID)
		return nil, ErrCodeAlreadyUsed
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark otp used", "otp_id", rec.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "otp verified", "otp_id", rec.ID, "subject_id", rec.SubjectID, "purpose", rec.Purpose.String(), "attempts", attempts)

	return &VerifyCodeOutput{OTPID: rec.ID, VerifiedAt: now}, nil
}
