package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/andresuryana/vericode/internal/pkg/goerror"
)

type PurgeInput struct {
	RetentionDays int `validate:"omitempty,gt=0,lte=3650"`
}

type PurgeOutput struct {
	Deleted int64
	Cutoff  time.Time
}

// Purge deletes records older than the retention window, whatever their
// status. Zero RetentionDays falls back to the configured default.
func (s *Usecase) Purge(ctx context.Context, in PurgeInput) (*PurgeOutput, error) {
	ctx, span := s.startSpan(ctx, "Purge")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	days := in.RetentionDays
	if days <= 0 {
		days = s.retentionDays()
	}

	cutoff := s.clock.Now().AddDate(0, 0, -days)
	count, err := s.repoDB.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo purge otp records", "cutoff", cutoff, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "otp purge completed", "deleted", count, "cutoff", cutoff)

	return &PurgeOutput{Deleted: count, Cutoff: cutoff}, nil
}
