package usecase

import (
	"context"
	"log/slog"

	"github.com/andresuryana/vericode/internal/pkg/goerror"
)

type SweepOutput struct {
	Swept int64
}

// Sweep flips unused records past their TTL to expired. It is idempotent and
// safe to run on any schedule or on demand.
func (s *Usecase) Sweep(ctx context.Context) (*SweepOutput, error) {
	ctx, span := s.startSpan(ctx, "Sweep")
	defer span.End()

	count, err := s.repoDB.SweepExpired(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo sweep expired otp", "error", err)
		return nil, goerror.NewServer(err)
	}

	if count > 0 {
		slog.InfoContext(ctx, "otp sweep transitioned records", "count", count)
	}

	return &SweepOutput{Swept: count}, nil
}
