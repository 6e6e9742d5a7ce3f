package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/andresuryana/vericode/internal/otp/entity"
	"github.com/andresuryana/vericode/internal/pkg/goerror"
)

type StatsInput struct {
	WindowDays int `validate:"omitempty,gt=0,lte=365"`
}

type StatsOutput struct {
	WindowDays      int
	Total           int64
	Used            int64
	Expired         int64
	Active          int64
	SuccessRate     float64
	AverageAttempts float64
	PerPurpose      map[string]int64
}

// Stats aggregates issuance outcomes over the trailing window for
// operational reporting.
func (s *Usecase) Stats(ctx context.Context, in StatsInput) (*StatsOutput, error) {
	ctx, span := s.startSpan(ctx, "Stats")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	days := in.WindowDays
	if days <= 0 {
		days = s.flagWindowDays()
	}

	now := s.clock.Now()
	sum, err := s.repoDB.GetStatsSummary(ctx, now.AddDate(0, 0, -days), now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp stats summary", "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &StatsOutput{
		WindowDays: days,
		Total:      sum.Total,
		Used:       sum.Used,
		Expired:    sum.Expired,
		Active:     sum.Active,
		PerPurpose: lo.MapEntries(sum.PerPurpose, func(p entity.Purpose, count int64) (string, int64) {
			return p.String(), count
		}),
	}
	if sum.Total > 0 {
		out.SuccessRate = float64(sum.Used) / float64(sum.Total)
		out.AverageAttempts = float64(sum.TotalAttempts) / float64(sum.Total)
	}

	return out, nil
}
