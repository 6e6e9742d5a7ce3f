package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/andresuryana/vericode/internal/otp/entity"
	"github.com/andresuryana/vericode/internal/pkg/goerror"
)

type FlaggedInput struct {
	WindowDays int   `validate:"omitempty,gt=0,lte=365"`
	Threshold  int64 `validate:"omitempty,gt=0"`
}

type FlaggedSubject struct {
	SubjectID int64
	Requests  int64
	LastAt    time.Time
}

type FlaggedOutput struct {
	WindowDays int
	Threshold  int64
	Subjects   []FlaggedSubject
}

// Flagged lists subjects whose issuance volume in the trailing window meets
// the review threshold. Read-only, never mutates records.
func (s *Usecase) Flagged(ctx context.Context, in FlaggedInput) (*FlaggedOutput, error) {
	ctx, span := s.startSpan(ctx, "Flagged")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	days := in.WindowDays
	if days <= 0 {
		days = s.flagWindowDays()
	}
	threshold := in.Threshold
	if threshold <= 0 {
		threshold = s.flagThreshold()
	}

	since := s.clock.Now().AddDate(0, 0, -days)
	subjects, err := s.repoDB.ListFlaggedSubjects(ctx, since, threshold)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list flagged subjects", "since", since, "threshold", threshold, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &FlaggedOutput{
		WindowDays: days,
		Threshold:  threshold,
		Subjects: lo.Map(subjects, func(fs entity.FlaggedSubject, _ int) FlaggedSubject {
			return FlaggedSubject{SubjectID: fs.SubjectID, Requests: fs.Requests, LastAt: fs.LastAt}
		}),
	}, nil
}
