package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/andresuryana/vericode/internal/pkg/goerror"
	"github.com/andresuryana/vericode/internal/pkg/storage"
)

type StatsExportInput struct {
	WindowDays int `validate:"omitempty,gt=0,lte=365"`
}

type StatsExportOutput struct {
	Bucket      string
	Key         string
	DownloadURL string
	ExpiresIn   time.Duration
}

// StatsExport renders the stats snapshot as JSON and uploads it to object
// storage for the reporting pipeline, returning a short-lived download URL.
func (s *Usecase) StatsExport(ctx context.Context, in StatsExportInput) (*StatsExportOutput, error) {
	ctx, span := s.startSpan(ctx, "StatsExport")
	defer span.End()

	stats, err := s.Stats(ctx, StatsInput{WindowDays: in.WindowDays})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	payload := map[string]any{
		"generated_at":     now.UTC().Format(time.RFC3339),
		"window_days":      stats.WindowDays,
		"total":            stats.Total,
		"used":             stats.Used,
		"expired":          stats.Expired,
		"active":           stats.Active,
		"success_rate":     stats.SuccessRate,
		"average_attempts": stats.AverageAttempts,
		"per_purpose":      stats.PerPurpose,
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal otp stats report", "error", err)
		return nil, goerror.NewServer(err)
	}

	bucket := s.cfg.GetString("modules.otp.report_bucket")
	key := "otp-stats/" + now.UTC().Format("20060102T150405Z") + ".json"

	if _, err := s.storage.PutObject(ctx, bucket, key, bytes.NewReader(body), storage.PutOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
	}); err != nil {
		slog.ErrorContext(ctx, "failed to upload otp stats report", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	const urlTTL = 15 * time.Minute
	url, err := s.storage.PresignGet(ctx, bucket, key, urlTTL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign otp stats report", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "otp stats report exported", "bucket", bucket, "key", key)

	return &StatsExportOutput{
		Bucket:      bucket,
		Key:         key,
		DownloadURL: url,
		ExpiresIn:   urlTTL,
	}, nil
}
