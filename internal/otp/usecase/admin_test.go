package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andresuryana/vericode/internal/otp/entity"
	"github.com/andresuryana/vericode/internal/pkg/goerror"
)

func TestSweep(t *testing.T) {

	t.Run("TransitionsOnlyStaleUnusedRecords", func(t *testing.T) {

		// Arrange
		f := newFixture(t)
		now := f.clock.At
		f.seed(entity.OTPRecord{ID: 1, SubjectID: 1, Purpose: entity.PurposeLogin2FA, MaxAttempts: 5,
			CreatedAt: now.Add(-20 * time.Minute), ExpiresAt: now.Add(-10 * time.Minute)})
		f.seed(entity.OTPRecord{ID: 2, SubjectID: 2, Purpose: entity.PurposeLogin2FA, MaxAttempts: 5,
			CreatedAt: now.Add(-5 * time.Minute), ExpiresAt: now.Add(5 * time.Minute)})
		f.seed(entity.OTPRecord{ID: 3, SubjectID: 3, Purpose: entity.PurposeLogin2FA, MaxAttempts: 5, Used: true,
			CreatedAt: now.Add(-20 * time.Minute), ExpiresAt: now.Add(-10 * time.Minute)})

		// Act
		out, err := f.uc.Sweep(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if out.Swept != 1 {
			t.Fatalf("swept = %d, want 1", out.Swept)
		}
		if rec := f.db.record(t, 1); !rec.Expired {
			t.Fatalf("stale record must be expired")
		}
		if rec := f.db.record(t, 2); rec.Expired {
			t.Fatalf("live record must be untouched")
		}
		if rec := f.db.record(t, 3); rec.Expired {
			t.Fatalf("used record must be left to the purge, not the sweep")
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		f := newFixture(t)
		f.seed(entity.OTPRecord{ID: 1, SubjectID: 1, Purpose: entity.PurposeLogin2FA, MaxAttempts: 5,
			CreatedAt: f.clock.At.Add(-20 * time.Minute), ExpiresAt: f.clock.At.Add(-10 * time.Minute)})

		if out, err := f.uc.Sweep(context.Background()); err != nil || out.Swept != 1 {
			t.Fatalf("first sweep = (%+v, %v), want 1 swept", out, err)
		}
		if out, err := f.uc.Sweep(context.Background()); err != nil || out.Swept != 0 {
			t.Fatalf("second sweep = (%+v, %v), want 0 swept", out, err)
		}
	})

	t.Run("RepoFailure", func(t *testing.T) {
		f := newFixture(t)
		f.db.sweepErr = errors.New("connection reset")

		_, err := f.uc.Sweep(context.Background())

		var gErr *goerror.Error
		if !errors.As(err, &gErr) || gErr.Type() != goerror.TypeServer {
			t.Fatalf("expected server error, got %v", err)
		}
	})
}

func TestPurge(t *testing.T) {

	t.Run("DeletesBeyondRetention", func(t *testing.T) {

		// Arrange
		f := newFixture(t)
		now := f.clock.At
		f.seed(entity.OTPRecord{ID: 1, SubjectID: 1, Purpose: entity.PurposeLogin2FA, Used: true,
			CreatedAt: now.AddDate(0, 0, -31), ExpiresAt: now.AddDate(0, 0, -31).Add(10 * time.Minute)})
		f.seed(entity.OTPRecord{ID: 2, SubjectID: 2, Purpose: entity.PurposeLogin2FA, Expired: true,
			CreatedAt: now.AddDate(0, 0, -40), ExpiresAt: now.AddDate(0, 0, -40).Add(10 * time.Minute)})
		f.seed(entity.OTPRecord{ID: 3, SubjectID: 3, Purpose: entity.PurposeLogin2FA,
			CreatedAt: now.AddDate(0, 0, -5), ExpiresAt: now.AddDate(0, 0, -5).Add(10 * time.Minute)})

		// Act
		out, err := f.uc.Purge(context.Background(), PurgeInput{})

		// Assert
		if err != nil {
			t.Fatalf("purge failed: %v", err)
		}
		if out.Deleted != 2 {
			t.Fatalf("deleted = %d, want 2", out.Deleted)
		}
		if want := now.AddDate(0, 0, -30); !out.Cutoff.Equal(want) {
			t.Fatalf("cutoff = %v, want %v", out.Cutoff, want)
		}
		if _, err := f.db.GetByID(context.Background(), 3); err != nil {
			t.Fatalf("recent record must survive the purge: %v", err)
		}
	})

	t.Run("ExplicitRetention", func(t *testing.T) {
		f := newFixture(t)
		f.seed(entity.OTPRecord{ID: 1, SubjectID: 1, Purpose: entity.PurposeLogin2FA, Used: true,
			CreatedAt: f.clock.At.AddDate(0, 0, -10), ExpiresAt: f.clock.At.AddDate(0, 0, -10).Add(10 * time.Minute)})

		out, err := f.uc.Purge(context.Background(), PurgeInput{RetentionDays: 7})
		if err != nil {
			t.Fatalf("purge failed: %v", err)
		}
		if out.Deleted != 1 {
			t.Fatalf("deleted = %d, want 1", out.Deleted)
		}
	})

	t.Run("RejectsOutOfRangeRetention", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.Purge(context.Background(), PurgeInput{RetentionDays: 4000})

		var gErr *goerror.Error
		if !errors.As(err, &gErr) || gErr.Type() != goerror.TypeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestFlagged(t *testing.T) {

	t.Run("ListsSubjectsAtThreshold", func(t *testing.T) {

		// Arrange: subject 42 has 10 requests in the window, subject 7 has 3.
		f := newFixture(t)
		now := f.clock.At
		id := int64(100)
		for i := 0; i < 10; i++ {
			id++
			f.seed(entity.OTPRecord{ID: id, SubjectID: 42, Purpose: entity.PurposeLogin2FA, Expired: true,
				CreatedAt: now.Add(-time.Duration(i) * time.Hour), ExpiresAt: now.Add(10 * time.Minute)})
		}
		for i := 0; i < 3; i++ {
			id++
			f.seed(entity.OTPRecord{ID: id, SubjectID: 7, Purpose: entity.PurposeLogin2FA, Expired: true,
				CreatedAt: now.Add(-time.Duration(i) * time.Hour), ExpiresAt: now.Add(10 * time.Minute)})
		}

		// Act
		out, err := f.uc.Flagged(context.Background(), FlaggedInput{})

		// Assert
		if err != nil {
			t.Fatalf("flagged failed: %v", err)
		}
		if out.WindowDays != 7 || out.Threshold != 10 {
			t.Fatalf("defaults = (%d, %d), want (7, 10)", out.WindowDays, out.Threshold)
		}
		if len(out.Subjects) != 1 || out.Subjects[0].SubjectID != 42 {
			t.Fatalf("subjects = %+v, want only subject 42", out.Subjects)
		}
		if out.Subjects[0].Requests != 10 {
			t.Fatalf("requests = %d, want 10", out.Subjects[0].Requests)
		}
		if !out.Subjects[0].LastAt.Equal(now) {
			t.Fatalf("last_at = %v, want %v", out.Subjects[0].LastAt, now)
		}
	})

	t.Run("IgnoresRequestsOutsideWindow", func(t *testing.T) {
		f := newFixture(t)
		now := f.clock.At
		for i := 0; i < 12; i++ {
			f.seed(entity.OTPRecord{ID: int64(200 + i), SubjectID: 42, Purpose: entity.PurposeLogin2FA, Expired: true,
				CreatedAt: now.AddDate(0, 0, -10), ExpiresAt: now.AddDate(0, 0, -10).Add(10 * time.Minute)})
		}

		out, err := f.uc.Flagged(context.Background(), FlaggedInput{})
		if err != nil {
			t.Fatalf("flagged failed: %v", err)
		}
		if len(out.Subjects) != 0 {
			t.Fatalf("subjects = %+v, want none", out.Subjects)
		}
	})

	t.Run("CustomWindowAndThreshold", func(t *testing.T) {
		f := newFixture(t)
		now := f.clock.At
		f.seed(entity.OTPRecord{ID: 1, SubjectID: 42, Purpose: entity.PurposeLogin2FA, Expired: true,
			CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(10 * time.Minute)})
		f.seed(entity.OTPRecord{ID: 2, SubjectID: 42, Purpose: entity.PurposeLogin2FA, Expired: true,
			CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(10 * time.Minute)})

		out, err := f.uc.Flagged(context.Background(), FlaggedInput{WindowDays: 1, Threshold: 2})
		if err != nil {
			t.Fatalf("flagged failed: %v", err)
		}
		if len(out.Subjects) != 1 || out.Subjects[0].Requests != 2 {
			t.Fatalf("subjects = %+v, want subject 42 with 2 requests", out.Subjects)
		}
	})
}

func TestStats(t *testing.T) {

	seedMix := func(f *fixture) {
		now := f.clock.At
		f.seed(entity.OTPRecord{ID: 1, SubjectID: 1, Purpose: entity.PurposeEmailVerification, Used: true, Attempts: 1, MaxAttempts: 5,
			CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-50 * time.Minute)})
		f.seed(entity.OTPRecord{ID: 2, SubjectID: 2, Purpose: entity.PurposeLogin2FA, Used: true, Attempts: 3, MaxAttempts: 5,
			CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-110 * time.Minute)})
		f.seed(entity.OTPRecord{ID: 3, SubjectID: 3, Purpose: entity.PurposeLogin2FA, Expired: true, Attempts: 5, MaxAttempts: 5,
			CreatedAt: now.Add(-3 * time.Hour), ExpiresAt: now.Add(-170 * time.Minute)})
		f.seed(entity.OTPRecord{ID: 4, SubjectID: 4, Purpose: entity.PurposePasswordReset, Attempts: 1, MaxAttempts: 5,
			CreatedAt: now.Add(-time.Minute), ExpiresAt: now.Add(9 * time.Minute)})
	}

	t.Run("AggregatesWindow", func(t *testing.T) {

		// Arrange
		f := newFixture(t)
		seedMix(f)

		// Act
		out, err := f.uc.Stats(context.Background(), StatsInput{})

		// Assert
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if out.Total != 4 || out.Used != 2 || out.Expired != 1 || out.Active != 1 {
			t.Fatalf("totals = %+v, want 4/2/1/1", out)
		}
		if out.SuccessRate != 0.5 {
			t.Fatalf("success rate = %v, want 0.5", out.SuccessRate)
		}
		if out.AverageAttempts != 2.5 {
			t.Fatalf("average attempts = %v, want 2.5", out.AverageAttempts)
		}
		if out.PerPurpose["LOGIN_2FA"] != 2 || out.PerPurpose["EMAIL_VERIFICATION"] != 1 || out.PerPurpose["PASSWORD_RESET"] != 1 {
			t.Fatalf("per purpose = %+v", out.PerPurpose)
		}
	})

	t.Run("EmptyWindow", func(t *testing.T) {
		f := newFixture(t)

		out, err := f.uc.Stats(context.Background(), StatsInput{})
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if out.Total != 0 || out.SuccessRate != 0 || out.AverageAttempts != 0 {
			t.Fatalf("empty window must report zeros, got %+v", out)
		}
	})

	t.Run("ExportUploadsSnapshot", func(t *testing.T) {

		// Arrange
		f := newFixture(t)
		f.cfg.values["modules.otp.report_bucket"] = "reports"
		seedMix(f)

		// Act
		out, err := f.uc.StatsExport(context.Background(), StatsExportInput{})

		// Assert
		if err != nil {
			t.Fatalf("stats export failed: %v", err)
		}
		if out.Bucket != "reports" {
			t.Fatalf("bucket = %q, want reports", out.Bucket)
		}
		if !strings.HasPrefix(out.Key, "otp-stats/") || !strings.HasSuffix(out.Key, ".json") {
			t.Fatalf("key = %q, want otp-stats/<timestamp>.json", out.Key)
		}
		if out.DownloadURL == "" {
			t.Fatalf("expected a presigned download url")
		}

		body, ok := f.store.objects["reports/"+out.Key]
		if !ok {
			t.Fatalf("snapshot not uploaded, objects=%v", f.store.objects)
		}

		var snapshot map[string]any
		if err := json.Unmarshal(body, &snapshot); err != nil {
			t.Fatalf("snapshot is not valid json: %v", err)
		}
		if snapshot["total"] != float64(4) || snapshot["used"] != float64(2) {
			t.Fatalf("snapshot = %v", snapshot)
		}
	})
}
