package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DeleteCreatedBefore purges records older than the retention cutoff,
// regardless of their status.
func (s *DB) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteCreatedBefore")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		DELETE FROM otp_codes
		WHERE created_at < $1`,
		pgtype.Timestamptz{Time: cutoff, Valid: true},
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
