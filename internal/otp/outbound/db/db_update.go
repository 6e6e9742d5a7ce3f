package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/andresuryana/vericode/internal/pkg/goerror"
)

// CompareAndIncrementAttempts bumps attempts by one only when the stored
// value still equals expectedAttempts. A concurrent verify that got there
// first makes the guard miss and the call returns goerror.ErrConflict, so
// every increment maps to exactly one locating call.
func (s *DB) CompareAndIncrementAttempts(ctx context.Context, id int64, expectedAttempts int32) (_ int32, err error) {
	ctx, span := s.startSpan(ctx, "CompareAndIncrementAttempts")
	defer func() { s.endSpan(span, err) }()

	var attempts int32
	err = s.conn.QueryRow(ctx, `
		UPDATE otp_codes
		SET attempts = attempts + 1
		WHERE id = $1 AND attempts = $2 AND NOT used
		RETURNING attempts`,
		id, expectedAttempts,
	).Scan(&attempts)
	if err != nil {
		err = s.mapError(err)
		if errors.Is(err, goerror.ErrNotFound) {
			err = goerror.ErrConflict
		}
		return 0, err
	}

	return attempts, nil
}

// MarkUsed flips used exactly once; a second call finds no unused row and
// reports Conflict so a replay can never re-trigger success.
func (s *DB) MarkUsed(ctx context.Context, id int64, verifiedAt time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkUsed")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE otp_codes
		SET used = TRUE, verified_at = $2
		WHERE id = $1 AND NOT used`,
		id, pgtype.Timestamptz{Time: verifiedAt, Valid: true},
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrConflict
	}

	return nil
}

func (s *DB) MarkExpired(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "MarkExpired")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE otp_codes
		SET expired = TRUE
		WHERE id = $1 AND NOT expired`,
		id,
	)

	err = s.mapError(err)
	return err
}

// SweepExpired transitions every unused record past its TTL. It never
// touches used or attempts, so it is safe under overlap with verification.
func (s *DB) SweepExpired(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE otp_codes
		SET expired = TRUE
		WHERE NOT used AND NOT expired AND expires_at < $1`,
		pgtype.Timestamptz{Time: now, Valid: true},
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
