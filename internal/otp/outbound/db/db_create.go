package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/andresuryana/vericode/internal/otp/entity"
)

// Create inserts a fresh record with attempts=0 and both flags down, expiring
// any older active record for the same (subject_id, purpose) pair in the same
// transaction. The partial unique index on active rows turns a racing
// duplicate insert into goerror.ErrConflict, which makes the issuer's
// check-then-create atomic.
func (s *DB) Create(ctx context.Context, in entity.CreateOTP) (err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	_, err = tx.Exec(ctx, `
		UPDATE otp_codes
		SET expired = TRUE
		WHERE subject_id = $1 AND purpose = $2 AND NOT used AND NOT expired`,
		in.SubjectID,
		int16(in.Purpose),
	)
	if err != nil {
		return s.mapError(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO otp_codes (
			id, subject_id, contact_address, purpose, code_hash,
			used, expired, attempts, max_attempts,
			created_at, expires_at, request_ip, request_agent
		) VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, 0, $6, $7, $8, $9, $10)`,
		in.ID,
		in.SubjectID,
		in.ContactAddress,
		int16(in.Purpose),
		in.CodeHash,
		in.MaxAttempts,
		pgtype.Timestamptz{Time: in.CreatedAt, Valid: true},
		pgtype.Timestamptz{Time: in.ExpiresAt, Valid: true},
		in.RequestIP,
		in.RequestAgent,
	)
	if err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
