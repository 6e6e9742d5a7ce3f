package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/andresuryana/vericode/internal/otp/entity"
)

const otpColumns = `id, subject_id, contact_address, purpose, code_hash, used, expired,
	attempts, max_attempts, created_at, expires_at, verified_at, request_ip, request_agent`

func scanOTP(row pgx.Row) (*entity.OTPRecord, error) {
	var (
		rec        entity.OTPRecord
		purpose    int16
		createdAt  pgtype.Timestamptz
		expiresAt  pgtype.Timestamptz
		verifiedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&rec.ID,
		&rec.SubjectID,
		&rec.ContactAddress,
		&purpose,
		&rec.CodeHash,
		&rec.Used,
		&rec.Expired,
		&rec.Attempts,
		&rec.MaxAttempts,
		&createdAt,
		&expiresAt,
		&verifiedAt,
		&rec.RequestIP,
		&rec.RequestAgent,
	)
	if err != nil {
		return nil, err
	}

	rec.Purpose = entity.Purpose(purpose)
	rec.CreatedAt = createdAt.Time
	rec.ExpiresAt = expiresAt.Time
	if verifiedAt.Valid {
		t := verifiedAt.Time
		rec.VerifiedAt = &t
	}

	return &rec, nil
}

// FindLatest returns the most recent record for the pair regardless of its
// status, so callers can tell "never requested" apart from "already consumed".
func (s *DB) FindLatest(ctx context.Context, subjectID int64, purpose entity.Purpose) (_ *entity.OTPRecord, err error) {
	ctx, span := s.startSpan(ctx, "FindLatest")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT `+otpColumns+`
		FROM otp_codes
		WHERE subject_id = $1 AND purpose = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		subjectID, int16(purpose),
	)

	rec, err := scanOTP(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return rec, nil
}

func (s *DB) GetByID(ctx context.Context, id int64) (_ *entity.OTPRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetByID")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT `+otpColumns+`
		FROM otp_codes
		WHERE id = $1`,
		id,
	)

	rec, err := scanOTP(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return rec, nil
}

func (s *DB) ListFlaggedSubjects(ctx context.Context, since time.Time, threshold int64) (_ []entity.FlaggedSubject, err error) {
	ctx, span := s.startSpan(ctx, "ListFlaggedSubjects")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT subject_id, COUNT(*) AS requests, MAX(created_at) AS last_at
		FROM otp_codes
		WHERE created_at >= $1
		GROUP BY subject_id
		HAVING COUNT(*) >= $2
		ORDER BY requests DESC, subject_id ASC`,
		pgtype.Timestamptz{Time: since, Valid: true}, threshold,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var out []entity.FlaggedSubject
	for rows.Next() {
		var (
			fs     entity.FlaggedSubject
			lastAt pgtype.Timestamptz
		)
		if err = rows.Scan(&fs.SubjectID, &fs.Requests, &lastAt); err != nil {
			return nil, s.mapError(err)
		}
		fs.LastAt = lastAt.Time
		out = append(out, fs)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return out, nil
}

func (s *DB) GetStatsSummary(ctx context.Context, since, now time.Time) (_ *entity.StatsSummary, err error) {
	ctx, span := s.startSpan(ctx, "GetStatsSummary")
	defer func() { s.endSpan(span, err) }()

	sum := &entity.StatsSummary{PerPurpose: make(map[entity.Purpose]int64)}
	sinceTs := pgtype.Timestamptz{Time: since, Valid: true}

	row := s.conn.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE used),
			COUNT(*) FILTER (WHERE expired),
			COUNT(*) FILTER (WHERE NOT used AND NOT expired AND expires_at > $2 AND attempts < max_attempts),
			COALESCE(SUM(attempts), 0)
		FROM otp_codes
		WHERE created_at >= $1`,
		sinceTs, pgtype.Timestamptz{Time: now, Valid: true},
	)
	if err = row.Scan(&sum.Total, &sum.Used, &sum.Expired, &sum.Active, &sum.TotalAttempts); err != nil {
		return nil, s.mapError(err)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT purpose, COUNT(*)
		FROM otp_codes
		WHERE created_at >= $1
		GROUP BY purpose`,
		sinceTs,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			purpose int16
			count   int64
		)
		if err = rows.Scan(&purpose, &count); err != nil {
			return nil, s.mapError(err)
		}
		sum.PerPurpose[entity.Purpose(purpose)] = count
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return sum, nil
}
