package entity

import "time"

// OTPRecord is the single source of truth for one issued code. Only the
// validator mutates Used, Attempts and VerifiedAt; only the validator and
// the reaper flip Expired; both flags are monotonic.
type OTPRecord struct {
	ID             int64
	SubjectID      int64
	ContactAddress string
	Purpose        Purpose
	CodeHash       string
	Used           bool
	Expired        bool
	Attempts       int32
	MaxAttempts    int32
	CreatedAt      time.Time
	ExpiresAt      time.Time
	VerifiedAt     *time.Time
	RequestIP      string
	RequestAgent   string
}

// IsActive reports whether the record can still be verified at the given
// instant: unused, not flagged expired, inside its TTL and under budget.
func (r OTPRecord) IsActive(now time.Time) bool {
	return !r.Used && !r.Expired && r.ExpiresAt.After(now) && r.Attempts < r.MaxAttempts
}

type CreateOTP struct {
	ID             int64
	SubjectID      int64
	ContactAddress string
	Purpose        Purpose
	CodeHash       string
	MaxAttempts    int32
	CreatedAt      time.Time
	ExpiresAt      time.Time
	RequestIP      string
	RequestAgent   string
}

type FlaggedSubject struct {
	SubjectID int64
	Requests  int64
	LastAt    time.Time
}

type StatsSummary struct {
	Total         int64
	Used          int64
	Expired       int64
	Active        int64
	TotalAttempts int64
	PerPurpose    map[Purpose]int64
}
