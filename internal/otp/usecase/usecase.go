package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/andresuryana/vericode/internal/otp/entity"
	"github.com/andresuryana/vericode/internal/pkg/clock"
	"github.com/andresuryana/vericode/internal/pkg/config"
	"github.com/andresuryana/vericode/internal/pkg/goerror"
	"github.com/andresuryana/vericode/internal/pkg/goroutine"
	"github.com/andresuryana/vericode/internal/pkg/hash"
	"github.com/andresuryana/vericode/internal/pkg/instrument"
	"github.com/andresuryana/vericode/internal/pkg/otpcode"
	"github.com/andresuryana/vericode/internal/pkg/storage"
	"github.com/andresuryana/vericode/internal/pkg/uid"
	"github.com/andresuryana/vericode/internal/pkg/validator"
)

// Failure outcomes share one user-facing message so a caller cannot tell a
// wrong code from an expired one, while remaining distinct values for the
// code paths that need to branch on them.
var (
	ErrCodeInvalid           = goerror.NewBusiness("Invalid or expired code", goerror.CodeInvalidInput)
	ErrCodeAttemptsExhausted = goerror.NewBusiness("Invalid or expired code", goerror.CodeInvalidInput)
	ErrCodeAlreadyUsed       = goerror.NewBusiness("Invalid or expired code", goerror.CodeInvalidInput)
	ErrIssuanceThrottled     = goerror.NewBusiness("Please wait before requesting a new code", goerror.CodeTooManyRequest)
)

type OTPIssuedEvent struct {
	OTPID          int64
	SubjectID      int64
	ContactAddress string
	Purpose        string
	Code           string
	ExpiresAt      time.Time
}

type repoMessaging interface {
	PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error
}

type repoDB interface {
	FindLatest(ctx context.Context, subjectID int64, purpose entity.Purpose) (*entity.OTPRecord, error)
	GetByID(ctx context.Context, id int64) (*entity.OTPRecord, error)
	ListFlaggedSubjects(ctx context.Context, since time.Time, threshold int64) ([]entity.FlaggedSubject, error)
	GetStatsSummary(ctx context.Context, since, now time.Time) (*entity.StatsSummary, error)

	Create(ctx context.Context, in entity.CreateOTP) error

	CompareAndIncrementAttempts(ctx context.Context, id int64, expectedAttempts int32) (int32, error)
	MarkUsed(ctx context.Context, id int64, verifiedAt time.Time) error
	MarkExpired(ctx context.Context, id int64) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)

	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	hmac          hash.Hash
	code          otpcode.Generator
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	HMAC          hash.Hash
	CodeGenerator otpcode.Generator
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		hmac:          dep.HMAC,
		code:          dep.CodeGenerator,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) codeTTL() time.Duration {
	if ttl := s.cfg.GetMinute("modules.otp.ttl_minutes"); ttl > 0 {
		return ttl
	}
	return 10 * time.Minute
}

func (s *Usecase) issueCooldown() time.Duration {
	if cd := s.cfg.GetSecond("modules.otp.cooldown_seconds"); cd > 0 {
		return cd
	}
	return 60 * time.Second
}

func (s *Usecase) maxAttempts() int32 {
	if m := s.cfg.GetInt32("modules.otp.max_attempts"); m > 0 {
		return m
	}
	return 5
}

func (s *Usecase) retentionDays() int {
	if d := s.cfg.GetInt("modules.otp.retention_days"); d > 0 {
		return d
	}
	return 30
}

func (s *Usecase) flagWindowDays() int {
	if d := s.cfg.GetInt("modules.otp.flag_window_days"); d > 0 {
		return d
	}
	return 7
}

func (s *Usecase) flagThreshold() int64 {
	if t := s.cfg.GetInt64("modules.otp.flag_threshold"); t > 0 {
		return t
	}
	return 10
}
