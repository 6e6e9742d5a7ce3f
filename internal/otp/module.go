package otp

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andresuryana/vericode/internal/otp/inbound"
	"github.com/andresuryana/vericode/internal/otp/job"
	"github.com/andresuryana/vericode/internal/otp/outbound/db"
	"github.com/andresuryana/vericode/internal/otp/outbound/mq"
	"github.com/andresuryana/vericode/internal/otp/usecase"
	"github.com/andresuryana/vericode/internal/pkg/clock"
	"github.com/andresuryana/vericode/internal/pkg/config"
	"github.com/andresuryana/vericode/internal/pkg/goroutine"
	"github.com/andresuryana/vericode/internal/pkg/hash"
	"github.com/andresuryana/vericode/internal/pkg/instrument"
	"github.com/andresuryana/vericode/internal/pkg/messaging"
	"github.com/andresuryana/vericode/internal/pkg/otpcode"
	"github.com/andresuryana/vericode/internal/pkg/router"
	"github.com/andresuryana/vericode/internal/pkg/storage"
	"github.com/andresuryana/vericode/internal/pkg/uid"
	"github.com/andresuryana/vericode/internal/pkg/validator"
)

type Dependency struct {
	Ctx           context.Context
	DBConn        *pgxpool.Pool              `validate:"required"`
	Goroutine     *goroutine.Manager         `validate:"required"`
	Router        *router.Router             `validate:"required"`
	Messaging     messaging.Messaging        `validate:"required"`
	Storage       storage.Storage            `validate:"required"`
	Config        config.Config              `validate:"required"`
	Instrument    instrument.Instrumentation `validate:"required"`
	UID           uid.NumberID               `validate:"required"`
	HMAC          hash.Hash                  `validate:"required"`
	CodeGenerator otpcode.Generator          `validate:"required"`
	Clock         clock.Clocker              `validate:"required"`
	Validator     validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbOTP := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbOTP,
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Storage:       dep.Storage,
		HMAC:          dep.HMAC,
		CodeGenerator: dep.CodeGenerator,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		job.NewReaper(dep.Config, uc).Start(dep.Ctx, dep.Goroutine)
	}

	return nil
}
