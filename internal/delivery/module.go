package delivery

import (
	"context"

	"github.com/andresuryana/vericode/internal/delivery/inbound"
	"github.com/andresuryana/vericode/internal/delivery/outbound/email"
	"github.com/andresuryana/vericode/internal/delivery/usecase"
	"github.com/andresuryana/vericode/internal/pkg/clock"
	"github.com/andresuryana/vericode/internal/pkg/config"
	"github.com/andresuryana/vericode/internal/pkg/goroutine"
	"github.com/andresuryana/vericode/internal/pkg/idempotency"
	"github.com/andresuryana/vericode/internal/pkg/instrument"
	"github.com/andresuryana/vericode/internal/pkg/mail"
	"github.com/andresuryana/vericode/internal/pkg/messaging"
	"github.com/andresuryana/vericode/internal/pkg/uid"
	"github.com/andresuryana/vericode/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	Goroutine   *goroutine.Manager         `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoMail := email.New(dep.Mail, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoMail:    repoMail,
		Idempotency: dep.Idempotency,
		Config:      dep.Config,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		Instrument:  dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
