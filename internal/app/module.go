package app

import (
	"log/slog"
	"os"

	"github.com/andresuryana/vericode/internal/delivery"
	"github.com/andresuryana/vericode/internal/otp"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.otp.enabled") {
		if err := otp.New(otp.Dependency{
			Ctx:           a.ctx,
			DBConn:        a.dbConn,
			Goroutine:     a.goroutine,
			Router:        a.router,
			Messaging:     a.messaging,
			Storage:       a.storage,
			Config:        a.config,
			Instrument:    a.ins,
			UID:           a.uid,
			HMAC:          a.hmac,
			CodeGenerator: a.code,
			Clock:         a.clock,
			Validator:     a.validator,
		}); err != nil {
			slog.Error("failed to init module otp", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.delivery.enabled") {
		if err := delivery.New(delivery.Dependency{
			Ctx:         a.ctx,
			Goroutine:   a.goroutine,
			Messaging:   a.messaging,
			Idempotency: a.idemp,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Validator:   a.validator,
			Mail:        a.mail,
		}); err != nil {
			slog.Error("failed to init module delivery", "error", err)
			os.Exit(1)
		}
	}
}
