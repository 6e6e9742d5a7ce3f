package inbound

import (
	"context"

	"github.com/andresuryana/vericode/internal/delivery/usecase"
)

type uc interface {
	ConsumeOTPIssued(ctx context.Context, in usecase.ConsumeOTPIssuedInput) error
}
