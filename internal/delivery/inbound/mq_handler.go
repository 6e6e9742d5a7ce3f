package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/andresuryana/vericode/internal/delivery/usecase"
	"github.com/andresuryana/vericode/internal/pkg/instrument"
	"github.com/andresuryana/vericode/internal/pkg/messaging"
	"github.com/andresuryana/vericode/internal/pkg/uid"
	"github.com/andresuryana/vericode/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OTPIssuedDelivery(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("delivery.inbound.mq").Start(ctx, "OTPIssuedDelivery")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: otp issued delivery", "msg_id", msg.ID())

	var payload event.OTPIssuedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp issued delivery", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeOTPIssued(ctx, usecase.ConsumeOTPIssuedInput{
		OTPID:          payload.OTPID,
		SubjectID:      payload.SubjectID,
		ContactAddress: payload.ContactAddress,
		Purpose:        payload.Purpose,
		Code:           payload.Code,
		ExpiresAt:      time.Unix(payload.ExpiresAt, 0),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp issued delivery", "otp_id", payload.OTPID, "error", err)
		return err
	}

	return nil
}
