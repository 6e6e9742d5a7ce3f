package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuryana/vericode/internal/pkg/clock"
	"github.com/andresuryana/vericode/internal/pkg/idempotency"
	"github.com/andresuryana/vericode/internal/pkg/instrument"
	"github.com/andresuryana/vericode/internal/pkg/mail"
	"github.com/andresuryana/vericode/internal/pkg/validator"
)

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// fakeIdempotency remembers completed keys in memory.
type fakeIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
}

func (f *fakeIdempotency) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done[key] {
		return idempotency.StateCompleted, nil
	}
	return idempotency.StateNone, nil
}

func (f *fakeIdempotency) MarkCompleted(_ context.Context, key string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done == nil {
		f.done = map[string]bool{}
	}
	f.done[key] = true
	return nil
}

func (f *fakeIdempotency) MarkFailed(_ context.Context, _ string, _ time.Duration) error {
	return nil
}

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.mu.Lock()
	if f.done == nil {
		f.done = map[string]bool{}
	}
	if f.done[key] {
		f.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	f.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	f.done[key] = true
	f.mu.Unlock()
	return nil
}

type consumeFixture struct {
	uc    *Usecase
	mail  *fakeMail
	idemp *fakeIdempotency
	clock *clock.Fixed
}

func newConsumeFixture(t *testing.T) *consumeFixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	f := &consumeFixture{
		mail:  &fakeMail{},
		idemp: &fakeIdempotency{},
		clock: &clock.Fixed{At: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}

	f.uc = New(Dependency{
		RepoMail:    f.mail,
		Idempotency: f.idemp,
		Config:      &staticConfig{name: "VeriCode"},
		Clock:       f.clock,
		Validator:   v,
		Instrument:  instrument.NewNoop(),
	})

	return f
}

// staticConfig serves app.name and zero for everything else.
type staticConfig struct {
	name string
}

func (c *staticConfig) Close() error { return nil }
func (c *staticConfig) GetBool(string) bool {
	return false
}
func (c *staticConfig) GetString(key string) string {
	if key == "app.name" {
		return c.name
	}
	return ""
}
func (c *staticConfig) GetInt(string) int               { return 0 }
func (c *staticConfig) GetInt32(string) int32           { return 0 }
func (c *staticConfig) GetInt64(string) int64           { return 0 }
func (c *staticConfig) GetUint16(string) uint16         { return 0 }
func (c *staticConfig) GetFloat64(string) float64       { return 0 }
func (c *staticConfig) GetSecond(string) time.Duration  { return 0 }
func (c *staticConfig) GetMinute(string) time.Duration  { return 0 }
func (c *staticConfig) GetHour(string) time.Duration    { return 0 }
func (c *staticConfig) GetDay(string) time.Duration     { return 0 }
func (c *staticConfig) GetBinary(string) []byte         { return nil }
func (c *staticConfig) GetArray(string) []string        { return nil }
func (c *staticConfig) GetMap(string) map[string]string { return nil }

func TestConsumeOTPIssued(t *testing.T) {

	input := func() ConsumeOTPIssuedInput {
		return ConsumeOTPIssuedInput{
			OTPID:          101,
			SubjectID:      42,
			ContactAddress: "alice@example.com",
			Purpose:        "LOGIN_2FA",
			Code:           "428619",
			ExpiresAt:      time.Date(2026, 3, 1, 12, 10, 0, 0, time.UTC),
		}
	}

	t.Run("SendsEmail", func(t *testing.T) {

		// Arrange
		f := newConsumeFixture(t)

		// Act
		err := f.uc.ConsumeOTPIssued(context.Background(), input())

		// Assert
		if err != nil {
			t.Fatalf("consume failed: %v", err)
		}
		if len(f.mail.sent) != 1 {
			t.Fatalf("sent %d emails, want 1", len(f.mail.sent))
		}

		msg := f.mail.sent[0]
		if len(msg.To) != 1 || msg.To[0] != "alice@example.com" {
			t.Fatalf("to = %v", msg.To)
		}
		if msg.Subject != "Login Verification - VeriCode" {
			t.Fatalf("subject = %q", msg.Subject)
		}
		if !strings.Contains(msg.TextBody, "Your login verification code is: 428619") {
			t.Fatalf("body missing code line:\n%s", msg.TextBody)
		}
		if !strings.Contains(msg.TextBody, "expire in 10 minutes") {
			t.Fatalf("body missing expiry line:\n%s", msg.TextBody)
		}
		if !strings.Contains(msg.TextBody, "VeriCode Team") {
			t.Fatalf("body missing signature:\n%s", msg.TextBody)
		}
	})

	t.Run("SubjectPerPurpose", func(t *testing.T) {
		f := newConsumeFixture(t)

		cases := map[string]string{
			"EMAIL_VERIFICATION": "Email Verification - VeriCode",
			"PASSWORD_RESET":     "Password Reset - VeriCode",
			"LOGIN_2FA":          "Login Verification - VeriCode",
		}

		id := int64(200)
		for purpose, wantSubject := range cases {
			id++
			in := input()
			in.OTPID = id
			in.Purpose = purpose

			if err := f.uc.ConsumeOTPIssued(context.Background(), in); err != nil {
				t.Fatalf("consume %s failed: %v", purpose, err)
			}

			msg := f.mail.sent[len(f.mail.sent)-1]
			if msg.Subject != wantSubject {
				t.Fatalf("subject for %s = %q, want %q", purpose, msg.Subject, wantSubject)
			}
		}
	})

	t.Run("RedeliveryIsDeduplicated", func(t *testing.T) {

		// Arrange
		f := newConsumeFixture(t)
		if err := f.uc.ConsumeOTPIssued(context.Background(), input()); err != nil {
			t.Fatalf("first consume failed: %v", err)
		}

		// Act
		err := f.uc.ConsumeOTPIssued(context.Background(), input())

		// Assert
		if err != nil {
			t.Fatalf("redelivery must be swallowed, got %v", err)
		}
		if len(f.mail.sent) != 1 {
			t.Fatalf("sent %d emails after redelivery, want 1", len(f.mail.sent))
		}
	})

	t.Run("MalformedEventIsDropped", func(t *testing.T) {

		// Arrange: a validation failure must not requeue, so no error either.
		f := newConsumeFixture(t)
		in := input()
		in.ContactAddress = "not-an-email"

		// Act
		err := f.uc.ConsumeOTPIssued(context.Background(), in)

		// Assert
		if err != nil {
			t.Fatalf("malformed event must be dropped, got %v", err)
		}
		if len(f.mail.sent) != 0 {
			t.Fatalf("malformed event must not send mail")
		}
	})

	t.Run("SendFailurePropagates", func(t *testing.T) {

		// Arrange
		f := newConsumeFixture(t)
		f.mail.err = errors.New("smtp dial refused")

		// Act
		err := f.uc.ConsumeOTPIssued(context.Background(), input())

		// Assert
		if err == nil {
			t.Fatalf("send failure must surface so the broker redelivers")
		}
		if len(f.idemp.done) != 0 {
			t.Fatalf("failed delivery must not be marked completed")
		}
	})

	t.Run("ExpiryFloorOneMinute", func(t *testing.T) {

		// Arrange: event already at the edge of its TTL.
		f := newConsumeFixture(t)
		in := input()
		in.ExpiresAt = f.clock.At.Add(10 * time.Second)

		// Act
		if err := f.uc.ConsumeOTPIssued(context.Background(), in); err != nil {
			t.Fatalf("consume failed: %v", err)
		}

		// Assert
		if !strings.Contains(f.mail.sent[0].TextBody, "expire in 1 minutes") {
			t.Fatalf("expiry must floor at one minute:\n%s", f.mail.sent[0].TextBody)
		}
	})
}
