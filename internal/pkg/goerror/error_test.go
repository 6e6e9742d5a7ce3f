package goerror

import (
	"errors"
	"net/http"
	"testing"
)

func TestErrorStatusCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"Server":        {NewServer(errors.New("boom")), http.StatusInternalServerError},
		"Unavailable":   {NewUnavailable(errors.New("down")), http.StatusServiceUnavailable},
		"InvalidInput":  {NewInvalidInput(errors.New("bad")), http.StatusBadRequest},
		"InvalidFormat": {NewInvalidFormat(), http.StatusBadRequest},
		"Business400":   {NewBusiness("nope", CodeInvalidInput), http.StatusBadRequest},
		"Business429":   {NewBusiness("slow down", CodeTooManyRequest), http.StatusTooManyRequests},
		"Business404":   {NewBusiness("gone", CodeNotFound), http.StatusNotFound},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var gErr *Error
			if !errors.As(tc.err, &gErr) {
				t.Fatalf("expected *Error, got %T", tc.err)
			}
			if got := gErr.StatusCode(); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestErrorIdentity(t *testing.T) {

	// Two business errors with identical text are still distinct values, so
	// callers can branch with errors.Is without leaking detail in the message.
	t.Run("SameMessageDistinctValues", func(t *testing.T) {
		a := NewBusiness("Invalid or expired code", CodeInvalidInput)
		b := NewBusiness("Invalid or expired code", CodeInvalidInput)

		if errors.Is(a, b) {
			t.Fatalf("distinct business errors must not match each other")
		}
		if !errors.Is(a, a) {
			t.Fatalf("an error must match itself")
		}
	})

	t.Run("UnwrapsCause", func(t *testing.T) {
		cause := errors.New("pq: connection reset")
		err := NewServer(cause)

		if !errors.Is(err, cause) {
			t.Fatalf("server error must wrap its cause")
		}

		var gErr *Error
		if !errors.As(err, &gErr) {
			t.Fatalf("expected *Error")
		}
		if gErr.Msg() != "Internal server error" {
			t.Fatalf("msg = %q, must stay generic", gErr.Msg())
		}
	})
}
