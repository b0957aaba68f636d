package order

import "testing"

func TestCanTransition(t *testing.T) {
	t.Parallel()

	terminals := []Status{StatusCompleted, StatusCancelledNoStock, StatusCancelledPaymentFailed}

	for _, to := range terminals {
		if !CanTransition(StatusPending, to) {
			t.Errorf("PENDING -> %s should be allowed", to)
		}
	}

	// Terminal statuses absorb: nothing leaves them.
	for _, from := range terminals {
		for _, to := range append(terminals, StatusPending) {
			if CanTransition(from, to) {
				t.Errorf("%s -> %s should not be allowed", from, to)
			}
		}
	}

	if CanTransition(StatusPending, StatusPending) {
		t.Error("PENDING -> PENDING should not be allowed")
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	if StatusPending.Terminal() {
		t.Error("PENDING must not be terminal")
	}
	for _, s := range []Status{StatusCompleted, StatusCancelledNoStock, StatusCancelledPaymentFailed} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
}
