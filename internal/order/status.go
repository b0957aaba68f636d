package order

type Status string

const (
	StatusPending                Status = "PENDING"
	StatusCompleted              Status = "COMPLETED"
	StatusCancelledNoStock       Status = "CANCELLED_NO_STOCK"
	StatusCancelledPaymentFailed Status = "CANCELLED_PAYMENT_FAILED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending: {
		StatusCompleted:              true,
		StatusCancelledNoStock:       true,
		StatusCancelledPaymentFailed: true,
	},
	StatusCompleted:              {},
	StatusCancelledNoStock:       {},
	StatusCancelledPaymentFailed: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal statuses are absorbing: no later event moves an order out of one.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelledNoStock || s == StatusCancelledPaymentFailed
}
