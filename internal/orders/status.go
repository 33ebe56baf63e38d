package orders

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// PaymentCompleted is the only payment status a wallet checkout produces:
// the order row itself is the debit.
const PaymentCompleted = "completed"

var validNext = map[Status]map[Status]bool{
	StatusCreated:   {StatusCompleted: true, StatusFailed: true},
	StatusCompleted: {},
	StatusFailed:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
