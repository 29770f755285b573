package checkout

// Status tracks a checkout submission through payment confirmation and
// order finalization.
type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusConfirming Status = "CONFIRMING"
	StatusFinalizing Status = "FINALIZING"
	StatusCompleted  Status = "COMPLETED"
	// StatusFallbackCompleted is reached when order finalization failed
	// after the payment already succeeded. It is a terminal success from
	// the user's point of view.
	StatusFallbackCompleted Status = "FALLBACK_COMPLETED"
)

var transitions = map[Status][]Status{
	StatusIdle:       {StatusConfirming},
	StatusConfirming: {StatusFinalizing, StatusIdle},
	StatusFinalizing: {StatusCompleted, StatusFallbackCompleted},
}

func CanTransitionTo(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFallbackCompleted
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}
