package metrics

// Link outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeReturning = "returning"
	OutcomeConflict  = "conflict"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Recorder records linker activity.
type Recorder interface {
	// LinkOutcome counts one link attempt by outcome.
	LinkOutcome(outcome string)

	// CallbackObserved counts one OAuth2 callback by provider.
	CallbackObserved(provider string)
}

// Nop is a Recorder that records nothing.
type Nop struct{}

func (Nop) LinkOutcome(string)      {}
func (Nop) CallbackObserved(string) {}
