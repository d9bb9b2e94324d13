package booking

import "time"

// Step identifies the position of a session in the booking dialogue.
type Step string

const (
	StepCollectContact Step = "collect_contact"
	StepConfirmContact Step = "confirm_contact"
	StepCollectTime    Step = "collect_time"
	StepCollectTitle   Step = "collect_title"
	StepConfirmAll     Step = "confirm_all"
	StepDone           Step = "done"
)

// State holds everything the dialogue has collected so far. Field values are
// written only after passing the grammar predicates in grammar.go.
type State struct {
	Step  Step
	Email string
	Phone string
	Name  string
	Title string
	// Start is zero until a valid offset-qualified time was provided.
	Start time.Time
	// CommitToken is minted on entering confirm_all and reused across failed
	// commit retries of the same logical attempt.
	CommitToken string
}

func NewState() State {
	return State{Step: StepCollectContact}
}

type Intent string

const (
	IntentNone    Intent = ""
	IntentConfirm Intent = "confirm"
	IntentReject  Intent = "reject"
)

// Extraction is the planner's per-turn verdict. It is advisory: the engine
// re-validates every field before writing it into State.
type Extraction struct {
	Email   string
	EmailOK bool

	Phone   string
	PhoneOK bool

	// StartISO must carry an explicit timezone offset to be accepted.
	StartISO string
	StartOK  bool

	Title string
	Name  string

	Confirm Intent

	EmailReason string
	PhoneReason string
	TimeReason  string
}

// EmptyExtraction is the fail-safe substitute used when the planner call
// fails or returns a malformed shape.
func EmptyExtraction(reason string) Extraction {
	return Extraction{
		EmailReason: reason,
		PhoneReason: reason,
		TimeReason:  reason,
	}
}

// Outcome is the engine's full decision for one turn.
type Outcome struct {
	State State
	// Reply is the planned assistant message. It is the ground truth of what
	// must be conveyed; a generator may only rephrase it.
	Reply string
	// Commit signals that the external booking action should be attempted
	// this turn. State.Step stays at confirm_all until the attempt succeeds.
	Commit bool
}
