package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Engine is the pure dialogue state machine. Advance never performs IO; the
// caller runs the commit action when Outcome.Commit is set and folds the
// result back via FinishCommit.
type Engine struct {
	defaultTitle string
	timezone     string

	newToken func() string
}

func NewEngine(defaultTitle, timezone string) *Engine {
	return &Engine{
		defaultTitle: defaultTitle,
		timezone:     timezone,
		newToken:     uuid.NewString,
	}
}

func (e *Engine) Advance(st State, utterance string, ex Extraction) Outcome {
	utterance = strings.TrimSpace(utterance)

	confirm := ex.Confirm
	if explicit := ParseYesNo(utterance); explicit != IntentNone {
		confirm = explicit
	}

	// Name is an optional slot: captured whenever offered, never solicited.
	if name := strings.TrimSpace(ex.Name); name != "" && st.Step != StepDone {
		st.Name = truncateTitle(name)
	}

	switch st.Step {
	case StepCollectContact:
		return e.collectContact(st, ex)
	case StepConfirmContact:
		return e.confirmContact(st, confirm)
	case StepCollectTime:
		return e.collectTime(st, ex)
	case StepCollectTitle:
		return e.collectTitle(st, utterance, ex)
	case StepConfirmAll:
		return e.confirmAll(st, confirm)
	case StepDone:
		return e.done(st, utterance)
	default:
		return Outcome{State: st, Reply: "I'm not sure what to do next. Please say 'restart' to begin again."}
	}
}

func (e *Engine) collectContact(st State, ex Extraction) Outcome {
	// Extractor output is advisory: write only values that pass our own
	// grammar, and never clobber a held value with a missing one.
	if ex.EmailOK {
		if email := NormalizeEmail(ex.Email); email != "" && ValidEmail(email) {
			st.Email = email
		}
	}
	if ex.PhoneOK {
		if phone := NormalizePhone(ex.Phone); phone != "" && ValidPhone(phone) {
			st.Phone = phone
		}
	}

	if st.Email == "" || st.Phone == "" {
		reply := "Please provide BOTH a valid email and a valid phone number in one message.\n" +
			"Example: john@example.com, +1 415 555 2671"

		if ex.EmailReason != "" || ex.PhoneReason != "" {
			reply += fmt.Sprintf("\n(Details: email=%s, phone=%s)",
				orMissing(ex.EmailReason), orMissing(ex.PhoneReason))
		}

		return Outcome{State: st, Reply: reply}
	}

	st.Step = StepConfirmContact

	return Outcome{
		State: st,
		Reply: "Thanks! Please confirm these details:\n" + contactSummary(st) +
			"\n\nReply 'yes' to confirm or 'no' to re-enter.",
	}
}

func (e *Engine) confirmContact(st State, confirm Intent) Outcome {
	switch confirm {
	case IntentReject:
		fresh := NewState()
		fresh.Name = st.Name

		return Outcome{
			State: fresh,
			Reply: "No problem. Please tell me your email and phone number again.",
		}
	case IntentConfirm:
		st.Step = StepCollectTime

		return Outcome{
			State: st,
			Reply: "Great. What date and time would you like to schedule the meeting?",
		}
	default:
		return Outcome{
			State: st,
			Reply: "Please reply 'yes' to confirm or 'no' to re-enter your email and phone.",
		}
	}
}

func (e *Engine) collectTime(st State, ex Extraction) Outcome {
	if ex.StartOK && ex.StartISO != "" {
		start, ok := ParseStart(ex.StartISO)
		if !ok {
			return Outcome{
				State: st,
				Reply: "Sorry — I couldn't parse that time. Please try again (e.g., 'Feb 16 2pm').",
			}
		}

		st.Start = start
		st.Step = StepCollectTitle

		return Outcome{
			State: st,
			Reply: "Optional: what's the meeting title? You can say 'skip'.",
		}
	}

	reason := ex.TimeReason
	if reason == "" {
		reason = "missing/ambiguous"
	}

	return Outcome{
		State: st,
		Reply: "Sorry, I couldn't understand the date/time.\n" +
			"Try: 'Feb 16 2pm' or 'next Monday 3pm'.\n" +
			fmt.Sprintf("(Details: %s)", reason),
	}
}

func (e *Engine) collectTitle(st State, utterance string, ex Extraction) Outcome {
	// No failure path here: anything advances, skip tokens force the default.
	title := strings.TrimSpace(ex.Title)
	if title == "" {
		title = utterance
	}

	if title == "" || IsSkip(title) {
		st.Title = e.defaultTitle
	} else {
		st.Title = truncateTitle(title)
	}

	st.Step = StepConfirmAll
	st.CommitToken = e.newToken()

	return Outcome{
		State: st,
		Reply: "Please confirm the meeting details:\n" + e.finalSummary(st) +
			"\nCreate the calendar event now? (yes/no)",
	}
}

func (e *Engine) confirmAll(st State, confirm Intent) Outcome {
	switch confirm {
	case IntentReject:
		st.Step = StepCollectTime
		st.Start = time.Time{}
		st.CommitToken = ""

		return Outcome{
			State: st,
			Reply: "Okay. Let's pick a new time. What date and time would you like?",
		}
	case IntentConfirm:
		// Step stays at confirm_all: only a successful commit moves to done,
		// so the user can retry confirmation after a failure.
		return Outcome{
			State:  st,
			Reply:  "Got it — creating your calendar event now…",
			Commit: true,
		}
	default:
		return Outcome{
			State: st,
			Reply: "Please reply 'yes' to create the event or 'no' to change the time.",
		}
	}
}

func (e *Engine) done(st State, utterance string) Outcome {
	if IsReset(utterance) {
		fresh := NewState()

		return Outcome{
			State: fresh,
			Reply: "Starting a new booking. Please send your email and phone number.",
		}
	}

	return Outcome{
		State: st,
		Reply: "Your event is already created. Say 'restart' to start a new booking.",
	}
}

// FinishCommit records a successful booking. The session is terminal until an
// explicit reset.
func (e *Engine) FinishCommit(st State) State {
	st.Step = StepDone
	return st
}

func contactSummary(st State) string {
	return fmt.Sprintf("Email: %s\nPhone: %s", orMissing(st.Email), orMissing(st.Phone))
}

func (e *Engine) finalSummary(st State) string {
	return fmt.Sprintf("Email: %s\nPhone: %s\nStart: %s (%s)\nTitle: %s\n",
		st.Email, st.Phone, st.Start.Format(time.RFC3339), e.timezone, st.Title)
}

func orMissing(s string) string {
	if s == "" {
		return "(missing)"
	}

	return s
}
