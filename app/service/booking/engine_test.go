package booking

import (
	"strings"
	"testing"
	"time"
)

func newTestEngine() *Engine {
	e := NewEngine("Scheduled Meeting", "America/Los_Angeles")
	e.newToken = func() string { return "tok-1" }
	return e
}

func validContact() Extraction {
	return Extraction{
		Email:   "John.Doe@Example.COM",
		EmailOK: true,
		Phone:   "+1 (415) 555-2671",
		PhoneOK: true,
	}
}

// walks a session to the given step
func stateAt(t *testing.T, e *Engine, step Step) State {
	t.Helper()

	st := NewState()

	out := e.Advance(st, "john.doe@example.com +14155552671", validContact())
	if step == StepConfirmContact {
		return out.State
	}

	out = e.Advance(out.State, "yes", Extraction{})
	if step == StepCollectTime {
		return out.State
	}

	out = e.Advance(out.State, "Feb 16 2pm", Extraction{StartISO: "2026-02-16T14:00:00-08:00", StartOK: true})
	if step == StepCollectTitle {
		return out.State
	}

	out = e.Advance(out.State, "Project sync", Extraction{Title: "Project sync"})
	if out.State.Step != StepConfirmAll {
		t.Fatalf("expected confirm_all, got %q", out.State.Step)
	}

	return out.State
}

func TestContactNormalizationRoundTrip(t *testing.T) {
	e := newTestEngine()

	out := e.Advance(NewState(), "my contacts", validContact())
	if out.State.Email != "john.doe@example.com" {
		t.Errorf("email not normalized: %q", out.State.Email)
	}
	if out.State.Phone != "+14155552671" {
		t.Errorf("phone not normalized: %q", out.State.Phone)
	}
	if out.State.Step != StepConfirmContact {
		t.Errorf("expected confirm_contact, got %q", out.State.Step)
	}
}

func TestPartialContactStaysInStep(t *testing.T) {
	e := newTestEngine()

	ex := Extraction{Email: "john@example.com", EmailOK: true, PhoneReason: "not provided"}
	out := e.Advance(NewState(), "john@example.com", ex)

	if out.State.Step != StepCollectContact {
		t.Fatalf("expected collect_contact, got %q", out.State.Step)
	}
	if out.State.Email != "john@example.com" {
		t.Fatalf("valid email must be retained: %q", out.State.Email)
	}
	if !strings.Contains(out.Reply, "not provided") {
		t.Fatalf("reply should relay the field reason: %q", out.Reply)
	}
}

func TestFieldNonClobbering(t *testing.T) {
	e := newTestEngine()

	st := NewState()
	st.Email = "john@example.com"

	out := e.Advance(st, "some noise", Extraction{EmailOK: false, Phone: "+14155552671", PhoneOK: true})
	if out.State.Email != "john@example.com" {
		t.Fatalf("invalid extraction must not clobber a held email: %q", out.State.Email)
	}
	if out.State.Step != StepConfirmContact {
		t.Fatalf("both fields present, expected confirm_contact, got %q", out.State.Step)
	}
}

func TestEngineRevalidatesExtractorOutput(t *testing.T) {
	e := newTestEngine()

	// extractor says ok but the value fails our grammar
	ex := Extraction{Email: "not-an-email", EmailOK: true, Phone: "12", PhoneOK: true}
	out := e.Advance(NewState(), "junk", ex)

	if out.State.Email != "" || out.State.Phone != "" {
		t.Fatalf("grammar-failing values must not be written: %+v", out.State)
	}
	if out.State.Step != StepCollectContact {
		t.Fatalf("expected collect_contact, got %q", out.State.Step)
	}
}

func TestExplicitTokenPrecedence(t *testing.T) {
	e := newTestEngine()
	st := stateAt(t, e, StepConfirmContact)

	// extractor believes this is a confirmation; the literal "no" wins
	out := e.Advance(st, "no thanks", Extraction{Confirm: IntentConfirm})
	if out.State.Step != StepCollectContact {
		t.Fatalf("expected collect_contact, got %q", out.State.Step)
	}
	if out.State.Email != "" || out.State.Phone != "" {
		t.Fatalf("contact fields must be cleared on reject: %+v", out.State)
	}
}

func TestAmbiguousConfirmationReprompts(t *testing.T) {
	e := newTestEngine()
	st := stateAt(t, e, StepConfirmContact)

	out := e.Advance(st, "hmm what", Extraction{})
	if out.State.Step != StepConfirmContact {
		t.Fatalf("ambiguous confirmation must not change step, got %q", out.State.Step)
	}
	if out.State.Email == "" {
		t.Fatalf("ambiguous confirmation must not mutate fields")
	}
}

func TestAmbiguousTimeRejection(t *testing.T) {
	e := newTestEngine()
	st := stateAt(t, e, StepCollectTime)

	// offset-less timestamp marked valid by the extractor
	out := e.Advance(st, "Feb 16 2pm", Extraction{StartISO: "2026-02-16T14:00:00", StartOK: true})
	if out.State.Step != StepCollectTime {
		t.Fatalf("expected collect_time, got %q", out.State.Step)
	}
	if !out.State.Start.IsZero() {
		t.Fatalf("ambiguous time must not be stored")
	}
}

func TestValidTimeAdvances(t *testing.T) {
	e := newTestEngine()
	st := stateAt(t, e, StepCollectTime)

	out := e.Advance(st, "Feb 16 2pm", Extraction{StartISO: "2026-02-16T14:00:00-08:00", StartOK: true})
	if out.State.Step != StepCollectTitle {
		t.Fatalf("expected collect_title, got %q", out.State.Step)
	}

	want := time.Date(2026, 2, 16, 14, 0, 0, 0, time.FixedZone("", -8*3600))
	if !out.State.Start.Equal(want) {
		t.Fatalf("unexpected start: %v", out.State.Start)
	}
}

func TestTitleSkipUsesDefault(t *testing.T) {
	e := newTestEngine()
	st := stateAt(t, e, StepCollectTitle)

	out := e.Advance(st, "skip", Extraction{})
	if out.State.Title != "Scheduled Meeting" {
		t.Fatalf("expected default title, got %q", out.State.Title)
	}
	if out.State.Step != StepConfirmAll {
		t.Fatalf("expected confirm_all, got %q", out.State.Step)
	}
	if out.State.CommitToken == "" {
		t.Fatalf("commit token must be minted on entering confirm_all")
	}
}

func TestTitleAlwaysAdvances(t *testing.T) {
	e := newTestEngine()
	st := stateAt(t, e, StepCollectTitle)

	out := e.Advance(st, "Quarterly planning", Extraction{})
	if out.State.Title != "Quarterly planning" {
		t.Fatalf("unexpected title: %q", out.State.Title)
	}
	if out.State.Step != StepConfirmAll {
		t.Fatalf("expected confirm_all, got %q", out.State.Step)
	}
}

func TestConfirmAllEmitsCommitIntent(t *testing.T) {
	e := newTestEngine()
	st := stateAt(t, e, StepConfirmAll)

	out := e.Advance(st, "yes", Extraction{})
	if !out.Commit {
		t.Fatalf("confirm at confirm_all must signal commit intent")
	}
	if out.State.Step != StepConfirmAll {
		t.Fatalf("step must not reach done before the commit succeeds, got %q", out.State.Step)
	}

	done := e.FinishCommit(out.State)
	if done.Step != StepDone {
		t.Fatalf("expected done after FinishCommit, got %q", done.Step)
	}
}

func TestReconfirmAfterFailedCommitReusesToken(t *testing.T) {
	e := newTestEngine()
	st := stateAt(t, e, StepConfirmAll)
	token := st.CommitToken

	// first confirm, commit fails externally, state unchanged
	out := e.Advance(st, "yes", Extraction{})
	// replaying the same confirmation retries with the same token
	out = e.Advance(out.State, "yes", Extraction{})

	if !out.Commit {
		t.Fatalf("re-confirmation must retry the commit")
	}
	if out.State.CommitToken != token {
		t.Fatalf("same logical attempt must reuse the idempotency token")
	}
}

func TestRejectAtConfirmAllClearsTimeOnly(t *testing.T) {
	e := newTestEngine()
	st := stateAt(t, e, StepConfirmAll)

	out := e.Advance(st, "no", Extraction{})
	if out.State.Step != StepCollectTime {
		t.Fatalf("expected collect_time, got %q", out.State.Step)
	}
	if !out.State.Start.IsZero() {
		t.Fatalf("start time must be cleared")
	}
	if out.State.Email == "" || out.State.Phone == "" {
		t.Fatalf("contact fields must survive a time reject")
	}
	if out.State.CommitToken != "" {
		t.Fatalf("a fresh confirmation must mint a new token")
	}
}

func TestTerminalStability(t *testing.T) {
	e := newTestEngine()

	st := e.FinishCommit(stateAt(t, e, StepConfirmAll))

	out := e.Advance(st, "book another one at 5pm", Extraction{StartISO: "2026-03-01T17:00:00-08:00", StartOK: true})
	if out.State.Step != StepDone {
		t.Fatalf("done is terminal, got %q", out.State.Step)
	}
	if out.State != st {
		t.Fatalf("state must be unchanged at done")
	}
	if !strings.Contains(out.Reply, "already created") {
		t.Fatalf("expected fixed already-completed reply, got %q", out.Reply)
	}
}

func TestExplicitResetAfterDone(t *testing.T) {
	e := newTestEngine()
	st := e.FinishCommit(stateAt(t, e, StepConfirmAll))

	out := e.Advance(st, "restart", Extraction{})
	if out.State.Step != StepCollectContact {
		t.Fatalf("reset must start a fresh booking, got %q", out.State.Step)
	}
	if out.State.Email != "" || !out.State.Start.IsZero() {
		t.Fatalf("reset must clear collected fields: %+v", out.State)
	}
}

func TestOptionalNameCapture(t *testing.T) {
	e := newTestEngine()

	out := e.Advance(NewState(), "I'm Jane, jane@example.com +14155552671", Extraction{
		Email: "jane@example.com", EmailOK: true,
		Phone: "+14155552671", PhoneOK: true,
		Name: "Jane",
	})
	if out.State.Name != "Jane" {
		t.Fatalf("name slot not captured: %q", out.State.Name)
	}
}
