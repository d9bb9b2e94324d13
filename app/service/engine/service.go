package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"meetagent/app/config"
	"meetagent/app/service/booking"
	"meetagent/app/service/calendar"
	"meetagent/app/service/planner"
	"meetagent/app/service/reply"
	"meetagent/app/service/session"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

const (
	notConnectedReply = "Google Calendar is not connected yet. Please complete the authorization at /auth/google first."
	commitFailedReply = "\n\nSorry — I couldn't create the calendar event. Reply 'yes' to try again."
)

// Extractor produces the structured per-turn verdict. Implementations must
// not fail: a broken upstream degrades to an all-invalid extraction.
type Extractor interface {
	Extract(ctx context.Context, st booking.State, utterance string) booking.Extraction
}

// Replier streams the assistant's reply. The planned text is authoritative
// content; the stream may only rephrase it.
type Replier interface {
	Stream(ctx context.Context, st booking.State, history, utterance, planned string, emit func(string) error) error
}

// Committer performs the external booking action.
type Committer interface {
	Commit(ctx context.Context, sess *session.Session, st booking.State) (*calendar.Result, error)
}

// Service drives one full turn: credentials gate, extraction, state machine
// advance, reply streaming, optional commit, then a single store write.
type Service struct {
	cfg   *config.Config
	store session.Store

	engine    *booking.Engine
	extractor Extractor
	replier   Replier
	committer Committer
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{
		cfg:       cfg,
		store:     do.MustInvoke[session.Store](di),
		engine:    booking.NewEngine(cfg.Booking.DefaultTitle, cfg.Booking.Timezone),
		extractor: do.MustInvoke[*planner.Agent](di),
		replier:   do.MustInvoke[*reply.Agent](di),
		committer: do.MustInvoke[*calendar.Service](di),
	}, nil
}

// ProcessTurn handles one utterance for the given session, forwarding reply
// fragments to emit in order. The commit action, when triggered, runs only
// after the full reply stream was forwarded.
func (s *Service) ProcessTurn(ctx context.Context, sessionID, utterance string, emit func(string) error) error {
	sess := s.store.Get(sessionID)

	sess.Lock()
	defer sess.Unlock()

	if !sess.HasCredentials() {
		return emit(notConnectedReply)
	}

	start := time.Now()

	extraction := s.extractor.Extract(ctx, sess.Booking, utterance)
	outcome := s.engine.Advance(sess.Booking, utterance, extraction)

	sess.AppendHistory("user", utterance, s.cfg.Booking.HistorySize)

	var spoken strings.Builder
	streamErr := s.replier.Stream(ctx, outcome.State, sess.FormatHistory(), utterance, outcome.Reply,
		func(chunk string) error {
			spoken.WriteString(chunk)
			return emit(chunk)
		},
	)

	finalState := outcome.State

	if outcome.Commit && streamErr == nil {
		text, done := s.runCommit(ctx, sess, outcome.State)
		if done {
			finalState = s.engine.FinishCommit(outcome.State)
		}

		spoken.WriteString(text)
		streamErr = emit(text)
	}

	sess.AppendHistory("assistant", spoken.String(), s.cfg.Booking.HistorySize)
	sess.Booking = finalState
	s.store.Put(sess.ID, sess)

	slog.Info("Processed turn",
		"session", sessionID,
		"step", finalState.Step,
		"duration", time.Since(start))

	return streamErr
}

// runCommit attempts the booking and returns the trailing reply text plus
// whether the session may advance to done.
func (s *Service) runCommit(ctx context.Context, sess *session.Session, st booking.State) (string, bool) {
	result, err := s.committer.Commit(ctx, sess, st)
	if err != nil {
		slog.Error("Commit failed",
			"session", sess.ID,
			"error", err)

		return commitFailedReply, false
	}

	lines := pie.Filter([]string{
		"Event created!",
		linkLine("Meet link", result.JoinLink),
		linkLine("Calendar link", result.ViewLink),
		"Invite email sent to: " + st.Email,
	}, func(line string) bool { return line != "" })

	return "\n\n" + strings.Join(lines, "\n"), true
}

func linkLine(label, link string) string {
	if link == "" {
		return ""
	}

	return label + ": " + link
}
