package calendar

import (
	"context"
	"fmt"
	"time"

	"meetagent/app/client/googlecal"
	"meetagent/app/config"
	"meetagent/app/service/booking"
	"meetagent/app/service/session"

	"github.com/samber/do"
	"github.com/samber/oops"
)

// Result carries the links of a successfully created event.
type Result struct {
	JoinLink string
	ViewLink string
}

// Service performs the external booking action for a completed dialogue. One
// call per commit intent; the idempotency token travels on the state so a
// retried attempt does not create duplicate events.
type Service struct {
	cfg    *config.Config
	client *googlecal.Client
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:    do.MustInvoke[*config.Config](di),
		client: do.MustInvoke[*googlecal.Client](di),
	}, nil
}

func (s *Service) Commit(ctx context.Context, sess *session.Session, st booking.State) (*Result, error) {
	if st.Start.IsZero() || st.Email == "" {
		return nil, oops.Errorf("booking state is incomplete")
	}
	if !sess.HasCredentials() {
		return nil, oops.Errorf("session has no calendar credentials")
	}

	duration := time.Duration(s.cfg.Booking.DurationMin) * time.Minute

	created, err := s.client.CreateEvent(ctx, sess.Token, googlecal.EventRequest{
		Title:         st.Title,
		Description:   description(st),
		Start:         st.Start,
		End:           st.Start.Add(duration),
		Timezone:      s.cfg.Booking.Timezone,
		AttendeeEmail: st.Email,
		RequestID:     st.CommitToken,
	})
	if err != nil {
		return nil, oops.Wrapf(err, "failed to create calendar event")
	}

	return &Result{
		JoinLink: created.JoinLink,
		ViewLink: created.ViewLink,
	}, nil
}

func description(st booking.State) string {
	if st.Name != "" {
		return fmt.Sprintf("Name: %s\nPhone: %s", st.Name, st.Phone)
	}

	return fmt.Sprintf("Phone: %s", st.Phone)
}
