package googlecal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"meetagent/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const calendarAPIBase = "https://www.googleapis.com/calendar/v3"

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	oauthCfg   *oauth2.Config
	baseURL    string
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURI,
			Scopes:       []string{"https://www.googleapis.com/auth/calendar.events"},
			Endpoint:     google.Endpoint,
		},
		baseURL: calendarAPIBase,
	}, nil
}

// AuthURL builds the consent redirect. Offline access with forced consent so
// Google returns a refresh token on the first grant.
func (c *Client) AuthURL(state string) string {
	return c.oauthCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, oops.Errorf("failed to exchange authorization code: %w", err)
	}

	return token, nil
}

type EventRequest struct {
	Title         string
	Description   string
	Start         time.Time
	End           time.Time
	Timezone      string
	AttendeeEmail string
	// RequestID deduplicates the conference create request on retry.
	RequestID string
}

type CreatedEvent struct {
	// JoinLink is the generated Meet link, if any.
	JoinLink string
	// ViewLink is the calendar page of the created event.
	ViewLink string
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventBody struct {
	Summary        string     `json:"summary"`
	Description    string     `json:"description,omitempty"`
	Start          eventTime  `json:"start"`
	End            eventTime  `json:"end"`
	Attendees      []attendee `json:"attendees,omitempty"`
	ConferenceData *confData  `json:"conferenceData,omitempty"`
}

type attendee struct {
	Email string `json:"email"`
}

type confData struct {
	CreateRequest confCreateRequest `json:"createRequest"`
}

type confCreateRequest struct {
	RequestID             string            `json:"requestId"`
	ConferenceSolutionKey map[string]string `json:"conferenceSolutionKey"`
}

type eventResponse struct {
	HangoutLink string `json:"hangoutLink"`
	HTMLLink    string `json:"htmlLink"`
}

// CreateEvent inserts a calendar event with a Meet conference attached.
// Google sends the invite email to the attendee (sendUpdates=all).
func (c *Client) CreateEvent(ctx context.Context, token *oauth2.Token, req EventRequest) (*CreatedEvent, error) {
	accessToken, err := c.accessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	body := eventBody{
		Summary:     req.Title,
		Description: req.Description,
		Start:       eventTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: req.Timezone},
		End:         eventTime{DateTime: req.End.Format(time.RFC3339), TimeZone: req.Timezone},
		Attendees:   []attendee{{Email: req.AttendeeEmail}},
		ConferenceData: &confData{
			CreateRequest: confCreateRequest{
				RequestID:             req.RequestID,
				ConferenceSolutionKey: map[string]string{"type": "hangoutsMeet"},
			},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, oops.Errorf("failed to marshal event body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s",
		c.baseURL,
		url.PathEscape(c.cfg.Google.CalendarID),
		url.Values{
			"conferenceDataVersion": {"1"},
			"sendUpdates":           {"all"},
		}.Encode(),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, oops.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, oops.Errorf("event insert request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, oops.Errorf("event insert failed: %d %s", resp.StatusCode, string(msg))
	}

	var created eventResponse
	if err = json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, oops.Errorf("failed to decode event response: %w", err)
	}

	return &CreatedEvent{
		JoinLink: created.HangoutLink,
		ViewLink: created.HTMLLink,
	}, nil
}

// accessToken refreshes the stored token when expired.
func (c *Client) accessToken(ctx context.Context, token *oauth2.Token) (string, error) {
	if token.Valid() {
		return token.AccessToken, nil
	}

	fresh, err := c.oauthCfg.TokenSource(ctx, token).Token()
	if err != nil {
		return "", oops.Errorf("failed to refresh access token: %w", err)
	}

	*token = *fresh

	return fresh.AccessToken, nil
}
