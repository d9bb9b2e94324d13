package session

import (
	"fmt"
	"strings"
	"sync"

	"meetagent/app/service/booking"

	"golang.org/x/oauth2"
)

type Message struct {
	Role    string
	Content string
}

// Session is one user's ongoing conversation. Turns against a session are
// serialized through its mutex; the store only guards its own map.
type Session struct {
	ID      string
	Booking booking.State
	// History is a sliding transcript window fed to the reply generator for
	// tone continuity. The state machine never reads it.
	History []Message
	// Token holds Google credentials once OAuth completed.
	Token *oauth2.Token
	// OAuthState is the CSRF value of an in-flight authorization redirect.
	OAuthState string

	mu sync.Mutex
}

func (s *Session) Lock() {
	s.mu.Lock()
}

func (s *Session) Unlock() {
	s.mu.Unlock()
}

func (s *Session) HasCredentials() bool {
	return s.Token != nil && s.Token.AccessToken != ""
}

// AppendHistory adds a message, dropping the oldest entries beyond limit.
func (s *Session) AppendHistory(role, content string, limit int) {
	s.History = append(s.History, Message{Role: role, Content: content})

	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

func (s *Session) FormatHistory() string {
	if len(s.History) == 0 {
		return ""
	}

	var builder strings.Builder

	for _, msg := range s.History {
		builder.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}

	return builder.String()
}
