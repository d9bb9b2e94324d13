package session

import (
	"sync"
	"time"

	"meetagent/app/config"
	"meetagent/app/service/booking"

	"github.com/google/uuid"
	"github.com/samber/do"
)

// Store maps session identifiers to conversation state. Absent entries are
// not an error: Get creates a default session on first access.
type Store interface {
	Get(id string) *Session
	Put(id string, sess *Session)
}

func NewID() string {
	return uuid.NewString()
}

type entry struct {
	sess    *Session
	touched time.Time
}

// MemoryStore is the single-node in-memory backend. Entries idle longer than
// the TTL are swept lazily on access; a zero TTL disables expiry.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*entry
	ttl       time.Duration
	lastSweep time.Time

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func New(di *do.Injector) (Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewMemoryStore(time.Duration(cfg.Booking.SessionTTLMin) * time.Minute), nil
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: map[string]*entry{},
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	e, ok := s.entries[id]
	if ok && !s.expired(e, now) {
		e.touched = now
		return e.sess
	}

	sess := &Session{
		ID:      id,
		Booking: booking.NewState(),
	}
	s.entries[id] = &entry{sess: sess, touched: now}

	return sess
}

func (s *MemoryStore) Put(id string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = &entry{sess: sess, touched: s.now()}
}

func (s *MemoryStore) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.touched) > s.ttl
}

// sweep drops idle entries, at most once per TTL period.
func (s *MemoryStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now

	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
		}
	}
}
