package session

import (
	"time"

	"github.com/google/uuid"
)

// Manager owns the current and active sessions for one completion stream
// and keeps an append-only log of every session that left REQUESTING. It
// is constructed once at the composition root and passed by reference;
// there is no package-level instance.
type Manager struct {
	current *Session
	log     []*Session
	inLog   map[string]bool
	byID    map[string]*Session

	now   func() time.Time
	newID func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator injects the session id generator, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// NewManager creates an empty session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		inLog: make(map[string]bool),
		byID:  make(map[string]*Session),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Reset drops all session state. Test isolation only; production code
// never resets a manager mid-run.
func (m *Manager) Reset() {
	m.current = nil
	m.log = nil
	m.inLog = make(map[string]bool)
	m.byID = make(map[string]*Session)
}

// CreateSession allocates a new REQUESTING session and makes it current.
// A predecessor still in flight is discarded; an active predecessor is
// closed. Either way the predecessor's aggregated decision and close time
// are propagated onto the new session, so every session can report what
// happened to the one it superseded. This runs synchronously before the
// caller awaits the remote service, which is what makes overlapping
// requests resolve deterministically: the last created session wins.
func (m *Manager) CreateSession(data Data) (*Session, error) {
	s, err := newSession(m.newID(), data, m.now)
	if err != nil {
		return nil, err
	}
	m.byID[s.ID] = s

	if prev := m.current; prev != nil {
		switch prev.State() {
		case StateRequesting:
			m.DiscardSession(prev)
		case StateActive:
			m.CloseCurrentSession()
		}
		if d, t, ok := previousDecision(prev); ok {
			s.previousTriggerDecision = d
			s.previousTriggerDecisionTime = t
		}
	}

	m.current = s
	return s, nil
}

// previousDecision extracts the linkage data from a predecessor that was
// just terminalized. A predecessor that was already terminal before
// CreateSession ran yields no linkage.
func previousDecision(prev *Session) (TriggerDecision, time.Time, bool) {
	d, ok := prev.AggregatedUserTriggerDecision()
	if !ok {
		return "", time.Time{}, false
	}
	return d, prev.CloseTime(), true
}

// ActivateSession activates the session if it is still the current one,
// and logs it. Activating a superseded session is a no-op.
func (m *Manager) ActivateSession(s *Session) {
	if s == nil || m.current != s {
		return
	}
	s.Activate()
	if s.State() == StateActive {
		m.appendToLog(s)
	}
}

// CloseSession closes an arbitrary session and logs it once. Idempotent.
func (m *Manager) CloseSession(s *Session) {
	if s == nil {
		return
	}
	s.Close()
	m.appendToLog(s)
}

// DiscardSession discards an arbitrary session and logs it once. Used
// when a session is invalidated out of band, e.g. superseded mid-flight.
func (m *Manager) DiscardSession(s *Session) {
	if s == nil {
		return
	}
	s.Discard()
	m.appendToLog(s)
}

// CloseCurrentSession closes the current session when it is active.
func (m *Manager) CloseCurrentSession() {
	if m.current != nil && m.current.State() == StateActive {
		m.CloseSession(m.current)
	}
}

// appendToLog records a session exactly once, keyed by id.
func (m *Manager) appendToLog(s *Session) {
	if m.inLog[s.ID] {
		return
	}
	m.inLog[s.ID] = true
	m.log = append(m.log, s)
}

// CurrentSession returns the most recently created session, resolved or
// not.
func (m *Manager) CurrentSession() *Session { return m.current }

// ActiveSession returns the current session when it has reached ACTIVE
// and has not yet been closed or discarded. At most one session is active
// at any time.
func (m *Manager) ActiveSession() *Session {
	if m.current != nil && m.current.State() == StateActive {
		return m.current
	}
	return nil
}

// PreviousSession returns the last logged session before the current one.
func (m *Manager) PreviousSession() *Session {
	for i := len(m.log) - 1; i >= 0; i-- {
		if m.current == nil || m.log[i].ID != m.current.ID {
			return m.log[i]
		}
	}
	return nil
}

// SessionByID looks up a session by id, checking the current session
// first.
func (m *Manager) SessionByID(id string) *Session {
	if m.current != nil && m.current.ID == id {
		return m.current
	}
	return m.byID[id]
}

// SessionsLog returns the append-only log of sessions that left
// REQUESTING, in order.
func (m *Manager) SessionsLog() []*Session { return m.log }
