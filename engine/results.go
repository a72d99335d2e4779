package engine

import (
	"context"
	"time"

	"ghosttext/logger"
	"ghosttext/session"
	"ghosttext/telemetry"
)

// SessionResults is the client's report of what happened to a session's
// suggestions in the editor UI.
type SessionResults struct {
	SessionID                     string
	CompletionSessionResult       map[string]session.ClientResult
	FirstCompletionDisplayLatency time.Duration
	TotalSessionDisplayTime       time.Duration
	TypeaheadLength               int
}

// HandleSessionResults records the client-reported outcome for a session,
// closes it, and emits its trigger decision. Reports for unknown or
// already-terminal sessions are benign races and are absorbed silently:
// the decision for a superseded session was reported on the supersession
// path and must not be reported twice.
func (e *Engine) HandleSessionResults(ctx context.Context, results SessionResults) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessions.SessionByID(results.SessionID)
	if s == nil {
		logger.Warn("session results for unknown session %s", results.SessionID)
		return
	}
	if s.State() != session.StateActive {
		logger.Debug("session results for %s session %s ignored", s.State(), s.ID)
		return
	}

	s.SetClientResultData(
		results.CompletionSessionResult,
		results.FirstCompletionDisplayLatency,
		results.TotalSessionDisplayTime,
		results.TypeaheadLength,
	)

	e.trackAcceptanceLocked(s)

	e.sessions.CloseSession(s)
	e.emitDecisionLocked(ctx, s)
}

// trackAcceptanceLocked enqueues the accepted suggestion, if any, on the
// code-diff tracker for later user-modification telemetry.
func (e *Engine) trackAcceptanceLocked(s *session.Session) {
	if e.tracker == nil {
		return
	}
	acceptedID := s.AcceptedSuggestionID()
	if acceptedID == "" {
		return
	}
	for _, it := range s.MergedSuggestions() {
		if it.ItemID != acceptedID {
			continue
		}
		event := telemetry.UserModificationEvent{
			SessionID: s.ID,
			Language:  s.Language,
		}
		if rc := s.ResponseContext(); rc != nil {
			event.RequestID = rc.RequestID
		}
		startOffset := offsetAt(s.Document.Text, s.StartPosition)
		e.tracker.Enqueue(s.Document.URI, it.InsertText, startOffset, event)
		return
	}
}
