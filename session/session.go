// Package session implements the lifecycle of a single completion attempt
// and the manager that owns the current and active sessions. All state
// transitions are synchronous and idempotent; callers serialize access
// (the engine funnels every mutation through one lock), so no locking
// happens here.
package session

import (
	"errors"
	"time"

	"ghosttext/types"
)

// Data is the immutable input captured when a session is created.
type Data struct {
	Document         types.DocumentSnapshot
	StartPosition    types.Position
	TriggerType      types.TriggerType
	AutoTriggerType  types.AutoTriggerType
	TriggerCharacter string
	Language         string
	RequestContext   *types.GenerateSuggestionsRequest
}

// ClientResult is the client-reported display state for one suggestion at
// the moment the user made a decision.
type ClientResult struct {
	Seen      bool
	Accepted  bool
	Discarded bool
}

// Session is one completion attempt's full lifecycle record, from request
// to final user decision.
type Session struct {
	ID string

	// Immutable inputs.
	Document         types.DocumentSnapshot
	StartPosition    types.Position
	TriggerType      types.TriggerType
	AutoTriggerType  types.AutoTriggerType
	TriggerCharacter string
	Language         string
	RequestContext   *types.GenerateSuggestionsRequest

	state State
	now   func() time.Time

	suggestions       []types.Suggestion
	mergedSuggestions []types.MergedItem
	suggestionStates  map[string]UserDecision

	responseContext *types.ResponseContext
	importCount     int

	startTime                 time.Time
	closeTime                 time.Time
	timeToFirstRecommendation time.Duration

	completionSessionResult       map[string]ClientResult
	acceptedSuggestionID          string
	firstCompletionDisplayLatency time.Duration
	totalSessionDisplayTime       time.Duration
	typeaheadLength               int

	previousTriggerDecision     TriggerDecision
	previousTriggerDecisionTime time.Time

	reportedUserDecision bool
}

// newSession validates data and builds a REQUESTING session. Construction
// is the only place that fails fast; every later ordering violation is
// absorbed as a no-op.
func newSession(id string, data Data, now func() time.Time) (*Session, error) {
	if data.Document.URI == "" {
		return nil, errors.New("session: document URI is required")
	}
	if data.Language == "" {
		return nil, errors.New("session: language is required")
	}
	if data.RequestContext == nil {
		return nil, errors.New("session: request context is required")
	}
	return &Session{
		ID:               id,
		Document:         data.Document,
		StartPosition:    data.StartPosition,
		TriggerType:      data.TriggerType,
		AutoTriggerType:  data.AutoTriggerType,
		TriggerCharacter: data.TriggerCharacter,
		Language:         data.Language,
		RequestContext:   data.RequestContext,
		state:            StateRequesting,
		now:              now,
		suggestionStates: make(map[string]UserDecision),
		startTime:        now(),
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// StartTime returns when the session was created.
func (s *Session) StartTime() time.Time { return s.startTime }

// CloseTime returns when the session reached a terminal state, or the
// zero time while it is still live.
func (s *Session) CloseTime() time.Time { return s.closeTime }

// Activate moves a REQUESTING session to ACTIVE. No-op on terminal
// sessions; a superseded request must never come back to life.
func (s *Session) Activate() {
	if terminal(s.state) {
		return
	}
	s.transition(StateActive)
}

// Close terminates the session, assigning Discard to every suggestion
// that has no recorded decision. The close time is recorded exactly once.
func (s *Session) Close() {
	if terminal(s.state) {
		return
	}
	for _, sg := range s.suggestions {
		if _, ok := s.suggestionStates[sg.ItemID]; !ok {
			s.suggestionStates[sg.ItemID] = DecisionDiscard
		}
	}
	s.closeTime = s.now()
	s.transition(StateClosed)
}

// Discard terminates the session, overriding every suggestion's decision
// to Discard regardless of prior assignment. No-op when already
// discarded; the close time of an earlier Close is preserved in that case
// only, otherwise it is recorded here.
func (s *Session) Discard() {
	if s.state == StateDiscard {
		return
	}
	for _, sg := range s.suggestions {
		s.suggestionStates[sg.ItemID] = DecisionDiscard
	}
	s.closeTime = s.now()
	s.transition(StateDiscard)
}

// SetSuggestions stores the raw suggestions of the first response page.
// No-op on terminal sessions: a stale response must not mutate a session
// that was already superseded.
func (s *Session) SetSuggestions(suggestions []types.Suggestion) {
	if terminal(s.state) {
		return
	}
	s.suggestions = suggestions
}

// AppendSuggestions adds a later page of raw suggestions.
func (s *Session) AppendSuggestions(suggestions []types.Suggestion) {
	if terminal(s.state) {
		return
	}
	s.suggestions = append(s.suggestions, suggestions...)
}

// Suggestions returns the raw suggestions received so far.
func (s *Session) Suggestions() []types.Suggestion { return s.suggestions }

// SetResponseContext records the service response metadata.
func (s *Session) SetResponseContext(rc types.ResponseContext) {
	if terminal(s.state) {
		return
	}
	s.responseContext = &rc
}

// ResponseContext returns the recorded response metadata, or nil before
// the first response arrives.
func (s *Session) ResponseContext() *types.ResponseContext { return s.responseContext }

// AppendMergedSuggestions adds the displayable items of one response page
// after right-context merge, and accumulates the import count.
func (s *Session) AppendMergedSuggestions(items []types.MergedItem) {
	if terminal(s.state) {
		return
	}
	s.mergedSuggestions = append(s.mergedSuggestions, items...)
	for _, it := range items {
		s.importCount += len(it.MostRelevantMissingImports)
	}
}

// MergedSuggestions returns the suggestions after right-context merge.
func (s *Session) MergedSuggestions() []types.MergedItem { return s.mergedSuggestions }

// ImportCount returns the number of missing-import hints across all
// merged suggestions.
func (s *Session) ImportCount() int { return s.importCount }

// MarkFirstRecommendation records the latency from session start to the
// first response, once.
func (s *Session) MarkFirstRecommendation() {
	if terminal(s.state) || s.timeToFirstRecommendation != 0 {
		return
	}
	s.timeToFirstRecommendation = s.now().Sub(s.startTime)
}

// TimeToFirstRecommendation returns the recorded first-response latency.
func (s *Session) TimeToFirstRecommendation() time.Duration {
	return s.timeToFirstRecommendation
}

// SetClientResultData records the client-reported per-item result flags
// and derives a UserDecision for every item id known to this session.
// Item ids the session never issued are ignored. No-op on terminal
// sessions or when results were already recorded; the decision for a
// session is computed from the first report only.
func (s *Session) SetClientResultData(results map[string]ClientResult, firstCompletionDisplayLatency, totalSessionDisplayTime time.Duration, typeaheadLength int) {
	if terminal(s.state) || s.completionSessionResult != nil {
		return
	}

	s.completionSessionResult = results

	hasAccepted := false
	for itemID, r := range results {
		if r.Accepted {
			s.acceptedSuggestionID = itemID
			hasAccepted = true
		}
	}

	valid := make(map[string]bool, len(s.suggestions))
	for _, sg := range s.suggestions {
		valid[sg.ItemID] = true
	}

	for itemID, r := range results {
		if !valid[itemID] {
			continue
		}
		switch {
		case r.Discarded:
			s.SetSuggestionState(itemID, DecisionDiscard)
		case !r.Seen:
			s.SetSuggestionState(itemID, DecisionUnseen)
		case r.Accepted:
			s.SetSuggestionState(itemID, DecisionAccept)
		case hasAccepted && s.acceptedSuggestionID != itemID:
			// The user accepted a different suggestion.
			s.SetSuggestionState(itemID, DecisionIgnore)
		default:
			// Seen but nothing in the session was accepted.
			s.SetSuggestionState(itemID, DecisionReject)
		}
	}

	s.firstCompletionDisplayLatency = firstCompletionDisplayLatency
	s.totalSessionDisplayTime = totalSessionDisplayTime
	s.typeaheadLength = typeaheadLength
}

// SetSuggestionState records the decision for one suggestion.
func (s *Session) SetSuggestionState(itemID string, d UserDecision) {
	s.suggestionStates[itemID] = d
}

// GetSuggestionState returns the decision recorded for a suggestion.
func (s *Session) GetSuggestionState(itemID string) (UserDecision, bool) {
	d, ok := s.suggestionStates[itemID]
	return d, ok
}

// AcceptedSuggestionID returns the item id the user accepted, if any.
func (s *Session) AcceptedSuggestionID() string { return s.acceptedSuggestionID }

// FirstCompletionDisplayLatency returns the client-reported latency to
// first display.
func (s *Session) FirstCompletionDisplayLatency() time.Duration {
	return s.firstCompletionDisplayLatency
}

// TotalSessionDisplayTime returns the client-reported total display time.
func (s *Session) TotalSessionDisplayTime() time.Duration { return s.totalSessionDisplayTime }

// TypeaheadLength returns the client-reported typeahead length.
func (s *Session) TypeaheadLength() int { return s.typeaheadLength }

// PreviousTriggerDecision returns the aggregated decision of the session
// this one superseded, when its termination happened at creation time.
func (s *Session) PreviousTriggerDecision() (TriggerDecision, time.Time, bool) {
	if s.previousTriggerDecision == "" {
		return "", time.Time{}, false
	}
	return s.previousTriggerDecision, s.previousTriggerDecisionTime, true
}

// AggregatedUserTriggerDecision computes the session-level outcome from
// the per-suggestion decisions. It is only valid once the session is
// terminal; before that it reports false.
//
// Priority: a discarded session is Discard outright. Otherwise a single
// Accept outranks everything, then any Reject, then Empty when no
// decision other than Empty exists, and Discard for everything else
// (which covers all-Filter and all-Discard sessions).
func (s *Session) AggregatedUserTriggerDecision() (TriggerDecision, bool) {
	if s.state == StateDiscard {
		return TriggerDecisionDiscard, true
	}
	if s.state != StateClosed {
		return "", false
	}

	isEmpty := true
	hasReject := false
	for _, d := range s.suggestionStates {
		switch d {
		case DecisionAccept:
			return TriggerDecisionAccept, true
		case DecisionReject:
			hasReject = true
		case DecisionEmpty:
		default:
			isEmpty = false
		}
	}
	if hasReject {
		return TriggerDecisionReject, true
	}
	if isEmpty {
		return TriggerDecisionEmpty, true
	}
	return TriggerDecisionDiscard, true
}

// MarkDecisionReported flips the exactly-once reporting guard. The first
// call returns true; every later call returns false so telemetry is never
// emitted twice for one session.
func (s *Session) MarkDecisionReported() bool {
	if s.reportedUserDecision {
		return false
	}
	s.reportedUserDecision = true
	return true
}

// DecisionReported reports whether telemetry was already emitted.
func (s *Session) DecisionReported() bool { return s.reportedUserDecision }
