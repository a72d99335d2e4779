// Package engine orchestrates one completion attempt end to end: it
// creates the session, calls the suggestion provider under a timeout,
// filters and merges the response against right context, and drives the
// session to a terminal state with exactly-once telemetry. All mutation
// of session state funnels through the engine's lock; the session and
// manager themselves stay lock-free.
package engine

import (
	"context"
	"sync"
	"time"

	"ghosttext/logger"
	"ghosttext/session"
	"ghosttext/telemetry"
	"ghosttext/text"
	"ghosttext/types"
)

// Config holds the engine's tunables.
type Config struct {
	CompletionTimeout                    time.Duration
	MaxResults                           int
	IncludeSuggestionsWithCodeReferences bool
	IncludeImportsWithSuggestions        bool
	WorkspaceID                          string
}

// TriggerContext describes how a completion request was initiated.
type TriggerContext struct {
	TriggerType      types.TriggerType
	AutoTriggerType  types.AutoTriggerType
	TriggerCharacter string
}

// Result is the well-formed (possibly empty) outcome handed back to the
// transport layer. The transport must always receive one, even on
// provider failure, so the editor is never left hanging.
type Result struct {
	SessionID          string
	Items              []types.MergedItem
	PartialResultToken string
}

// Engine drives completion sessions.
type Engine struct {
	mu       sync.Mutex
	provider types.Provider
	sessions *session.Manager
	sender   telemetry.Sender
	tracker  *telemetry.CodeDiffTracker
	config   Config
}

// New builds an engine. tracker may be nil to disable user-modification
// tracking.
func New(provider types.Provider, sessions *session.Manager, sender telemetry.Sender, tracker *telemetry.CodeDiffTracker, config Config) *Engine {
	if sender == nil {
		sender = telemetry.NopSender{}
	}
	if config.CompletionTimeout <= 0 {
		config.CompletionTimeout = 2 * time.Second
	}
	return &Engine{
		provider: provider,
		sessions: sessions,
		sender:   sender,
		tracker:  tracker,
		config:   config,
	}
}

// Sessions exposes the session manager, for read-only inspection.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Trigger runs one completion attempt for the given document position.
// Session creation and its discard/close side effects complete before the
// provider call is issued, so a second overlapping Trigger deterministically
// supersedes this one: the stale session is terminal by the time its
// response arrives and the response is dropped.
func (e *Engine) Trigger(ctx context.Context, doc types.DocumentSnapshot, pos types.Position, trigger TriggerContext) (*Result, error) {
	e.mu.Lock()
	req := buildRequest(doc, pos, e.config)
	s, err := e.sessions.CreateSession(session.Data{
		Document:         doc,
		StartPosition:    pos,
		TriggerType:      trigger.TriggerType,
		AutoTriggerType:  trigger.AutoTriggerType,
		TriggerCharacter: trigger.TriggerCharacter,
		Language:         doc.LanguageID,
		RequestContext:   req,
	})
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	// The predecessor was just terminalized by CreateSession; report it.
	if prev := e.sessions.PreviousSession(); prev != nil {
		e.emitDecisionLocked(ctx, prev)
	}
	e.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, e.config.CompletionTimeout)
	defer cancel()

	resp, err := e.provider.GenerateSuggestions(callCtx, req)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		logger.Warn("completion request failed for session %s: %v", s.ID, err)
		// Close with no suggestions so the aggregated decision resolves
		// to Empty instead of leaving an orphaned REQUESTING session.
		e.sessions.CloseSession(s)
		e.emitDecisionLocked(ctx, s)
		return &Result{SessionID: s.ID}, err
	}

	return e.processResponseLocked(ctx, s, resp), nil
}

// processResponseLocked applies one provider response to its session.
// Caller holds the lock.
func (e *Engine) processResponseLocked(ctx context.Context, s *session.Session, resp *types.GenerateSuggestionsResponse) *Result {
	// Stale response: the session was superseded while the call was in
	// flight. Its decision was reported on the supersession path.
	if s.State() == session.StateClosed || s.State() == session.StateDiscard {
		logger.Debug("dropping stale response for session %s (%s)", s.ID, s.State())
		return &Result{SessionID: s.ID}
	}

	s.SetSuggestions(resp.Suggestions)
	s.SetResponseContext(resp.ResponseContext)
	s.MarkFirstRecommendation()

	e.sessions.ActivateSession(s)

	filtered := make([]types.Suggestion, 0, len(resp.Suggestions))
	for _, sg := range resp.Suggestions {
		if sg.Content == "" {
			s.SetSuggestionState(sg.ItemID, session.DecisionEmpty)
			continue
		}
		if !e.config.IncludeSuggestionsWithCodeReferences && len(sg.References) > 0 {
			s.SetSuggestionState(sg.ItemID, session.DecisionFilter)
			continue
		}
		filtered = append(filtered, sg)
	}

	merged := text.MergeSuggestionsWithRightContext(
		s.RequestContext.FileContext.RightFileContent,
		filtered,
		e.config.IncludeImportsWithSuggestions,
		nil,
	)

	displayable := merged[:0]
	for _, it := range merged {
		if it.InsertText == "" {
			// Fully subsumed by right context; nothing left to show.
			s.SetSuggestionState(it.ItemID, session.DecisionDiscard)
			continue
		}
		displayable = append(displayable, it)
	}

	s.AppendMergedSuggestions(displayable)

	if len(s.MergedSuggestions()) == 0 && resp.ResponseContext.NextToken == "" {
		e.sessions.CloseSession(s)
		e.emitDecisionLocked(ctx, s)
		return &Result{SessionID: s.ID}
	}

	return &Result{
		SessionID:          s.ID,
		Items:              displayable,
		PartialResultToken: resp.ResponseContext.NextToken,
	}
}

// emitDecisionLocked sends the aggregated trigger decision for a terminal
// session at most once. Caller holds the lock.
func (e *Engine) emitDecisionLocked(ctx context.Context, s *session.Session) {
	decision, ok := s.AggregatedUserTriggerDecision()
	if !ok || !s.MarkDecisionReported() {
		return
	}

	event := telemetry.UserTriggerDecisionEvent{
		SessionID:                     s.ID,
		Decision:                      decision,
		Language:                      s.Language,
		TriggerType:                   string(s.TriggerType),
		SuggestionCount:               len(s.Suggestions()),
		AcceptedSuggestionID:          s.AcceptedSuggestionID(),
		ImportCount:                   s.ImportCount(),
		TimeToFirstRecommendation:     s.TimeToFirstRecommendation(),
		FirstCompletionDisplayLatency: s.FirstCompletionDisplayLatency(),
		TotalSessionDisplayTime:       s.TotalSessionDisplayTime(),
		TypeaheadLength:               s.TypeaheadLength(),
	}
	if rc := s.ResponseContext(); rc != nil {
		event.RemoteSessionID = rc.SessionID
		event.RequestID = rc.RequestID
	}
	if d, t, ok := s.PreviousTriggerDecision(); ok {
		event.PreviousDecision = d
		event.PreviousDecisionTime = t
	}

	e.sender.SendUserTriggerDecision(ctx, event)
	logger.Debug("session %s decision: %s", s.ID, decision)
}
