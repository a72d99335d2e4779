// Package telemetry defines the events the engine emits about completion
// sessions and the sender interface providers implement to forward them.
package telemetry

import (
	"context"
	"time"

	"ghosttext/session"
)

// UserTriggerDecisionEvent is the aggregated outcome of one completion
// session. Emitted exactly once per session, when it reaches a terminal
// state.
type UserTriggerDecisionEvent struct {
	SessionID       string
	RemoteSessionID string
	RequestID       string
	Decision        session.TriggerDecision
	Language        string
	TriggerType     string

	SuggestionCount      int
	AcceptedSuggestionID string
	ImportCount          int

	TimeToFirstRecommendation     time.Duration
	FirstCompletionDisplayLatency time.Duration
	TotalSessionDisplayTime       time.Duration
	TypeaheadLength               int

	PreviousDecision     session.TriggerDecision
	PreviousDecisionTime time.Time
}

// UserModificationEvent reports how much of an accepted suggestion was
// still intact after the tracking delay.
type UserModificationEvent struct {
	SessionID              string
	RequestID              string
	Language               string
	AcceptedCharacterCount int
	AddedCharacterCount    int
	RemovedCharacterCount  int
	ModificationPercentage float64
}

// Sender forwards telemetry events to a backend. Implementations should
// treat unsupported events as no-ops and must not block on delivery
// longer than the context allows. The engine guarantees SessionID is
// non-empty when a sender is called.
type Sender interface {
	SendUserTriggerDecision(ctx context.Context, event UserTriggerDecisionEvent)
	SendUserModification(ctx context.Context, event UserModificationEvent)
}

// NopSender discards all events.
type NopSender struct{}

func (NopSender) SendUserTriggerDecision(context.Context, UserTriggerDecisionEvent) {}
func (NopSender) SendUserModification(context.Context, UserModificationEvent)       {}
