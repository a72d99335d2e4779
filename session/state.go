package session

// State is the lifecycle state of a completion session.
type State string

const (
	StateRequesting State = "REQUESTING"
	StateActive     State = "ACTIVE"
	StateClosed     State = "CLOSED"
	StateDiscard    State = "DISCARD"
)

// UserDecision is the per-suggestion outcome recorded for telemetry.
type UserDecision string

const (
	DecisionUnseen  UserDecision = "Unseen"
	DecisionIgnore  UserDecision = "Ignore"
	DecisionAccept  UserDecision = "Accept"
	DecisionReject  UserDecision = "Reject"
	DecisionDiscard UserDecision = "Discard"
	DecisionFilter  UserDecision = "Filter"
	DecisionEmpty   UserDecision = "Empty"
)

// TriggerDecision is the session-level outcome aggregated over all
// per-suggestion decisions.
type TriggerDecision string

const (
	TriggerDecisionAccept  TriggerDecision = "Accept"
	TriggerDecisionReject  TriggerDecision = "Reject"
	TriggerDecisionDiscard TriggerDecision = "Discard"
	TriggerDecisionEmpty   TriggerDecision = "Empty"
)

// transitions is the full state-transition table. Every lifecycle method
// consults it through transition; a forbidden move is a no-op, never an
// error, because double-close and late-discard are expected races.
//
// CLOSED permits DISCARD so that discarding is blocked only by a prior
// discard; nothing in this codebase takes that edge.
var transitions = map[State]map[State]bool{
	StateRequesting: {StateActive: true, StateClosed: true, StateDiscard: true},
	StateActive:     {StateActive: true, StateClosed: true, StateDiscard: true},
	StateClosed:     {StateDiscard: true},
	StateDiscard:    {},
}

// transition applies the state change when the table permits it and
// reports whether it was applied.
func (s *Session) transition(to State) bool {
	if !transitions[s.state][to] {
		return false
	}
	s.state = to
	return true
}

// terminal reports whether st is a final state.
func terminal(st State) bool {
	return st == StateClosed || st == StateDiscard
}
