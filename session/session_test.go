package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghosttext/types"
)

// fakeClock returns a time source that advances one second per call.
func fakeClock() func() time.Time {
	t := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func testData() Data {
	return Data{
		Document:       types.DocumentSnapshot{URI: "file:///main.go", LanguageID: "go", Text: "package main\n"},
		TriggerType:    types.TriggerOnDemand,
		Language:       "go",
		RequestContext: &types.GenerateSuggestionsRequest{},
	}
}

func mustSession(t *testing.T) *Session {
	t.Helper()
	s, err := newSession("s1", testData(), fakeClock())
	require.NoError(t, err)
	return s
}

func TestNewSessionValidation(t *testing.T) {
	clock := fakeClock()

	data := testData()
	data.Document.URI = ""
	_, err := newSession("s1", data, clock)
	assert.Error(t, err)

	data = testData()
	data.Language = ""
	_, err = newSession("s1", data, clock)
	assert.Error(t, err)

	data = testData()
	data.RequestContext = nil
	_, err = newSession("s1", data, clock)
	assert.Error(t, err)

	s, err := newSession("s1", testData(), clock)
	require.NoError(t, err)
	assert.Equal(t, StateRequesting, s.State())
	assert.False(t, s.StartTime().IsZero())
}

func TestLifecycleTransitions(t *testing.T) {
	s := mustSession(t)
	s.Activate()
	assert.Equal(t, StateActive, s.State())

	// Activating twice stays active.
	s.Activate()
	assert.Equal(t, StateActive, s.State())

	s.Close()
	assert.Equal(t, StateClosed, s.State())

	// A closed session never reactivates.
	s.Activate()
	assert.Equal(t, StateClosed, s.State())

	// Discard is the only move left after close.
	s.Discard()
	assert.Equal(t, StateDiscard, s.State())

	// Discard is final.
	s.Close()
	assert.Equal(t, StateDiscard, s.State())
	s.Activate()
	assert.Equal(t, StateDiscard, s.State())
}

func TestCloseIsIdempotent(t *testing.T) {
	s := mustSession(t)
	s.Activate()
	s.Close()
	closedAt := s.CloseTime()
	require.False(t, closedAt.IsZero())

	// A second close must not move the close time even though the clock
	// advanced.
	s.Close()
	assert.Equal(t, closedAt, s.CloseTime())
}

func TestCloseFillsUnresolvedSuggestions(t *testing.T) {
	s := mustSession(t)
	s.SetSuggestions([]types.Suggestion{
		{ItemID: "a", Content: "x"},
		{ItemID: "b", Content: "y"},
	})
	s.Activate()
	s.SetSuggestionState("a", DecisionAccept)
	s.Close()

	d, ok := s.GetSuggestionState("a")
	require.True(t, ok)
	assert.Equal(t, DecisionAccept, d)

	d, ok = s.GetSuggestionState("b")
	require.True(t, ok)
	assert.Equal(t, DecisionDiscard, d)
}

func TestDiscardOverridesDecisions(t *testing.T) {
	s := mustSession(t)
	s.SetSuggestions([]types.Suggestion{{ItemID: "a", Content: "x"}})
	s.Activate()
	s.SetSuggestionState("a", DecisionAccept)
	s.Discard()

	d, _ := s.GetSuggestionState("a")
	assert.Equal(t, DecisionDiscard, d)
}

func TestStaleMutationsAreNoOps(t *testing.T) {
	s := mustSession(t)
	s.Discard()

	s.SetSuggestions([]types.Suggestion{{ItemID: "a", Content: "x"}})
	assert.Empty(t, s.Suggestions())

	s.AppendMergedSuggestions([]types.MergedItem{{ItemID: "a", InsertText: "x"}})
	assert.Empty(t, s.MergedSuggestions())

	s.SetResponseContext(types.ResponseContext{RequestID: "r"})
	assert.Nil(t, s.ResponseContext())

	s.MarkFirstRecommendation()
	assert.Zero(t, s.TimeToFirstRecommendation())

	s.SetClientResultData(map[string]ClientResult{"a": {Seen: true}}, 0, 0, 0)
	assert.Empty(t, s.AcceptedSuggestionID())
}

func TestSetClientResultDataDerivesDecisions(t *testing.T) {
	s := mustSession(t)
	s.SetSuggestions([]types.Suggestion{
		{ItemID: "accepted", Content: "a"},
		{ItemID: "passed-over", Content: "b"},
		{ItemID: "never-shown", Content: "c"},
		{ItemID: "dismissed", Content: "d"},
	})
	s.Activate()

	s.SetClientResultData(map[string]ClientResult{
		"accepted":    {Seen: true, Accepted: true},
		"passed-over": {Seen: true},
		"never-shown": {},
		"dismissed":   {Seen: true, Discarded: true},
		"unknown-id":  {Seen: true, Accepted: true},
	}, 30*time.Millisecond, 2*time.Second, 3)

	d, _ := s.GetSuggestionState("accepted")
	assert.Equal(t, DecisionAccept, d)
	d, _ = s.GetSuggestionState("passed-over")
	assert.Equal(t, DecisionIgnore, d)
	d, _ = s.GetSuggestionState("never-shown")
	assert.Equal(t, DecisionUnseen, d)
	d, _ = s.GetSuggestionState("dismissed")
	assert.Equal(t, DecisionDiscard, d)

	_, ok := s.GetSuggestionState("unknown-id")
	assert.False(t, ok, "unknown item ids must be ignored")

	assert.Equal(t, 30*time.Millisecond, s.FirstCompletionDisplayLatency())
	assert.Equal(t, 2*time.Second, s.TotalSessionDisplayTime())
	assert.Equal(t, 3, s.TypeaheadLength())
}

func TestSetClientResultDataRejectWithoutAccept(t *testing.T) {
	s := mustSession(t)
	s.SetSuggestions([]types.Suggestion{{ItemID: "a", Content: "x"}})
	s.Activate()

	s.SetClientResultData(map[string]ClientResult{"a": {Seen: true}}, 0, 0, 0)

	d, _ := s.GetSuggestionState("a")
	assert.Equal(t, DecisionReject, d)
	assert.Empty(t, s.AcceptedSuggestionID())
}

func TestSetClientResultDataFirstReportWins(t *testing.T) {
	s := mustSession(t)
	s.SetSuggestions([]types.Suggestion{{ItemID: "a", Content: "x"}})
	s.Activate()

	s.SetClientResultData(map[string]ClientResult{"a": {Seen: true}}, 0, 0, 0)
	s.SetClientResultData(map[string]ClientResult{"a": {Seen: true, Accepted: true}}, 0, 0, 0)

	d, _ := s.GetSuggestionState("a")
	assert.Equal(t, DecisionReject, d)
	assert.Empty(t, s.AcceptedSuggestionID())
}

func TestAggregatedUserTriggerDecision(t *testing.T) {
	tests := []struct {
		name      string
		decisions []UserDecision
		want      TriggerDecision
	}{
		{"accept outranks everything", []UserDecision{DecisionReject, DecisionAccept, DecisionDiscard}, TriggerDecisionAccept},
		{"reject outranks discard", []UserDecision{DecisionReject, DecisionDiscard}, TriggerDecisionReject},
		{"all discard", []UserDecision{DecisionDiscard, DecisionDiscard}, TriggerDecisionDiscard},
		{"all filter", []UserDecision{DecisionFilter, DecisionFilter}, TriggerDecisionDiscard},
		{"all empty", []UserDecision{DecisionEmpty, DecisionEmpty}, TriggerDecisionEmpty},
		{"no suggestions", nil, TriggerDecisionEmpty},
		{"unseen counts as discard", []UserDecision{DecisionUnseen, DecisionEmpty}, TriggerDecisionDiscard},
		{"ignore counts as discard", []UserDecision{DecisionIgnore}, TriggerDecisionDiscard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustSession(t)
			suggestions := make([]types.Suggestion, len(tt.decisions))
			for i := range tt.decisions {
				suggestions[i] = types.Suggestion{ItemID: string(rune('a' + i)), Content: "x"}
			}
			s.SetSuggestions(suggestions)
			s.Activate()
			for i, d := range tt.decisions {
				s.SetSuggestionState(suggestions[i].ItemID, d)
			}

			_, ok := s.AggregatedUserTriggerDecision()
			assert.False(t, ok, "no decision before the session is terminal")

			s.transition(StateClosed)
			got, ok := s.AggregatedUserTriggerDecision()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregatedDecisionDiscardedSession(t *testing.T) {
	s := mustSession(t)
	s.SetSuggestions([]types.Suggestion{{ItemID: "a", Content: "x"}})
	s.Activate()
	s.SetSuggestionState("a", DecisionAccept)
	s.Discard()

	got, ok := s.AggregatedUserTriggerDecision()
	require.True(t, ok)
	assert.Equal(t, TriggerDecisionDiscard, got, "discard overrides even an accept")
}

func TestMarkDecisionReportedExactlyOnce(t *testing.T) {
	s := mustSession(t)
	assert.False(t, s.DecisionReported())
	assert.True(t, s.MarkDecisionReported())
	assert.True(t, s.DecisionReported())
	assert.False(t, s.MarkDecisionReported())
	assert.False(t, s.MarkDecisionReported())
}
