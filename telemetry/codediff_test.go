package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	decisions []UserTriggerDecisionEvent
	mods      []UserModificationEvent
}

func (c *captureSender) SendUserTriggerDecision(_ context.Context, e UserTriggerDecisionEvent) {
	c.decisions = append(c.decisions, e)
}

func (c *captureSender) SendUserModification(_ context.Context, e UserModificationEvent) {
	c.mods = append(c.mods, e)
}

func newTestTracker(docs map[string]string) (*CodeDiffTracker, *captureSender, *time.Time) {
	sender := &captureSender{}
	tracker := NewCodeDiffTracker(sender, func(uri string) (string, bool) {
		text, ok := docs[uri]
		return text, ok
	})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.SetClock(func() time.Time { return now })
	return tracker, sender, &now
}

func TestFlushRespectsDelay(t *testing.T) {
	docs := map[string]string{"file:///a.go": "inserted()"}
	tracker, sender, now := newTestTracker(docs)

	tracker.Enqueue("file:///a.go", "inserted()", 0, UserModificationEvent{SessionID: "s1"})

	tracker.Flush(context.Background())
	assert.Empty(t, sender.mods, "entry younger than the delay stays queued")

	*now = now.Add(DefaultFlushDelay + time.Second)
	tracker.Flush(context.Background())
	require.Len(t, sender.mods, 1)
	assert.Equal(t, "s1", sender.mods[0].SessionID)
	assert.Equal(t, len("inserted()"), sender.mods[0].AcceptedCharacterCount)
	assert.Equal(t, 0.0, sender.mods[0].ModificationPercentage)
	assert.Zero(t, sender.mods[0].AddedCharacterCount)
	assert.Zero(t, sender.mods[0].RemovedCharacterCount)

	// Flushed entries do not fire twice.
	tracker.Flush(context.Background())
	assert.Len(t, sender.mods, 1)
}

func TestFlushMeasuresModification(t *testing.T) {
	docs := map[string]string{"file:///a.go": "prefix-EDITED()-suffix"}
	tracker, sender, now := newTestTracker(docs)

	// Inserted at offset 7, then partially rewritten by the user.
	tracker.Enqueue("file:///a.go", "original()", 7, UserModificationEvent{SessionID: "s1"})

	*now = now.Add(DefaultFlushDelay + time.Second)
	tracker.Flush(context.Background())

	require.Len(t, sender.mods, 1)
	assert.Greater(t, sender.mods[0].ModificationPercentage, 0.0)
	assert.LessOrEqual(t, sender.mods[0].ModificationPercentage, 1.0)
}

func TestFlushDropsClosedDocuments(t *testing.T) {
	tracker, sender, now := newTestTracker(map[string]string{})

	tracker.Enqueue("file:///gone.go", "x()", 0, UserModificationEvent{SessionID: "s1"})

	*now = now.Add(DefaultFlushDelay + time.Second)
	tracker.Flush(context.Background())
	assert.Empty(t, sender.mods)
}

func TestFlushClampsOffsets(t *testing.T) {
	// The document shrank below the insertion offset; the comparison
	// window degrades to empty instead of panicking.
	docs := map[string]string{"file:///a.go": "ab"}
	tracker, sender, now := newTestTracker(docs)

	tracker.Enqueue("file:///a.go", "inserted()", 100, UserModificationEvent{SessionID: "s1"})

	*now = now.Add(DefaultFlushDelay + time.Second)
	tracker.Flush(context.Background())

	require.Len(t, sender.mods, 1)
	assert.Equal(t, 1.0, sender.mods[0].ModificationPercentage)
}
