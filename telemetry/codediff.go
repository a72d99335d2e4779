package telemetry

import (
	"context"
	"sync"
	"time"

	"ghosttext/text"
)

// DefaultFlushDelay is how long an accepted suggestion is held before its
// surviving fraction is measured.
const DefaultFlushDelay = 5 * time.Minute

// DocumentTextFunc returns the current text of a document, or false when
// the document is no longer open.
type DocumentTextFunc func(uri string) (string, bool)

type trackedAcceptance struct {
	event       UserModificationEvent
	uri         string
	insertText  string
	startOffset int
	acceptedAt  time.Time
}

// CodeDiffTracker holds accepted suggestions and, after a delay, measures
// how much of the accepted text the user edited away, emitting a
// user-modification event per acceptance.
type CodeDiffTracker struct {
	mu      sync.Mutex
	queue   []trackedAcceptance
	sender  Sender
	docText DocumentTextFunc
	delay   time.Duration
	now     func() time.Time
}

// NewCodeDiffTracker builds a tracker that reads document text through
// docText and emits through sender.
func NewCodeDiffTracker(sender Sender, docText DocumentTextFunc) *CodeDiffTracker {
	return &CodeDiffTracker{
		sender:  sender,
		docText: docText,
		delay:   DefaultFlushDelay,
		now:     time.Now,
	}
}

// SetDelay overrides the flush delay, for tests.
func (t *CodeDiffTracker) SetDelay(d time.Duration) { t.delay = d }

// SetClock overrides the time source, for tests.
func (t *CodeDiffTracker) SetClock(now func() time.Time) { t.now = now }

// Enqueue records an accepted suggestion for later measurement.
// startOffset is the byte offset in the document where the insert text
// was placed.
func (t *CodeDiffTracker) Enqueue(uri, insertText string, startOffset int, event UserModificationEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append(t.queue, trackedAcceptance{
		event:       event,
		uri:         uri,
		insertText:  insertText,
		startOffset: startOffset,
		acceptedAt:  t.now(),
	})
}

// Flush emits a user-modification event for every acceptance older than
// the flush delay, measuring the modification percentage against the
// document's current text. Entries whose document is gone are dropped
// silently. Younger entries stay queued.
func (t *CodeDiffTracker) Flush(ctx context.Context) {
	t.mu.Lock()
	cutoff := t.now().Add(-t.delay)
	var due, keep []trackedAcceptance
	for _, a := range t.queue {
		if a.acceptedAt.After(cutoff) {
			keep = append(keep, a)
		} else {
			due = append(due, a)
		}
	}
	t.queue = keep
	t.mu.Unlock()

	for _, a := range due {
		current, ok := t.docText(a.uri)
		if !ok {
			continue
		}
		// Compare against the window where the text was inserted. Later
		// edits can shift it; the Levenshtein-based percentage degrades
		// gracefully when they do.
		start := min(a.startOffset, len(current))
		end := min(start+len(a.insertText), len(current))
		window := current[start:end]
		ev := a.event
		ev.AcceptedCharacterCount = len(a.insertText)
		ev.AddedCharacterCount, ev.RemovedCharacterCount = text.CharacterDifferences(a.insertText, window)
		ev.ModificationPercentage = text.ModificationPercentage(a.insertText, window)
		t.sender.SendUserModification(ctx, ev)
	}
}

// Run flushes periodically until the context is done, then performs one
// final flush.
func (t *CodeDiffTracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.Flush(context.Background())
			return
		case <-ticker.C:
			t.Flush(ctx)
		}
	}
}
