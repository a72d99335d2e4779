// Package types defines the normalized data model shared across the
// completion engine: suggestions as returned by a provider, merged
// completion items after right-context reconciliation, and the request
// and response shapes of the suggestion service. Provider adapters are
// responsible for converting their wire formats into these types so the
// engine and session packages never see service-specific shapes.
package types

import "context"

// TriggerType describes how a completion request was initiated.
type TriggerType string

const (
	TriggerOnDemand  TriggerType = "OnDemand"
	TriggerAutomatic TriggerType = "AutoTrigger"
)

// AutoTriggerType is the sub-type of an automatic trigger.
type AutoTriggerType string

const (
	AutoTriggerClassifier   AutoTriggerType = "Classifier"
	AutoTriggerSpecialChar  AutoTriggerType = "SpecialCharacters"
	AutoTriggerEnter        AutoTriggerType = "Enter"
	AutoTriggerIntelliSense AutoTriggerType = "IntelliSenseAcceptance"
	AutoTriggerIdleTime     AutoTriggerType = "IdleTime"
)

// Position is a zero-based line/character position within a document.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open [Start, End) span within a document.
type Range struct {
	Start Position
	End   Position
}

// Span is a character range within a suggestion's content.
type Span struct {
	Start int
	End   int
}

// Reference carries attribution metadata for a suggestion. The content
// span, when present, is relative to the original (pre-merge) content.
type Reference struct {
	LicenseName               string
	URL                       string
	Repository                string
	RecommendationContentSpan *Span
}

// Import is a missing-import hint attached to a suggestion.
type Import struct {
	Statement string
}

// Suggestion is a single raw candidate from the suggestion service.
// Immutable once received.
type Suggestion struct {
	ItemID                     string
	Content                    string
	References                 []Reference
	MostRelevantMissingImports []Import
}

// MergedReference is a reference re-projected onto the merged insert
// text. Position is nil when the original reference carried no span.
type MergedReference struct {
	LicenseName   string
	ReferenceURL  string
	ReferenceName string
	Position      *Span
}

// MergedItem is a suggestion after right-context merge. InsertText may be
// shorter than the original content, or empty when the suggestion is fully
// subsumed by the right context. References is nil (not empty) when no
// reference survives the merge; consumers rely on that distinction.
type MergedItem struct {
	ItemID                     string
	InsertText                 string
	Range                      *Range
	References                 []MergedReference
	MostRelevantMissingImports []Import
}

// DocumentSnapshot is a read-only view of a document at trigger time.
type DocumentSnapshot struct {
	URI        string
	LanguageID string
	Version    int32
	Text       string
}

// FileContext is the text surrounding the cursor, as sent to the service.
type FileContext struct {
	Filename         string
	Language         string
	LeftFileContent  string
	RightFileContent string
}

// GenerateSuggestionsRequest is the outbound payload for one completion
// attempt. NextToken requests the next page of an earlier attempt.
type GenerateSuggestionsRequest struct {
	FileContext FileContext
	MaxResults  int
	NextToken   string
	WorkspaceID string
}

// ResponseContext is the service-side metadata attached to a response.
type ResponseContext struct {
	RequestID string
	SessionID string
	NextToken string
}

// GenerateSuggestionsResponse pairs the candidate suggestions with the
// service response metadata.
type GenerateSuggestionsResponse struct {
	Suggestions     []Suggestion
	ResponseContext ResponseContext
}

// Provider generates suggestions for a request. Implementations must
// honor context cancellation; the engine wraps calls in a timeout.
type Provider interface {
	GenerateSuggestions(ctx context.Context, req *GenerateSuggestionsRequest) (*GenerateSuggestionsResponse, error)
}
