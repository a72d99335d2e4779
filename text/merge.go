// Package text provides the string-processing side of the completion
// engine: right-context merge of suggestions and diff-based helpers for
// telemetry.
package text

import (
	"regexp"
	"strings"

	"ghosttext/types"
)

// rightContextLimit bounds how much right context participates in overlap
// matching.
const rightContextLimit = 5000

// leadingIndent matches horizontal whitespace at the start of the right
// context. Newlines are deliberately not included.
var leadingIndent = regexp.MustCompile(`^[^\S\n]+`)

// LongestOverlap returns the longest string that is simultaneously a
// suffix of suffixSource and a prefix of prefixSource.
//
//	LongestOverlap("adwg31", "31ggrs") == "31"
func LongestOverlap(suffixSource, prefixSource string) string {
	i := min(len(suffixSource), len(prefixSource))
	for ; i > 0; i-- {
		if prefixSource[:i] == suffixSource[len(suffixSource)-i:] {
			break
		}
	}
	return prefixSource[:i]
}

// TruncateOverlapWithRightContext drops the tail of suggestion that is
// already present immediately after the cursor. The suggestion is trimmed
// for comparison only; the returned text is a slice of the original. The
// right context is capped at rightContextLimit characters, CRLF-normalized
// and stripped of leading horizontal whitespace before matching. The
// suggestion's own line endings are the caller's responsibility.
//
// When the overlap is empty, strings.LastIndex places the cut at the end
// of the suggestion and the whole suggestion is returned. Note the
// asymmetry: a right context starting with a newline does not match a
// suggestion whose trimmed form lost its trailing newline.
func TruncateOverlapWithRightContext(rightFileContent, suggestion string) string {
	trimmed := strings.TrimSpace(suggestion)

	rc := rightFileContent
	if len(rc) > rightContextLimit {
		rc = rc[:rightContextLimit]
	}
	rc = strings.ReplaceAll(rc, "\r\n", "\n")
	rc = leadingIndent.ReplaceAllString(rc, "")

	overlap := LongestOverlap(trimmed, rc)
	idx := strings.LastIndex(suggestion, overlap)
	if idx < 0 {
		return suggestion
	}
	truncated := suggestion[:idx]
	if strings.TrimSpace(truncated) == "" {
		return ""
	}
	return truncated
}

// MergeSuggestionsWithRightContext maps raw suggestions to merged items.
// References whose span starts at or beyond the merged insert text are
// dropped, as are all references when the insert text is empty; retained
// spans have their end clamped into the insert text. The range is attached
// verbatim when provided. Imports are attached only when includeImports is
// set. A suggestion retaining no references yields nil references, never
// an empty slice.
func MergeSuggestionsWithRightContext(rightFileContent string, suggestions []types.Suggestion, includeImports bool, rng *types.Range) []types.MergedItem {
	items := make([]types.MergedItem, 0, len(suggestions))
	for _, s := range suggestions {
		insertText := TruncateOverlapWithRightContext(rightFileContent, s.Content)

		var refs []types.MergedReference
		for _, r := range s.References {
			if len(insertText) == 0 {
				break
			}
			if r.RecommendationContentSpan != nil &&
				r.RecommendationContentSpan.Start != 0 &&
				r.RecommendationContentSpan.Start >= len(insertText) {
				continue
			}
			refs = append(refs, types.MergedReference{
				LicenseName:   r.LicenseName,
				ReferenceURL:  r.URL,
				ReferenceName: r.Repository,
				Position:      clampSpan(r.RecommendationContentSpan, len(insertText)),
			})
		}

		var imports []types.Import
		if includeImports {
			imports = s.MostRelevantMissingImports
		}

		items = append(items, types.MergedItem{
			ItemID:                     s.ItemID,
			InsertText:                 insertText,
			Range:                      rng,
			References:                 refs,
			MostRelevantMissingImports: imports,
		})
	}
	return items
}

// clampSpan clamps a reference span's end into the insert text. A zero end
// is passed through unclamped.
func clampSpan(span *types.Span, insertLen int) *types.Span {
	if span == nil {
		return nil
	}
	end := span.End
	if end != 0 {
		end = min(end, insertLen-1)
	}
	return &types.Span{Start: span.Start, End: end}
}
