package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"ghosttext/types"
)

func TestLongestOverlap(t *testing.T) {
	tests := []struct {
		name         string
		suffixSource string
		prefixSource string
		want         string
	}{
		{"partial overlap", "adwg31", "31ggrs", "31"},
		{"no overlap", "abc", "xyz", ""},
		{"full overlap", "abc", "abc", "abc"},
		{"single char", "foo.", ".bar", "."},
		{"empty suffix source", "", "abc", ""},
		{"empty prefix source", "abc", "", ""},
		{"prefix source shorter", "function foo", "foo()", "foo"},
		{"longest match wins", "aaa", "aaaa", "aaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LongestOverlap(tt.suffixSource, tt.prefixSource))
		})
	}
}

func TestTruncateOverlapWithRightContext(t *testing.T) {
	tests := []struct {
		name       string
		right      string
		suggestion string
		want       string
	}{
		{
			name:       "no overlap leaves suggestion unchanged",
			right:      "return nil\n}",
			suggestion: "x := compute()",
			want:       "x := compute()",
		},
		{
			name:       "trailing overlap removed",
			right:      "bar()\n}",
			suggestion: "foo.bar()",
			want:       "foo.",
		},
		{
			name:       "full subsumption yields empty",
			right:      "foo.bar()\n}",
			suggestion: "foo.bar()",
			want:       "",
		},
		{
			name:       "whitespace only remainder yields empty",
			right:      "bar()",
			suggestion: "  bar()",
			want:       "",
		},
		{
			name:       "leading indent in right context ignored",
			right:      "    bar()",
			suggestion: "foo.bar()",
			want:       "foo.",
		},
		{
			name:       "crlf right context normalized",
			right:      "\r\nb()",
			suggestion: "a()\nb()",
			want:       "a()",
		},
		{
			name:       "closing brace across newline removed",
			right:      "\n}",
			suggestion: "foo()\n}",
			want:       "foo()",
		},
		{
			name:       "trimmed trailing newline breaks the match",
			right:      "\n}",
			suggestion: "foo()\n",
			want:       "foo()\n",
		},
		{
			name:       "empty right context",
			right:      "",
			suggestion: "foo()",
			want:       "foo()",
		},
		{
			name:       "empty suggestion",
			right:      "foo()",
			suggestion: "",
			want:       "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateOverlapWithRightContext(tt.right, tt.suggestion))
		})
	}
}

func TestTruncateOverlapRightContextCapped(t *testing.T) {
	// Overlap material past the cap must not participate in matching.
	right := strings.Repeat("z", rightContextLimit) + "tail"
	got := TruncateOverlapWithRightContext(right, "tail")
	assert.Equal(t, "tail", got)

	// The same overlap inside the cap is found.
	got = TruncateOverlapWithRightContext("tail", "tail")
	assert.Equal(t, "", got)
}

func TestTruncateOverlapProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		right := rapid.String().Draw(t, "right")
		suggestion := rapid.String().Draw(t, "suggestion")

		got := TruncateOverlapWithRightContext(right, suggestion)

		// The result is always a prefix of the original suggestion.
		if !strings.HasPrefix(suggestion, got) {
			t.Fatalf("result %q is not a prefix of %q", got, suggestion)
		}
		if len(got) > len(suggestion) {
			t.Fatalf("result longer than input: %d > %d", len(got), len(suggestion))
		}
	})
}

func TestMergeSuggestionsDropsReferencesOnEmptyInsert(t *testing.T) {
	suggestions := []types.Suggestion{{
		ItemID:  "a",
		Content: "foo()",
		References: []types.Reference{
			{LicenseName: "MIT", RecommendationContentSpan: &types.Span{Start: 0, End: 4}},
		},
	}}

	items := MergeSuggestionsWithRightContext("foo()", suggestions, false, nil)
	assert.Len(t, items, 1)
	assert.Equal(t, "", items[0].InsertText)
	assert.Nil(t, items[0].References)
}

func TestMergeSuggestionsReferenceFiltering(t *testing.T) {
	suggestions := []types.Suggestion{{
		ItemID:  "a",
		Content: "abcdef",
		References: []types.Reference{
			{LicenseName: "kept", RecommendationContentSpan: &types.Span{Start: 1, End: 5}},
			{LicenseName: "dropped", RecommendationContentSpan: &types.Span{Start: 4, End: 6}},
			{LicenseName: "zero-start kept", RecommendationContentSpan: &types.Span{Start: 0, End: 6}},
			{LicenseName: "spanless kept"},
		},
	}}

	// Right context truncates the suggestion to "abcd" (len 4).
	items := MergeSuggestionsWithRightContext("ef", suggestions, false, nil)
	assert.Len(t, items, 1)
	assert.Equal(t, "abcd", items[0].InsertText)

	refs := items[0].References
	assert.Len(t, refs, 3)

	assert.Equal(t, "kept", refs[0].LicenseName)
	assert.Equal(t, &types.Span{Start: 1, End: 3}, refs[0].Position, "end clamped into insert text")

	assert.Equal(t, "zero-start kept", refs[1].LicenseName)
	assert.Equal(t, &types.Span{Start: 0, End: 3}, refs[1].Position)

	assert.Equal(t, "spanless kept", refs[2].LicenseName)
	assert.Nil(t, refs[2].Position)
}

func TestMergeSuggestionsNilReferencesWhenNoneSurvive(t *testing.T) {
	suggestions := []types.Suggestion{{
		ItemID:  "a",
		Content: "ab",
		References: []types.Reference{
			{LicenseName: "late", RecommendationContentSpan: &types.Span{Start: 5, End: 9}},
		},
	}}

	items := MergeSuggestionsWithRightContext("", suggestions, false, nil)
	assert.Len(t, items, 1)
	assert.Nil(t, items[0].References)
}

func TestMergeSuggestionsImportsGated(t *testing.T) {
	suggestions := []types.Suggestion{{
		ItemID:                     "a",
		Content:                    "foo()",
		MostRelevantMissingImports: []types.Import{{Statement: "import foo"}},
	}}

	items := MergeSuggestionsWithRightContext("", suggestions, false, nil)
	assert.Nil(t, items[0].MostRelevantMissingImports)

	items = MergeSuggestionsWithRightContext("", suggestions, true, nil)
	assert.Equal(t, []types.Import{{Statement: "import foo"}}, items[0].MostRelevantMissingImports)
}

func TestMergeSuggestionsRangePassthrough(t *testing.T) {
	rng := &types.Range{
		Start: types.Position{Line: 1, Character: 2},
		End:   types.Position{Line: 1, Character: 2},
	}
	items := MergeSuggestionsWithRightContext("", []types.Suggestion{{ItemID: "a", Content: "x"}}, false, rng)
	assert.Equal(t, rng, items[0].Range)
}
