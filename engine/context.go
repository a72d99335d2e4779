package engine

import (
	"strings"

	"ghosttext/types"
)

// contextCharacterLimit caps how much text on either side of the cursor
// is sent to the suggestion service.
const contextCharacterLimit = 10240

// buildRequest extracts the file context around the cursor and assembles
// the outbound request payload. Left context keeps its tail, right
// context its head, both CRLF-normalized; the merge engine re-normalizes
// right context independently, so truncation here only bounds payload
// size.
func buildRequest(doc types.DocumentSnapshot, pos types.Position, config Config) *types.GenerateSuggestionsRequest {
	offset := offsetAt(doc.Text, pos)
	left := doc.Text[:offset]
	right := doc.Text[offset:]

	if len(left) > contextCharacterLimit {
		left = left[len(left)-contextCharacterLimit:]
	}
	if len(right) > contextCharacterLimit {
		right = right[:contextCharacterLimit]
	}

	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	return &types.GenerateSuggestionsRequest{
		FileContext: types.FileContext{
			Filename:         doc.URI,
			Language:         doc.LanguageID,
			LeftFileContent:  strings.ReplaceAll(left, "\r\n", "\n"),
			RightFileContent: strings.ReplaceAll(right, "\r\n", "\n"),
		},
		MaxResults:  maxResults,
		WorkspaceID: config.WorkspaceID,
	}
}

// offsetAt converts a zero-based line/character position to a byte offset
// into text, clamping positions past the end of a line or file.
func offsetAt(text string, pos types.Position) int {
	offset := 0
	line := 0
	for line < pos.Line {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return len(text)
		}
		offset += nl + 1
		line++
	}
	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - offset
	}
	return offset + min(pos.Character, lineEnd)
}
