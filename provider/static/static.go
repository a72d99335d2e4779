// Package static serves canned suggestions from a JSON file. Useful for
// offline development and end-to-end tests that should not hit the
// network.
package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"ghosttext/types"
)

type fileEntry struct {
	Content string `json:"content"`
}

// Provider returns the same suggestion set for every request.
type Provider struct {
	suggestions []types.Suggestion
}

// NewProvider loads suggestions from path, a JSON array of
// {"content": ...} entries. An empty path yields a provider that always
// answers with no suggestions.
func NewProvider(path string) (*Provider, error) {
	if path == "" {
		return &Provider{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suggestions file: %w", err)
	}
	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions file: %w", err)
	}
	p := &Provider{}
	for _, e := range entries {
		p.suggestions = append(p.suggestions, types.Suggestion{
			ItemID:  uuid.NewString(),
			Content: e.Content,
		})
	}
	return p, nil
}

// GenerateSuggestions implements types.Provider.
func (p *Provider) GenerateSuggestions(ctx context.Context, req *types.GenerateSuggestionsRequest) (*types.GenerateSuggestionsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &types.GenerateSuggestionsResponse{
		Suggestions: p.suggestions,
		ResponseContext: types.ResponseContext{
			RequestID: uuid.NewString(),
			SessionID: "static",
		},
	}, nil
}
