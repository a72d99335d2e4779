// Package beacon adapts the Beacon API to the engine's normalized
// suggestion types. The adapter is the only place that sees the wire
// shapes; everything past it works on types.Suggestion. It also forwards
// telemetry events to the Beacon metrics endpoint, so the provider doubles
// as the production telemetry.Sender.
package beacon

import (
	"context"

	"ghosttext/client/beaconapi"
	"ghosttext/logger"
	"ghosttext/telemetry"
	"ghosttext/types"
)

// Provider generates suggestions through the Beacon API.
type Provider struct {
	client *beaconapi.Client
}

// NewProvider creates a Beacon-backed provider.
func NewProvider(apiURL, apiKey string, timeoutMs int, deviceID string) *Provider {
	c := beaconapi.NewClient(apiURL, apiKey, timeoutMs)
	c.DeviceID = deviceID
	return &Provider{client: c}
}

// GenerateSuggestions implements types.Provider.
func (p *Provider) GenerateSuggestions(ctx context.Context, req *types.GenerateSuggestionsRequest) (*types.GenerateSuggestionsResponse, error) {
	apiResp, err := p.client.DoGenerate(ctx, &beaconapi.GenerateRequest{
		FileName:         req.FileContext.Filename,
		Language:         req.FileContext.Language,
		LeftFileContent:  req.FileContext.LeftFileContent,
		RightFileContent: req.FileContext.RightFileContent,
		MaxResults:       req.MaxResults,
		NextToken:        req.NextToken,
		WorkspaceID:      req.WorkspaceID,
	})
	if err != nil {
		return nil, err
	}

	suggestions := make([]types.Suggestion, 0, len(apiResp.Completions))
	for _, c := range apiResp.Completions {
		suggestions = append(suggestions, types.Suggestion{
			ItemID:                     c.ItemID,
			Content:                    c.Content,
			References:                 convertReferences(c.References),
			MostRelevantMissingImports: convertImports(c.MostRelevantMissingImports),
		})
	}

	return &types.GenerateSuggestionsResponse{
		Suggestions: suggestions,
		ResponseContext: types.ResponseContext{
			RequestID: apiResp.RequestID,
			SessionID: apiResp.SessionID,
			NextToken: apiResp.NextToken,
		},
	}, nil
}

func convertReferences(refs []beaconapi.Reference) []types.Reference {
	if len(refs) == 0 {
		return nil
	}
	out := make([]types.Reference, 0, len(refs))
	for _, r := range refs {
		ref := types.Reference{
			LicenseName: r.LicenseName,
			URL:         r.URL,
			Repository:  r.Repository,
		}
		if r.ContentSpan != nil {
			ref.RecommendationContentSpan = &types.Span{
				Start: r.ContentSpan.Start,
				End:   r.ContentSpan.End,
			}
		}
		out = append(out, ref)
	}
	return out
}

func convertImports(imports []beaconapi.Import) []types.Import {
	if len(imports) == 0 {
		return nil
	}
	out := make([]types.Import, 0, len(imports))
	for _, im := range imports {
		out = append(out, types.Import{Statement: im.Statement})
	}
	return out
}

// SendUserTriggerDecision implements telemetry.Sender. Delivery failures
// are logged, never surfaced; telemetry must not affect completions.
func (p *Provider) SendUserTriggerDecision(ctx context.Context, event telemetry.UserTriggerDecisionEvent) {
	err := p.client.TrackMetrics(ctx, &beaconapi.MetricsRequest{
		EventType:        "user_trigger_decision",
		SessionID:        event.SessionID,
		RequestID:        event.RequestID,
		Decision:         string(event.Decision),
		Language:         event.Language,
		TriggerType:      event.TriggerType,
		SuggestionCount:  event.SuggestionCount,
		AcceptedItemID:   event.AcceptedSuggestionID,
		TimeToFirstMs:    event.TimeToFirstRecommendation.Milliseconds(),
		DisplayLatencyMs: event.FirstCompletionDisplayLatency.Milliseconds(),
		DisplayTimeMs:    event.TotalSessionDisplayTime.Milliseconds(),
		TypeaheadLength:  event.TypeaheadLength,
		PreviousDecision: string(event.PreviousDecision),
	})
	if err != nil {
		logger.Warn("failed to send trigger decision for session %s: %v", event.SessionID, err)
	}
}

// SendUserModification implements telemetry.Sender.
func (p *Provider) SendUserModification(ctx context.Context, event telemetry.UserModificationEvent) {
	err := p.client.TrackMetrics(ctx, &beaconapi.MetricsRequest{
		EventType:              "user_modification",
		SessionID:              event.SessionID,
		RequestID:              event.RequestID,
		Language:               event.Language,
		AcceptedCharacterCount: event.AcceptedCharacterCount,
		AddedCharacterCount:    event.AddedCharacterCount,
		RemovedCharacterCount:  event.RemovedCharacterCount,
		ModificationPercentage: event.ModificationPercentage,
	})
	if err != nil {
		logger.Warn("failed to send user modification for session %s: %v", event.SessionID, err)
	}
}
