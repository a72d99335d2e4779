// Package beaconapi is the HTTP client for the Beacon suggestion
// service. Requests are JSON, brotli-compressed on the wire; responses
// carry the candidate suggestions plus the request id, remote session id
// and pagination token.
package beaconapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ghosttext/logger"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
)

// DefaultBaseURL is the production endpoint.
const DefaultBaseURL = "https://api.beacon-complete.dev"

const (
	generatePath = "/v1/generate_completions"
	metricsPath  = "/v1/track_completion_metrics"
)

// Span is a character range within a suggestion's content.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Reference is license/attribution metadata for a completion.
type Reference struct {
	LicenseName string `json:"license_name"`
	URL         string `json:"url"`
	Repository  string `json:"repository"`
	ContentSpan *Span  `json:"content_span,omitempty"`
}

// Import is a missing-import hint.
type Import struct {
	Statement string `json:"statement"`
}

// Completion is one candidate in a generate response.
type Completion struct {
	ItemID                     string      `json:"item_id"`
	Content                    string      `json:"content"`
	References                 []Reference `json:"references,omitempty"`
	MostRelevantMissingImports []Import    `json:"most_relevant_missing_imports,omitempty"`
}

// GenerateRequest is the request format of the generate endpoint.
type GenerateRequest struct {
	FileName         string `json:"file_name"`
	Language         string `json:"language"`
	LeftFileContent  string `json:"left_file_content"`
	RightFileContent string `json:"right_file_content"`
	MaxResults       int    `json:"max_results"`
	NextToken        string `json:"next_token,omitempty"`
	WorkspaceID      string `json:"workspace_id,omitempty"`
	DeviceID         string `json:"device_id,omitempty"`
}

// GenerateResponse is the response format of the generate endpoint.
type GenerateResponse struct {
	Completions []Completion `json:"completions"`
	RequestID   string       `json:"request_id"`
	SessionID   string       `json:"session_id"`
	NextToken   string       `json:"next_token,omitempty"`
}

// MetricsRequest is the request format of the metrics endpoint.
type MetricsRequest struct {
	EventType              string  `json:"event_type"`
	SessionID              string  `json:"session_id"`
	RequestID              string  `json:"request_id,omitempty"`
	Decision               string  `json:"decision,omitempty"`
	Language               string  `json:"language,omitempty"`
	TriggerType            string  `json:"trigger_type,omitempty"`
	SuggestionCount        int     `json:"suggestion_count,omitempty"`
	AcceptedItemID         string  `json:"accepted_item_id,omitempty"`
	TimeToFirstMs          int64   `json:"time_to_first_ms,omitempty"`
	DisplayLatencyMs       int64   `json:"display_latency_ms,omitempty"`
	DisplayTimeMs          int64   `json:"display_time_ms,omitempty"`
	TypeaheadLength        int     `json:"typeahead_length,omitempty"`
	PreviousDecision       string  `json:"previous_decision,omitempty"`
	AcceptedCharacterCount int     `json:"accepted_character_count,omitempty"`
	AddedCharacterCount    int     `json:"added_character_count,omitempty"`
	RemovedCharacterCount  int     `json:"removed_character_count,omitempty"`
	ModificationPercentage float64 `json:"modification_percentage,omitempty"`
	DeviceID               string  `json:"device_id,omitempty"`
}

// Client is the HTTP client for the Beacon API.
type Client struct {
	HTTPClient  *http.Client
	GenerateURL string
	MetricsURL  string
	AuthToken   string
	DeviceID    string
	UserAgent   string
}

// NewClient creates a client against baseURL, or the production endpoint
// when baseURL is empty. timeoutMs of zero means no client-side timeout;
// callers are expected to pass bounded contexts.
func NewClient(baseURL, apiKey string, timeoutMs int) *Client {
	timeout := time.Duration(0)
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}

	base := strings.TrimSuffix(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	return &Client{
		HTTPClient:  &http.Client{Timeout: timeout},
		GenerateURL: base + generatePath,
		MetricsURL:  base + metricsPath,
		AuthToken:   apiKey,
	}
}

// DoGenerate sends a completion request. Completions returned without an
// item id are assigned one so session bookkeeping always has a key.
func (c *Client) DoGenerate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	defer logger.Trace("beaconapi.DoGenerate")()

	if req.DeviceID == "" {
		req.DeviceID = c.DeviceID
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Compress with brotli (quality 1 for speed)
	var compressed bytes.Buffer
	bw := brotli.NewWriterLevel(&compressed, 1)
	if _, err := bw.Write(jsonData); err != nil {
		return nil, fmt.Errorf("failed to compress request: %w", err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close brotli writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.GenerateURL, &compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Content-Encoding", "br")
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}
	if c.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	for i := range apiResp.Completions {
		if apiResp.Completions[i].ItemID == "" {
			apiResp.Completions[i].ItemID = uuid.NewString()
		}
	}

	return &apiResp, nil
}

// TrackMetrics sends a telemetry event to the metrics endpoint.
func (c *Client) TrackMetrics(ctx context.Context, req *MetricsRequest) error {
	defer logger.Trace("beaconapi.TrackMetrics")()

	if req.DeviceID == "" {
		req.DeviceID = c.DeviceID
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.MetricsURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create metrics request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send metrics request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("metrics request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
