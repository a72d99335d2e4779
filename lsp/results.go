package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ghosttext/engine"
	"ghosttext/session"
)

// sessionResultsArgs is the JSON argument of the logSessionResults
// command. Latencies arrive in milliseconds.
type sessionResultsArgs struct {
	SessionID                     string                      `json:"sessionId"`
	CompletionSessionResult       map[string]itemClientResult `json:"completionSessionResult"`
	FirstCompletionDisplayLatency float64                     `json:"firstCompletionDisplayLatency"`
	TotalSessionDisplayTime       float64                     `json:"totalSessionDisplayTime"`
	TypeaheadLength               int                         `json:"typeaheadLength"`
}

type itemClientResult struct {
	Seen      bool `json:"seen"`
	Accepted  bool `json:"accepted"`
	Discarded bool `json:"discarded"`
}

// workspaceExecuteCommand handles workspace/executeCommand. The only
// supported command is the session results report.
func (s *Server) workspaceExecuteCommand(_ *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	if params.Command != ResultsCommand {
		return nil, fmt.Errorf("unknown command: %s", params.Command)
	}
	if len(params.Arguments) == 0 {
		return nil, fmt.Errorf("%s requires an argument", ResultsCommand)
	}

	args, err := parseSessionResults(params.Arguments[0])
	if err != nil {
		return nil, err
	}

	s.engine.HandleSessionResults(context.Background(), args)
	return nil, nil
}

// parseSessionResults decodes one executeCommand argument into the
// engine's report shape.
func parseSessionResults(arg any) (engine.SessionResults, error) {
	raw, err := json.Marshal(arg)
	if err != nil {
		return engine.SessionResults{}, fmt.Errorf("failed to encode session results argument: %w", err)
	}
	var parsed sessionResultsArgs
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return engine.SessionResults{}, fmt.Errorf("failed to parse session results argument: %w", err)
	}
	if parsed.SessionID == "" {
		return engine.SessionResults{}, fmt.Errorf("session results argument missing sessionId")
	}

	results := engine.SessionResults{
		SessionID:                     parsed.SessionID,
		FirstCompletionDisplayLatency: time.Duration(parsed.FirstCompletionDisplayLatency * float64(time.Millisecond)),
		TotalSessionDisplayTime:       time.Duration(parsed.TotalSessionDisplayTime * float64(time.Millisecond)),
		TypeaheadLength:               parsed.TypeaheadLength,
	}
	if len(parsed.CompletionSessionResult) > 0 {
		results.CompletionSessionResult = make(map[string]session.ClientResult, len(parsed.CompletionSessionResult))
		for id, r := range parsed.CompletionSessionResult {
			results.CompletionSessionResult[id] = session.ClientResult{
				Seen:      r.Seen,
				Accepted:  r.Accepted,
				Discarded: r.Discarded,
			}
		}
	}
	return results, nil
}
