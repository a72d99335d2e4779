package lsp

import (
	"context"
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ghosttext/engine"
	"ghosttext/logger"
	"ghosttext/types"
)

// ItemData rides along on each completion item so the client can report
// session results back through the executeCommand surface.
type ItemData struct {
	SessionID string `json:"sessionId"`
	ItemID    string `json:"itemId"`
}

// textDocumentCompletion handles the textDocument/completion request by
// running one engine trigger against the current document snapshot.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.docs.Get(params.TextDocument.URI)
	if !ok {
		logger.Warn("completion request for unopened document %s", params.TextDocument.URI)
		return nil, nil
	}

	pos := types.Position{
		Line:      int(params.Position.Line),
		Character: int(params.Position.Character),
	}

	result, err := s.engine.Trigger(context.Background(), doc, pos, triggerContext(params.Context))
	if err != nil {
		// The engine already closed the session; answer with an empty
		// list rather than erroring the request.
		logger.Debug("trigger failed for %s: %v", params.TextDocument.URI, err)
	}
	if result == nil {
		return protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
	}

	items := make([]protocol.CompletionItem, 0, len(result.Items))
	for _, it := range result.Items {
		items = append(items, completionItem(result.SessionID, it))
	}

	return protocol.CompletionList{
		IsIncomplete: result.PartialResultToken != "",
		Items:        items,
	}, nil
}

// triggerContext maps the LSP completion context onto the engine's
// trigger description.
func triggerContext(lspCtx *protocol.CompletionContext) engine.TriggerContext {
	tc := engine.TriggerContext{TriggerType: types.TriggerOnDemand}
	if lspCtx == nil {
		return tc
	}
	switch lspCtx.TriggerKind {
	case protocol.CompletionTriggerKindTriggerCharacter:
		tc.TriggerType = types.TriggerAutomatic
		tc.AutoTriggerType = types.AutoTriggerSpecialChar
		if lspCtx.TriggerCharacter != nil {
			tc.TriggerCharacter = *lspCtx.TriggerCharacter
			if *lspCtx.TriggerCharacter == "\n" {
				tc.AutoTriggerType = types.AutoTriggerEnter
			}
		}
	case protocol.CompletionTriggerKindTriggerForIncompleteCompletions:
		tc.TriggerType = types.TriggerAutomatic
		tc.AutoTriggerType = types.AutoTriggerIntelliSense
	}
	return tc
}

// completionItem converts one merged suggestion into an LSP completion
// item. Items without an explicit range insert at the cursor.
func completionItem(sessionID string, it types.MergedItem) protocol.CompletionItem {
	insertText := it.InsertText
	kind := protocol.CompletionItemKindText
	format := protocol.InsertTextFormatPlainText

	item := protocol.CompletionItem{
		Label:            firstLine(insertText),
		Kind:             &kind,
		InsertText:       &insertText,
		InsertTextFormat: &format,
		Data:             ItemData{SessionID: sessionID, ItemID: it.ItemID},
	}

	if r := it.Range; r != nil {
		item.TextEdit = protocol.TextEdit{
			Range:   protocolRange(*r),
			NewText: insertText,
		}
	}

	if len(it.References) > 0 {
		detail := referenceDetail(it.References)
		item.Detail = &detail
	}

	if len(it.MostRelevantMissingImports) > 0 {
		var b strings.Builder
		b.WriteString("Missing imports:\n")
		for _, im := range it.MostRelevantMissingImports {
			fmt.Fprintf(&b, "  %s\n", im.Statement)
		}
		item.Documentation = &protocol.MarkupContent{
			Kind:  protocol.MarkupKindPlainText,
			Value: b.String(),
		}
	}

	return item
}

// referenceDetail summarizes license attribution for display next to the
// item label.
func referenceDetail(refs []types.MergedReference) string {
	names := make([]string, 0, len(refs))
	seen := make(map[string]bool)
	for _, r := range refs {
		name := r.LicenseName
		if name == "" {
			name = r.ReferenceName
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return "Reference code"
	}
	return "Reference code under " + strings.Join(names, ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func protocolRange(r types.Range) protocol.Range {
	return protocol.Range{
		Start: protocolPosition(r.Start),
		End:   protocolPosition(r.End),
	}
}

func protocolPosition(p types.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line),
		Character: protocol.UInteger(p.Character),
	}
}
