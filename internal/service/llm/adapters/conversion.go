package adapters

import (
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/oracle"
)

const (
	roleUser      = "user"
	blockTypeText = "text"
	deltaTypeText = "text_delta"
)

// toLibraryRequest turns a prompt pair into a single-message library
// request. The system prompt travels in the request params.
func toLibraryRequest(req *oracle.TextRequest) *llmprovider.GenerateRequest {
	user := req.UserPrompt
	libReq := &llmprovider.GenerateRequest{
		Model: req.Model,
		Messages: []llmprovider.Message{{
			Role: roleUser,
			Blocks: []*llmprovider.Block{{
				BlockType:   blockTypeText,
				Sequence:    0,
				TextContent: &user,
			}},
		}},
	}

	params := &llmprovider.RequestParams{}
	used := false
	if req.SystemPrompt != "" {
		system := req.SystemPrompt
		params.System = &system
		used = true
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		params.MaxTokens = &maxTokens
		used = true
	}
	if used {
		libReq.Params = params
	}
	return libReq
}

// responseText joins the text blocks of a response in sequence order.
// Thinking and tool blocks are ignored.
func responseText(resp *llmprovider.GenerateResponse) string {
	var out strings.Builder
	for _, block := range resp.Blocks {
		if block == nil || block.BlockType != blockTypeText || block.TextContent == nil {
			continue
		}
		out.WriteString(*block.TextContent)
	}
	return out.String()
}

// deltaText returns the text carried by a stream event, if any.
func deltaText(event llmprovider.StreamEvent) (string, bool) {
	d := event.Delta
	if d == nil || d.DeltaType != deltaTypeText || d.TextDelta == nil {
		return "", false
	}
	return *d.TextDelta, true
}
