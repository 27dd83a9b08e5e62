package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/attribution"
)

var (
	blameToolName    = "blame"
	blameDescription = "Attribute line ranges of a file to the AI conversations that wrote them. Takes git blame segments and returns per-range attributions with confidence tiers, trace IDs, contributors, and conversation summaries."
)

// BlameInput represents the input arguments for the blame tool.
type BlameInput struct {
	ProjectID string                     `json:"project_id" jsonschema:"the project whose stored traces are searched"`
	FilePath  string                     `json:"file_path" jsonschema:"path of the file being blamed, relative to the repository root"`
	Segments  []attribution.BlameSegment `json:"segments" jsonschema:"git blame segments covering the lines to attribute"`
}

// handleBlame processes a blame request.
func (s *Server) handleBlame(ctx context.Context, req *mcp.CallToolRequest, input BlameInput) (*mcp.CallToolResult, attribution.FileResult, error) {
	logger := s.config.Logger

	logger.Debug("MCP blame request",
		zap.String("project_id", input.ProjectID),
		zap.String("file_path", input.FilePath),
		zap.Int("segments", len(input.Segments)),
	)

	result, err := s.config.Engine.AttributeFile(ctx, attribution.FileRequest{
		ProjectID: input.ProjectID,
		FilePath:  input.FilePath,
		Segments:  input.Segments,
	})
	if err != nil {
		logger.Error("attribution failed", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Attribution failed: %v", err)},
			},
		}, attribution.FileResult{}, nil
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		logger.Error("failed to marshal blame output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, attribution.FileResult{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, *result, nil
}
