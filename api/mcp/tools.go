package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/advisor/api/search"
)

var (
	retrieveToolName    = "retrieve_notes"
	retrieveDescription = "Retrieve notes from previous calls with a bank client that are relevant to the query. Returns notes within the distance threshold, lower distance is more relevant."

	analyzeToolName    = "analyze_transcript"
	analyzeDescription = "Analyze recent utterances of a call between a client advisor and a client. Returns relevant information from previous calls with verbatim citations, or 'Waiting for more information'."
)

// RetrieveInput represents the input arguments for the retrieve_notes tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"what to search for in the notes"`
	K     int    `json:"k,omitempty" jsonschema:"number of notes to consider (default from configuration)"`
}

// AnalyzeInput represents the input arguments for the analyze_transcript tool.
type AnalyzeInput struct {
	Transcript string `json:"transcript" jsonschema:"recent utterances, one per line as 'Speaker {id}: {text}'"`
}

// AnalyzeOutput is the structured result of analyze_transcript.
type AnalyzeOutput struct {
	RelevantInformation string  `json:"relevant_information"`
	Citations           string  `json:"citations"`
	Reasoning           string  `json:"reasoning"`
	ToolCalls           int     `json:"tool_calls"`
	Cost                float64 `json:"cost"`
}

func (s *Server) handleRetrieve(ctx context.Context, _ *mcp.CallToolRequest, input RetrieveInput) (*mcp.CallToolResult, apisearch.SearchOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP retrieve request", "query", input.Query, "k", input.K)

	if input.Query == "" {
		return errorResult("query is required"), apisearch.SearchOutput{}, nil
	}

	output, err := apisearch.Search(ctx, input.Query, input.K, s.config.Store, s.config.Retrieval, logger)
	if err != nil {
		logger.Error("MCP retrieve failed", "error", err)
		return errorResult(fmt.Sprintf("Failed to retrieve notes: %v", err)), apisearch.SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: output.Text},
		},
	}, *output, nil
}

func (s *Server) handleAnalyze(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, AnalyzeOutput, error) {
	if input.Transcript == "" {
		return errorResult("transcript is required"), AnalyzeOutput{}, nil
	}

	pred, err := s.config.Analyzer.AnalyzeText(ctx, input.Transcript)
	if err != nil {
		s.config.Logger.Error("MCP analyze failed", "error", err)
		return errorResult(fmt.Sprintf("Failed to analyze transcript: %v", err)), AnalyzeOutput{}, nil
	}

	output := AnalyzeOutput{
		RelevantInformation: pred.RelevantInformation,
		Citations:           pred.Citations,
		Reasoning:           pred.Reasoning,
		ToolCalls:           pred.ToolCalls(),
		Cost:                pred.Cost,
	}

	// Tools returning structured content also return it serialized as text
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize result: %v", err)), AnalyzeOutput{}, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
