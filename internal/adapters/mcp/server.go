// Package mcpadapter exposes scoring and comparison as MCP tools so editor
// agents can call them over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
	"github.com/kirillkom/humanlike-coach/internal/core/usecase"
)

const serverName = "humanlike-coach"

type Server struct {
	analyzer      ports.TextAnalyzer
	feedback      ports.TransformationService
	maxTextLength int
	mcp           *server.MCPServer
}

// NewServer registers score_text and compare_texts, plus transform_text when
// feedback can run transformations.
func NewServer(version string, analyzer ports.TextAnalyzer, feedback ports.TransformationService, maxTextLength int) *Server {
	s := &Server{
		analyzer:      analyzer,
		feedback:      feedback,
		maxTextLength: maxTextLength,
		mcp:           server.NewMCPServer(serverName, version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("score_text",
		mcp.WithDescription("Score how human a text reads (0-100) and explain every sentence."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to analyze.")),
		mcp.WithString("language", mcp.Description("ISO language code, default en.")),
	), s.scoreText)

	s.mcp.AddTool(mcp.NewTool("compare_texts",
		mcp.WithDescription("Score an original and an edited text and report the change."),
		mcp.WithString("original", mcp.Required(), mcp.Description("Text before editing.")),
		mcp.WithString("transformed", mcp.Required(), mcp.Description("Text after editing.")),
		mcp.WithString("language", mcp.Description("ISO language code, default en.")),
	), s.compareTexts)

	s.mcp.AddTool(mcp.NewTool("transform_text",
		mcp.WithDescription("Rewrite, paraphrase or grammar-fix a text and score the result."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to transform.")),
		mcp.WithString("mode", mcp.Required(), mcp.Enum("rewrite", "paraphrase", "grammar")),
		mcp.WithString("intensity", mcp.Enum("light", "standard", "strong")),
		mcp.WithString("language", mcp.Description("ISO language code, default en.")),
	), s.transformText)

	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) scoreText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.newDocument(text, request.GetString("language", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.analyzer.Analyze(ctx, doc, domain.AnalyzeOptions{})
	if err != nil {
		return toolError(ctx, err)
	}
	return jsonResult(report)
}

func (s *Server) compareTexts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	originalText, err := request.RequireString("original")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	transformedText, err := request.RequireString("transformed")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	original, err := s.newDocument(originalText, request.GetString("language", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := usecase.ValidateText(transformedText, s.maxTextLength); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	transformed, err := domain.DeriveDocument(original, transformedText, domain.OriginRewrite)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.feedback.Compare(ctx, original, transformed, nil, domain.AnalyzeOptions{})
	if err != nil {
		return toolError(ctx, err)
	}
	return jsonResult(result)
}

func (s *Server) transformText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := domain.ParseTransformMode(request.GetString("mode", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	intensity, err := domain.ParseTransformIntensity(request.GetString("intensity", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.newDocument(text, request.GetString("language", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.feedback.TransformAndCompare(ctx, doc, domain.TransformRequest{Mode: mode, Intensity: intensity}, domain.AnalyzeOptions{})
	if err != nil {
		return toolError(ctx, err)
	}
	return jsonResult(result)
}

func (s *Server) newDocument(text, language string) (*domain.Document, error) {
	if err := usecase.ValidateText(text, s.maxTextLength); err != nil {
		return nil, err
	}
	return domain.NewDocument(text, language)
}

// toolError reports domain failures to the model as tool errors; only a
// canceled call is a protocol level error.
func toolError(ctx context.Context, err error) (*mcp.CallToolResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
