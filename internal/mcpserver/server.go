// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes form filling tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/formfill/internal/filler"
	"github.com/starford/formfill/internal/formservice"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
	"github.com/starford/formfill/internal/questions"
)

const inputFormatURI = "formfill://input-format"

// Server wraps the MCP server with form filling tools.
type Server struct {
	mcp *server.MCPServer
	svc *formservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *formservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"formfill",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	modeOpt := mcp.WithString("mode",
		mcp.Description("Outline mode (default: auto)"),
		mcp.Enum(string(outline.ModeAuto), string(outline.ModeNative), string(outline.ModeText), string(outline.ModeNone)),
	)

	s.mcp.AddTool(mcp.NewTool("get_structure",
		mcp.WithDescription("List the paragraphs of a form document with their outline IDs, "+
			"nesting levels and offsets. Use it to learn which IDs to answer."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Document ID or local file path")),
		modeOpt,
		mcp.WithBoolean("outline_only", mcp.Description("Only return numbered questions")),
	), s.getStructure)

	s.mcp.AddTool(mcp.NewTool("analyze_form",
		mcp.WithDescription("Check a question file against a document without writing: "+
			"which IDs exist and whether their question text matches. "+
			"Read the input format first via get_input_format or the "+inputFormatURI+" resource."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Document ID or local file path")),
		mcp.WithString("questions", mcp.Required(), mcp.Description("Question file content (JSON, or YAML with format=yaml)")),
		mcp.WithString("format", mcp.Description("Encoding of questions"), mcp.Enum("json", "yaml")),
		modeOpt,
	), s.analyzeForm)

	s.mcp.AddTool(mcp.NewTool("fill_form",
		mcp.WithDescription("Write answers into a document below their questions and return the result bundle. "+
			"Content MUST follow the input format contract. Run with dry_run first."),
		mcp.WithString("doc_id", mcp.Required(), mcp.Description("Document ID or local file path")),
		mcp.WithString("questions", mcp.Required(), mcp.Description("Question file content (JSON, or YAML with format=yaml)")),
		mcp.WithString("format", mcp.Description("Encoding of questions"), mcp.Enum("json", "yaml")),
		mcp.WithBoolean("dry_run", mcp.Description("Plan without writing")),
		modeOpt,
	), s.fillForm)

	s.mcp.AddTool(mcp.NewTool("get_input_format",
		mcp.WithDescription("Returns the question file format accepted by analyze_form and fill_form."),
	), s.getInputFormat)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents stored in the local vault."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List previous fill runs, newest first."),
		mcp.WithString("doc_id", mcp.Description("Only runs of this document")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	), s.listRuns)

	s.mcp.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Render the Markdown report of a stored run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID from fill_form or list_runs")),
	), s.getReport)

	s.mcp.AddTool(mcp.NewTool("search_answers",
		mcp.WithDescription("Full-text search through answers written by previous runs."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchAnswers)

	s.mcp.AddTool(mcp.NewTool("import_form",
		mcp.WithDescription("Download a form (DOCX, PDF, Markdown, HTML or text) from an http(s) URL or a "+
			"base64 data URI and store it in the vault so it can be filled."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:<mime>;base64,<data> URI")),
		mcp.WithString("filename", mcp.Description("File name, its extension selects the parser")),
		mcp.WithString("id", mcp.Description("Document ID (default: derived from the filename)")),
		mcp.WithBoolean("overwrite", mcp.Description("Replace an existing document")),
	), s.importForm)

	s.mcp.AddResource(
		mcp.NewResource(inputFormatURI, "Input Format Contract",
			mcp.WithResourceDescription("Question file format accepted by analyze_form and fill_form."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readInputFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolMode(req mcp.CallToolRequest) (outline.Mode, error) {
	return outline.ParseOverride(req.GetString("mode", ""))
}

func toolQuestions(req mcp.CallToolRequest) ([]models.Question, error) {
	content, err := req.RequireString("questions")
	if err != nil {
		return nil, err
	}
	name := "input.json"
	if strings.EqualFold(req.GetString("format", ""), "yaml") {
		name = "input.yaml"
	}
	return questions.Parse([]byte(content), name)
}

func (s *Server) getStructure(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := req.RequireString("doc_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := toolMode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paras, used, err := s.svc.Structure(ctx, docID, mode, req.GetBool("outline_only", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"doc_id": docID, "mode": used, "paragraphs": paras})
}

func (s *Server) analyzeForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := req.RequireString("doc_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := toolMode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	qs, err := toolQuestions(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, summary, err := s.svc.Analyze(ctx, docID, qs, mode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"results": results, "summary": summary})
}

func (s *Server) fillForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := req.RequireString("doc_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := toolMode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	qs, err := toolQuestions(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.svc.Fill(ctx, docID, qs, filler.Options{Mode: mode, DryRun: req.GetBool("dry_run", false)})
	if err != nil {
		if b != nil && b.Mode != "" {
			res, _ := jsonResult(map[string]any{"error": err.Error(), "bundle": b})
			res.IsError = true
			return res, nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(b)
}

func (s *Server) getInputFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(InputFormatContract), nil
}

func (s *Server) readInputFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      inputFormatURI,
			MIMEType: "text/markdown",
			Text:     InputFormatContract,
		},
	}, nil
}

func (s *Server) listDocuments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.svc.Documents(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("no documents found"), nil
	}
	lines := make([]string, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, d.ID+"\t"+d.Title)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	runs, total, err := s.svc.Runs(ctx, limit, 0, req.GetString("doc_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"runs": runs, "total": total})
}

func (s *Server) getReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := req.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, _, err := s.svc.Report(ctx, runID, "md")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) searchAnswers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.SearchAnswers(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hits)
}
