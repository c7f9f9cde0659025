// Package mcptools exposes the recommendation pipeline as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/pipeline"
	"github.com/spigell/job-recommender/internal/recommend"
	"github.com/spigell/job-recommender/internal/resume"
	"github.com/spigell/job-recommender/internal/session"
)

const (
	statusURI     = "session://status"
	maxResumeSize = 10 << 20
)

type Aggregator interface {
	Aggregate(ctx context.Context, criteria jobs.Criteria) (*jobs.Batch, error)
}

type Ingester interface {
	Ingest(ctx context.Context, doc []byte) (*resume.Profile, error)
}

type Recommender interface {
	Recommend(ctx context.Context) (*recommend.Result, error)
}

type StatusReader interface {
	Status() session.Status
}

type Deps struct {
	Aggregator  Aggregator
	Ingester    Ingester
	Recommender Recommender
	Session     StatusReader
	Version     string
}

// NewServer creates an MCP server with the pipeline tools and the session resource registered.
func NewServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"job-recommender",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Search job boards, load a resume, then ask for the best matching jobs."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("aggregate_jobs",
			mcp.WithDescription("Search job boards and store the postings as the current job batch."),
			mcp.WithString("search_term", mcp.Description("Job title or keywords"), mcp.Required()),
			mcp.WithString("location", mcp.Description("City, region or country"), mcp.Required()),
			mcp.WithArray("sites", mcp.Description("Job boards to search (default linkedin, indeed, naukri)"), mcp.WithStringItems()),
			mcp.WithNumber("results_wanted", mcp.Description("Postings per board (default 5)")),
			mcp.WithString("country", mcp.Description("Indeed country (default IN)")),
			mcp.WithNumber("hours_old", mcp.Description("Maximum posting age in hours (default 72)")),
		),
		aggregateJobs(deps),
	)

	s.AddTool(
		mcp.NewTool("ingest_resume",
			mcp.WithDescription("Extract text from a PDF or plain-text resume and store it as the current resume."),
			mcp.WithString("path", mcp.Description("Path to the resume file"), mcp.Required()),
		),
		ingestResume(deps),
	)

	s.AddTool(
		mcp.NewTool("recommend_jobs",
			mcp.WithDescription("Rank the current job batch against the current resume and return the best matches."),
		),
		recommendJobs(deps),
	)

	s.AddResource(
		mcp.NewResource(
			statusURI,
			"Session Status",
			mcp.WithResourceDescription("Pipeline phase, job count and resume state as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		sessionStatus(deps),
	)

	return s
}

// Serve runs the server over stdio until stdin is closed.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func aggregateJobs(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		term, err := req.RequireString("search_term")
		if err != nil {
			return mcpError("search_term is required"), nil
		}
		location, err := req.RequireString("location")
		if err != nil {
			return mcpError("location is required"), nil
		}

		criteria := jobs.Criteria{
			Sources:       req.GetStringSlice("sites", nil),
			SearchTerm:    term,
			Location:      location,
			ResultsWanted: req.GetInt("results_wanted", 0),
			CountryCode:   req.GetString("country", ""),
			MaxAgeHours:   req.GetInt("hours_old", 0),
		}

		batch, err := deps.Aggregator.Aggregate(ctx, criteria)
		if err != nil {
			return kindError(err), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Saved %d jobs (batch %s)\n", batch.Len(), batch.ID)
		for _, r := range batch.Records {
			fmt.Fprintf(&b, "%d. %s at %s, %s [%s]\n", r.ID, r.Title, r.Company, r.Location, r.URL)
		}
		return mcpText(strings.TrimSpace(b.String())), nil
	}
}

func ingestResume(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil || strings.TrimSpace(path) == "" {
			return mcpError("path is required"), nil
		}

		info, err := os.Stat(path)
		if err != nil {
			return mcpError(fmt.Sprintf("cannot read %s: %v", path, err)), nil
		}
		if info.Size() > maxResumeSize {
			return mcpError(fmt.Sprintf("%s exceeds %d bytes", path, maxResumeSize)), nil
		}

		doc, err := os.ReadFile(path)
		if err != nil {
			return mcpError(fmt.Sprintf("cannot read %s: %v", path, err)), nil
		}

		profile, err := deps.Ingester.Ingest(ctx, doc)
		if err != nil {
			return kindError(err), nil
		}

		return mcpText(fmt.Sprintf("Resume loaded: %d pages, %d characters, language %q",
			profile.Pages, len([]rune(profile.RawText)), profile.Language)), nil
	}
}

func recommendJobs(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := deps.Recommender.Recommend(ctx)
		if err != nil {
			return kindError(err), nil
		}

		b, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal recommendations: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func sessionStatus(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Session.Status())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal session status: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func kindError(err error) *mcp.CallToolResult {
	return mcpError(fmt.Sprintf("%s: %v", pipeline.Kind(err), err))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
