package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/ingest"
	"github.com/quinta-thw/librarymanager-ist4070/internal/resolver"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// mcpTools binds the MCP tool and resource handlers to the services the
// HTTP handler uses.
type mcpTools struct {
	deps Deps
}

func newMCPTools(deps Deps) *mcpTools { return &mcpTools{deps: deps} }

// NewMCPServer exposes the bot and the catalog to MCP clients over the
// same Deps as NewHandler.
func NewMCPServer(deps Deps) *server.MCPServer {
	t := newMCPTools(deps)
	s := server.NewMCPServer("librarybot", "1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("LibraryBot answers questions about the library catalog. Answers never mention books the library does not hold."),
		server.WithRecovery(),
	)

	tools := []server.ServerTool{
		{
			Tool: mcp.NewTool("ask_library",
				mcp.WithDescription("Ask the library bot a question in natural language."),
				mcp.WithString("question", mcp.Required(), mcp.Description("The question to ask")),
				mcp.WithString("role", mcp.Enum("patron", "staff"), mcp.Description("Who is asking (default patron)")),
				mcp.WithString("display_name", mcp.Description("Name the bot addresses the asker by")),
			),
			Handler: t.askLibrary,
		},
		{
			Tool: mcp.NewTool("search_catalog",
				mcp.WithDescription("Find catalog entries whose title or author matches a phrase."),
				mcp.WithString("query", mcp.Required(), mcp.Description("Title, author or part of either")),
				mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum results (default %d, max %d)", defaultSearchLimit, maxSearchLimit))),
			),
			Handler: t.searchCatalog,
		},
	}
	if deps.Imports != nil {
		tools = append(tools, server.ServerTool{
			Tool: mcp.NewTool("import_books",
				mcp.WithDescription("Queue books for import into the catalog."),
				mcp.WithString("books", mcp.Required(), mcp.Description("JSON array of {title, author, year, genre, status, rating} objects")),
				mcp.WithBoolean("replace", mcp.Description("Replace the whole catalog instead of merging")),
			),
			Handler: t.importBooks,
		})
	}
	s.AddTools(tools...)

	s.AddResource(mcp.NewResource("library://catalog", "Library Catalog",
		mcp.WithResourceDescription("Every book the library holds, as JSON"),
		mcp.WithMIMEType("application/json"),
	), t.catalogResource)
	s.AddResource(mcp.NewResource("library://status", "External Service Status",
		mcp.WithResourceDescription("Global AI configuration and live session count"),
		mcp.WithMIMEType("application/json"),
	), t.statusResource)

	return s
}

// askLibrary answers one question in a throwaway session.
func (t *mcpTools) askLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question is required"), nil
	}
	role, err := catalog.ParseRole(req.GetString("role", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess := t.deps.Sessions.Create(ctx, role, req.GetString("display_name", ""))
	defer t.deps.Sessions.Close(ctx, sess.ID())
	return mcp.NewToolResultText(sess.Handle(ctx, question)), nil
}

func (t *mcpTools) searchCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := min(req.GetInt("limit", defaultSearchLimit), maxSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	found := resolver.Resolve(query, query, t.deps.Catalog.Snapshot(ctx))
	if len(found) == 0 {
		return mcp.NewToolResultText("[]"), nil
	}
	b, err := json.Marshal(found[:min(len(found), limit)])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (t *mcpTools) importBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("books")
	if err != nil {
		return mcp.NewToolResultError("books is required"), nil
	}
	p := ingest.Payload{Replace: req.GetBool("replace", false)}
	if err := json.Unmarshal([]byte(raw), &p.Books); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid books JSON: %v", err)), nil
	}

	id, err := ingest.Submit(ctx, t.deps.Imports, p)
	var invalid *ingest.ValidationError
	switch {
	case errors.As(err, &invalid):
		return mcp.NewToolResultError(err.Error()), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to queue import: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Queued import %s (%d books)", id, len(p.Books))), nil
}

func (t *mcpTools) catalogResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	books := t.deps.Catalog.Snapshot(ctx)
	if books == nil {
		books = []catalog.Entry{}
	}
	return jsonResource(req.Params.URI, catalogResponse{Total: len(books), Books: books})
}

func (t *mcpTools) statusResource(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, t.deps.Sessions.GlobalStatus())
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return []mcp.ResourceContents{mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(b)}}, nil
}
