package tools

import (
	"context"
	"encoding/json"

	"backlog-mcp/internal/backlog"

	"github.com/mark3labs/mcp-go/mcp"
)

func (b *toolBuilder) wikiTools() []Tool {
	return []Tool{
		{
			Toolset: ToolsetWiki,
			Tool: mcp.NewTool(b.name("get_wiki"),
				mcp.WithDescription("Returns information about a specific wiki page"),
				mcp.WithNumber("wikiId", mcp.Required(), mcp.Description("Wiki page ID")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: b.handleGetWiki,
		},
		{
			Toolset: ToolsetWiki,
			Tool: mcp.NewTool(b.name("add_wiki"),
				mcp.WithDescription("Creates a new wiki page"),
				mcp.WithNumber("projectId", mcp.Required(), mcp.Description("Project ID")),
				mcp.WithString("name", mcp.Required(), mcp.Description("Name of the wiki page")),
				mcp.WithString("content", mcp.Required(), mcp.Description("Content of the wiki page")),
				mcp.WithBoolean("mailNotify", mcp.Description("Whether to send notification emails (default: false)")),
			),
			Handler: b.handleAddWiki,
		},
	}
}

func (b *toolBuilder) handleGetWiki(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return b.call(ctx, "get_wiki", func(ctx context.Context) (json.RawMessage, error) {
		id, err := args(request.GetArguments()).requireInt("wikiId")
		if err != nil {
			return nil, err
		}
		return b.api.GetWiki(ctx, id)
	})
}

func (b *toolBuilder) handleAddWiki(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return b.call(ctx, "add_wiki", func(ctx context.Context) (json.RawMessage, error) {
		a := args(request.GetArguments())
		var (
			p   backlog.AddWikiParams
			err error
		)
		if p.ProjectID, err = a.requireInt("projectId"); err != nil {
			return nil, err
		}
		if p.Name, err = a.requireString("name"); err != nil {
			return nil, err
		}
		if p.Content, err = a.requireString("content"); err != nil {
			return nil, err
		}
		if p.MailNotify, err = a.getBool("mailNotify"); err != nil {
			return nil, err
		}
		return b.api.AddWiki(ctx, p)
	})
}
