package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"backlog-mcp/internal/backlog"
	"backlog-mcp/internal/config"
	"backlog-mcp/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Toolset names.
const (
	ToolsetIssue = "issue"
	ToolsetWiki  = "wiki"
	ToolsetGit   = "git"
)

// Backlog is the part of the Backlog API the tools call.
// *backlog.Client implements it.
type Backlog interface {
	GetIssue(ctx context.Context, idOrKey string) (json.RawMessage, error)
	AddIssue(ctx context.Context, p backlog.AddIssueParams) (json.RawMessage, error)
	GetIssueComments(ctx context.Context, idOrKey string, q backlog.CommentQuery) (json.RawMessage, error)
	GetWiki(ctx context.Context, id int) (json.RawMessage, error)
	AddWiki(ctx context.Context, p backlog.AddWikiParams) (json.RawMessage, error)
	GetPullRequests(ctx context.Context, projectIDOrKey, repoIDOrName string, q backlog.PullRequestQuery) (json.RawMessage, error)
	GetPullRequest(ctx context.Context, projectIDOrKey, repoIDOrName string, number int) (json.RawMessage, error)
	UpdatePullRequestComment(ctx context.Context, projectIDOrKey, repoIDOrName string, number, commentID int, content string) (json.RawMessage, error)
}

// Options controls which tools are exposed and how.
type Options struct {
	// Prefix is prepended to every tool name.
	Prefix string
	// EnabledToolsets lists toolset names. Empty or containing "all" enables
	// every toolset.
	EnabledToolsets []string
	// MaxTokens is the response budget per tool call. Zero disables it.
	MaxTokens int
}

// Tool is one registered tool with its handler.
type Tool struct {
	Toolset string
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// Toolset is a named group of tools.
type Toolset struct {
	Name        string
	Description string
	Tools       []Tool
}

type toolBuilder struct {
	api  Backlog
	opts Options
}

// Toolsets builds every toolset, regardless of which are enabled.
func Toolsets(api Backlog, opts Options) []Toolset {
	b := &toolBuilder{api: api, opts: opts}
	return []Toolset{
		{Name: ToolsetIssue, Description: "Issues and issue comments", Tools: b.issueTools()},
		{Name: ToolsetWiki, Description: "Wiki pages", Tools: b.wikiTools()},
		{Name: ToolsetGit, Description: "Git repositories and pull requests", Tools: b.gitTools()},
	}
}

// ToolsetNames returns the names of all known toolsets, sorted.
func ToolsetNames() []string {
	names := []string{ToolsetIssue, ToolsetWiki, ToolsetGit}
	sort.Strings(names)
	return names
}

// Enabled returns the tools of the enabled toolsets in registration order.
func Enabled(api Backlog, opts Options) ([]Tool, error) {
	all := len(opts.EnabledToolsets) == 0 || slices.Contains(opts.EnabledToolsets, config.ToolsetAll)
	known := ToolsetNames()
	for _, name := range opts.EnabledToolsets {
		if name != config.ToolsetAll && !slices.Contains(known, name) {
			return nil, fmt.Errorf("unknown toolset %q (valid: %v or %q)", name, known, config.ToolsetAll)
		}
	}

	var tools []Tool
	for _, ts := range Toolsets(api, opts) {
		if all || slices.Contains(opts.EnabledToolsets, ts.Name) {
			tools = append(tools, ts.Tools...)
		}
	}
	return tools, nil
}

// Register adds the enabled tools to s and returns how many were added.
func Register(s *server.MCPServer, api Backlog, opts Options) (int, error) {
	tools, err := Enabled(api, opts)
	if err != nil {
		return 0, err
	}
	for _, t := range tools {
		s.AddTool(t.Tool, t.Handler)
	}
	logging.Info("Tools", "Registered %d tools", len(tools))
	return len(tools), nil
}

func (b *toolBuilder) name(base string) string {
	return b.opts.Prefix + base
}

// call runs fn and converts its outcome into a tool result. Backlog and
// argument errors become tool errors rather than protocol errors.
func (b *toolBuilder) call(ctx context.Context, tool string, fn func(context.Context) (json.RawMessage, error)) (*mcp.CallToolResult, error) {
	data, err := fn(ctx)
	if err != nil {
		logging.Debug("Tools", "%s failed: %v", tool, err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return b.result(data), nil
}

func (b *toolBuilder) result(data json.RawMessage) *mcp.CallToolResult {
	text := string(data)
	if b.opts.MaxTokens > 0 {
		if tokens := EstimateTokens(text); tokens > b.opts.MaxTokens {
			return mcp.NewToolResultError(fmt.Sprintf(
				"Response too large: about %d tokens exceeds the limit of %d. Narrow the request with filters or a smaller count.",
				tokens, b.opts.MaxTokens))
		}
	}
	return mcp.NewToolResultText(text)
}

// EstimateTokens approximates the token count of text as one token per four
// bytes, rounded up.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
