package tools

import (
	"context"
	"encoding/json"

	"backlog-mcp/internal/backlog"

	"github.com/mark3labs/mcp-go/mcp"
)

func repoOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("projectId", mcp.Description("The numeric ID of the project (e.g., 12345)")),
		mcp.WithString("projectKey", mcp.Description("The key of the project (e.g., 'PROJECT')")),
		mcp.WithNumber("repoId", mcp.Description("Repository ID")),
		mcp.WithString("repoName", mcp.Description("Repository name")),
	}
}

func (b *toolBuilder) gitTools() []Tool {
	listOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Returns list of pull requests for a repository"),
	}, repoOptions()...)
	listOpts = append(listOpts,
		mcp.WithArray("statusId", mcp.Description("Status IDs"), mcp.Items(numberItems)),
		mcp.WithArray("assigneeId", mcp.Description("Assignee user IDs"), mcp.Items(numberItems)),
		mcp.WithArray("issueId", mcp.Description("Related issue IDs"), mcp.Items(numberItems)),
		mcp.WithArray("createdUserId", mcp.Description("Creator user IDs"), mcp.Items(numberItems)),
		mcp.WithNumber("offset", mcp.Description("Offset for pagination")),
		mcp.WithNumber("count", mcp.Description("Number of pull requests to retrieve (1-100, default 20)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	getOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Returns information about a specific pull request"),
	}, repoOptions()...)
	getOpts = append(getOpts,
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Pull request number")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	updateOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Updates a comment on a pull request"),
	}, repoOptions()...)
	updateOpts = append(updateOpts,
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Pull request number")),
		mcp.WithNumber("commentId", mcp.Required(), mcp.Description("Comment ID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Comment content")),
	)

	return []Tool{
		{Toolset: ToolsetGit, Tool: mcp.NewTool(b.name("get_pull_requests"), listOpts...), Handler: b.handleGetPullRequests},
		{Toolset: ToolsetGit, Tool: mcp.NewTool(b.name("get_pull_request"), getOpts...), Handler: b.handleGetPullRequest},
		{Toolset: ToolsetGit, Tool: mcp.NewTool(b.name("update_pull_request_comment"), updateOpts...), Handler: b.handleUpdatePullRequestComment},
	}
}

// resolveRepo returns the project and repository identifiers of a call.
func resolveRepo(a args) (string, string, error) {
	project, err := resolveIDOrKey("project", a)
	if err != nil {
		return "", "", err
	}
	repo, err := resolveIDOrName("repo", a)
	if err != nil {
		return "", "", err
	}
	return project, repo, nil
}

func (b *toolBuilder) handleGetPullRequests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return b.call(ctx, "get_pull_requests", func(ctx context.Context) (json.RawMessage, error) {
		a := args(request.GetArguments())
		project, repo, err := resolveRepo(a)
		if err != nil {
			return nil, err
		}

		var q backlog.PullRequestQuery
		if q.StatusIDs, err = a.getInts("statusId"); err != nil {
			return nil, err
		}
		if q.AssigneeIDs, err = a.getInts("assigneeId"); err != nil {
			return nil, err
		}
		if q.IssueIDs, err = a.getInts("issueId"); err != nil {
			return nil, err
		}
		if q.CreatedUserIDs, err = a.getInts("createdUserId"); err != nil {
			return nil, err
		}
		if q.Offset, _, err = a.getInt("offset"); err != nil {
			return nil, err
		}
		if q.Count, _, err = a.getInt("count"); err != nil {
			return nil, err
		}
		return b.api.GetPullRequests(ctx, project, repo, q)
	})
}

func (b *toolBuilder) handleGetPullRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return b.call(ctx, "get_pull_request", func(ctx context.Context) (json.RawMessage, error) {
		a := args(request.GetArguments())
		project, repo, err := resolveRepo(a)
		if err != nil {
			return nil, err
		}
		number, err := a.requireInt("number")
		if err != nil {
			return nil, err
		}
		return b.api.GetPullRequest(ctx, project, repo, number)
	})
}

func (b *toolBuilder) handleUpdatePullRequestComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return b.call(ctx, "update_pull_request_comment", func(ctx context.Context) (json.RawMessage, error) {
		a := args(request.GetArguments())
		project, repo, err := resolveRepo(a)
		if err != nil {
			return nil, err
		}
		number, err := a.requireInt("number")
		if err != nil {
			return nil, err
		}
		commentID, err := a.requireInt("commentId")
		if err != nil {
			return nil, err
		}
		content, err := a.requireString("content")
		if err != nil {
			return nil, err
		}
		return b.api.UpdatePullRequestComment(ctx, project, repo, number, commentID, content)
	})
}
