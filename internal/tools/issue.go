package tools

import (
	"context"
	"encoding/json"

	"backlog-mcp/internal/backlog"

	"github.com/mark3labs/mcp-go/mcp"
)

func (b *toolBuilder) issueTools() []Tool {
	return []Tool{
		{
			Toolset: ToolsetIssue,
			Tool: mcp.NewTool(b.name("get_issue"),
				mcp.WithDescription("Returns information about a specific issue"),
				mcp.WithNumber("issueId", mcp.Description("The numeric ID of the issue (e.g., 12345)")),
				mcp.WithString("issueKey", mcp.Description("The key of the issue (e.g., 'PROJ-123')")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: b.handleGetIssue,
		},
		{
			Toolset: ToolsetIssue,
			Tool: mcp.NewTool(b.name("add_issue"),
				mcp.WithDescription("Creates a new issue"),
				mcp.WithNumber("projectId", mcp.Required(), mcp.Description("Project ID")),
				mcp.WithString("summary", mcp.Required(), mcp.Description("Summary of the issue")),
				mcp.WithNumber("issueTypeId", mcp.Required(), mcp.Description("Issue type ID")),
				mcp.WithNumber("priorityId", mcp.Required(), mcp.Description("Priority ID")),
				mcp.WithString("description", mcp.Description("Detailed description of the issue")),
				mcp.WithString("startDate", mcp.Description("Scheduled start date (yyyy-MM-dd)")),
				mcp.WithString("dueDate", mcp.Description("Scheduled due date (yyyy-MM-dd)")),
				mcp.WithNumber("estimatedHours", mcp.Description("Estimated work hours")),
				mcp.WithNumber("actualHours", mcp.Description("Actual work hours")),
				mcp.WithArray("categoryId", mcp.Description("Category IDs"), mcp.Items(numberItems)),
				mcp.WithArray("versionId", mcp.Description("Version IDs"), mcp.Items(numberItems)),
				mcp.WithArray("milestoneId", mcp.Description("Milestone IDs"), mcp.Items(numberItems)),
				mcp.WithNumber("assigneeId", mcp.Description("User ID of the assignee")),
				mcp.WithArray("notifiedUserId", mcp.Description("User IDs to notify"), mcp.Items(numberItems)),
				mcp.WithNumber("parentIssueId", mcp.Description("Parent issue ID")),
				mcp.WithArray("customFields",
					mcp.Description("Custom field values: objects with id, value and optional otherValue"),
					mcp.Items(map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":         map[string]any{"type": "number"},
							"value":      map[string]any{},
							"otherValue": map[string]any{"type": "string"},
						},
						"required": []string{"id", "value"},
					}),
				),
			),
			Handler: b.handleAddIssue,
		},
		{
			Toolset: ToolsetIssue,
			Tool: mcp.NewTool(b.name("get_issue_comments"),
				mcp.WithDescription("Returns list of comments for a specific issue"),
				mcp.WithNumber("issueId", mcp.Description("The numeric ID of the issue (e.g., 12345)")),
				mcp.WithString("issueKey", mcp.Description("The key of the issue (e.g., 'PROJ-123')")),
				mcp.WithNumber("minId", mcp.Description("Minimum comment ID")),
				mcp.WithNumber("maxId", mcp.Description("Maximum comment ID")),
				mcp.WithNumber("count", mcp.Description("Number of comments to retrieve (1-100, default 20)")),
				mcp.WithString("order", mcp.Description("Sort order"), mcp.Enum("asc", "desc")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: b.handleGetIssueComments,
		},
	}
}

var numberItems = map[string]any{"type": "number"}

func (b *toolBuilder) handleGetIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return b.call(ctx, "get_issue", func(ctx context.Context) (json.RawMessage, error) {
		idOrKey, err := resolveIDOrKey("issue", request.GetArguments())
		if err != nil {
			return nil, err
		}
		return b.api.GetIssue(ctx, idOrKey)
	})
}

func (b *toolBuilder) handleAddIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return b.call(ctx, "add_issue", func(ctx context.Context) (json.RawMessage, error) {
		p, err := addIssueParams(request.GetArguments())
		if err != nil {
			return nil, err
		}
		return b.api.AddIssue(ctx, p)
	})
}

func addIssueParams(a args) (backlog.AddIssueParams, error) {
	var (
		p   backlog.AddIssueParams
		err error
	)
	if p.ProjectID, err = a.requireInt("projectId"); err != nil {
		return p, err
	}
	if p.Summary, err = a.requireString("summary"); err != nil {
		return p, err
	}
	if p.IssueTypeID, err = a.requireInt("issueTypeId"); err != nil {
		return p, err
	}
	if p.PriorityID, err = a.requireInt("priorityId"); err != nil {
		return p, err
	}
	if p.Description, err = a.getString("description"); err != nil {
		return p, err
	}
	if p.StartDate, err = a.getString("startDate"); err != nil {
		return p, err
	}
	if p.DueDate, err = a.getString("dueDate"); err != nil {
		return p, err
	}
	if p.EstimatedHours, err = a.getFloat("estimatedHours"); err != nil {
		return p, err
	}
	if p.ActualHours, err = a.getFloat("actualHours"); err != nil {
		return p, err
	}
	if p.CategoryIDs, err = a.getInts("categoryId"); err != nil {
		return p, err
	}
	if p.VersionIDs, err = a.getInts("versionId"); err != nil {
		return p, err
	}
	if p.MilestoneIDs, err = a.getInts("milestoneId"); err != nil {
		return p, err
	}
	if p.AssigneeID, _, err = a.getInt("assigneeId"); err != nil {
		return p, err
	}
	if p.NotifiedUserIDs, err = a.getInts("notifiedUserId"); err != nil {
		return p, err
	}
	if p.ParentIssueID, _, err = a.getInt("parentIssueId"); err != nil {
		return p, err
	}
	if err = a.decode("customFields", &p.CustomFields); err != nil {
		return p, err
	}
	return p, nil
}

func (b *toolBuilder) handleGetIssueComments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return b.call(ctx, "get_issue_comments", func(ctx context.Context) (json.RawMessage, error) {
		a := args(request.GetArguments())
		idOrKey, err := resolveIDOrKey("issue", a)
		if err != nil {
			return nil, err
		}

		var q backlog.CommentQuery
		if q.MinID, _, err = a.getInt("minId"); err != nil {
			return nil, err
		}
		if q.MaxID, _, err = a.getInt("maxId"); err != nil {
			return nil, err
		}
		if q.Count, _, err = a.getInt("count"); err != nil {
			return nil, err
		}
		if q.Order, err = a.getString("order"); err != nil {
			return nil, err
		}
		return b.api.GetIssueComments(ctx, idOrKey, q)
	})
}
