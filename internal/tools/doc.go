// Package tools defines the Backlog MCP tools and groups them into toolsets.
//
// Toolsets:
//   - issue: get_issue, add_issue, get_issue_comments
//   - wiki: get_wiki, add_wiki
//   - git: get_pull_requests, get_pull_request, update_pull_request_comment
//
// Tool names can be prefixed, toolsets can be enabled selectively ("all"
// enables everything) and oversized responses are replaced by a tool error
// once they exceed the configured token budget.
package tools
