package backlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"backlog-mcp/pkg/logging"

	"golang.org/x/oauth2"
)

// DefaultTimeout applies when Config.HTTPClient is nil.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Config configures a Client.
type Config struct {
	// Domain is the Backlog space host, e.g. "example.backlog.com".
	Domain string
	// APIKey authenticates with the apiKey query parameter.
	APIKey string
	// AccessToken authenticates with an OAuth 2.0 bearer token. It takes
	// precedence over APIKey.
	AccessToken string
	// BaseURL overrides the URL derived from Domain.
	BaseURL string
	// HTTPClient is the underlying client. Nil uses a client with
	// DefaultTimeout.
	HTTPClient *http.Client
}

// Client calls the Backlog API.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for the configured space.
func NewClient(cfg Config) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		if cfg.Domain == "" {
			return nil, errors.New("backlog domain is required")
		}
		raw = "https://" + cfg.Domain + "/api/v2/"
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid backlog URL %q: %w", raw, err)
	}

	if cfg.APIKey == "" && cfg.AccessToken == "" {
		return nil, errors.New("backlog API key or access token is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	c := &Client{baseURL: base, http: httpClient}
	if cfg.AccessToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		c.http = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
			TokenType:   "Bearer",
		}))
		c.http.Timeout = httpClient.Timeout
	} else {
		c.apiKey = cfg.APIKey
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// GetIssue fetches an issue by numeric id or issue key.
func (c *Client) GetIssue(ctx context.Context, idOrKey string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, pathf("issues/%s", idOrKey), nil, nil)
}

// AddIssue creates an issue.
func (c *Client) AddIssue(ctx context.Context, p AddIssueParams) (json.RawMessage, error) {
	form := url.Values{}
	addPositive(form, "projectId", p.ProjectID)
	addString(form, "summary", p.Summary)
	addPositive(form, "issueTypeId", p.IssueTypeID)
	addPositive(form, "priorityId", p.PriorityID)
	addString(form, "description", p.Description)
	addString(form, "startDate", p.StartDate)
	addString(form, "dueDate", p.DueDate)
	if p.EstimatedHours != nil {
		addFormValue(form, "estimatedHours", *p.EstimatedHours)
	}
	if p.ActualHours != nil {
		addFormValue(form, "actualHours", *p.ActualHours)
	}
	addInts(form, "categoryId", p.CategoryIDs)
	addInts(form, "versionId", p.VersionIDs)
	addInts(form, "milestoneId", p.MilestoneIDs)
	addPositive(form, "assigneeId", p.AssigneeID)
	addInts(form, "notifiedUserId", p.NotifiedUserIDs)
	addPositive(form, "parentIssueId", p.ParentIssueID)
	for k, vs := range CustomFieldsToPayload(p.CustomFields) {
		form[k] = vs
	}

	return c.do(ctx, http.MethodPost, "issues", nil, form)
}

// GetIssueComments lists the comments of an issue.
func (c *Client) GetIssueComments(ctx context.Context, idOrKey string, q CommentQuery) (json.RawMessage, error) {
	query := url.Values{}
	addPositive(query, "minId", q.MinID)
	addPositive(query, "maxId", q.MaxID)
	addPositive(query, "count", q.Count)
	addString(query, "order", q.Order)

	return c.do(ctx, http.MethodGet, pathf("issues/%s/comments", idOrKey), query, nil)
}

// GetWiki fetches a wiki page.
func (c *Client) GetWiki(ctx context.Context, id int) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, pathf("wikis/%s", strconv.Itoa(id)), nil, nil)
}

// AddWiki creates a wiki page.
func (c *Client) AddWiki(ctx context.Context, p AddWikiParams) (json.RawMessage, error) {
	form := url.Values{}
	addPositive(form, "projectId", p.ProjectID)
	form.Set("name", p.Name)
	form.Set("content", p.Content)
	if p.MailNotify {
		form.Set("mailNotify", "true")
	}

	return c.do(ctx, http.MethodPost, "wikis", nil, form)
}

// GetPullRequests lists pull requests of a repository.
func (c *Client) GetPullRequests(ctx context.Context, projectIDOrKey, repoIDOrName string, q PullRequestQuery) (json.RawMessage, error) {
	query := url.Values{}
	addInts(query, "statusId", q.StatusIDs)
	addInts(query, "assigneeId", q.AssigneeIDs)
	addInts(query, "issueId", q.IssueIDs)
	addInts(query, "createdUserId", q.CreatedUserIDs)
	addPositive(query, "offset", q.Offset)
	addPositive(query, "count", q.Count)

	return c.do(ctx, http.MethodGet,
		pathf("projects/%s/git/repositories/%s/pullRequests", projectIDOrKey, repoIDOrName), query, nil)
}

// GetPullRequest fetches one pull request by number.
func (c *Client) GetPullRequest(ctx context.Context, projectIDOrKey, repoIDOrName string, number int) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet,
		pathf("projects/%s/git/repositories/%s/pullRequests/%s", projectIDOrKey, repoIDOrName, strconv.Itoa(number)), nil, nil)
}

// UpdatePullRequestComment replaces the content of a pull request comment.
func (c *Client) UpdatePullRequestComment(ctx context.Context, projectIDOrKey, repoIDOrName string, number, commentID int, content string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("content", content)

	return c.do(ctx, http.MethodPatch,
		pathf("projects/%s/git/repositories/%s/pullRequests/%s/comments/%s",
			projectIDOrKey, repoIDOrName, strconv.Itoa(number), strconv.Itoa(commentID)), nil, form)
}

func (c *Client) do(ctx context.Context, method, path string, query, form url.Values) (json.RawMessage, error) {
	u := c.baseURL.JoinPath(path)
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("apiKey", c.apiKey)
	}
	u.RawQuery = query.Encode()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	logging.Debug("Backlog", "%s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backlog request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backlog response: %w", err)
	}
	if len(data) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("backlog returned invalid JSON for %s %s", method, path)
	}
	return json.RawMessage(data), nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil {
			apiErr.Errors = []ErrorDetail{{Message: strings.TrimSpace(string(data))}}
		}
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

// pathf escapes each segment before formatting.
func pathf(format string, segments ...string) string {
	args := make([]any, len(segments))
	for i, s := range segments {
		args[i] = url.PathEscape(s)
	}
	return fmt.Sprintf(format, args...)
}
