package backlog

// AddIssueParams are the fields accepted when creating an issue.
type AddIssueParams struct {
	ProjectID       int
	Summary         string
	IssueTypeID     int
	PriorityID      int
	Description     string
	StartDate       string
	DueDate         string
	EstimatedHours  *float64
	ActualHours     *float64
	CategoryIDs     []int
	VersionIDs      []int
	MilestoneIDs    []int
	AssigneeID      int
	NotifiedUserIDs []int
	ParentIssueID   int
	CustomFields    []CustomField
}

// CommentQuery filters issue comments.
type CommentQuery struct {
	MinID int
	MaxID int
	Count int
	// Order is "asc" or "desc".
	Order string
}

// AddWikiParams are the fields accepted when creating a wiki page.
type AddWikiParams struct {
	ProjectID  int
	Name       string
	Content    string
	MailNotify bool
}

// PullRequestQuery filters pull request listings.
type PullRequestQuery struct {
	StatusIDs      []int
	AssigneeIDs    []int
	IssueIDs       []int
	CreatedUserIDs []int
	Offset         int
	Count          int
}
