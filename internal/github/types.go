package github

import "time"

// Normalized projections of the platform's wire shapes. Raw GraphQL and REST
// responses never leave this package; everything downstream works on these.

type Commit struct {
	SHA        string    `json:"sha"`
	Message    string    `json:"message"`
	Author     string    `json:"author"`
	Date       time.Time `json:"date"`
	URL        string    `json:"url"`
	Repository string    `json:"repository"`
	Branch     string    `json:"branch"`
}

const (
	KindIssueComment  = "issue_comment"
	KindReviewComment = "review_comment"
)

type Comment struct {
	ID        int64     `json:"id,omitempty"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
	Kind      string    `json:"type"`
	// Review-comment extras.
	State string `json:"state,omitempty"`
	Path  string `json:"path,omitempty"`
	Line  int    `json:"line,omitempty"`
}

type PullRequest struct {
	Number         int       `json:"number"`
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	Body           string    `json:"body,omitempty"`
	State          string    `json:"state"`
	Draft          bool      `json:"is_draft"`
	Author         string    `json:"author"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Repository     string    `json:"repository"`
	Reviewers      []string  `json:"reviewers"`
	ReviewAskedAt  []time.Time
	Comments       []Comment `json:"comments"`
	ReviewComments []Comment `json:"review_comments"`
}

type Issue struct {
	Number        int       `json:"number"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	State         string    `json:"state"`
	Author        string    `json:"author"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Repository    string    `json:"repository"`
	Labels        []string  `json:"labels"`
	Assignees     []string  `json:"assignees"`
	Type          string    `json:"type,omitempty"`
	ProjectColumn string    `json:"project_column,omitempty"`
}
