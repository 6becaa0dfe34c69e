package activity

import (
	"github.com/teampulse/ghdigest/internal/cases"
	"github.com/teampulse/ghdigest/internal/github"
)

// Comment is a thread entry classified against the active time window. A
// comment can ride along on an older PR and still be flagged recent.
type Comment struct {
	github.Comment
	IsRecent bool `json:"is_recent"`
}

// PullRequest is a pull request selected for the report, with its comment and
// review threads attached.
type PullRequest struct {
	Number           int       `json:"pr_number"`
	Title            string    `json:"pr_title"`
	URL              string    `json:"pr_url"`
	Description      string    `json:"description,omitempty"`
	State            string    `json:"state"`
	Draft            bool      `json:"is_draft"`
	Author           string    `json:"author"`
	CreatedAt        string    `json:"created_at"`
	UpdatedAt        string    `json:"updated_at"`
	Repository       string    `json:"repository"`
	Reviewers        []string  `json:"reviewers"`
	RecentlyCreated  bool      `json:"recently_created"`
	RecentlyReviewed bool      `json:"recently_reviewed"`
	Comments         []Comment `json:"comments"`
	ReviewComments   []Comment `json:"review_comments"`
}

// Issue is an issue with at least one in-window comment. Case is attached
// during assembly and stays nil when the parent walk finds nothing.
type Issue struct {
	github.Issue
	Comments []Comment   `json:"comments"`
	Case     *cases.Case `json:"case,omitempty"`
}

// Ref projects an issue into the shape the Case resolver works on.
func (i *Issue) Ref() cases.IssueRef {
	return cases.IssueRef{
		Title:  i.Title,
		URL:    i.URL,
		Type:   i.Type,
		Labels: i.Labels,
	}
}
