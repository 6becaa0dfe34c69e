package report

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/teampulse/ghdigest/internal/activity"
	"github.com/teampulse/ghdigest/internal/cases"
	"github.com/teampulse/ghdigest/internal/github"
)

// CommentEntry is one row of the flat recent-comments list, carrying its
// resolved Case reference when the parent walk found one.
type CommentEntry struct {
	Kind       string `json:"type"`
	IssueURL   string `json:"issue_url"`
	IssueTitle string `json:"issue_title"`
	CaseURL    string `json:"case_url,omitempty"`
	CaseTitle  string `json:"case_title,omitempty"`
	Author     string `json:"author"`
	CreatedAt  string `json:"created_at"`
	Body       string `json:"body"`
}

// Report is the final artifact of a run: built once, immutable after
// assembly, rendered as JSON (complete) and Markdown (lossy).
type Report struct {
	CommitsByAuthor map[string][]github.Commit `json:"commits_by_author"`
	PullRequests    []activity.PullRequest     `json:"recent_pull_requests"`
	RecentComments  []CommentEntry             `json:"recent_comments"`
	Incidents       []activity.Issue           `json:"recent_incidents"`
	GeneratedAt     time.Time                  `json:"generated_at"`

	// Issues carry their resolved Case and feed the Markdown Case sections;
	// the flat comment list above is the JSON projection of the same data.
	Issues []activity.Issue `json:"-"`
	Date   string           `json:"-"`
}

// CaseResolver is the slice of the hierarchy resolver assembly needs.
type CaseResolver interface {
	Resolve(ctx context.Context, issue cases.IssueRef) (*cases.Case, error)
}

type Assembler struct {
	resolver CaseResolver
	log      zerolog.Logger
}

func NewAssembler(resolver CaseResolver, log zerolog.Logger) *Assembler {
	return &Assembler{resolver: resolver, log: log}
}

// Assemble attributes each issue to its governing Case and builds the report.
// A failed or empty resolution leaves the issue Case-less; it stays in the
// flat comment list and drops out of the Case-grouped view only.
func (a *Assembler) Assemble(
	ctx context.Context,
	commits map[string][]github.Commit,
	prs []activity.PullRequest,
	issues []activity.Issue,
	incidents []activity.Issue,
	date string,
) *Report {
	for i := range issues {
		resolved, err := a.resolver.Resolve(ctx, issues[i].Ref())
		if err != nil {
			a.log.Warn().Err(err).Str("issue", issues[i].URL).Msg("case resolution failed")
			continue
		}
		issues[i].Case = resolved
	}

	report := &Report{
		CommitsByAuthor: commitsByAuthor(commits),
		PullRequests:    prs,
		Incidents:       incidents,
		Issues:          issues,
		GeneratedAt:     time.Now().UTC(),
		Date:            date,
	}

	for _, issue := range issues {
		for _, c := range issue.Comments {
			entry := CommentEntry{
				Kind:       github.KindIssueComment,
				IssueURL:   issue.URL,
				IssueTitle: issue.Title,
				Author:     c.Author,
				CreatedAt:  c.CreatedAt.Format(time.RFC3339),
				Body:       c.Body,
			}
			if issue.Case != nil {
				entry.CaseURL = issue.Case.URL
				entry.CaseTitle = issue.Case.Title
			}
			report.RecentComments = append(report.RecentComments, entry)
		}
	}
	return report
}

func commitsByAuthor(commits map[string][]github.Commit) map[string][]github.Commit {
	byAuthor := make(map[string][]github.Commit)
	repos := make([]string, 0, len(commits))
	for repo := range commits {
		repos = append(repos, repo)
	}
	sort.Strings(repos)
	for _, repo := range repos {
		for _, c := range commits[repo] {
			if c.Repository == "" {
				c.Repository = repo
			}
			byAuthor[c.Author] = append(byAuthor[c.Author], c)
		}
	}
	for author := range byAuthor {
		list := byAuthor[author]
		sort.Slice(list, func(i, j int) bool {
			return list[i].Date.After(list[j].Date)
		})
		byAuthor[author] = list
	}
	return byAuthor
}

// TotalCommits counts commits across all authors.
func (r *Report) TotalCommits() int {
	total := 0
	for _, commits := range r.CommitsByAuthor {
		total += len(commits)
	}
	return total
}
