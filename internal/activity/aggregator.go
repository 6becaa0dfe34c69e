package activity

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/teampulse/ghdigest/internal/github"
	"github.com/teampulse/ghdigest/internal/timewindow"
)

// API is the slice of the GitHub client the aggregator needs. Tests substitute
// a fake; production wires *github.Client.
type API interface {
	ListRepositories(ctx context.Context) ([]string, error)
	ListBranches(ctx context.Context, repo string) ([]string, error)
	ListCommits(ctx context.Context, repo, branch string, since time.Time) ([]github.Commit, error)
	ListIssues(ctx context.Context, repo string) ([]github.Issue, error)
	ListPullRequests(ctx context.Context, repo string) ([]github.PullRequest, error)
	ListIssueComments(ctx context.Context, repo string, number int) ([]github.Comment, error)
	ListReviewComments(ctx context.Context, repo string, number int) ([]github.Comment, error)
	ListOrgPullRequests(ctx context.Context) ([]github.PullRequest, error)
	ListProjectIssues(ctx context.Context, projectNumber int) ([]github.Issue, error)
}

// Aggregator drives collection across repositories and projects for one run.
// It owns all in-progress accumulation; nothing persists between runs.
type Aggregator struct {
	api API
	log zerolog.Logger

	// Explicit repository list; empty means discover from the org/owner.
	Repositories          []string
	ProjectNumber         int
	IncidentProjectNumber int
	Columns               []string

	// Org selects the org-wide GraphQL pull-request query; user accounts fall
	// back to per-repository REST listing.
	Org bool

	discovered []string
}

func NewAggregator(api API, log zerolog.Logger) *Aggregator {
	return &Aggregator{api: api, log: log}
}

// repositories returns the configured list or the discovered one, fetching it
// once per run. A listing failure here is top-level and fatal.
func (a *Aggregator) repositories(ctx context.Context) ([]string, error) {
	if len(a.Repositories) > 0 {
		return a.Repositories, nil
	}
	if a.discovered != nil {
		return a.discovered, nil
	}
	repos, err := a.api.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}
	a.discovered = repos
	return repos, nil
}

// CollectCommits gathers commits from every branch of every repository,
// deduplicated by SHA within a repository and sorted newest first. A commit
// reachable from several branches appears once, under whichever branch
// surfaced it first.
func (a *Aggregator) CollectCommits(ctx context.Context, w timewindow.Window) (map[string][]github.Commit, error) {
	repos, err := a.repositories(ctx)
	if err != nil {
		return nil, err
	}

	all := make(map[string][]github.Commit, len(repos))
	for _, repo := range repos {
		branches, err := a.api.ListBranches(ctx, repo)
		if err != nil {
			a.log.Warn().Err(err).Str("repo", repo).Msg("listing branches failed, skipping repository")
			continue
		}
		a.log.Debug().Str("repo", repo).Int("branches", len(branches)).Msg("scanning branches")

		seen := make(map[string]bool)
		var repoCommits []github.Commit
		for _, branch := range branches {
			commits, err := a.api.ListCommits(ctx, repo, branch, w.Start())
			if err != nil {
				a.log.Warn().Err(err).Str("repo", repo).Str("branch", branch).Msg("fetching commits failed, skipping branch")
				continue
			}
			for _, commit := range commits {
				if seen[commit.SHA] {
					continue
				}
				if w.Exact() && !w.Contains(commit.Date) {
					continue
				}
				seen[commit.SHA] = true
				repoCommits = append(repoCommits, commit)
			}
		}

		sort.Slice(repoCommits, func(i, j int) bool {
			return repoCommits[i].Date.After(repoCommits[j].Date)
		})
		all[repo] = repoCommits
	}
	return all, nil
}

// CollectPullRequests gathers pull requests and keeps the ones worth
// reporting: at least one in-window comment, created inside the window, or
// sent for review inside the window. Organizations are scanned with a single
// org-wide query; user accounts go repository by repository. Threads are kept
// whole; each comment carries its own recency flag.
func (a *Aggregator) CollectPullRequests(ctx context.Context, w timewindow.Window) ([]PullRequest, error) {
	var (
		raw []github.PullRequest
		err error
	)
	if a.Org {
		raw, err = a.api.ListOrgPullRequests(ctx)
	} else {
		raw, err = a.userPullRequests(ctx, w)
	}
	if err != nil {
		return nil, err
	}

	var prs []PullRequest
	for _, pr := range raw {
		if pr.UpdatedAt.Before(w.Start()) {
			continue
		}

		comments := flagComments(pr.Comments, w)
		reviewComments := flagComments(pr.ReviewComments, w)
		recentlyCreated := w.Contains(pr.CreatedAt)
		recentlyReviewed := false
		for _, at := range pr.ReviewAskedAt {
			if w.Contains(at) {
				recentlyReviewed = true
				break
			}
		}

		if !recentlyCreated && !recentlyReviewed && !anyRecent(comments) && !anyRecent(reviewComments) {
			continue
		}

		prs = append(prs, PullRequest{
			Number:           pr.Number,
			Title:            pr.Title,
			URL:              pr.URL,
			Description:      pr.Body,
			State:            pr.State,
			Draft:            pr.Draft,
			Author:           pr.Author,
			CreatedAt:        pr.CreatedAt.Format(time.RFC3339),
			UpdatedAt:        pr.UpdatedAt.Format(time.RFC3339),
			Repository:       pr.Repository,
			Reviewers:        pr.Reviewers,
			RecentlyCreated:  recentlyCreated,
			RecentlyReviewed: recentlyReviewed,
			Comments:         comments,
			ReviewComments:   reviewComments,
		})
	}
	return prs, nil
}

// userPullRequests lists pull requests repository by repository and attaches
// their comment and review threads. Per-repo and per-PR failures are logged
// and skipped.
func (a *Aggregator) userPullRequests(ctx context.Context, w timewindow.Window) ([]github.PullRequest, error) {
	repos, err := a.repositories(ctx)
	if err != nil {
		return nil, err
	}
	var all []github.PullRequest
	for _, repo := range repos {
		prs, err := a.api.ListPullRequests(ctx, repo)
		if err != nil {
			a.log.Warn().Err(err).Str("repo", repo).Msg("listing pull requests failed, skipping repository")
			continue
		}
		for _, pr := range prs {
			if pr.UpdatedAt.Before(w.Start()) {
				continue
			}
			comments, err := a.api.ListIssueComments(ctx, repo, pr.Number)
			if err != nil {
				a.log.Warn().Err(err).Str("repo", repo).Int("pr", pr.Number).
					Msg("fetching comments failed, skipping pull request")
				continue
			}
			reviewComments, err := a.api.ListReviewComments(ctx, repo, pr.Number)
			if err != nil {
				a.log.Warn().Err(err).Str("repo", repo).Int("pr", pr.Number).
					Msg("fetching review comments failed, skipping pull request")
				continue
			}
			pr.Comments = comments
			pr.ReviewComments = reviewComments
			all = append(all, pr)
		}
	}
	return all, nil
}

// CollectIssues returns issues with at least one in-window comment. With a
// project and column allow-list configured it scans the project board;
// otherwise it falls back to per-repository issue listing.
func (a *Aggregator) CollectIssues(ctx context.Context, w timewindow.Window) ([]Issue, error) {
	if a.ProjectNumber > 0 && len(a.Columns) > 0 {
		items, err := a.api.ListProjectIssues(ctx, a.ProjectNumber)
		if err != nil {
			return nil, err
		}
		var kept []github.Issue
		for _, issue := range items {
			if a.columnAllowed(issue.ProjectColumn) {
				kept = append(kept, issue)
			}
		}
		return a.withRecentComments(ctx, kept, w, false), nil
	}

	repos, err := a.repositories(ctx)
	if err != nil {
		return nil, err
	}
	var all []github.Issue
	for _, repo := range repos {
		issues, err := a.api.ListIssues(ctx, repo)
		if err != nil {
			a.log.Warn().Err(err).Str("repo", repo).Msg("listing issues failed, skipping repository")
			continue
		}
		all = append(all, issues...)
	}
	return a.withRecentComments(ctx, all, w, false), nil
}

// CollectIncidents scans the dedicated incident project without column
// filtering. An incident counts when it has an in-window comment or was
// itself updated inside the window.
func (a *Aggregator) CollectIncidents(ctx context.Context, w timewindow.Window) ([]Issue, error) {
	if a.IncidentProjectNumber == 0 {
		return nil, nil
	}
	items, err := a.api.ListProjectIssues(ctx, a.IncidentProjectNumber)
	if err != nil {
		return nil, err
	}
	return a.withRecentComments(ctx, items, w, true), nil
}

// withRecentComments fetches comment threads, keeps the in-window ones and
// drops silent issues. With keepUpdated set, an issue updated inside the
// window survives even without comments (incident semantics).
func (a *Aggregator) withRecentComments(ctx context.Context, issues []github.Issue, w timewindow.Window, keepUpdated bool) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.UpdatedAt.Before(w.Start()) {
			continue
		}
		raw, err := a.api.ListIssueComments(ctx, issue.Repository, issue.Number)
		if err != nil {
			a.log.Warn().Err(err).Str("repo", issue.Repository).Int("issue", issue.Number).
				Msg("fetching comments failed, skipping issue")
			continue
		}
		var recent []Comment
		for _, c := range raw {
			if w.Contains(c.CreatedAt) {
				recent = append(recent, Comment{Comment: c, IsRecent: true})
			}
		}
		if len(recent) == 0 && !(keepUpdated && w.Contains(issue.UpdatedAt)) {
			// Silence is not newsworthy.
			continue
		}
		sort.Slice(recent, func(i, j int) bool {
			return recent[i].CreatedAt.Before(recent[j].CreatedAt)
		})
		out = append(out, Issue{Issue: issue, Comments: recent})
	}
	return out
}

func (a *Aggregator) columnAllowed(column string) bool {
	for _, c := range a.Columns {
		if c == column {
			return true
		}
	}
	return false
}

func flagComments(comments []github.Comment, w timewindow.Window) []Comment {
	out := make([]Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, Comment{Comment: c, IsRecent: w.Contains(c.CreatedAt)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func anyRecent(comments []Comment) bool {
	for _, c := range comments {
		if c.IsRecent {
			return true
		}
	}
	return false
}
