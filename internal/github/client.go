package github

import (
	"context"
	"errors"
	"net/http"
	"time"

	gh "github.com/google/go-github/v66/github"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultGraphQLURL = "https://api.github.com/graphql"
	pageSize          = 100
)

// Client issues paginated GraphQL queries and single-shot REST calls against
// GitHub. All requests go through one rate limiter so sequential pagination
// over large organizations stays inside the API budget. No retries: a failed
// call surfaces once and the caller decides whether it is fatal.
type Client struct {
	rest       *gh.Client
	httpClient *http.Client
	token      string
	owner      string
	org        bool
	graphqlURL string
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func NewClient(token, owner string, isOrg bool, log zerolog.Logger) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &Client{
		rest:       gh.NewClient(httpClient).WithAuthToken(token),
		httpClient: httpClient,
		token:      token,
		owner:      owner,
		org:        isOrg,
		graphqlURL: defaultGraphQLURL,
		limiter:    rate.NewLimiter(rate.Limit(8), 8),
		log:        log,
	}
}

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// wrapREST converts go-github's error into the package taxonomy.
func wrapREST(err error) error {
	if err == nil {
		return nil
	}
	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return &TransportError{StatusCode: er.Response.StatusCode, Body: er.Message}
	}
	return err
}

// ListRepositories returns all repository names of the configured organization
// or user account, paginated.
func (c *Client) ListRepositories(ctx context.Context) ([]string, error) {
	var names []string
	page := 1
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		var (
			repos []*gh.Repository
			resp  *gh.Response
			err   error
		)
		if c.org {
			opts := &gh.RepositoryListByOrgOptions{
				Type:        "all",
				ListOptions: gh.ListOptions{PerPage: pageSize, Page: page},
			}
			repos, resp, err = c.rest.Repositories.ListByOrg(ctx, c.owner, opts)
		} else {
			opts := &gh.RepositoryListByUserOptions{
				Type:        "all",
				ListOptions: gh.ListOptions{PerPage: pageSize, Page: page},
			}
			repos, resp, err = c.rest.Repositories.ListByUser(ctx, c.owner, opts)
		}
		if err != nil {
			return nil, wrapREST(err)
		}
		for _, r := range repos {
			names = append(names, r.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return names, nil
}

// ListBranches returns every branch name of a repository, not just the default.
func (c *Client) ListBranches(ctx context.Context, repo string) ([]string, error) {
	var names []string
	page := 1
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		opts := &gh.BranchListOptions{ListOptions: gh.ListOptions{PerPage: pageSize, Page: page}}
		branches, resp, err := c.rest.Repositories.ListBranches(ctx, c.owner, repo, opts)
		if err != nil {
			return nil, wrapREST(err)
		}
		for _, b := range branches {
			names = append(names, b.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return names, nil
}

// ListCommits returns the commits of one branch since the given instant,
// newest first as the API delivers them.
func (c *Client) ListCommits(ctx context.Context, repo, branch string, since time.Time) ([]Commit, error) {
	var commits []Commit
	page := 1
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		opts := &gh.CommitsListOptions{
			SHA:         branch,
			Since:       since,
			ListOptions: gh.ListOptions{PerPage: pageSize, Page: page},
		}
		raw, resp, err := c.rest.Repositories.ListCommits(ctx, c.owner, repo, opts)
		if err != nil {
			return nil, wrapREST(err)
		}
		for _, rc := range raw {
			author := rc.GetAuthor().GetLogin()
			if author == "" {
				author = rc.GetCommit().GetAuthor().GetName()
			}
			commits = append(commits, Commit{
				SHA:        rc.GetSHA(),
				Message:    rc.GetCommit().GetMessage(),
				Author:     author,
				Date:       rc.GetCommit().GetAuthor().GetDate().Time.UTC(),
				URL:        rc.GetHTMLURL(),
				Repository: repo,
				Branch:     branch,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return commits, nil
}

// ListIssues returns a repository's issues sorted by update time, newest
// first. Pull requests surfaced by the issues API are skipped.
func (c *Client) ListIssues(ctx context.Context, repo string) ([]Issue, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}
	raw, _, err := c.rest.Issues.ListByRepo(ctx, c.owner, repo, opts)
	if err != nil {
		return nil, wrapREST(err)
	}
	var issues []Issue
	for _, ri := range raw {
		if ri.IsPullRequest() {
			continue
		}
		issue := Issue{
			Number:     ri.GetNumber(),
			Title:      ri.GetTitle(),
			URL:        ri.GetHTMLURL(),
			State:      ri.GetState(),
			Author:     ri.GetUser().GetLogin(),
			CreatedAt:  ri.GetCreatedAt().Time.UTC(),
			UpdatedAt:  ri.GetUpdatedAt().Time.UTC(),
			Repository: repo,
		}
		for _, l := range ri.Labels {
			issue.Labels = append(issue.Labels, l.GetName())
		}
		for _, a := range ri.Assignees {
			issue.Assignees = append(issue.Assignees, a.GetLogin())
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// ListPullRequests returns a repository's pull requests sorted by update time,
// newest first. Comment and review threads are fetched separately.
func (c *Client) ListPullRequests(ctx context.Context, repo string) ([]PullRequest, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	opts := &gh.PullRequestListOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}
	raw, _, err := c.rest.PullRequests.List(ctx, c.owner, repo, opts)
	if err != nil {
		return nil, wrapREST(err)
	}
	var prs []PullRequest
	for _, rp := range raw {
		pr := PullRequest{
			Number:     rp.GetNumber(),
			Title:      rp.GetTitle(),
			URL:        rp.GetHTMLURL(),
			Body:       rp.GetBody(),
			State:      rp.GetState(),
			Draft:      rp.GetDraft(),
			Author:     rp.GetUser().GetLogin(),
			CreatedAt:  rp.GetCreatedAt().Time.UTC(),
			UpdatedAt:  rp.GetUpdatedAt().Time.UTC(),
			Repository: repo,
		}
		// RequestedReviewers holds users only; teams live in a separate field.
		for _, u := range rp.RequestedReviewers {
			pr.Reviewers = append(pr.Reviewers, u.GetLogin())
		}
		prs = append(prs, pr)
	}
	return prs, nil
}

// ListIssueComments returns the ordinary comment thread of an issue or PR.
func (c *Client) ListIssueComments(ctx context.Context, repo string, number int) ([]Comment, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	raw, _, err := c.rest.Issues.ListComments(ctx, c.owner, repo, number, &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: pageSize},
	})
	if err != nil {
		return nil, wrapREST(err)
	}
	var comments []Comment
	for _, rc := range raw {
		comments = append(comments, Comment{
			ID:        rc.GetID(),
			Author:    commentAuthor(rc.GetUser()),
			Body:      rc.GetBody(),
			CreatedAt: rc.GetCreatedAt().Time.UTC(),
			URL:       rc.GetHTMLURL(),
			Kind:      KindIssueComment,
		})
	}
	return comments, nil
}

// ListReviewComments returns the code-review comment thread of a PR.
func (c *Client) ListReviewComments(ctx context.Context, repo string, number int) ([]Comment, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	raw, _, err := c.rest.PullRequests.ListComments(ctx, c.owner, repo, number, &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: pageSize},
	})
	if err != nil {
		return nil, wrapREST(err)
	}
	var comments []Comment
	for _, rc := range raw {
		comments = append(comments, Comment{
			ID:        rc.GetID(),
			Author:    commentAuthor(rc.GetUser()),
			Body:      rc.GetBody(),
			CreatedAt: rc.GetCreatedAt().Time.UTC(),
			URL:       rc.GetHTMLURL(),
			Kind:      KindReviewComment,
			Path:      rc.GetPath(),
			Line:      rc.GetLine(),
		})
	}
	return comments, nil
}

func commentAuthor(u *gh.User) string {
	if login := u.GetLogin(); login != "" {
		return login
	}
	return "unknown"
}
