package github

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/teampulse/ghdigest/internal/cases"
)

// ParseIssueURL extracts owner, repo and issue number from a canonical issue
// URL of the form https://github.com/<owner>/<repo>/issues/<number>.
func ParseIssueURL(issueURL string) (owner, repo string, number int, ok bool) {
	trimmed := strings.TrimPrefix(issueURL, "https://github.com/")
	if trimmed == issueURL {
		return "", "", 0, false
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) < 4 || parts[2] != "issues" {
		return "", "", 0, false
	}
	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return "", "", 0, false
	}
	return parts[0], parts[1], number, true
}

// FetchParent resolves the platform-native parent of a sub-issue through the
// REST parent endpoint. A malformed URL, a 404 and any other non-200 all mean
// the same thing to the caller: no parent. The parent endpoint predates
// go-github's typed surface, so the request goes through the client's escape
// hatch, decoded into the normalized projection.
func (c *Client) FetchParent(ctx context.Context, issueURL string) (*cases.IssueRef, error) {
	owner, repo, number, ok := ParseIssueURL(issueURL)
	if !ok {
		return nil, nil
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("repos/%v/%v/issues/%d/parent", owner, repo, number)
	req, err := c.rest.NewRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var parent struct {
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
		Type    *struct {
			Name string `json:"name"`
		} `json:"type"`
		Labels []struct {
			Name string `json:"name"`
		} `json:"labels"`
	}
	if _, err := c.rest.Do(ctx, req, &parent); err != nil {
		var er *gh.ErrorResponse
		if errors.As(err, &er) {
			// No parent, or no visibility. Either way: absence.
			return nil, nil
		}
		return nil, err
	}

	ref := &cases.IssueRef{Title: parent.Title, URL: parent.HTMLURL}
	if parent.Type != nil {
		ref.Type = parent.Type.Name
	}
	for _, l := range parent.Labels {
		ref.Labels = append(ref.Labels, l.Name)
	}
	return ref, nil
}
