package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/teampulse/ghdigest/internal/timewindow"
)

// RunQuery posts a GraphQL query and decodes the `data` field into out.
// Non-2xx → TransportError with the raw body; a 200 carrying an `errors`
// list → GraphQLError with the raw payload.
func (c *Client) RunQuery(ctx context.Context, query string, variables map[string]any, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal graphql payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &TransportError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(envelope.Errors) > 0 && string(envelope.Errors) != "null" {
		return &GraphQLError{Errors: envelope.Errors}
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode graphql data: %w", err)
		}
	}
	return nil
}

// Shared GraphQL fragments decoded below.

type glUser struct {
	Login string `json:"login"`
}

func (u *glUser) name() string {
	if u == nil || u.Login == "" {
		return "unknown"
	}
	return u.Login
}

type glComment struct {
	DatabaseID int64   `json:"databaseId"`
	Body       string  `json:"body"`
	CreatedAt  string  `json:"createdAt"`
	URL        string  `json:"url"`
	Author     *glUser `json:"author"`
}

type glPageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

const orgPullRequestsQuery = `
query($org: String!, $cursor: String) {
  organization(login: $org) {
    repositories(first: 100, after: $cursor) {
      nodes {
        name
        pullRequests(states: [OPEN], last: 20) {
          nodes {
            number
            url
            title
            body
            state
            isDraft
            createdAt
            updatedAt
            author { login }
            reviewRequests(first: 10) {
              nodes {
                requestedReviewer {
                  __typename
                  ... on User { login }
                }
              }
            }
            reviews(last: 20) {
              nodes {
                body
                state
                createdAt
                author { login }
                comments(last: 10) {
                  nodes { databaseId body createdAt url author { login } }
                }
              }
            }
            comments(last: 20) {
              nodes { databaseId body createdAt url author { login } }
            }
            timelineItems(itemTypes: [REVIEW_REQUESTED_EVENT], last: 10) {
              nodes {
                ... on ReviewRequestedEvent {
                  createdAt
                  requestedReviewer {
                    __typename
                    ... on User { login }
                  }
                }
              }
            }
          }
        }
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

// ListOrgPullRequests pages through every repository of the organization and
// flattens their open pull requests, with comment and review threads attached.
// A null organization in the response is a top-level failure and fatal.
func (c *Client) ListOrgPullRequests(ctx context.Context) ([]PullRequest, error) {
	type reviewer struct {
		Typename string `json:"__typename"`
		Login    string `json:"login"`
	}
	type response struct {
		Organization *struct {
			Repositories struct {
				Nodes []struct {
					Name         string `json:"name"`
					PullRequests struct {
						Nodes []struct {
							Number         int     `json:"number"`
							URL            string  `json:"url"`
							Title          string  `json:"title"`
							Body           string  `json:"body"`
							State          string  `json:"state"`
							IsDraft        bool    `json:"isDraft"`
							CreatedAt      string  `json:"createdAt"`
							UpdatedAt      string  `json:"updatedAt"`
							Author         *glUser `json:"author"`
							ReviewRequests struct {
								Nodes []struct {
									RequestedReviewer *reviewer `json:"requestedReviewer"`
								} `json:"nodes"`
							} `json:"reviewRequests"`
							Reviews struct {
								Nodes []struct {
									Body      string  `json:"body"`
									State     string  `json:"state"`
									CreatedAt string  `json:"createdAt"`
									Author    *glUser `json:"author"`
									Comments  struct {
										Nodes []glComment `json:"nodes"`
									} `json:"comments"`
								} `json:"nodes"`
							} `json:"reviews"`
							Comments struct {
								Nodes []glComment `json:"nodes"`
							} `json:"comments"`
							TimelineItems struct {
								Nodes []struct {
									CreatedAt         string    `json:"createdAt"`
									RequestedReviewer *reviewer `json:"requestedReviewer"`
								} `json:"nodes"`
							} `json:"timelineItems"`
						} `json:"nodes"`
					} `json:"pullRequests"`
				} `json:"nodes"`
				PageInfo glPageInfo `json:"pageInfo"`
			} `json:"repositories"`
		} `json:"organization"`
	}

	var prs []PullRequest
	cursor := ""
	for {
		variables := map[string]any{"org": c.owner}
		if cursor != "" {
			variables["cursor"] = cursor
		}
		var resp response
		if err := c.RunQuery(ctx, orgPullRequestsQuery, variables, &resp); err != nil {
			return nil, err
		}
		if resp.Organization == nil {
			return nil, fmt.Errorf("organization %q not found", c.owner)
		}

		for _, repo := range resp.Organization.Repositories.Nodes {
			for _, node := range repo.PullRequests.Nodes {
				createdAt, err := timewindow.Parse(node.CreatedAt)
				if err != nil {
					return nil, err
				}
				updatedAt, err := timewindow.Parse(node.UpdatedAt)
				if err != nil {
					return nil, err
				}
				pr := PullRequest{
					Number:     node.Number,
					Title:      node.Title,
					URL:        node.URL,
					Body:       node.Body,
					State:      node.State,
					Draft:      node.IsDraft,
					Author:     node.Author.name(),
					CreatedAt:  createdAt,
					UpdatedAt:  updatedAt,
					Repository: repo.Name,
				}
				// Only User-typed reviewers are attributed; teams are dropped.
				for _, rr := range node.ReviewRequests.Nodes {
					if rr.RequestedReviewer != nil && rr.RequestedReviewer.Typename == "User" {
						pr.Reviewers = append(pr.Reviewers, rr.RequestedReviewer.Login)
					}
				}
				for _, ev := range node.TimelineItems.Nodes {
					if ev.CreatedAt == "" {
						continue
					}
					at, err := timewindow.Parse(ev.CreatedAt)
					if err != nil {
						return nil, err
					}
					pr.ReviewAskedAt = append(pr.ReviewAskedAt, at)
				}
				for _, gc := range node.Comments.Nodes {
					comment, err := normalizeComment(gc, KindIssueComment)
					if err != nil {
						return nil, err
					}
					pr.Comments = append(pr.Comments, comment)
				}
				for _, review := range node.Reviews.Nodes {
					if review.Body != "" {
						at, err := timewindow.Parse(review.CreatedAt)
						if err != nil {
							return nil, err
						}
						pr.ReviewComments = append(pr.ReviewComments, Comment{
							Author:    review.Author.name(),
							Body:      review.Body,
							CreatedAt: at,
							Kind:      KindReviewComment,
							State:     review.State,
						})
					}
					for _, gc := range review.Comments.Nodes {
						comment, err := normalizeComment(gc, KindReviewComment)
						if err != nil {
							return nil, err
						}
						comment.State = "COMMENT"
						pr.ReviewComments = append(pr.ReviewComments, comment)
					}
				}
				prs = append(prs, pr)
			}
		}

		page := resp.Organization.Repositories.PageInfo
		if !page.HasNextPage {
			break
		}
		cursor = page.EndCursor
	}
	return prs, nil
}

func normalizeComment(gc glComment, kind string) (Comment, error) {
	at, err := timewindow.Parse(gc.CreatedAt)
	if err != nil {
		return Comment{}, err
	}
	return Comment{
		ID:        gc.DatabaseID,
		Author:    gc.Author.name(),
		Body:      gc.Body,
		CreatedAt: at,
		URL:       gc.URL,
		Kind:      kind,
	}, nil
}

const projectItemsQuery = `
query($org: String!, $projectNumber: Int!, $first: Int, $after: String) {
  organization(login: $org) {
    projectV2(number: $projectNumber) {
      items(first: $first, after: $after) {
        pageInfo { hasNextPage endCursor }
        nodes {
          content {
            __typename
            ... on Issue {
              number
              title
              url
              state
              author { login }
              createdAt
              updatedAt
              repository { name }
              labels(first: 10) { nodes { name } }
              assignees(first: 5) { nodes { login } }
              issueType { name }
            }
          }
          fieldValues(first: 20) {
            nodes {
              ... on ProjectV2ItemFieldSingleSelectValue {
                name
                field {
                  ... on ProjectV2SingleSelectField { name }
                }
              }
            }
          }
        }
      }
    }
  }
}`

// ListProjectIssues pages through a projectV2's items and returns every item
// whose content is an Issue, with its Status column value attached. Column
// filtering is the aggregator's business. A missing organization or project is
// a top-level failure and fatal.
func (c *Client) ListProjectIssues(ctx context.Context, projectNumber int) ([]Issue, error) {
	type response struct {
		Organization *struct {
			ProjectV2 *struct {
				Items struct {
					PageInfo glPageInfo `json:"pageInfo"`
					Nodes    []struct {
						Content *struct {
							Typename  string  `json:"__typename"`
							Number    int     `json:"number"`
							Title     string  `json:"title"`
							URL       string  `json:"url"`
							State     string  `json:"state"`
							Author    *glUser `json:"author"`
							CreatedAt string  `json:"createdAt"`
							UpdatedAt string  `json:"updatedAt"`
							Repository struct {
								Name string `json:"name"`
							} `json:"repository"`
							Labels struct {
								Nodes []struct {
									Name string `json:"name"`
								} `json:"nodes"`
							} `json:"labels"`
							Assignees struct {
								Nodes []glUser `json:"nodes"`
							} `json:"assignees"`
							IssueType *struct {
								Name string `json:"name"`
							} `json:"issueType"`
						} `json:"content"`
						FieldValues struct {
							Nodes []struct {
								Name  string `json:"name"`
								Field struct {
									Name string `json:"name"`
								} `json:"field"`
							} `json:"nodes"`
						} `json:"fieldValues"`
					} `json:"nodes"`
				} `json:"items"`
			} `json:"projectV2"`
		} `json:"organization"`
	}

	var issues []Issue
	cursor := ""
	for {
		variables := map[string]any{
			"org":           c.owner,
			"projectNumber": projectNumber,
			"first":         pageSize,
		}
		if cursor != "" {
			variables["after"] = cursor
		}
		var resp response
		if err := c.RunQuery(ctx, projectItemsQuery, variables, &resp); err != nil {
			return nil, err
		}
		if resp.Organization == nil {
			return nil, fmt.Errorf("organization %q not found", c.owner)
		}
		if resp.Organization.ProjectV2 == nil {
			return nil, fmt.Errorf("project %d not found in organization %q", projectNumber, c.owner)
		}

		items := resp.Organization.ProjectV2.Items
		for _, item := range items.Nodes {
			content := item.Content
			if content == nil || content.Typename != "Issue" {
				continue
			}
			createdAt, err := timewindow.Parse(content.CreatedAt)
			if err != nil {
				return nil, err
			}
			updatedAt, err := timewindow.Parse(content.UpdatedAt)
			if err != nil {
				return nil, err
			}
			issue := Issue{
				Number:     content.Number,
				Title:      content.Title,
				URL:        content.URL,
				State:      content.State,
				Author:     content.Author.name(),
				CreatedAt:  createdAt,
				UpdatedAt:  updatedAt,
				Repository: content.Repository.Name,
			}
			for _, l := range content.Labels.Nodes {
				issue.Labels = append(issue.Labels, l.Name)
			}
			for _, a := range content.Assignees.Nodes {
				issue.Assignees = append(issue.Assignees, a.Login)
			}
			if content.IssueType != nil {
				issue.Type = content.IssueType.Name
			}
			for _, fv := range item.FieldValues.Nodes {
				if fv.Field.Name == "Status" {
					issue.ProjectColumn = fv.Name
					break
				}
			}
			issues = append(issues, issue)
		}

		if !items.PageInfo.HasNextPage {
			break
		}
		cursor = items.PageInfo.EndCursor
	}
	return issues, nil
}
