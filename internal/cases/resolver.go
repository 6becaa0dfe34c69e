package cases

import (
	"context"
	"strings"
)

// DefaultMaxDepth bounds the parent walk. The sub-issue relation is maintained
// by hand on the platform side and nothing guarantees it is acyclic.
const DefaultMaxDepth = 10

// IssueRef is the normalized projection the resolver operates on. Raw API
// shapes (GraphQL label connections, REST label arrays, optional type objects)
// are flattened into this at the client boundary.
type IssueRef struct {
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Type   string   `json:"type,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// Case is a governing issue other issues attach to as sub-issues.
type Case = IssueRef

// IsCase reports whether ref is itself a Case. The type field is the modern
// signal and always wins; a "case" label is the legacy fallback.
func IsCase(ref IssueRef) bool {
	if strings.EqualFold(ref.Type, "case") {
		return true
	}
	for _, label := range ref.Labels {
		if strings.EqualFold(label, "case") {
			return true
		}
	}
	return false
}

// ParentFetcher looks up the platform-native parent of an issue by its
// canonical URL. Absence (no parent, 404, no visibility) is (nil, nil).
type ParentFetcher interface {
	FetchParent(ctx context.Context, issueURL string) (*IssueRef, error)
}

type Resolver struct {
	fetch    ParentFetcher
	maxDepth int
}

func NewResolver(fetch ParentFetcher) *Resolver {
	return &Resolver{fetch: fetch, maxDepth: DefaultMaxDepth}
}

// NewResolverDepth builds a resolver with an explicit depth bound, for tests.
func NewResolverDepth(fetch ParentFetcher, maxDepth int) *Resolver {
	return &Resolver{fetch: fetch, maxDepth: maxDepth}
}

// Resolve walks the parent chain of issue until it finds a Case ancestor.
// An issue that is itself a Case resolves to itself without any network call.
// A cycle, an exhausted depth budget, a fetch error, or a missing parent all
// resolve to (nil, nil): an unattributable issue is not an error.
func (r *Resolver) Resolve(ctx context.Context, issue IssueRef) (*Case, error) {
	if IsCase(issue) {
		return &issue, nil
	}

	visited := map[string]bool{issue.URL: true}
	current := issue

	for depth := r.maxDepth; depth > 0; depth-- {
		if current.URL == "" {
			return nil, nil
		}
		parent, err := r.fetch.FetchParent(ctx, current.URL)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, nil
		}
		if IsCase(*parent) {
			c := *parent
			return &c, nil
		}
		if visited[parent.URL] {
			return nil, nil
		}
		visited[parent.URL] = true
		current = *parent
	}

	return nil, nil
}
