package cases

import (
	"context"
	"errors"
	"testing"
)

type fakeFetcher struct {
	parents map[string]*IssueRef
	err     error
	calls   int
}

func (f *fakeFetcher) FetchParent(_ context.Context, issueURL string) (*IssueRef, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.parents[issueURL], nil
}

func TestIsCase(t *testing.T) {
	tests := []struct {
		name string
		ref  IssueRef
		want bool
	}{
		{"type field", IssueRef{Type: "Case"}, true},
		{"type field lowercase", IssueRef{Type: "case"}, true},
		{"label fallback", IssueRef{Labels: []string{"bug", "CASE"}}, true},
		{"neither", IssueRef{Type: "Task", Labels: []string{"bug"}}, false},
		{"empty", IssueRef{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCase(tt.ref); got != tt.want {
				t.Errorf("IsCase(%+v) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolveReflexive(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := NewResolver(fetcher)

	issue := IssueRef{Title: "Auth Overhaul", URL: "https://x/cases/1", Type: "Case"}
	got, err := r.Resolve(context.Background(), issue)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Title != "Auth Overhaul" || got.URL != "https://x/cases/1" {
		t.Errorf("Resolve of a Case should return the issue itself, got %+v", got)
	}
	if fetcher.calls != 0 {
		t.Errorf("resolving an issue that is already a Case made %d network calls, want 0", fetcher.calls)
	}
}

func TestResolveWalksToAncestor(t *testing.T) {
	fetcher := &fakeFetcher{parents: map[string]*IssueRef{
		"https://github.com/o/r/issues/3": {Title: "mid", URL: "https://github.com/o/r/issues/2"},
		"https://github.com/o/r/issues/2": {Title: "Auth Overhaul", URL: "https://github.com/o/r/issues/1", Labels: []string{"case"}},
	}}
	r := NewResolver(fetcher)

	got, err := r.Resolve(context.Background(), IssueRef{Title: "leaf", URL: "https://github.com/o/r/issues/3"})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Title != "Auth Overhaul" {
		t.Fatalf("Resolve = %+v, want the labeled grandparent", got)
	}
}

func TestResolveNoParent(t *testing.T) {
	r := NewResolver(&fakeFetcher{})
	got, err := r.Resolve(context.Background(), IssueRef{URL: "https://github.com/o/r/issues/9"})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Resolve with no parent = %+v, want nil", got)
	}
}

func TestResolveCycleTerminates(t *testing.T) {
	// A 3-cycle with no Case anywhere must resolve to nil, not loop.
	fetcher := &fakeFetcher{parents: map[string]*IssueRef{
		"https://github.com/o/r/issues/1": {URL: "https://github.com/o/r/issues/2"},
		"https://github.com/o/r/issues/2": {URL: "https://github.com/o/r/issues/3"},
		"https://github.com/o/r/issues/3": {URL: "https://github.com/o/r/issues/1"},
	}}
	r := NewResolver(fetcher)

	got, err := r.Resolve(context.Background(), IssueRef{URL: "https://github.com/o/r/issues/1"})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Resolve over a cycle = %+v, want nil", got)
	}
	if fetcher.calls > DefaultMaxDepth {
		t.Errorf("cycle traversal made %d fetches, depth bound is %d", fetcher.calls, DefaultMaxDepth)
	}
}

func TestResolveDepthBound(t *testing.T) {
	// Chain longer than the budget, Case only at the far end.
	parents := map[string]*IssueRef{}
	for i := 1; i <= 5; i++ {
		parents[urlFor(i)] = &IssueRef{URL: urlFor(i + 1)}
	}
	parents[urlFor(6)] = &IssueRef{Title: "deep", URL: urlFor(7), Type: "case"}

	r := NewResolverDepth(&fakeFetcher{parents: parents}, 3)
	got, err := r.Resolve(context.Background(), IssueRef{URL: urlFor(1)})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Resolve beyond depth budget = %+v, want nil", got)
	}
}

func TestResolveFetchError(t *testing.T) {
	wantErr := errors.New("boom")
	r := NewResolver(&fakeFetcher{err: wantErr})
	_, err := r.Resolve(context.Background(), IssueRef{URL: "https://github.com/o/r/issues/1"})
	if !errors.Is(err, wantErr) {
		t.Errorf("Resolve error = %v, want %v", err, wantErr)
	}
}

func urlFor(n int) string {
	return "https://github.com/o/r/issues/" + string(rune('0'+n))
}
