package report

import (
	"strings"
	"testing"
	"time"

	"github.com/teampulse/ghdigest/internal/activity"
	"github.com/teampulse/ghdigest/internal/cases"
	"github.com/teampulse/ghdigest/internal/github"
)

func TestRenderCaseSection(t *testing.T) {
	r := NewRenderer(map[string]string{"zotho": "Svyatoslav"}, 10)
	rep := &Report{
		Date: "2024-06-10",
		Issues: []activity.Issue{
			{
				Issue: github.Issue{Title: "Login fails", URL: "https://x/issues/2"},
				Comments: []activity.Comment{
					{Comment: github.Comment{Author: "zotho", Body: "Fixed the token refresh"}},
				},
				Case: &cases.Case{Title: "Auth Overhaul", URL: "https://x/cases/1"},
			},
		},
	}

	out := r.Render(rep)

	for _, want := range []string{
		"## Case: [Auth Overhaul](https://x/cases/1)",
		"### [Login fails](https://x/issues/2)",
		"**Svyatoslav:** Fixed the token refresh",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCaselessIssueExcludedFromCaseSections(t *testing.T) {
	r := NewRenderer(nil, 10)
	issues := []activity.Issue{
		{
			Issue: github.Issue{Title: "Orphan", URL: "https://x/issues/9"},
			Comments: []activity.Comment{
				{Comment: github.Comment{Author: "dev", Body: "some note"}},
			},
		},
	}
	if got := r.caseSections(issues); got != "" {
		t.Errorf("expected no case sections for caseless issue, got:\n%s", got)
	}
}

func TestRenderIssueNotDuplicatedWithinCase(t *testing.T) {
	r := NewRenderer(nil, 10)
	issue := activity.Issue{
		Issue: github.Issue{Title: "Dup", URL: "https://x/issues/5"},
		Comments: []activity.Comment{
			{Comment: github.Comment{Author: "dev", Body: "hello"}},
		},
		Case: &cases.Case{Title: "Parent", URL: "https://x/cases/3"},
	}
	out := r.caseSections([]activity.Issue{issue, issue})
	if n := strings.Count(out, "### [Dup](https://x/issues/5)"); n != 1 {
		t.Errorf("issue rendered %d times under its case, want 1:\n%s", n, out)
	}
}

func TestFormatCommentTruncation(t *testing.T) {
	long := strings.Repeat("a", 600)
	got := formatComment(long)
	if want := strings.Repeat("a", 500) + "..."; got != want {
		t.Errorf("truncated comment is %d chars with suffix %q", len(got), got[len(got)-5:])
	}

	short := strings.Repeat("b", 500)
	if got := formatComment(short); got != short {
		t.Errorf("500-char comment should pass through unchanged")
	}
}

func TestFormatCommentMultibyteTruncation(t *testing.T) {
	long := strings.Repeat("я", 600)
	got := formatComment(long)
	if want := strings.Repeat("я", 500) + "..."; got != want {
		t.Errorf("multibyte truncation produced %d runes", len([]rune(got)))
	}
}

func TestFormatCommentCollapsesBlankRuns(t *testing.T) {
	got := formatComment("first\n\n\n\nsecond")
	if got != "first\n\nsecond" {
		t.Errorf("got %q", got)
	}
}

func TestRenderSentPRToReview(t *testing.T) {
	r := NewRenderer(map[string]string{"zotho": "Svyatoslav"}, 10)
	out := r.pullRequestsSection([]activity.PullRequest{
		{
			Title:           "Add retry logic",
			URL:             "https://x/pull/7",
			Author:          "zotho",
			RecentlyCreated: true,
		},
	})
	if !strings.Contains(out, "### [Add retry logic](https://x/pull/7)") {
		t.Errorf("missing PR heading:\n%s", out)
	}
	if !strings.Contains(out, "**Svyatoslav:** Sent PR to review") {
		t.Errorf("missing sent-to-review line:\n%s", out)
	}
}

func TestRenderPRCommentMarkers(t *testing.T) {
	r := NewRenderer(nil, 10)
	out := r.pullRequestsSection([]activity.PullRequest{
		{
			Title: "Refactor",
			URL:   "https://x/pull/8",
			Comments: []activity.Comment{
				{Comment: github.Comment{Author: "alice", Body: "old remark"}},
				{Comment: github.Comment{Author: "bob", Body: "fresh remark"}, IsRecent: true},
			},
			ReviewComments: []activity.Comment{
				{Comment: github.Comment{Author: "carol", Body: "ship it", State: "APPROVED"}, IsRecent: true},
			},
		},
	})
	if !strings.Contains(out, "**alice:** old remark") {
		t.Errorf("stale comment should render without marker:\n%s", out)
	}
	if !strings.Contains(out, "**bob:** 🆕 fresh remark") {
		t.Errorf("recent comment should carry marker:\n%s", out)
	}
	if !strings.Contains(out, "**carol:** [APPROVED] 🆕 ship it") {
		t.Errorf("review state should render:\n%s", out)
	}
}

func TestRenderCommitsSection(t *testing.T) {
	r := NewRenderer(map[string]string{"dev1": "Dana"}, 2)
	rep := &Report{
		CommitsByAuthor: map[string][]github.Commit{
			"dev1": {
				{SHA: "a", URL: "https://x/c/1", Repository: "api", Date: time.Now()},
				{SHA: "b", URL: "https://x/c/2", Repository: "api", Date: time.Now()},
				{SHA: "c", URL: "https://x/c/3", Repository: "web", Date: time.Now()},
			},
		},
	}
	out := r.commitsSection(rep)
	if !strings.Contains(out, "**Dana:** 3 api, web ([1](https://x/c/1), [2](https://x/c/2), ...)") {
		t.Errorf("unexpected commits line:\n%s", out)
	}
}

func TestRenderEmptyCommits(t *testing.T) {
	r := NewRenderer(nil, 10)
	out := r.Render(&Report{Date: "2024-06-10"})
	if !strings.Contains(out, "## Commits: 0") {
		t.Errorf("missing commit count:\n%s", out)
	}
	if !strings.Contains(out, "No commits found for the specified period.") {
		t.Errorf("missing empty-commits notice:\n%s", out)
	}
}

func TestRenderRecentCommentsCaseLink(t *testing.T) {
	r := NewRenderer(nil, 10)
	rep := &Report{
		RecentComments: []CommentEntry{
			{IssueTitle: "Bug", IssueURL: "https://x/issues/1", CaseTitle: "Epic", CaseURL: "https://x/cases/2", Author: "dev", Body: "done"},
			{IssueTitle: "Other", IssueURL: "https://x/issues/3", Author: "dev", Body: "wip"},
		},
	}
	out := r.recentCommentsSection(rep)
	if !strings.Contains(out, "**Case:** [Epic](https://x/cases/2)") {
		t.Errorf("missing case link:\n%s", out)
	}
	if !strings.Contains(out, "**Case:** None") {
		t.Errorf("missing case-less marker:\n%s", out)
	}
}
