package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/teampulse/ghdigest/internal/activity"
)

const maxCommentLength = 500

var blankRuns = regexp.MustCompile(`\n\s*\n`)

// Renderer turns a Report into the human-oriented Markdown document. The JSON
// projection is the source of truth; this rendering truncates and substitutes
// display names.
type Renderer struct {
	// Names maps platform logins to display names; unknown logins pass
	// through unchanged.
	Names           map[string]string
	MaxCommitsShown int
}

func NewRenderer(names map[string]string, maxCommitsShown int) *Renderer {
	if maxCommitsShown <= 0 {
		maxCommitsShown = 10
	}
	return &Renderer{Names: names, MaxCommitsShown: maxCommitsShown}
}

func (r *Renderer) displayName(login string) string {
	if name, ok := r.Names[login]; ok {
		return name
	}
	return login
}

// Render produces the full Markdown report.
func (r *Renderer) Render(rep *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Project Status Report — %s\n\n", rep.Date)

	fmt.Fprintf(&b, "## Commits: %d\n", rep.TotalCommits())
	b.WriteString(r.commitsSection(rep))

	if prs := r.pullRequestsSection(rep.PullRequests); prs != "" {
		b.WriteString("\n---\n\n## Pull Requests\n\n")
		b.WriteString(prs)
	}

	if comments := r.recentCommentsSection(rep); comments != "" {
		b.WriteString("\n---\n\n## Recent Issue Comments\n\n")
		b.WriteString(comments)
	}

	if caseSections := r.caseSections(rep.Issues); caseSections != "" {
		b.WriteString("\n---\n\n")
		b.WriteString(caseSections)
	}

	if incidents := r.incidentsSection(rep.Incidents); incidents != "" {
		b.WriteString("\n---\n\n## Incidents\n\n")
		b.WriteString(incidents)
	}

	return b.String()
}

func (r *Renderer) commitsSection(rep *Report) string {
	if len(rep.CommitsByAuthor) == 0 {
		return "No commits found for the specified period.\n"
	}

	authors := make([]string, 0, len(rep.CommitsByAuthor))
	for author := range rep.CommitsByAuthor {
		authors = append(authors, author)
	}
	sort.Strings(authors)

	var lines []string
	for _, author := range authors {
		commits := rep.CommitsByAuthor[author]

		var repoNames []string
		seen := map[string]bool{}
		for _, c := range commits {
			if !seen[c.Repository] {
				seen[c.Repository] = true
				repoNames = append(repoNames, c.Repository)
			}
		}

		var links []string
		for i, c := range commits {
			if i >= r.MaxCommitsShown {
				links = append(links, "...")
				break
			}
			links = append(links, fmt.Sprintf("[%d](%s)", i+1, c.URL))
		}

		lines = append(lines, fmt.Sprintf("**%s:** %d %s (%s)",
			r.displayName(author), len(commits), strings.Join(repoNames, ", "), strings.Join(links, ", ")))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (r *Renderer) pullRequestsSection(prs []activity.PullRequest) string {
	var sections []string
	for _, pr := range prs {
		var b strings.Builder
		fmt.Fprintf(&b, "### [%s](%s)\n", pr.Title, pr.URL)

		switch {
		case pr.RecentlyCreated && len(pr.Comments) == 0:
			fmt.Fprintf(&b, "**%s:** Sent PR to review\n\n", r.displayName(pr.Author))
		case len(pr.Comments) > 0 || len(pr.ReviewComments) > 0:
			for _, c := range pr.Comments {
				fmt.Fprintf(&b, "**%s:**%s %s\n\n", r.displayName(c.Author), recentMarker(c), formatComment(c.Body))
			}
			for _, c := range pr.ReviewComments {
				state := ""
				if c.State != "" && c.State != "COMMENT" {
					state = fmt.Sprintf(" [%s]", c.State)
				}
				fmt.Fprintf(&b, "**%s:**%s%s %s\n\n", r.displayName(c.Author), state, recentMarker(c), formatComment(c.Body))
			}
		default:
			// Review requested but nothing said yet.
			if len(pr.Reviewers) > 0 {
				names := make([]string, len(pr.Reviewers))
				for i, login := range pr.Reviewers {
					names[i] = r.displayName(login)
				}
				fmt.Fprintf(&b, "Waiting for review: %s\n\n", strings.Join(names, ", "))
			} else {
				b.WriteString("Waiting for review\n\n")
			}
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "")
}

func (r *Renderer) recentCommentsSection(rep *Report) string {
	if len(rep.RecentComments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, c := range rep.RecentComments {
		fmt.Fprintf(&b, "### Issue: [%s](%s)\n", c.IssueTitle, c.IssueURL)
		if c.CaseTitle != "" && c.CaseURL != "" {
			fmt.Fprintf(&b, "**Case:** [%s](%s)\n", c.CaseTitle, c.CaseURL)
		} else {
			b.WriteString("**Case:** None\n")
		}
		fmt.Fprintf(&b, "**%s:** %s\n\n", r.displayName(c.Author), formatComment(c.Body))
	}
	return b.String()
}

// caseSections groups issues under their resolved Case. Issues with no Case
// appear only in the flat comment list, never here, and no issue appears
// twice under the same Case.
func (r *Renderer) caseSections(issues []activity.Issue) string {
	type caseGroup struct {
		header string
		issues []activity.Issue
	}
	var order []string
	groups := map[string]*caseGroup{}
	seen := map[string]bool{}

	for _, issue := range issues {
		if issue.Case == nil || len(issue.Comments) == 0 {
			continue
		}
		key := issue.Case.URL
		dedupKey := key + "#" + issue.URL
		if seen[dedupKey] {
			continue
		}
		seen[dedupKey] = true
		g, ok := groups[key]
		if !ok {
			g = &caseGroup{header: fmt.Sprintf("## Case: [%s](%s)", issue.Case.Title, issue.Case.URL)}
			groups[key] = g
			order = append(order, key)
		}
		g.issues = append(g.issues, issue)
	}

	var sections []string
	for _, key := range order {
		g := groups[key]
		var b strings.Builder
		b.WriteString(g.header + "\n\n")
		for _, issue := range g.issues {
			b.WriteString(r.issueHeading(issue))
			for _, c := range issue.Comments {
				fmt.Fprintf(&b, "**%s:** %s\n\n", r.displayName(c.Author), formatComment(c.Body))
			}
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "")
}

func (r *Renderer) issueHeading(issue activity.Issue) string {
	assignees := ""
	if len(issue.Assignees) > 0 {
		names := make([]string, len(issue.Assignees))
		for i, login := range issue.Assignees {
			names[i] = r.displayName(login)
		}
		assignees = fmt.Sprintf(" (%s)", strings.Join(names, ", "))
	}
	return fmt.Sprintf("### [%s](%s)%s\n", issue.Title, issue.URL, assignees)
}

func (r *Renderer) incidentsSection(incidents []activity.Issue) string {
	if len(incidents) == 0 {
		return ""
	}
	var b strings.Builder
	for _, incident := range incidents {
		b.WriteString(r.issueHeading(incident))
		if len(incident.Comments) == 0 {
			fmt.Fprintf(&b, "Updated %s\n\n", incident.UpdatedAt.Format("2006-01-02 15:04"))
			continue
		}
		for _, c := range incident.Comments {
			fmt.Fprintf(&b, "**%s:** %s\n\n", r.displayName(c.Author), formatComment(c.Body))
		}
	}
	return b.String()
}

func recentMarker(c activity.Comment) string {
	if c.IsRecent {
		return " 🆕"
	}
	return ""
}

// formatComment collapses runs of blank lines and truncates long bodies.
// Truncation only happens here: the JSON projection keeps full bodies.
func formatComment(body string) string {
	comment := blankRuns.ReplaceAllString(strings.TrimSpace(body), "\n\n")
	if runes := []rune(comment); len(runes) > maxCommentLength {
		comment = string(runes[:maxCommentLength]) + "..."
	}
	return comment
}
