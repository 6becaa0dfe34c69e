package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	textcases "golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExcelExporter writes a summary workbook: a dashboard sheet with per-author
// and per-repository counts, plus one commit sheet per repository.
type ExcelExporter struct {
	OutputDir string
	Prefix    string
}

func NewExcelExporter(outputDir, prefix string) *ExcelExporter {
	return &ExcelExporter{OutputDir: outputDir, Prefix: prefix}
}

var titleCaser = textcases.Title(language.English)

func (e *ExcelExporter) Export(rep *Report) (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(e.OutputDir, fmt.Sprintf("%s_summary_%s.xlsx", e.Prefix, timestamp))

	f := excelize.NewFile()
	defer f.Close()

	if err := e.createDashboardSheet(f, rep); err != nil {
		return "", fmt.Errorf("failed to create dashboard: %w", err)
	}

	var repos []string
	seen := map[string]bool{}
	for _, commits := range rep.CommitsByAuthor {
		for _, c := range commits {
			if !seen[c.Repository] {
				seen[c.Repository] = true
				repos = append(repos, c.Repository)
			}
		}
	}
	sort.Strings(repos)

	for _, repo := range repos {
		if err := e.createRepoSheet(f, rep, repo); err != nil {
			return "", fmt.Errorf("failed to create sheet for %s: %w", repo, err)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", err
	}

	if err := f.SaveAs(filename); err != nil {
		return "", fmt.Errorf("failed to save excel file: %w", err)
	}
	return filename, nil
}

func (e *ExcelExporter) createDashboardSheet(f *excelize.File, rep *Report) error {
	const sheet = "Dashboard"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	rows := [][]any{
		{titleCaser.String("generated at"), rep.GeneratedAt.Format("2006-01-02 15:04:05")},
		{titleCaser.String("total commits"), rep.TotalCommits()},
		{titleCaser.String("pull requests"), len(rep.PullRequests)},
		{titleCaser.String("recent comments"), len(rep.RecentComments)},
		{titleCaser.String("incidents"), len(rep.Incidents)},
		{},
		{titleCaser.String("author"), titleCaser.String("commits")},
	}

	authors := make([]string, 0, len(rep.CommitsByAuthor))
	for author := range rep.CommitsByAuthor {
		authors = append(authors, author)
	}
	sort.Strings(authors)
	for _, author := range authors {
		rows = append(rows, []any{author, len(rep.CommitsByAuthor[author])})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (e *ExcelExporter) createRepoSheet(f *excelize.File, rep *Report, repo string) error {
	sheet := sanitizeSheetName(repo)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []any{
		titleCaser.String("sha"),
		titleCaser.String("author"),
		titleCaser.String("date"),
		titleCaser.String("branch"),
		titleCaser.String("message"),
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	for _, author := range sortedAuthors(rep) {
		for _, c := range rep.CommitsByAuthor[author] {
			if c.Repository != repo {
				continue
			}
			sha := c.SHA
			if len(sha) > 8 {
				sha = sha[:8]
			}
			message, _, _ := strings.Cut(c.Message, "\n")
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []any{sha, c.Author, c.Date.Format("2006-01-02 15:04"), c.Branch, message}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func sortedAuthors(rep *Report) []string {
	authors := make([]string, 0, len(rep.CommitsByAuthor))
	for author := range rep.CommitsByAuthor {
		authors = append(authors, author)
	}
	sort.Strings(authors)
	return authors
}

// sanitizeSheetName keeps Excel happy: 31 chars max, no special characters.
func sanitizeSheetName(name string) string {
	replacer := strings.NewReplacer("\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")", ":", "-")
	cleaned := replacer.Replace(name)
	if len(cleaned) > 31 {
		cleaned = cleaned[:31]
	}
	if cleaned == "" {
		cleaned = "Sheet"
	}
	return cleaned
}
