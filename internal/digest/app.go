package digest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/teampulse/ghdigest/internal/activity"
	"github.com/teampulse/ghdigest/internal/cases"
	"github.com/teampulse/ghdigest/internal/config"
	"github.com/teampulse/ghdigest/internal/github"
	"github.com/teampulse/ghdigest/internal/notify"
	"github.com/teampulse/ghdigest/internal/report"
	"github.com/teampulse/ghdigest/internal/timewindow"
)

// Application wires the collection pipeline together for one run.
type Application struct {
	Config     *config.Config
	Log        zerolog.Logger
	Aggregator *activity.Aggregator
	Assembler  *report.Assembler
	Renderer   *report.Renderer
	Exporter   *report.Exporter
	Excel      *report.ExcelExporter
	Telegram   *notify.Telegram
	Zulip      *notify.Zulip
}

func New(cfg *config.Config, log zerolog.Logger) *Application {
	client := github.NewClient(cfg.GitHub.Token, cfg.GitHub.OwnerLogin(), cfg.GitHub.Org != "", log)

	agg := activity.NewAggregator(client, log)
	agg.Org = cfg.GitHub.Org != ""
	agg.Repositories = cfg.GitHub.Repositories
	agg.ProjectNumber = cfg.GitHub.ProjectNumber
	agg.IncidentProjectNumber = cfg.GitHub.IncidentProjectNumber
	agg.Columns = cfg.GitHub.Columns

	resolver := cases.NewResolver(client)

	return &Application{
		Config:     cfg,
		Log:        log,
		Aggregator: agg,
		Assembler:  report.NewAssembler(resolver, log),
		Renderer:   report.NewRenderer(cfg.Report.UsernameMap, cfg.Report.MaxCommitsShown),
		Exporter:   report.NewExporter(cfg.Report.OutputDir, cfg.Report.FilenamePrefix),
		Excel:      report.NewExcelExporter(cfg.Report.OutputDir, cfg.Report.FilenamePrefix),
		Telegram:   notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log),
		Zulip:      notify.NewZulip(cfg.Zulip.Site, cfg.Zulip.Email, cfg.Zulip.APIKey, cfg.Zulip.Stream, cfg.Zulip.Topic, log),
	}
}

// RunOptions carry the per-invocation switches resolved from flags.
type RunOptions struct {
	Window timewindow.Window
	// Date labels the report heading, already formatted for display.
	Date string

	DryRun       bool
	Excel        bool
	SendTelegram bool
	SendZulip    bool
}

// Run executes one collection-to-delivery cycle. Collection and export errors
// are fatal; notification failures are logged and the run still succeeds.
func (app *Application) Run(ctx context.Context, opts RunOptions) error {
	app.Log.Info().Str("date", opts.Date).Msg("collecting activity")

	commits, err := app.Aggregator.CollectCommits(ctx, opts.Window)
	if err != nil {
		return fmt.Errorf("collecting commits: %w", err)
	}
	prs, err := app.Aggregator.CollectPullRequests(ctx, opts.Window)
	if err != nil {
		return fmt.Errorf("collecting pull requests: %w", err)
	}
	issues, err := app.Aggregator.CollectIssues(ctx, opts.Window)
	if err != nil {
		return fmt.Errorf("collecting issues: %w", err)
	}
	incidents, err := app.Aggregator.CollectIncidents(ctx, opts.Window)
	if err != nil {
		return fmt.Errorf("collecting incidents: %w", err)
	}

	rep := app.Assembler.Assemble(ctx, commits, prs, issues, incidents, opts.Date)
	app.Log.Info().
		Int("commits", rep.TotalCommits()).
		Int("pull_requests", len(rep.PullRequests)).
		Int("issues", len(rep.Issues)).
		Int("incidents", len(rep.Incidents)).
		Msg("report assembled")

	markdown := app.Renderer.Render(rep)

	if opts.DryRun {
		fmt.Print(markdown)
		return nil
	}

	jsonPath, err := app.Exporter.ExportJSON(rep)
	if err != nil {
		return fmt.Errorf("exporting JSON: %w", err)
	}
	app.Log.Info().Str("file", jsonPath).Msg("report exported")

	mdPath, err := app.Exporter.ExportMarkdown(markdown)
	if err != nil {
		return fmt.Errorf("exporting Markdown: %w", err)
	}
	app.Log.Info().Str("file", mdPath).Msg("report exported")

	if opts.Excel {
		xlsxPath, err := app.Excel.Export(rep)
		if err != nil {
			return fmt.Errorf("exporting Excel summary: %w", err)
		}
		app.Log.Info().Str("file", xlsxPath).Msg("summary exported")
	}

	if opts.SendTelegram || app.Config.Telegram.Enabled() {
		if err := app.Telegram.SendMessage(ctx, markdown); err != nil {
			app.Log.Error().Err(err).Msg("telegram delivery failed")
		} else {
			app.Log.Info().Msg("report sent to telegram")
		}
		if app.Telegram.Truncated(markdown) {
			if err := app.Telegram.SendDocument(ctx, mdPath, "Full report "+opts.Date); err != nil {
				app.Log.Error().Err(err).Msg("telegram document upload failed")
			}
		}
	}

	if opts.SendZulip || app.Config.Zulip.Enabled() {
		if err := app.Zulip.PostMessage(ctx, markdown); err != nil {
			app.Log.Error().Err(err).Msg("zulip delivery failed")
		} else {
			app.Log.Info().Msg("report sent to zulip")
		}
	}

	return nil
}
