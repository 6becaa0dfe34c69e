package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teampulse/ghdigest/internal/config"
	"github.com/teampulse/ghdigest/internal/digest"
	"github.com/teampulse/ghdigest/internal/logger"
	"github.com/teampulse/ghdigest/internal/timewindow"
)

var (
	daysBack     int
	startTime    string
	endTime      string
	outputDir    string
	sendTelegram bool
	sendZulip    bool
	excelSummary bool
	dryRun       bool
)

var rootCmd = &cobra.Command{
	Use:   "ghdigest",
	Short: "Generate a team activity digest from GitHub",
	Long: `ghdigest collects commits, pull requests, issue discussions and incidents
from GitHub, attributes issues to their governing Cases, and delivers the
report as Markdown and JSON with optional Telegram and Zulip delivery.`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntVarP(&daysBack, "days", "d", 0, "Days to look back (0 = auto: 3 on Mondays, else 1)")
	rootCmd.Flags().StringVar(&startTime, "start-time", "", "Window start, \"YYYY-MM-DD HH:MM\" in the report timezone")
	rootCmd.Flags().StringVar(&endTime, "end-time", "", "Window end, \"YYYY-MM-DD HH:MM\" in the report timezone")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (overrides OUTPUT_DIR)")
	rootCmd.Flags().BoolVar(&sendTelegram, "telegram", false, "Send the report to Telegram")
	rootCmd.Flags().BoolVar(&sendZulip, "zulip", false, "Send the report to Zulip")
	rootCmd.Flags().BoolVar(&excelSummary, "excel", false, "Also write the Excel summary workbook")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the Markdown report and write nothing")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.Report.OutputDir = outputDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(cfg.AppEnv)

	loc, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		return fmt.Errorf("invalid REPORT_TZ %q: %w", cfg.Report.Timezone, err)
	}

	opts, err := resolveWindow(time.Now(), loc, cfg.Report.DaysBack)
	if err != nil {
		return err
	}
	opts.DryRun = dryRun
	opts.Excel = excelSummary
	opts.SendTelegram = sendTelegram
	opts.SendZulip = sendZulip

	if !dryRun {
		bar := newSpinner("Collecting activity")
		defer finishBar(bar)
	}

	app := digest.New(cfg, log)
	return app.Run(context.Background(), opts)
}

// resolveWindow turns the flag combination into a time window. --days and the
// exact range are mutually exclusive; the exact range needs both endpoints.
func resolveWindow(now time.Time, loc *time.Location, defaultDays int) (digest.RunOptions, error) {
	var opts digest.RunOptions

	exact := startTime != "" || endTime != ""
	if exact && daysBack != 0 {
		return opts, fmt.Errorf("--days cannot be combined with --start-time/--end-time")
	}

	if exact {
		if startTime == "" || endTime == "" {
			return opts, fmt.Errorf("--start-time and --end-time must both be set")
		}
		start, err := time.ParseInLocation("2006-01-02 15:04", startTime, loc)
		if err != nil {
			return opts, fmt.Errorf("invalid --start-time: %w", err)
		}
		end, err := time.ParseInLocation("2006-01-02 15:04", endTime, loc)
		if err != nil {
			return opts, fmt.Errorf("invalid --end-time: %w", err)
		}
		if end.Before(start) {
			return opts, fmt.Errorf("--end-time is before --start-time")
		}
		opts.Window = timewindow.Exact(start, end)
		opts.Date = fmt.Sprintf("%s — %s", start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
		return opts, nil
	}

	days := daysBack
	if days == 0 {
		days = autoDays(now.In(loc), defaultDays)
	}
	opts.Window = timewindow.Rolling(now, days)
	opts.Date = now.In(loc).Format("2006-01-02")
	return opts, nil
}

// autoDays covers the weekend: a Monday run reports Friday through Sunday.
func autoDays(localNow time.Time, configured int) int {
	if configured > 1 {
		return configured
	}
	if localNow.Weekday() == time.Monday {
		return 3
	}
	return 1
}
