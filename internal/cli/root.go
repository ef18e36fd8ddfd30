// internal/cli/root.go
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/crawlmd/internal/app"
	"github.com/law-makers/crawlmd/internal/config"
	"github.com/law-makers/crawlmd/internal/crawler"
	"github.com/law-makers/crawlmd/internal/export"
	"github.com/law-makers/crawlmd/internal/ui"
	"github.com/law-makers/crawlmd/pkg/models"
)

// Version is the crawlmd release
const Version = "0.1.0"

// NewRootCmd builds the crawlmd command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawlmd <URL>",
		Short: "Crawl a website and save every page as Markdown",
		Long: `crawlmd crawls a site breadth-first from the given URL, following only links
below it, and converts each page to GitHub-flavoured Markdown.

Pages are written to <output>/crawl_<id>/ and packed into <output>/crawl_<id>.zip.
Static pages are fetched over HTTP; JavaScript applications are rendered in
headless Chrome when one is installed.`,
		Example: `  # Crawl up to 10 pages of the docs
  crawlmd https://docs.example.com

  # Crawl 50 pages into ./dump and keep only the zip
  crawlmd https://docs.example.com -l 50 -o dump --clean

  # Force browser rendering for a single page app
  crawlmd https://app.example.com --mode spa`,
		Version:       Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawl,
	}

	config.RegisterFlags(cmd)
	config.RegisterCrawlFlags(cmd)

	cmd.Flags().BoolP("help", "h", false, "Help for crawlmd")
	cmd.Flags().Bool("version", false, "Version for crawlmd")
	cmd.CompletionOptions.DisableDefaultCmd = true

	// Application is created lazily so -h and --version never start anything
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		if cfg.JSONLog {
			ui.Enabled = false
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return closeApp(cmd)
	}

	cmd.SetHelpFunc(customHelpFunc)
	cmd.SetUsageFunc(customUsageFunc)
	return cmd
}

// Execute runs the root command with ctx and returns the first error.
// Interrupting ctx aborts the crawl.
func Execute(ctx context.Context) error {
	cmd := NewRootCmd()
	err := cmd.ExecuteContext(ctx)

	// PostRun is skipped when RunE fails
	if cerr := closeApp(cmd); err == nil {
		err = cerr
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("Error:"), err)
	}
	return err
}

func closeApp(cmd *cobra.Command) error {
	a := GetApp(cmd)
	if a == nil {
		return nil
	}
	SetApp(cmd, nil)

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.HTTPTimeout)
	defer cancel()
	return a.Close(ctx)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	cfg := a.Config

	// Reject bad input before anything is written
	target, err := crawler.Normalize(args[0])
	if err != nil {
		return err
	}

	req := models.CrawlRequest{
		URL:       target,
		Limit:     cfg.Limit,
		OutputDir: cfg.OutputDir,
	}

	var progress *progressReporter
	var progressFn crawler.ProgressFunc
	if !cfg.NoProgress && !cfg.JSONLog && cfg.LogLevel != "debug" {
		progress = newProgressReporter(cmd.ErrOrStderr(), cfg.Limit)
		progressFn = progress.Func()
	}

	log.Debug().
		Str("url", req.URL).
		Int("limit", req.Limit).
		Str("output", req.OutputDir).
		Str("mode", cfg.Mode).
		Msg("Crawl requested")

	summary, err := a.Pipeline(a.Crawler(progressFn)).Run(cmd.Context(), req)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	return printSummary(cmd, cfg, summary)
}

func printSummary(cmd *cobra.Command, cfg *config.Config, s *export.Summary) error {
	w := cmd.OutOrStdout()

	if cfg.JSONLog {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	if cfg.LogLevel == "error" {
		fmt.Fprintln(w, s.Archive)
		return nil
	}

	fmt.Fprintf(w, "%s Crawled %d page(s)\n", ui.Success("✓"), s.Pages)
	if s.Dir != "" {
		fmt.Fprintf(w, "  Markdown: %s\n", ui.Path(s.Dir))
	}
	fmt.Fprintf(w, "  Archive:  %s\n", ui.Path(s.Archive))
	fmt.Fprintf(w, "  Job:      %s\n", ui.Bold(s.JobID))
	if s.Pages == 0 {
		fmt.Fprintf(w, "  %s\n", ui.Info("No pages could be converted; the archive is empty."))
	}
	return nil
}
