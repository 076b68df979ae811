package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/sitemirror/internal/config"
	"github.com/nao1215/sitemirror/internal/crawler"
	"github.com/nao1215/sitemirror/internal/database"
	"github.com/nao1215/sitemirror/internal/httpclient"
	"github.com/nao1215/sitemirror/internal/model"
	"github.com/nao1215/sitemirror/internal/pathmap"
	"github.com/nao1215/sitemirror/internal/report"
	"github.com/nao1215/sitemirror/internal/robots"
	"github.com/nao1215/sitemirror/internal/scope"
	"github.com/spf13/cobra"
)

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror <start_url> <out_dir>",
		Short: "Mirror a website's pages and assets to disk",
		Long: `Mirror crawls a website starting at start_url and saves every page and
asset on the same origin under out_dir.

Saved files are laid out as out_dir/<host>/<path>. Directory URLs are saved
as index.html, URLs with a query string get a short hash in their file
name, and HTML without an extension gets ".html". Links inside saved pages
are not rewritten.

Pressing Ctrl-C stops the crawl. Files already saved are kept and the
summary is printed.

Examples:
  # Mirror a site with the defaults (8 workers, 0.2s delay per worker)
  sitemirror mirror https://example.com/ ./mirror

  # Include subdomains and stop after 200 pages
  sitemirror mirror --include-subdomains --max-pages 200 https://example.com/ ./mirror

  # Slow down and route through a local SOCKS5 proxy
  sitemirror mirror --delay 1.5 --workers 2 --proxy 127.0.0.1:9050 https://example.com/ ./mirror

  # Print a Markdown summary to a file
  sitemirror mirror --markdown -o report.md https://example.com/ ./mirror

Configuration file (.sitemirror) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      ignorePatterns:
        - "/logout"`,
		Args: cobra.ExactArgs(2),
		RunE: runMirrorCmd,
	}

	// Scope flags
	cmd.Flags().Bool("include-subdomains", false,
		"Also crawl subdomains of the start host")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of HTML pages to enqueue (0 = unlimited, assets are not counted)")

	// Politeness flags
	cmd.Flags().StringP("delay", "d", config.DefaultDelay.String(),
		"Pause each worker takes before every request (seconds or duration, e.g. 0.5 or 500ms)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent download workers")
	cmd.Flags().Bool("ignore-robots", false,
		"Do not fetch or apply robots.txt")

	// HTTP flags
	cmd.Flags().StringP("timeout", "t", config.DefaultTimeout.String(),
		"Timeout for each request (seconds or duration)")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum bytes read from one response; larger bodies are truncated")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (e.g. 127.0.0.1:9050)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitemirror in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the history database")

	return cmd
}

// runMirrorCmd executes the mirror command.
func runMirrorCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, getBoolFlag(cmd, "log-json"))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, finishing in-flight requests...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runMirror(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if len(args) > 0 {
		cfg.StartURL = args[0]
	}
	if len(args) > 1 {
		cfg.OutDir = args[1]
	}

	var err error

	cfg.IncludeSubdomains, err = cmd.Flags().GetBool("include-subdomains")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = durationFlag(cmd, "delay")
	if err != nil {
		return nil, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.IgnoreRobots, err = cmd.Flags().GetBool("ignore-robots")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = durationFlag(cmd, "timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit --config must exist; the default lookup may find nothing.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// durationFlag parses a seconds-or-duration string flag.
func durationFlag(cmd *cobra.Command, name string) (time.Duration, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return 0, err
	}
	d, err := config.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

// runMirror executes one mirror run and prints its summary to out.
// An interrupted run is not an error.
func runMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	sc, err := scope.New(cfg.StartURL, cfg.IncludeSubdomains)
	if err != nil {
		return fmt.Errorf("invalid start URL %q: %w", cfg.StartURL, err)
	}

	site := cfg.SiteConfig(sc.Host)
	userAgent := cfg.UserAgent
	if site.UserAgent != "" {
		userAgent = site.UserAgent
	}
	maxPages := cfg.MaxPages
	if site.MaxPages > 0 {
		maxPages = site.MaxPages
	}

	clientOpts := []httpclient.Option{
		httpclient.WithMaxRedirects(cfg.MaxRedirects),
		httpclient.WithMaxIdleConnsPerHost(cfg.Workers),
	}
	if cfg.ProxyAddress != "" {
		if err := httpclient.CheckProxy(ctx, cfg.ProxyAddress); err != nil {
			return fmt.Errorf("proxy check failed: %w", err)
		}
		logger.Info("SOCKS5 proxy verified", "address", cfg.ProxyAddress)
		clientOpts = append(clientOpts, httpclient.WithProxy(cfg.ProxyAddress))
	}

	client, err := httpclient.New(cfg.Timeout, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	var policy *robots.Policy
	if !cfg.IgnoreRobots {
		policy, err = robots.Load(ctx, client, sc.Origin(), userAgent)
		if err != nil {
			logger.Warn("robots.txt unavailable, allowing all", "origin", sc.Origin(), "error", err)
		}
	}
	gate := robots.NewGate(policy, userAgent, cfg.IgnoreRobots)

	crawlDelay := gate.CrawlDelay()
	if crawlDelay > 0 {
		logger.Info("using robots.txt crawl-delay", "delay", crawlDelay)
	}

	outDir, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		outDir = cfg.OutDir
	}
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fetcher := crawler.NewFetcher(client,
		crawler.WithUserAgent(userAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithHeaders(site.Headers),
		crawler.WithCookie(site.Cookie),
		crawler.WithFetcherLogger(logger),
	)
	saver := crawler.NewSaver(pathmap.New(outDir))

	banner := model.NewMirrorReport(scope.Normalize(cfg.StartURL), outDir)
	banner.Scope = sc.String()
	banner.RobotsRespected = gate.Respected()
	banner.RobotsLoaded = gate.Loaded()

	summary := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	if _, err := summary.WriteBanner(banner); err != nil {
		return fmt.Errorf("failed to write banner: %w", err)
	}

	spiderOpts := []crawler.SpiderOption{
		crawler.WithWorkers(cfg.Workers),
		crawler.WithDelay(cfg.Delay),
		crawler.WithCrawlDelay(crawlDelay),
		crawler.WithMaxPages(maxPages),
		crawler.WithRobots(gate),
		crawler.WithIgnorePatterns(site.IgnorePatterns),
		crawler.WithFollowPatterns(site.FollowPatterns),
		crawler.WithLogger(logger),
	}

	history, runID := openHistory(ctx, cfg, banner, logger)
	if history != nil {
		defer history.Close()
		dbCtx := context.WithoutCancel(ctx)
		spiderOpts = append(spiderOpts, crawler.WithObserver(func(res model.Resource) {
			if err := history.RecordResource(dbCtx, runID, res); err != nil {
				logger.Debug("failed to record resource", "url", res.URL, "error", err)
			}
		}))
	}

	spider := crawler.NewSpider(sc, fetcher, saver, spiderOpts...)
	mirrorReport, err := spider.Crawl(ctx, cfg.StartURL)
	if err != nil {
		return fmt.Errorf("mirror failed: %w", err)
	}

	if history != nil {
		if err := history.FinishRun(context.WithoutCancel(ctx), runID, mirrorReport); err != nil {
			logger.Warn("failed to save run history", "error", err)
		}
	}

	if _, err := summary.Write(mirrorReport); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if err := outputReport(cfg, mirrorReport, out); err != nil {
		logger.Error("report failed", "error", err)
	}

	return nil
}

// openHistory opens the history database and begins a run. Any failure
// is logged and yields a nil database so the mirror still proceeds.
func openHistory(ctx context.Context, cfg *config.Config, banner *model.MirrorReport, logger *slog.Logger) (*database.HistoryDB, int64) {
	if !cfg.SaveToDB {
		return nil, 0
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("history disabled: failed to open database", "dir", cfg.DBDir, "error", err)
		return nil, 0
	}

	runID, err := db.BeginRun(ctx, banner)
	if err != nil {
		logger.Warn("history disabled: failed to begin run", "error", err)
		_ = db.Close()
		return nil, 0
	}

	logger.Debug("recording run history", "db", db.Path(), "run", runID)
	return db, runID
}

// outputReport writes the JSON or Markdown report when one was requested.
// Without --output the report goes to out after the summary.
func outputReport(cfg *config.Config, mirrorReport *model.MirrorReport, out io.Writer) error {
	if !cfg.JSONReport && !cfg.MarkdownReport {
		return nil
	}

	output := out
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		return errors.New("no report format selected")
	}

	if _, err := w.Write(mirrorReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
