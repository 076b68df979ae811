package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/sitemirror/internal/model"
	"github.com/nao1215/sitemirror/internal/pathmap"
	"github.com/nao1215/sitemirror/internal/robots"
	"github.com/nao1215/sitemirror/internal/scope"
)

const (
	// defaultWorkers is the size of the worker pool.
	defaultWorkers = 8

	// defaultDelay is the pause between two requests of one worker.
	defaultDelay = 200 * time.Millisecond

	// defaultQueueWait bounds how long an idle worker waits for a task
	// before checking for completion again.
	defaultQueueWait = time.Second
)

// Spider mirrors one site using a pool of concurrent workers.
// A Spider may run several crawls; each Crawl call gets its own frontier.
type Spider struct {
	// scope decides which hosts are eligible.
	scope scope.Scope

	fetcher   *Fetcher
	saver     *Saver
	extractor *Extractor

	// workers is the number of concurrent fetch loops.
	workers int

	// delay is the pause a worker takes before each of its requests.
	// Zero disables it.
	delay time.Duration

	// crawlDelay is the minimum spacing between any two requests of the
	// crawl, shared by all workers. Zero disables it.
	crawlDelay time.Duration

	// maxPages caps the number of HTML pages counted. Zero means unlimited.
	// Once the cap is reached no further pages are scheduled, but assets
	// referenced by pages already fetched are always downloaded.
	maxPages int

	// gate holds the robots.txt policy. A nil gate allows everything.
	gate *robots.Gate

	// ignorePatterns are URL path globs that are never fetched.
	ignorePatterns []string

	// followPatterns, when set, restrict fetching to matching paths.
	// The start URL is always fetched.
	followPatterns []string

	logger *slog.Logger

	// queueWait bounds a single wait for the next task.
	queueWait time.Duration

	// observer receives every terminal outcome. It is called from worker
	// goroutines and must be safe for concurrent use.
	observer func(model.Resource)
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithWorkers sets the number of concurrent workers. Values below 1 become 1.
func WithWorkers(n int) SpiderOption {
	return func(s *Spider) {
		s.workers = max(n, 1)
	}
}

// WithDelay sets the pause each worker takes before every request.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = max(d, 0)
	}
}

// WithCrawlDelay limits the whole crawl to one request per d, as asked
// by a robots.txt Crawl-delay.
func WithCrawlDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.crawlDelay = max(d, 0)
	}
}

// WithMaxPages sets the maximum number of HTML pages to count.
func WithMaxPages(n int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = max(n, 0)
	}
}

// WithRobots sets the robots.txt gate.
func WithRobots(gate *robots.Gate) SpiderOption {
	return func(s *Spider) {
		s.gate = gate
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only URLs matching at least one pattern are fetched.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithLogger sets the logger for per-URL status lines.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithQueueWait sets how long an idle worker waits for a task at a time.
func WithQueueWait(d time.Duration) SpiderOption {
	return func(s *Spider) {
		if d > 0 {
			s.queueWait = d
		}
	}
}

// WithObserver registers a callback for every finished URL.
func WithObserver(fn func(model.Resource)) SpiderOption {
	return func(s *Spider) {
		s.observer = fn
	}
}

// NewSpider creates a Spider for sc that fetches with fetcher and writes
// with saver.
func NewSpider(sc scope.Scope, fetcher *Fetcher, saver *Saver, opts ...SpiderOption) *Spider {
	s := &Spider{
		scope:     sc,
		fetcher:   fetcher,
		saver:     saver,
		extractor: NewExtractor(sc),
		workers:   defaultWorkers,
		delay:     defaultDelay,
		logger:    slog.New(slog.DiscardHandler),
		queueWait: defaultQueueWait,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Crawl mirrors the site reachable from startURL and returns a summary.
//
// Crawl returns when every discovered URL reached a terminal state, or when
// ctx is cancelled. In the latter case the report is marked Interrupted and
// holds the counts reached so far; the returned error is still nil.
func (s *Spider) Crawl(ctx context.Context, startURL string) (*model.MirrorReport, error) {
	start := scope.Normalize(startURL)
	if !scope.IsHTTP(start) {
		return nil, fmt.Errorf("%w: %q", scope.ErrUnsupportedScheme, startURL)
	}
	if !s.scope.Contains(start) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfScope, start)
	}

	report := model.NewMirrorReport(start, s.saver.OutDir())
	report.Scope = s.scope.String()
	report.RobotsRespected = s.gate.Respected()
	report.RobotsLoaded = s.gate.Loaded()

	f := newFrontier()
	f.Enqueue(start)

	var limiter *rate.Limiter
	if s.crawlDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.crawlDelay), 1)
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for id := range s.workers {
		g.Go(func() error {
			s.work(workCtx, f, limiter, id, start)
			return nil
		})
	}

	select {
	case <-f.Done():
	case <-ctx.Done():
		report.Interrupted = true
		s.logger.Warn("crawl interrupted, waiting for in-flight requests")
	}
	cancel()
	_ = g.Wait()

	report.FinishedAt = time.Now()
	report.Stats = f.Stats()
	return report, nil
}

// work is the loop run by a single worker. limiter, when not nil, is
// shared by every worker of the crawl.
func (s *Spider) work(ctx context.Context, f *frontier, limiter *rate.Limiter, id int, start string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.Done():
			return
		default:
		}

		task, ok := f.Next(ctx, s.queueWait)
		if !ok {
			continue
		}
		s.process(ctx, f, limiter, task, task.URL == start)
		s.logger.Debug("task finished", "worker", id, "url", task.URL)
	}
}

// process runs one task through the fetch pipeline and records exactly
// one terminal state for it, unless ctx is cancelled before the request
// is sent.
func (s *Spider) process(ctx context.Context, f *frontier, limiter *rate.Limiter, task model.CrawlTask, isStart bool) {
	u := task.URL

	if !s.gate.Allowed(u) {
		s.logger.Info("SKIP robots", "url", u)
		s.finish(f, model.StateSkipped, u, func(r *model.Resource) {
			r.Reason = ErrRobotsDisallowed.Error()
		})
		return
	}

	if !isStart && !s.shouldCrawl(u) {
		s.logger.Info("SKIP pattern", "url", u)
		s.finish(f, model.StateSkipped, u, func(r *model.Resource) {
			r.Reason = ErrPatternExcluded.Error()
		})
		return
	}

	if err := pause(ctx, s.delay); err != nil {
		return
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
	}

	// The request outlives cancellation so in-flight downloads complete;
	// the client timeout still bounds it.
	resp, err := s.fetcher.Fetch(context.WithoutCancel(ctx), u)
	if err != nil {
		s.logger.Warn("ERR fetch", "url", u, "error", err)
		s.finish(f, model.StateFailed, u, func(r *model.Resource) {
			r.Reason = err.Error()
		})
		return
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
		s.logger.Info("HTTP "+strconv.Itoa(resp.StatusCode), "url", u)
		s.finish(f, model.StateFailed, u, func(r *model.Resource) {
			r.StatusCode = resp.StatusCode
			r.ContentType = resp.ContentType
			r.Reason = statusErr.Error()
		})
		return
	}

	if resp.Truncated {
		tooLarge := &FetchError{URL: u, Err: ErrBodyTooLarge}
		s.logger.Warn("ERR fetch", "url", u, "error", tooLarge)
		s.finish(f, model.StateFailed, u, func(r *model.Resource) {
			r.StatusCode = resp.StatusCode
			r.ContentType = resp.ContentType
			r.Reason = tooLarge.Error()
		})
		return
	}

	path, err := s.saver.Save(u, resp)
	if err != nil {
		s.logger.Warn("ERR save", "url", u, "error", err)
		s.finish(f, model.StateFailed, u, func(r *model.Resource) {
			r.StatusCode = resp.StatusCode
			r.ContentType = resp.ContentType
			r.Reason = err.Error()
			var saveErr *SaveError
			if errors.As(err, &saveErr) {
				r.LocalPath = saveErr.Path
			}
		})
		return
	}
	f.MarkSaved(u)

	isPage := pathmap.IsHTML(resp.ContentType)
	switch {
	case isPage:
		f.CountPage(s.maxPages)
		text := DecodeText(resp.Body, resp.Charset, resp.ContentType)
		pages, assets := s.extractor.ExtractHTML(resp.FinalURL, []byte(text))
		for _, a := range assets {
			f.Enqueue(a)
		}
		for _, p := range pages {
			if f.PageCapReached(s.maxPages) {
				break
			}
			f.Enqueue(p)
		}
	case pathmap.IsCSS(resp.ContentType):
		text := DecodeText(resp.Body, resp.Charset, resp.ContentType)
		for _, ref := range s.extractor.ExtractCSS(resp.FinalURL, []byte(text)) {
			f.Enqueue(ref)
		}
	}

	s.logger.Info("OK", "url", u, "path", s.relPath(path))
	s.finish(f, model.StateSaved, u, func(r *model.Resource) {
		r.StatusCode = resp.StatusCode
		r.ContentType = resp.ContentType
		r.LocalPath = path
		r.IsPage = isPage
	})
}

// pause sleeps for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// finish records the terminal state in the frontier and notifies the observer.
func (s *Spider) finish(f *frontier, state model.State, u string, fill func(*model.Resource)) {
	if s.observer != nil {
		res := model.NewResource(u, state)
		if fill != nil {
			fill(&res)
		}
		s.observer(res)
	}
	f.Finish(u, state)
}

// relPath returns path relative to the output directory for display.
func (s *Spider) relPath(path string) string {
	rel, err := filepath.Rel(s.saver.OutDir(), path)
	if err != nil {
		return path
	}
	return rel
}
