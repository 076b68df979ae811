package crawler

import (
	"context"
	"sync"
	"time"

	"github.com/nao1215/sitemirror/internal/model"
	"github.com/nao1215/sitemirror/internal/scope"
)

// frontier is the shared crawl state: the FIFO of pending tasks, the state
// of every URL ever seen, the set of saved URLs and the HTML page counter.
// All of it is guarded by mu and only reachable through the methods below.
type frontier struct {
	mu sync.Mutex

	queue  []model.CrawlTask
	states map[string]model.State
	saved  map[string]struct{}

	pages   int
	skipped int
	failed  int

	// pending counts URLs that are enqueued or in progress.
	pending int

	// wake is closed and replaced on every enqueue to wake all waiters.
	wake chan struct{}

	done     chan struct{}
	doneOnce sync.Once
}

func newFrontier() *frontier {
	return &frontier{
		states: make(map[string]model.State),
		saved:  make(map[string]struct{}),
		wake:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Enqueue adds rawURL to the queue unless it has been seen before.
// It returns true when the URL was newly added.
func (f *frontier) Enqueue(rawURL string) bool {
	u := scope.Normalize(rawURL)
	if u == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.states[u]; seen {
		return false
	}
	f.states[u] = model.StateEnqueued
	f.queue = append(f.queue, model.NewCrawlTask(u))
	f.pending++

	close(f.wake)
	f.wake = make(chan struct{})
	return true
}

// Next dequeues the oldest task. It waits up to wait for one to arrive and
// returns false on timeout, when ctx is done or when the crawl is complete.
func (f *frontier) Next(ctx context.Context, wait time.Duration) (model.CrawlTask, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		f.mu.Lock()
		if len(f.queue) > 0 {
			task := f.queue[0]
			f.queue[0] = model.CrawlTask{}
			f.queue = f.queue[1:]
			f.states[task.URL] = model.StateInProgress
			f.mu.Unlock()
			return task, true
		}
		wake := f.wake
		f.mu.Unlock()

		select {
		case <-wake:
		case <-timer.C:
			return model.CrawlTask{}, false
		case <-ctx.Done():
			return model.CrawlTask{}, false
		case <-f.done:
			return model.CrawlTask{}, false
		}
	}
}

// Finish records a terminal state for rawURL. URLs that are unknown or
// already terminal are left untouched. When the last pending URL finishes,
// Done is closed.
func (f *frontier) Finish(rawURL string, state model.State) {
	if !state.IsTerminal() {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	current, ok := f.states[rawURL]
	if !ok || current.IsTerminal() {
		return
	}
	f.states[rawURL] = state

	switch state {
	case model.StateSaved:
		f.saved[rawURL] = struct{}{}
	case model.StateSkipped:
		f.skipped++
	case model.StateFailed:
		f.failed++
	}

	f.pending--
	if f.pending == 0 {
		f.doneOnce.Do(func() { close(f.done) })
	}
}

// MarkSaved adds rawURL to the saved set as soon as its file is written.
func (f *frontier) MarkSaved(rawURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[rawURL] = struct{}{}
}

// CountPage increments the HTML page counter unless maxPages (when
// positive) has been reached. It reports whether the page was counted.
func (f *frontier) CountPage(maxPages int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if maxPages > 0 && f.pages >= maxPages {
		return false
	}
	f.pages++
	return true
}

// PageCapReached reports whether the page counter has reached maxPages.
// A non-positive maxPages means there is no cap.
func (f *frontier) PageCapReached(maxPages int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maxPages > 0 && f.pages >= maxPages
}

// State returns the current state of rawURL.
func (f *frontier) State(rawURL string) model.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[scope.Normalize(rawURL)]
}

// Done is closed once every enqueued URL reached a terminal state.
func (f *frontier) Done() <-chan struct{} {
	return f.done
}

// Stats returns a snapshot of the crawl counters.
func (f *frontier) Stats() model.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.Stats{
		Scheduled: len(f.states),
		Saved:     len(f.saved),
		Skipped:   f.skipped,
		Failed:    f.failed,
		Pages:     f.pages,
		Pending:   f.pending,
	}
}
