package dynamic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// ErrPoolClosed is returned by Acquire once the pool has been closed
var ErrPoolClosed = errors.New("browser pool is closed")

const (
	maxPoolSize = 10
	// tabs are replaced after this many renders to keep memory flat on long crawls
	maxTabUses = 50
)

// Tab is one browser tab lent out by a BrowserPool.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	uses   int
}

// Context returns the chromedp context that drives the tab.
func (t *Tab) Context() context.Context { return t.ctx }

// BrowserPool runs one Chrome process and lends out a fixed number of tabs.
type BrowserPool struct {
	size int
	idle chan *Tab

	browserCtx    context.Context
	shutdown      func()
	mu            sync.Mutex
	closed        bool
	recycledTotal int
}

// BrowserPoolOptions configures the browser pool
type BrowserPoolOptions struct {
	Size int
	BrowserOptions
}

// NewBrowserPool starts Chrome and opens Size tabs in it
func NewBrowserPool(opts BrowserPoolOptions) (*BrowserPool, error) {
	size := min(max(opts.Size, 1), maxPoolSize)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts.BrowserOptions)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run launches the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	bp := &BrowserPool{
		size:       size,
		idle:       make(chan *Tab, size),
		browserCtx: browserCtx,
		shutdown: func() {
			browserCancel()
			allocCancel()
		},
	}

	for i := range size {
		t, err := bp.openTab()
		if err != nil {
			bp.Close()
			return nil, fmt.Errorf("open tab %d: %w", i, err)
		}
		bp.idle <- t
	}

	log.Debug().Int("tabs", size).Str("chrome", opts.ChromePath).Msg("Browser pool ready")
	return bp, nil
}

func (bp *BrowserPool) openTab() (*Tab, error) {
	ctx, cancel := chromedp.NewContext(bp.browserCtx)
	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, err
	}
	return &Tab{ctx: ctx, cancel: cancel}, nil
}

// Acquire waits for an idle tab or for ctx to end.
func (bp *BrowserPool) Acquire(ctx context.Context) (*Tab, error) {
	select {
	case t, ok := <-bp.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		t.uses++
		return t, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for browser tab: %w", ctx.Err())
	}
}

// Release hands t back. Worn out tabs are closed and replaced with a fresh one.
func (bp *BrowserPool) Release(t *Tab) {
	if t.uses >= maxTabUses || t.ctx.Err() != nil {
		t.cancel()
		fresh, err := bp.openTab()
		if err != nil {
			log.Warn().Err(err).Msg("Could not replace browser tab, pool shrinks by one")
			return
		}
		t = fresh

		bp.mu.Lock()
		bp.recycledTotal++
		bp.mu.Unlock()
	} else {
		// Drop the previous page so its scripts stop running
		_ = chromedp.Run(t.ctx, chromedp.Navigate("about:blank"))
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		t.cancel()
		return
	}
	bp.idle <- t
}

// Close closes every tab and stops Chrome. It is safe to call twice.
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return nil
	}
	bp.closed = true

	close(bp.idle)
	for t := range bp.idle {
		t.cancel()
	}
	bp.shutdown()

	log.Debug().Int("recycled_tabs", bp.recycledTotal).Msg("Browser pool closed")
	return nil
}

// Size returns the number of tabs the pool was started with
func (bp *BrowserPool) Size() int {
	return bp.size
}
