package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"finscrape/internal/extractor"
)

// Options configures the Chrome allocator
type Options struct {
	Headless  bool
	ExecPath  string
	UserAgent string
}

// Opener owns one Chrome process. Each Open creates a fresh tab that lives
// for one work item; the browser outlives every tab.
type Opener struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	pacer      *Pacer
	logger     *slog.Logger

	// run executes chromedp actions; the first call on browserCtx launches Chrome
	run func(ctx context.Context, actions ...chromedp.Action) error

	mu      sync.Mutex
	started bool
}

// NewOpener starts an exec allocator and the browser context every tab is
// derived from. Chrome itself is launched lazily by the first Open.
func NewOpener(parent context.Context, opts Options, pacer *Pacer, logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	if pacer == nil {
		pacer = NoPacer()
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}))

	cancel := func() {
		browserCancel()
		allocCancel()
	}
	return &Opener{
		browserCtx: browserCtx,
		cancel:     cancel,
		pacer:      pacer,
		logger:     logger,
		run:        chromedp.Run,
	}
}

// Open creates a new tab session on the shared browser
func (o *Opener) Open(ctx context.Context) (extractor.DocumentSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.startBrowser(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(o.browserCtx)
	if err := o.run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("start browser tab: %w", err)
	}
	return &Session{ctx: tabCtx, cancel: cancel, pacer: o.pacer, logger: o.logger}, nil
}

// startBrowser launches Chrome once. Tabs must be derived after this so they
// attach to the running browser instead of allocating their own.
func (o *Opener) startBrowser() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return nil
	}
	if err := o.run(o.browserCtx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	o.started = true
	o.logger.Info("Browser started")
	return nil
}

// Close shuts down the browser process
func (o *Opener) Close() {
	o.cancel()
}

// Session is one Chrome tab implementing extractor.DocumentSource.
// Selectors are XPath expressions.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	pacer  *Pacer
	logger *slog.Logger
}

func (s *Session) Navigate(ctx context.Context, locator string) error {
	if err := s.pacer.BeforeNavigate(ctx); err != nil {
		return err
	}
	if err := s.run(ctx, "navigate", chromedp.Navigate(locator)); err != nil {
		return fmt.Errorf("navigate %s: %w", locator, err)
	}
	return s.pacer.Pause(ctx)
}

func (s *Session) ReadField(ctx context.Context, selector string) (string, error) {
	texts, err := s.texts(ctx, selector, 1)
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("no node matches %q", selector)
	}
	return texts[0], nil
}

func (s *Session) ReadAll(ctx context.Context, selector string) ([]string, error) {
	return s.texts(ctx, selector, 0)
}

func (s *Session) Click(ctx context.Context, selector string) error {
	nodes, err := s.nodes(ctx, selector)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("no node matches %q", selector)
	}
	if err := s.run(ctx, "click", chromedp.Click([]cdp.NodeID{nodes[0].NodeID}, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return s.pacer.Pause(ctx)
}

// Close cancels the tab
func (s *Session) Close() error {
	s.cancel()
	return nil
}

// nodes queries without waiting, so an absent selector fails fast
func (s *Session) nodes(ctx context.Context, selector string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, "query", chromedp.Nodes(selector, &nodes, chromedp.AtLeast(0), chromedp.BySearch)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return nodes, nil
}

func (s *Session) texts(ctx context.Context, selector string, limit int) ([]string, error) {
	nodes, err := s.nodes(ctx, selector)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}

	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		var text string
		if err := s.run(ctx, "text", chromedp.TextContent([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID)); err != nil {
			return nil, fmt.Errorf("read %q: %w", selector, err)
		}
		out = append(out, strings.TrimSpace(text))
	}
	return out, nil
}

// run executes actions on the tab, aborting when the caller's ctx is done
func (s *Session) run(ctx context.Context, name string, actions ...chromedp.Action) error {
	runCtx, stop := context.WithCancel(s.ctx)
	defer stop()
	release := context.AfterFunc(ctx, stop)
	defer release()

	start := time.Now()
	err := chromedp.Run(runCtx, actions...)
	s.logger.Debug("browser action",
		slog.String("action", name),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("ok", err == nil))
	if err == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
