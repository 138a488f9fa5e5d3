package testutil

import (
	"context"
	"fmt"
	"sync"
)

// FakePage is the scripted content served for one locator
type FakePage struct {
	// Fields maps a selector to the text of its first match
	Fields map[string]string
	// Lists maps a selector to the text of every match
	Lists map[string][]string
	// Clickable lists the selectors a click succeeds on
	Clickable map[string]bool
}

// NewFakePage creates an empty page
func NewFakePage() *FakePage {
	return &FakePage{
		Fields:    make(map[string]string),
		Lists:     make(map[string][]string),
		Clickable: make(map[string]bool),
	}
}

// FakeSite is an in-memory document source keyed by locator. It records
// every call so tests can assert on fetch and session counts.
type FakeSite struct {
	mu sync.Mutex

	pages   map[string]*FakePage
	navErrs map[string]error

	// OpenErr, when set, makes every Open fail
	OpenErr error
	// OnNavigate, when set, is called with every locator before it loads
	OnNavigate func(locator string)

	opens       int
	closes      int
	navigations []string
	clicks      []string
}

// NewFakeSite creates a site with no pages
func NewFakeSite() *FakeSite {
	return &FakeSite{
		pages:   make(map[string]*FakePage),
		navErrs: make(map[string]error),
	}
}

// AddPage registers the page served at locator, replacing any previous one
func (s *FakeSite) AddPage(locator string, page *FakePage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[locator] = page
}

// FailNavigation makes navigating to locator return err
func (s *FakeSite) FailNavigation(locator string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navErrs[locator] = err
}

// Open starts a session. The returned session satisfies the extractor's
// document source interface.
func (s *FakeSite) Open(_ context.Context) (*FakeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	s.opens++
	return &FakeSession{site: s}, nil
}

// Opens returns the number of sessions opened
func (s *FakeSite) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Closes returns the number of sessions closed
func (s *FakeSite) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Navigations returns every locator navigated to, in order
func (s *FakeSite) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// Clicks returns every selector a click was attempted on, in order
func (s *FakeSite) Clicks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clicks...)
}

// FakeSession is one open session on a FakeSite
type FakeSession struct {
	site    *FakeSite
	current *FakePage
	closed  bool
}

func (f *FakeSession) Navigate(ctx context.Context, locator string) error {
	if hook := f.site.OnNavigate; hook != nil {
		hook(locator)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.site.mu.Lock()
	defer f.site.mu.Unlock()

	f.site.navigations = append(f.site.navigations, locator)
	if err, ok := f.site.navErrs[locator]; ok {
		f.current = nil
		return err
	}
	page, ok := f.site.pages[locator]
	if !ok {
		page = NewFakePage()
	}
	f.current = page
	return nil
}

func (f *FakeSession) ReadField(_ context.Context, selector string) (string, error) {
	f.site.mu.Lock()
	defer f.site.mu.Unlock()

	if f.current == nil {
		return "", fmt.Errorf("no document loaded")
	}
	if text, ok := f.current.Fields[selector]; ok {
		return text, nil
	}
	if list := f.current.Lists[selector]; len(list) > 0 {
		return list[0], nil
	}
	return "", fmt.Errorf("no node matches %q", selector)
}

func (f *FakeSession) ReadAll(_ context.Context, selector string) ([]string, error) {
	f.site.mu.Lock()
	defer f.site.mu.Unlock()

	if f.current == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	return append([]string(nil), f.current.Lists[selector]...), nil
}

func (f *FakeSession) Click(_ context.Context, selector string) error {
	f.site.mu.Lock()
	defer f.site.mu.Unlock()

	f.site.clicks = append(f.site.clicks, selector)
	if f.current == nil || !f.current.Clickable[selector] {
		return fmt.Errorf("no clickable node matches %q", selector)
	}
	return nil
}

func (f *FakeSession) Close() error {
	f.site.mu.Lock()
	defer f.site.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.site.closes++
	}
	return nil
}
