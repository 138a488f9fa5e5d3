package extractor

import (
	"context"
)

// DocumentSource is one browsing session against the external document
// source. Selectors are opaque to the source; the shipped layout uses XPath.
type DocumentSource interface {
	Navigate(ctx context.Context, locator string) error
	// ReadField returns the text of the first node matching selector
	ReadField(ctx context.Context, selector string) (string, error)
	// ReadAll returns the text of every node matching selector, possibly none
	ReadAll(ctx context.Context, selector string) ([]string, error)
	Click(ctx context.Context, selector string) error
	Close() error
}

// SessionOpener creates DocumentSource sessions
type SessionOpener interface {
	Open(ctx context.Context) (DocumentSource, error)
}

// OpenerFunc adapts a function to SessionOpener
type OpenerFunc func(ctx context.Context) (DocumentSource, error)

func (f OpenerFunc) Open(ctx context.Context) (DocumentSource, error) {
	return f(ctx)
}
