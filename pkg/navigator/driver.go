package navigator

import "context"

// Driver is the UI automation boundary. Selectors are CSS or XPath expressions;
// every call is bounded by the context it receives. An implementation returns an
// error wrapping ErrSessionLost once the underlying browser is unusable.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, sel string) error
	WaitNotPresent(ctx context.Context, sel string) error
	// SendKeys clears the field before typing.
	SendKeys(ctx context.Context, sel, text string) error
	Click(ctx context.Context, sel string) error
	// HTML returns the outer HTML of the first node matching sel.
	HTML(ctx context.Context, sel string) (string, error)
	PageHTML(ctx context.Context) (string, error)
	Location(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}
