// Package browser drives a headless Chrome session through chromedp and
// satisfies navigator.Driver.
package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/navigator"
)

type Chrome struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// Options returns the allocator flags for cfg.
func Options(cfg *config.Config) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.ChromeHeadless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1200),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	return opts
}

// Start launches the browser. The session lives until Close, independent of ctx
// beyond startup.
func Start(ctx context.Context, cfg *config.Config) (*Chrome, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), Options(cfg)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Log.Debugf),
		chromedp.WithErrorf(logger.Log.Errorf),
	)

	startCtx, cancelStart := context.WithTimeout(browserCtx, cfg.StepTimeout)
	defer cancelStart()
	if err := chromedp.Run(startCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("%w: starting chrome: %v", navigator.ErrSessionLost, err)
	}
	logger.Log.WithField("headless", cfg.ChromeHeadless).Info("Browser started")

	return &Chrome{browserCtx: browserCtx, cancelBrowser: cancelBrowser, cancelAlloc: cancelAlloc}, nil
}

// run executes actions in the browser tab, bounded by ctx. Errors after the
// browser context has ended are reported as navigator.ErrSessionLost.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if c.browserCtx.Err() != nil || errors.Is(err, chromedp.ErrInvalidContext) {
		return fmt.Errorf("%w: %v", navigator.ErrSessionLost, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) WaitVisible(ctx context.Context, sel string) error {
	return c.run(ctx, chromedp.WaitVisible(sel, chromedp.BySearch))
}

func (c *Chrome) WaitNotPresent(ctx context.Context, sel string) error {
	return c.run(ctx, chromedp.WaitNotPresent(sel, chromedp.BySearch))
}

func (c *Chrome) SendKeys(ctx context.Context, sel, text string) error {
	return c.run(ctx,
		chromedp.WaitVisible(sel, chromedp.BySearch),
		chromedp.Clear(sel, chromedp.BySearch),
		chromedp.SendKeys(sel, text, chromedp.BySearch),
	)
}

// Click waits until the element is visible; Livewire re-renders tabs after load.
func (c *Chrome) Click(ctx context.Context, sel string) error {
	return c.run(ctx,
		chromedp.WaitVisible(sel, chromedp.BySearch),
		chromedp.Click(sel, chromedp.BySearch, chromedp.NodeVisible),
	)
}

func (c *Chrome) HTML(ctx context.Context, sel string) (string, error) {
	var out string
	err := c.run(ctx, chromedp.OuterHTML(sel, &out, chromedp.BySearch))
	return out, err
}

func (c *Chrome) PageHTML(ctx context.Context) (string, error) {
	var out string
	err := c.run(ctx, chromedp.OuterHTML("html", &out, chromedp.ByQuery))
	return out, err
}

func (c *Chrome) Location(ctx context.Context) (string, error) {
	var loc string
	err := c.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := c.run(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

func (c *Chrome) Close() error {
	c.cancelBrowser()
	c.cancelAlloc()
	logger.Log.Info("Browser closed")
	return nil
}

var _ navigator.Driver = (*Chrome)(nil)
