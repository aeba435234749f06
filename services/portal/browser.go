package portal

import (
	"context"
	"fmt"
	"log"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Selector locates an element either by CSS query or by XPath
type Selector struct {
	Expr  string
	XPath bool
}

// CSS builds a CSS query selector
func CSS(expr string) Selector { return Selector{Expr: expr} }

// XPath builds an XPath selector
func XPath(expr string) Selector { return Selector{Expr: expr, XPath: true} }

func (s Selector) String() string { return s.Expr }

func (s Selector) queryOption() chromedp.QueryOption {
	if s.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// Browser is the subset of browser automation the portal flows rely on.
// Every call blocks until it completes or ctx is done.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, sel Selector) error
	SendKeys(ctx context.Context, sel Selector, text string) error
	// Click waits for the element to be visible before clicking it
	Click(ctx context.Context, sel Selector) error
	Location(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	ClearCookies(ctx context.Context) error
	Alive() bool
	Close() error
}

// LaunchOptions configures the headless browser process
type LaunchOptions struct {
	ChromePath string
}

// ChromeBrowser drives a headless Chrome tab through chromedp
type ChromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// LaunchChrome starts a headless Chrome and opens one tab.
// The process lives until Close is called.
func LaunchChrome(opts LaunchOptions) (*ChromeBrowser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	// Check for custom Chrome path (for headless-shell in Docker)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Printf))

	// The first Run starts the browser process
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &ChromeBrowser{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

// run executes actions on the tab context, bounded by the caller's ctx
func (b *ChromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	tabCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(tabCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (b *ChromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

func (b *ChromeBrowser) WaitVisible(ctx context.Context, sel Selector) error {
	return b.run(ctx, chromedp.WaitVisible(sel.Expr, sel.queryOption()))
}

func (b *ChromeBrowser) SendKeys(ctx context.Context, sel Selector, text string) error {
	return b.run(ctx, chromedp.SendKeys(sel.Expr, text, sel.queryOption()))
}

func (b *ChromeBrowser) Click(ctx context.Context, sel Selector) error {
	return b.run(ctx, chromedp.Click(sel.Expr, sel.queryOption(), chromedp.NodeVisible))
}

func (b *ChromeBrowser) Location(ctx context.Context) (string, error) {
	var loc string
	err := b.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (b *ChromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (b *ChromeBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		shot, err := page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		if err != nil {
			return err
		}
		buf = shot
		return nil
	}))
	return buf, err
}

func (b *ChromeBrowser) ClearCookies(ctx context.Context) error {
	return b.run(ctx, network.ClearBrowserCookies())
}

// Alive reports whether the browser context is still usable
func (b *ChromeBrowser) Alive() bool {
	return b.ctx.Err() == nil
}

// Close shuts the tab and terminates the browser process
func (b *ChromeBrowser) Close() error {
	var err error
	if b.ctx.Err() == nil {
		err = chromedp.Cancel(b.ctx)
	}
	b.cancel()
	b.allocCancel()
	return err
}
