// Package portaltest provides an in-memory browser and HTML fixtures for
// exercising portal flows without Chrome.
package portaltest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"expedientes_app_go/services/portal"
)

// FakeBrowser serves canned pages and records every interaction
type FakeBrowser struct {
	mu sync.Mutex

	// Pages maps a URL fragment to the HTML served once the browser navigated
	// to a URL containing it. The longest matching fragment wins.
	Pages map[string]string
	// LandingURL becomes the location after the submit button is clicked
	LandingURL string
	// Hang lists selector expressions (or "navigate") that block until the
	// caller's context is done
	Hang map[string]bool
	// StalePages is served instead of Pages until RenderDelay has passed
	// since a page-size option was clicked
	StalePages  map[string]string
	RenderDelay time.Duration

	currentURL string
	resizedAt  time.Time
	typed      map[string]string
	calls      []string
	closed     bool
	cleared    bool
}

// NewFakeBrowser creates a browser that lands on the portal home after login
func NewFakeBrowser(baseURL string) *FakeBrowser {
	return &FakeBrowser{
		Pages:      map[string]string{},
		LandingURL: strings.TrimSuffix(baseURL, "/") + "/iol-ui/u/inicio?logged=1",
		Hang:       map[string]bool{},
		StalePages: map[string]string{},
		typed:      map[string]string{},
	}
}

// Launcher returns a portal.Launcher handing out b and counting launches
func Launcher(b *FakeBrowser, launches *int) portal.Launcher {
	return func() (portal.Browser, error) {
		if launches != nil {
			*launches++
		}
		return b, nil
	}
}

// Timings returns millisecond-scale waits for tests
func Timings() portal.Timings {
	return portal.Timings{
		PageSize:          50,
		NavigationWait:    200 * time.Millisecond,
		LoginWait:         50 * time.Millisecond,
		LoginRedirectWait: 50 * time.Millisecond,
		PaginationWait:    50 * time.Millisecond,
		OptionWait:        50 * time.Millisecond,
		SettleDelay:       80 * time.Millisecond,
		RenderPoll:        5 * time.Millisecond,
	}
}

func (b *FakeBrowser) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *FakeBrowser) hang(ctx context.Context, key string) error {
	b.mu.Lock()
	h := b.Hang[key]
	b.mu.Unlock()
	if !h {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (b *FakeBrowser) Navigate(ctx context.Context, url string) error {
	b.record("navigate " + url)
	if err := b.hang(ctx, "navigate"); err != nil {
		return err
	}
	b.mu.Lock()
	b.currentURL = url
	b.mu.Unlock()
	return nil
}

func (b *FakeBrowser) WaitVisible(ctx context.Context, sel portal.Selector) error {
	b.record("wait " + sel.Expr)
	return b.hang(ctx, sel.Expr)
}

func (b *FakeBrowser) SendKeys(ctx context.Context, sel portal.Selector, text string) error {
	b.record("keys " + sel.Expr)
	if err := b.hang(ctx, sel.Expr); err != nil {
		return err
	}
	b.mu.Lock()
	b.typed[sel.Expr] = text
	b.mu.Unlock()
	return nil
}

func (b *FakeBrowser) Click(ctx context.Context, sel portal.Selector) error {
	b.record("click " + sel.Expr)
	if err := b.hang(ctx, sel.Expr); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case sel.Expr == "button[type='submit']":
		b.currentURL = b.LandingURL
	case strings.HasPrefix(sel.Expr, "//mat-option"):
		b.resizedAt = time.Now()
	}
	return nil
}

func (b *FakeBrowser) Location(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentURL, nil
}

func (b *FakeBrowser) HTML(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pages := b.Pages
	if b.RenderDelay > 0 && (b.resizedAt.IsZero() || time.Since(b.resizedAt) < b.RenderDelay) {
		if _, ok := match(b.StalePages, b.currentURL); ok {
			pages = b.StalePages
		}
	}
	html, _ := match(pages, b.currentURL)
	return html, nil
}

// match returns the page whose fragment is the longest one contained in url
func match(pages map[string]string, url string) (string, bool) {
	best, found := "", false
	html := "<html><body></body></html>"
	for fragment, page := range pages {
		if strings.Contains(url, fragment) && (!found || len(fragment) > len(best)) {
			best, html, found = fragment, page, true
		}
	}
	return html, found
}

func (b *FakeBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}

func (b *FakeBrowser) ClearCookies(ctx context.Context) error {
	b.mu.Lock()
	b.cleared = true
	b.mu.Unlock()
	return nil
}

func (b *FakeBrowser) Alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

func (b *FakeBrowser) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Typed returns the text sent to the element matched by expr
func (b *FakeBrowser) Typed(expr string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.typed[expr]
}

// Calls returns the recorded interactions in order
func (b *FakeBrowser) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// CookiesCleared reports whether Close wiped the cookies first
func (b *FakeBrowser) CookiesCleared() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cleared
}

// Card describes one listing card; empty fields are left out of the markup
type Card struct {
	Number  string
	Title   string
	Status  string
	Novelty string
	Href    string
}

// HTML renders the card the way the portal's Angular component does
func (c Card) HTML() string {
	var sb strings.Builder
	sb.WriteString("<iol-expediente-tarjeta><mat-card>")
	if c.Href != "" {
		fmt.Fprintf(&sb, `<a class="textColorEncabezado" href="%s">`, c.Href)
	}
	if c.Number != "" {
		fmt.Fprintf(&sb, `<p class="fontSizeEncabezadoCuij"> %s </p>`, c.Number)
	}
	if c.Href != "" {
		sb.WriteString("</a>")
	}
	if c.Title != "" {
		fmt.Fprintf(&sb, "<div><strong>%s</strong></div>", c.Title)
	}
	if c.Status != "" {
		fmt.Fprintf(&sb, `<p class="badge">%s</p>`, c.Status)
	}
	if c.Novelty != "" {
		fmt.Fprintf(&sb, `<p class="fontSizePie">%s</p>`, c.Novelty)
	}
	sb.WriteString("</mat-card></iol-expediente-tarjeta>")
	return sb.String()
}

// ListingPage wraps cards in a listing page with its paginator
func ListingPage(cards ...Card) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><iol-causas>`)
	for _, c := range cards {
		sb.WriteString(c.HTML())
	}
	sb.WriteString(`<mat-paginator><mat-select aria-label="Registros por página:"></mat-select></mat-paginator>`)
	sb.WriteString(`</iol-causas></body></html>`)
	return sb.String()
}

// SearchCard describes one search result card
type SearchCard struct {
	Number string
	Title  string
	Detail string
}

// SearchPage renders search result cards
func SearchPage(cards ...SearchCard) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, c := range cards {
		sb.WriteString("<iol-actuacion-tarjeta>")
		if c.Number != "" {
			fmt.Fprintf(&sb, `<p class="fontSizeEncabezadoCuij">%s</p>`, c.Number)
		}
		if c.Title != "" {
			fmt.Fprintf(&sb, "<strong>%s</strong>", c.Title)
		}
		if c.Detail != "" {
			fmt.Fprintf(&sb, `<p class="actuacion-texto">%s</p>`, c.Detail)
		}
		sb.WriteString("</iol-actuacion-tarjeta>")
	}
	sb.WriteString("</body></html>")
	return sb.String()
}
