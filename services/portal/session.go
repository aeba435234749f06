package portal

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"expedientes_app_go/config"
)

// Portal routes, relative to the base URL
const (
	loginPath       = "/iol-ui/u/inicio"
	landingFragment = "/u/inicio"
	listingPath     = "/iol-ui/u/causas?causas=1&tipoBusqueda=CAU&tituloBusqueda=Mis%20Causas"
	searchPath      = "/iol-ui/p/jurisprudencia"
)

// Login form and pagination markup
var (
	usernameField  = CSS("#username")
	passwordField  = CSS("#password")
	submitButton   = CSS("button[type='submit']")
	pageSizeSelect = CSS("mat-select[aria-label='Registros por página:']")
)

// stableReads is how many consecutive equal card counts mark a listing as rendered
const stableReads = 3

// Credentials is the portal account used to log in
type Credentials struct {
	Username string
	Password string
}

// Timings bounds every wait performed against the portal
type Timings struct {
	PageSize          int
	NavigationWait    time.Duration
	LoginWait         time.Duration
	LoginRedirectWait time.Duration
	PaginationWait    time.Duration
	OptionWait        time.Duration
	SettleDelay       time.Duration
	RenderPoll        time.Duration
}

// TimingsFromConfig converts the configured waits
func TimingsFromConfig(t config.PortalTimings) Timings {
	return Timings{
		PageSize:          t.PageSize,
		NavigationWait:    t.NavigationWait,
		LoginWait:         t.LoginWait,
		LoginRedirectWait: t.LoginRedirectWait,
		PaginationWait:    t.PaginationWait,
		OptionWait:        t.OptionWait,
		SettleDelay:       t.SettleDelay,
		RenderPoll:        t.RenderPollInterval,
	}
}

// Launcher starts a new browser session
type Launcher func() (Browser, error)

// ChromeLauncher returns a Launcher backed by headless Chrome
func ChromeLauncher(opts LaunchOptions) Launcher {
	return func() (Browser, error) {
		return LaunchChrome(opts)
	}
}

// SessionManager owns the single browser session used against the portal.
// It does not serialize callers: a sync and a search must not run at the
// same time on one manager.
type SessionManager struct {
	baseURL string
	timings Timings
	launch  Launcher

	mu            sync.Mutex
	browser       Browser
	authenticated bool
}

// NewSessionManager creates a manager; no browser starts until Acquire
func NewSessionManager(baseURL string, timings Timings, launch Launcher) *SessionManager {
	return &SessionManager{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timings: timings,
		launch:  launch,
	}
}

// BaseURL returns the portal host the manager talks to
func (m *SessionManager) BaseURL() string {
	return m.baseURL
}

// ListingURL returns the "Mis Causas" listing route
func (m *SessionManager) ListingURL() string {
	return m.baseURL + listingPath
}

// Acquire returns the live browser, launching one if none exists or the
// previous one died.
func (m *SessionManager) Acquire(ctx context.Context) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if m.browser.Alive() {
			return m.browser, nil
		}
		log.Println("[PORTAL] Browser session is no longer alive, starting a new one")
		m.browser = nil
		m.authenticated = false
	}

	b, err := m.launch()
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	m.browser = b
	log.Println("[PORTAL] Browser session started")
	return b, nil
}

// Login authenticates the session. It is a no-op when the session already
// logged in; an expired server-side session is not detected here.
func (m *SessionManager) Login(ctx context.Context, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return ErrMissingCredentials
	}

	b, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	if m.Authenticated() {
		return nil
	}

	log.Println("[PORTAL] Logging in to the portal")
	if err := bounded(ctx, m.timings.NavigationWait, func(ctx context.Context) error {
		return b.Navigate(ctx, m.baseURL+loginPath)
	}); err != nil {
		return loginError("open login page", err)
	}

	steps := []struct {
		name string
		wait time.Duration
		fn   func(ctx context.Context) error
	}{
		{"username field", m.timings.LoginWait, func(ctx context.Context) error {
			if err := b.WaitVisible(ctx, usernameField); err != nil {
				return err
			}
			return b.SendKeys(ctx, usernameField, creds.Username)
		}},
		{"password field", m.timings.LoginWait, func(ctx context.Context) error {
			return b.SendKeys(ctx, passwordField, creds.Password)
		}},
		{"submit button", m.timings.LoginWait, func(ctx context.Context) error {
			return b.Click(ctx, submitButton)
		}},
		{"post-login redirect", m.timings.LoginRedirectWait, func(ctx context.Context) error {
			return waitForLocation(ctx, b, landingFragment, m.timings.RenderPoll)
		}},
	}
	for _, step := range steps {
		if err := bounded(ctx, step.wait, step.fn); err != nil {
			return loginError(step.name, err)
		}
	}

	m.mu.Lock()
	m.authenticated = true
	m.mu.Unlock()
	log.Println("[PORTAL] Login successful")
	return nil
}

// LoadListing returns the rendered "Mis Causas" listing at the largest page size
func (m *SessionManager) LoadListing(ctx context.Context) (string, error) {
	return m.LoadPaged(ctx, m.ListingURL(), caseCardSelector)
}

// LoadPaged opens a paginated portal page, switches it to the largest page
// size and returns the HTML once the cards matched by cardSelector settle.
func (m *SessionManager) LoadPaged(ctx context.Context, pageURL, cardSelector string) (string, error) {
	b, err := m.current()
	if err != nil {
		return "", err
	}

	if err := bounded(ctx, m.timings.NavigationWait, func(ctx context.Context) error {
		return b.Navigate(ctx, pageURL)
	}); err != nil {
		return "", layoutError("navigation", err)
	}

	if err := bounded(ctx, m.timings.PaginationWait, func(ctx context.Context) error {
		return b.Click(ctx, pageSizeSelect)
	}); err != nil {
		return "", layoutError("page size selector", err)
	}

	before, err := b.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read page before resizing: %w", err)
	}

	option := XPath(fmt.Sprintf("//mat-option/span[contains(text(), '%d')]", m.timings.PageSize))
	if err := bounded(ctx, m.timings.OptionWait, func(ctx context.Context) error {
		return b.Click(ctx, option)
	}); err != nil {
		return "", layoutError("page size option", err)
	}

	html, err := m.awaitRender(ctx, b, cardSelector, countCards(before, cardSelector))
	if err != nil {
		return "", fmt.Errorf("failed to read rendered page: %w", err)
	}
	return html, nil
}

// awaitRender polls the page until the card count is non-zero, stable and
// no longer the count shown before the resize (or a full page), or until
// SettleDelay elapses. Running out of time is not an error: whatever
// rendered by then is returned, zero cards included.
func (m *SessionManager) awaitRender(ctx context.Context, b Browser, cardSelector string, before int) (string, error) {
	poll := m.timings.RenderPoll
	if poll <= 0 || poll > m.timings.SettleDelay {
		poll = m.timings.SettleDelay
	}
	deadline := time.Now().Add(m.timings.SettleDelay)

	last, same := -1, 0
	for {
		if err := sleep(ctx, poll); err != nil {
			return "", err
		}

		html, err := b.HTML(ctx)
		if err != nil {
			return "", err
		}

		n := countCards(html, cardSelector)
		if n == last {
			same++
		} else {
			last, same = n, 1
		}
		resized := n != before || (m.timings.PageSize > 0 && n >= m.timings.PageSize)
		if n > 0 && same >= stableReads && resized {
			return html, nil
		}
		if !time.Now().Before(deadline) {
			return html, nil
		}
	}
}

// Snapshot captures the current page for diagnosing markup changes
func (m *SessionManager) Snapshot(ctx context.Context) (string, []byte, error) {
	b, err := m.current()
	if err != nil {
		return "", nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	html, err := b.HTML(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read page HTML: %w", err)
	}
	png, err := b.Screenshot(ctx)
	if err != nil {
		log.Printf("[PORTAL] Screenshot failed: %v", err)
	}
	return html, png, nil
}

// Invalidate forgets the login so the next Login fills the form again
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authenticated = false
}

// Authenticated reports whether a live session has logged in
func (m *SessionManager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated && m.browser != nil && m.browser.Alive()
}

// Alive reports whether a browser session currently exists
func (m *SessionManager) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser != nil && m.browser.Alive()
}

// Close releases the browser and clears the session. Safe to call when no
// session exists.
func (m *SessionManager) Close() error {
	m.mu.Lock()
	b := m.browser
	m.browser = nil
	m.authenticated = false
	m.mu.Unlock()

	if b == nil {
		return nil
	}

	if b.Alive() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := b.ClearCookies(ctx); err != nil {
			log.Printf("[PORTAL] Failed to clear cookies: %v", err)
		}
		cancel()
	}

	if err := b.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	log.Println("[PORTAL] Sesión y navegador cerrados.")
	return nil
}

func (m *SessionManager) current() (Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser == nil || !m.browser.Alive() {
		return nil, ErrNotAuthenticated
	}
	return m.browser, nil
}

// bounded runs fn with its own timeout derived from ctx
func bounded(ctx context.Context, limit time.Duration, fn func(ctx context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()
	return fn(stepCtx)
}

func waitForLocation(ctx context.Context, b Browser, fragment string, poll time.Duration) error {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	for {
		loc, err := b.Location(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(loc, fragment) {
			return nil
		}
		if err := sleep(ctx, poll); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func loginError(step string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %s", ErrLoginTimeout, step)
	}
	return fmt.Errorf("login failed at %s: %w", step, err)
}

func layoutError(control string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %s", ErrPortalLayout, control)
	}
	return fmt.Errorf("failed at %s: %w", control, err)
}
