package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// GlobalKey counts every request against one shared budget
const GlobalKey = "portal"

// RateLimitConfig defines a fixed request budget per window
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// KeyFunc picks the budget a request draws from. Nil means GlobalKey.
	KeyFunc func(c echo.Context) string
	Message string
}

// budget is the usage of one key within its current window
type budget struct {
	used    int
	resetAt time.Time
}

// RateLimiter hands out a fixed number of requests per window and key
type RateLimiter struct {
	config RateLimitConfig
	now    func() time.Time

	mu      sync.Mutex
	budgets map[string]*budget

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter and starts pruning expired budgets.
// Call Close to stop the pruning goroutine.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(echo.Context) string { return GlobalKey }
	}
	if config.Message == "" {
		config.Message = "Demasiadas solicitudes. Intente nuevamente en unos minutos."
	}

	rl := &RateLimiter{
		config:  config,
		now:     time.Now,
		budgets: make(map[string]*budget),
		stop:    make(chan struct{}),
	}
	go rl.prune(time.Minute)
	return rl
}

// NewSearchRateLimiter limits portal searches for the whole process. Every
// search drives the single shared browser session, so all callers share
// one budget regardless of their address.
func NewSearchRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return NewRateLimiter(RateLimitConfig{
		Requests: perMinute,
		Window:   time.Minute,
		Message:  "Demasiadas búsquedas en el portal. Espere un minuto antes de intentar de nuevo.",
	})
}

// Allow takes one request from key's budget. When the budget is spent it
// returns false and how long until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.budgets[key]
	if !ok || !now.Before(b.resetAt) {
		rl.budgets[key] = &budget{used: 1, resetAt: now.Add(rl.config.Window)}
		return true, 0
	}
	if b.used >= rl.config.Requests {
		return false, b.resetAt.Sub(now)
	}
	b.used++
	return true, 0
}

// Middleware rejects requests with 429 once their budget is spent
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, wait := rl.Allow(rl.config.KeyFunc(c))
			if !ok {
				seconds := int(wait.Seconds()) + 1
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return echo.NewHTTPError(http.StatusTooManyRequests, rl.config.Message)
			}
			return next(c)
		}
	}
}

// Close stops the pruning goroutine; safe to call more than once
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) prune(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, b := range rl.budgets {
				if !now.Before(b.resetAt) {
					delete(rl.budgets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
