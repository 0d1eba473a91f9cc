package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultWritesPerMinute is the sustained write budget of one user
	DefaultWritesPerMinute = 120
	// DefaultWriteBurst is how many single-record writes a user may make back to back
	DefaultWriteBurst = 20
	// BulkWriteCost is the budget drawn by a write that replaces the document from a client payload
	BulkWriteCost = 5

	sweepInterval = 5 * time.Minute
	idleTTL       = 10 * time.Minute
)

// bulkWriteRoutes rewrite the whole ledger from a payload or a backup
var bulkWriteRoutes = map[string]bool{
	"/api/v1/document":               true,
	"/api/v1/import":                 true,
	"/api/v1/reset":                  true,
	"/api/v1/export/backup":          true,
	"/api/v1/export/backups/restore": true,
}

// WriteCost returns the budget a write request draws, keyed by its route pattern
func WriteCost(c echo.Context) int {
	if bulkWriteRoutes[c.Path()] {
		return BulkWriteCost
	}
	return 1
}

// Decision is the outcome of charging one write against a user's budget
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	Reset      time.Time
}

// RateLimiter keeps a write budget per user. Each write saves the whole document,
// so the budget bounds store round trips rather than requests.
type RateLimiter struct {
	mu        sync.Mutex
	budgets   map[string]*writeBudget
	perMinute int
	limit     rate.Limit
	burst     int
	now       func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type writeBudget struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter with the default write budget
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultWritesPerMinute, DefaultWriteBurst)
}

// NewRateLimiterWithConfig creates a RateLimiter refilling writesPerMinute and holding at most burst
func NewRateLimiterWithConfig(writesPerMinute int, burst int) *RateLimiter {
	rl := &RateLimiter{
		budgets:   make(map[string]*writeBudget),
		perMinute: writesPerMinute,
		limit:     rate.Limit(float64(writesPerMinute) / 60),
		burst:     burst,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Charge draws cost from userID's budget. A cost above the burst is capped so a
// bulk write can always succeed on a full budget.
func (r *RateLimiter) Charge(userID string, cost int) Decision {
	cost = min(max(cost, 1), r.burst)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.budgets[userID]
	if !ok {
		b = &writeBudget{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.budgets[userID] = b
	}
	b.lastSeen = now

	d := Decision{Allowed: b.limiter.AllowN(now, cost)}
	tokens := b.limiter.TokensAt(now)
	d.Remaining = max(int(tokens), 0)
	if !d.Allowed {
		d.RetryAfter = r.refillTime(float64(cost) - tokens)
	}
	d.Reset = now.Add(r.refillTime(float64(r.burst) - tokens))
	return d
}

// Allow charges a single-record write
func (r *RateLimiter) Allow(userID string) bool {
	return r.Charge(userID, 1).Allowed
}

func (r *RateLimiter) refillTime(tokens float64) time.Duration {
	if tokens <= 0 || r.limit <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(r.limit) * float64(time.Second))
}

func (r *RateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.prune(r.now())
		case <-r.stop:
			return
		}
	}
}

func (r *RateLimiter) prune(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, b := range r.budgets {
		if now.Sub(b.lastSeen) > idleTTL {
			delete(r.budgets, userID)
			log.Debug().Str("user_id", userID).Msg("Dropped idle write budget")
		}
	}
}

// Stop stops the sweep goroutine
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// RateLimitMiddleware charges every authenticated write against the user's budget.
// Reads are served from the session cache and pass through.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodGet {
				return next(c)
			}
			userID := GetUserID(c)
			if userID == "" {
				return next(c)
			}

			cost := WriteCost(c)
			d := rl.Charge(userID, cost)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

			if !d.Allowed {
				retryAfter := max(int(math.Ceil(d.RetryAfter.Seconds())), 1)
				h.Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn().
					Str("user_id", userID).
					Str("route", c.Path()).
					Int("cost", cost).
					Int("retry_after", retryAfter).
					Msg("Write budget exhausted")

				return rateLimitError(c, retryAfter)
			}
			return next(c)
		}
	}
}
