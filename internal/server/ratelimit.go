package server

import (
	"container/list"
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultMaxClients = 10000
	clientIdleTTL     = 10 * time.Minute
	sweepInterval     = 5 * time.Minute
)

type clientBucket struct {
	ip       string
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters holds one token bucket per client IP, bounded to max
// entries. The least recently seen client is dropped when a new one arrives
// at capacity.
type clientLimiters struct {
	rps   rate.Limit
	burst int
	max   int
	log   *zap.Logger

	mu    sync.Mutex
	byIP  map[string]*list.Element
	order *list.List // front = most recently seen
}

func newClientLimiters(rps float64, burst, max int, log *zap.Logger) *clientLimiters {
	if max <= 0 {
		max = defaultMaxClients
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &clientLimiters{
		rps:   rate.Limit(rps),
		burst: burst,
		max:   max,
		log:   log,
		byIP:  make(map[string]*list.Element),
		order: list.New(),
	}
}

// allow takes a token from ip's bucket.
func (c *clientLimiters) allow(ip string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byIP[ip]; ok {
		c.order.MoveToFront(e)
		b := e.Value.(*clientBucket)
		b.lastSeen = now
		return b.limiter.AllowN(now, 1)
	}

	if c.order.Len() >= c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byIP, oldest.Value.(*clientBucket).ip)
		c.log.Debug("rate limiter at capacity, dropped least recent client", zap.Int("capacity", c.max))
	}
	b := &clientBucket{ip: ip, limiter: rate.NewLimiter(c.rps, c.burst), lastSeen: now}
	c.byIP[ip] = c.order.PushFront(b)
	return b.limiter.AllowN(now, 1)
}

// sweep drops clients not seen within clientIdleTTL of now. Entries are
// ordered by last access, so it stops at the first recent one.
func (c *clientLimiters) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for e := c.order.Back(); e != nil; {
		b := e.Value.(*clientBucket)
		if now.Sub(b.lastSeen) <= clientIdleTTL {
			break
		}
		prev := e.Prev()
		c.order.Remove(e)
		delete(c.byIP, b.ip)
		removed++
		e = prev
	}
	return removed
}

func (c *clientLimiters) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// RateLimitMiddleware limits requests using a token bucket per client IP.
// maxIPs bounds the number of tracked clients; zero means 10000.
//
// Idle clients are swept until ctx is cancelled. The returned channel is
// closed when the sweeper exits.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, maxIPs int, log *zap.Logger) (func(http.Handler) http.Handler, <-chan struct{}) {
	clients := newClientLimiters(rps, burst, maxIPs, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				clients.sweep(now)
			case <-ctx.Done():
				return
			}
		}
	}()

	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !clients.allow(getClientIP(r), time.Now()) {
				w.Header().Set("Retry-After", "1")
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	return middleware, done
}
