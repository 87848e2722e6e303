package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"farm-to-keells/internal/auth"
	"farm-to-keells/internal/utils"

	"golang.org/x/time/rate"
)

// tier is one rate policy. Each caller gets a separate bucket per tier.
type tier struct {
	name  string
	limit rate.Limit
	burst int
}

var (
	// Credential checks and money movement.
	tierStrict = tier{name: "strict", limit: rate.Limit(2), burst: 5}

	tierAnonymous = tier{name: "anonymous", limit: rate.Limit(5), burst: 10}
	tierFarmer    = tier{name: "farmer", limit: rate.Limit(10), burst: 20}

	// The supermarket dashboard fans out across many farmers.
	tierAdmin = tier{name: "admin", limit: rate.Limit(20), burst: 40}
)

var strictPaths = map[string]bool{
	"/api/farmers/login":    true,
	"/api/farmers/register": true,
	"/api/admin/login":      true,
	"/api/payments":         true,
	"/api/contact":          true,
}

const (
	visitorIdle     = 3 * time.Minute
	cleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per caller. Authenticated callers are keyed
// by identity, anonymous ones by client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{visitors: make(map[string]*visitor), now: time.Now}
}

func (l *RateLimiter) limiter(key string, t tier) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.visitors[key]; ok {
		v.lastSeen = l.now()
		return v.limiter
	}
	lim := rate.NewLimiter(t.limit, t.burst)
	l.visitors[key] = &visitor{limiter: lim, lastSeen: l.now()}
	return lim
}

// Run evicts idle callers until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *RateLimiter) evictIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > visitorIdle {
			delete(l.visitors, key)
			n++
		}
	}
	return n
}

// Middleware must run after AuthMiddleware so callers are identified.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := resolveTier(r)
		key := callerKey(r) + ":" + t.name

		if !l.limiter(key, t).Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(1/float64(t.limit)))))
			utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func resolveTier(r *http.Request) tier {
	if strictPaths[r.URL.Path] {
		return tierStrict
	}
	switch utils.GetUserRoleFromContext(r.Context()) {
	case string(auth.RoleAdmin):
		return tierAdmin
	case string(auth.RoleFarmer):
		return tierFarmer
	}
	return tierAnonymous
}

func callerKey(r *http.Request) string {
	if id, ok := utils.GetFarmerIDFromContext(r.Context()); ok {
		return "farmer:" + strconv.FormatInt(id, 10)
	}
	if name := utils.GetUsernameFromContext(r.Context()); name != "" {
		return "user:" + name
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
