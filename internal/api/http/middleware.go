package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/barneeyyu/library-server/internal/config"
	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates or assigns a request id and logs each request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithRequestID(r.Context(), id)
		logger.DebugContext(ctx, "→ HTTP request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// Handler authenticates the bearer token and enforces the route's security level.
func (a *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.RouteSecurity(routeName(r))
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeFailure(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}
		claims, err := a.tokenManager.ValidateToken(token)
		if err != nil {
			writeFailure(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}
		if !level.Allows(claims.Role) {
			logger.InfoContext(r.Context(), "Route denied", "route", routeName(r), "borrowerID", claims.UserID, "role", claims.Role)
			writeFailure(w, http.StatusForbidden, "librarian role required")
			return
		}

		ctx := withCaller(r.Context(), Caller{BorrowerID: claims.UserID, Role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	token := r.Header.Get("Authorization")
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return token, token != ""
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		return route.GetName()
	}
	return ""
}

// limiterIdleTimeout is how long a borrower's bucket may go unused before it
// is dropped. A bucket is never dropped before it could have refilled.
const limiterIdleTimeout = 10 * time.Minute

// RateLimiter keeps one token bucket per borrower. Unauthenticated
// requests are not limited.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[int32]*borrowerLimiter
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type borrowerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	idle := limiterIdleTimeout
	if requestsPerSecond > 0 {
		if refill := time.Duration(float64(burst) / requestsPerSecond * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &RateLimiter{
		limiters:  make(map[int32]*borrowerLimiter),
		limit:     rate.Limit(requestsPerSecond),
		burst:     burst,
		idle:      idle,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *RateLimiter) limiter(borrowerID int32) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.evictIdle(now)
	}
	entry, ok := l.limiters[borrowerID]
	if !ok {
		entry = &borrowerLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[borrowerID] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// evictIdle drops buckets unused for longer than the idle timeout.
// Callers hold l.mu.
func (l *RateLimiter) evictIdle(now time.Time) {
	for id, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.limiters, id)
		}
	}
	l.lastSweep = now
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if ok && !l.limiter(caller.BorrowerID).Allow() {
			logger.WarnContext(r.Context(), "Rate limit exceeded", "borrowerID", caller.BorrowerID)
			w.Header().Set("Retry-After", "1")
			writeFailure(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
