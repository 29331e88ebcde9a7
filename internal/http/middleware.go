package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	ownerIDKey   contextKey = "owner_id"
	isAdminKey   contextKey = "is_admin"
	requestIDKey contextKey = "request_id"
)

const visitorCookie = "visitor_id"

// IdentityMiddleware resolves the owner identity for cart and order scoping.
// An authenticated request uses the JWT subject; everyone else gets a random
// per-browser visitor token in an HttpOnly cookie. The shared "anonymous"
// sentinel never keys anything, so unauthenticated visitors cannot see each
// other's carts.
func IdentityMiddleware(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, isAdmin, ok := parseBearer(r, jwtSecret); ok {
				ctx := context.WithValue(r.Context(), ownerIDKey, userID)
				ctx = context.WithValue(ctx, isAdminKey, isAdmin)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			visitorID := ""
			if cookie, err := r.Cookie(visitorCookie); err == nil && cookie.Value != "" {
				visitorID = cookie.Value
			}
			if visitorID == "" {
				visitorID = "visitor-" + uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     visitorCookie,
					Value:    visitorID,
					Path:     "/",
					MaxAge:   int((30 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), ownerIDKey, visitorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseBearer(r *http.Request, secret []byte) (userID string, isAdmin bool, ok bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false, false
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", false, false
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false, false
	}
	admin, _ := claims["is_admin"].(bool)
	return sub, admin, true
}

// RequireAdmin gates the back-office routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := getOwnerID(r.Context())
		if ownerID == "" || strings.HasPrefix(ownerID, "visitor-") {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}
		if admin, _ := r.Context().Value(isAdminKey).(bool); !admin {
			respondError(w, http.StatusForbidden, "permission_denied", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getOwnerID(ctx context.Context) string {
	if ownerID, ok := ctx.Value(ownerIDKey).(string); ok {
		return ownerID
	}
	return ""
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// rateLimiter is a fixed-window in-memory limiter, scoped per owner+route.
type rateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	entries   map[string]*rateLimitEntry
	nextSweep time.Time
}

type rateLimitEntry struct {
	count   int
	expires time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*rateLimitEntry),
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	// Visitor tokens make the key space unbounded, so expired windows are
	// swept periodically instead of lingering until the same key returns.
	if now.After(l.nextSweep) {
		for k, e := range l.entries {
			if e.expires.Before(now) {
				delete(l.entries, k)
			}
		}
		l.nextSweep = now.Add(l.window)
	}

	entry, exists := l.entries[key]
	if !exists || entry.expires.Before(now) {
		l.entries[key] = &rateLimitEntry{count: 1, expires: now.Add(l.window)}
		return true
	}

	entry.count++
	return entry.count <= l.limit
}

// RateLimitMiddleware caps mutating traffic per owner per route.
func RateLimitMiddleware(limit int, window time.Duration) func(http.Handler) http.Handler {
	limiter := newRateLimiter(limit, window)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("%s:%s", getOwnerID(r.Context()), r.URL.Path)
			if !limiter.allow(key) {
				respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
