package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/gestaozabele/inscricoes/internal/apperr"
	"github.com/gestaozabele/inscricoes/internal/http/render"
)

const msgLimiteExcedido = "Limite de requisições excedido. Tente novamente em instantes."

// RateLimiter mantém um token bucket por chave, descartando chaves ociosas.
type RateLimiter struct {
	limit     rate.Limit
	burst     int
	mu        sync.Mutex
	store     map[string]*limiterEntry
	maxAge    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	updated time.Time
}

// NewRateLimiter cria o limiter com reqPerSec requisições por segundo e rajada burst.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:  rate.Limit(reqPerSec),
		burst:  burst,
		store:  make(map[string]*limiterEntry),
		maxAge: 10 * time.Minute,
		now:    time.Now,
	}
}

func (r *RateLimiter) allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.store[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.store[key] = entry
	}
	entry.updated = now

	if now.Sub(r.lastSweep) > r.maxAge/2 {
		for k, e := range r.store {
			if now.Sub(e.updated) > r.maxAge {
				delete(r.store, k)
			}
		}
		r.lastSweep = now
	}

	return entry.limiter.AllowN(now, 1)
}

// LimitByKey aplica o limite pela chave devolvida por keyFunc; chave vazia não limita.
func (r *RateLimiter) LimitByKey(next http.Handler, keyFunc func(*http.Request) (string, bool)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key, ok := keyFunc(req)
		if !ok || key == "" {
			next.ServeHTTP(w, req)
			return
		}

		if !r.allow(key) {
			log.Warn().Str("chave", key).Str("path", req.URL.Path).Msg("rate limit excedido")
			w.Header().Set("Retry-After", "1")
			render.Error(w, req, apperr.New(http.StatusTooManyRequests, apperr.TypeOperational, "RateLimit", msgLimiteExcedido))
			return
		}

		next.ServeHTTP(w, req)
	})
}

// IPRateLimit usa o IP de origem como chave.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) (string, bool) {
			return realIPFromRequest(r), true
		})
	}
}

// UserRateLimit usa o usuário autenticado como chave.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) (string, bool) {
			subject := GetSubject(r.Context())
			return subject, subject != ""
		})
	}
}

func realIPFromRequest(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
