package server

import (
	"net/http"

	"golang.org/x/time/rate"
)

// withAPIKey checks the X-API-Key header against the configured keys. With
// no keys configured the check is disabled.
func (s *Server) withAPIKey(next http.Handler) http.Handler {
	keys := make(map[string]struct{}, len(s.cfg.Server.APIKeys))
	for _, k := range s.cfg.Server.APIKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}
	if len(keys) == 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			writeError(w, http.StatusUnauthorized, "", "missing X-API-Key header")
			return
		}
		if _, ok := keys[key]; !ok {
			writeError(w, http.StatusUnauthorized, "", "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit bounds the call rate to protect the reasoning and
// notification services behind this endpoint. It sits entirely outside the
// decision logic; a throttled request never reaches the validator.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	rps := s.cfg.Server.RateLimit.RPS
	if rps <= 0 {
		return next
	}
	limiter := rate.NewLimiter(rate.Limit(rps), s.cfg.Server.RateLimit.Burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
