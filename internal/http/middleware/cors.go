package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	corsAllowHeaders = "Authorization, Content-Type, X-Requested-With"
	corsAllowMethods = "GET,POST,PATCH,DELETE,OPTIONS"
)

// originMatcher confere o Origin contra ALLOW_ORIGINS.
type originMatcher struct {
	any      bool
	exact    map[string]struct{}
	suffixes []string
}

func newOriginMatcher(allowed []string) originMatcher {
	m := originMatcher{exact: make(map[string]struct{}, len(allowed))}
	for _, entry := range allowed {
		e := strings.ToLower(strings.TrimSpace(entry))
		switch {
		case e == "":
		case e == "*":
			m.any = true
		case strings.HasPrefix(e, "*."):
			m.suffixes = append(m.suffixes, strings.TrimPrefix(e, "*"))
		default:
			m.exact[strings.TrimRight(e, "/")] = struct{}{}
		}
	}
	return m
}

func (m originMatcher) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if m.any {
		return true
	}
	origin = strings.ToLower(origin)
	if _, ok := m.exact[origin]; ok {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, suf := range m.suffixes {
		// exige subdomínio: o domínio raiz não casa com "*.dominio"
		if strings.HasSuffix(host, suf) && host != strings.TrimPrefix(suf, ".") {
			return true
		}
	}
	return false
}

// CORS libera apenas as origens de ALLOW_ORIGINS: correspondência exata,
// subdomínio quando a entrada começa com "*." ou qualquer origem com "*".
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	matcher := newOriginMatcher(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if matcher.allows(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
