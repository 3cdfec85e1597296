package gatekeeper

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc escolhe a identidade que consome orçamento do rate limit.
type KeyFunc func(r *http.Request) string

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		return clientIP(r)
	}
}

// KeyByPrincipal usa o id do principal autenticado ("principal:<id>") e cai
// para o IP quando não há principal no contexto.
func KeyByPrincipal(fallback KeyFunc) KeyFunc {
	if fallback == nil {
		fallback = DefaultKeyFunc("", false)
	}
	return func(r *http.Request) string {
		if p, ok := PrincipalFromContext(r.Context()); ok {
			return "principal:" + p.ID
		}
		return fallback(r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
