package gatekeeper

import (
	"context"
	"net/http"

	"gatekeeper/middleware/gatekeeper/domain"
)

type contextKey struct{}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFromContext devolve o principal anexado pelo gatekeeper.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(domain.Principal)
	return p, ok
}

const (
	HeaderPrincipalID   = "X-Principal-Id"
	HeaderPrincipalRole = "X-Principal-Role"
)

// ForwardPrincipal repassa o principal para o upstream em headers. Valores
// enviados pelo próprio cliente são sempre descartados antes.
func ForwardPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := r.Clone(r.Context())
		out.Header.Del(HeaderPrincipalID)
		out.Header.Del(HeaderPrincipalRole)
		if p, ok := PrincipalFromContext(r.Context()); ok {
			out.Header.Set(HeaderPrincipalID, p.ID)
			out.Header.Set(HeaderPrincipalRole, string(p.Role))
		}
		next.ServeHTTP(w, out)
	})
}
