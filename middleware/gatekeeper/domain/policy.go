package domain

// RoutePolicy é a configuração estática de uma rota protegida.
//
// RequiredRoles vazio significa "basta estar autenticado". RateLimited é sempre
// declarado explicitamente pela rota; não existe default global.
type RoutePolicy struct {
	RequiredRoles []Role
	RateLimited   bool
}

func (p RoutePolicy) AnyRole() bool { return len(p.RequiredRoles) == 0 }
