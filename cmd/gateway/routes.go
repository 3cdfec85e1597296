package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"gatekeeper/middleware/gatekeeper"
	"gatekeeper/middleware/gatekeeper/domain"
)

// route é uma entrada do arquivo de rotas:
//
//	routes:
//	  - method: GET
//	    pattern: /api/posts
//	    roles: []
//	    rate_limited: true
//	  - method: "*"
//	    pattern: /api/users/*
//	    roles: [admin]
//	    rate_limited: false
//
// rate_limited é obrigatório em toda rota.
type route struct {
	Method  string
	Pattern string
	Policy  domain.RoutePolicy
}

type routeFile struct {
	Routes []struct {
		Method      string   `yaml:"method"`
		Pattern     string   `yaml:"pattern"`
		Roles       []string `yaml:"roles"`
		RateLimited *bool    `yaml:"rate_limited"`
	} `yaml:"routes"`
}

var knownMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// defaultRoutes protege tudo: qualquer papel autenticado, com rate limit.
func defaultRoutes() []route {
	return []route{{Method: "*", Pattern: "/*", Policy: domain.RoutePolicy{RateLimited: true}}}
}

func loadRoutes(path string) ([]route, error) {
	if path == "" {
		return defaultRoutes(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes file: %w", err)
	}
	return parseRoutes(b)
}

func parseRoutes(b []byte) ([]route, error) {
	var f routeFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse routes file: %w", err)
	}
	if len(f.Routes) == 0 {
		return nil, errors.New("routes file declares no routes")
	}

	seen := make(map[string]bool, len(f.Routes))
	out := make([]route, 0, len(f.Routes))
	for i, r := range f.Routes {
		method := strings.ToUpper(strings.TrimSpace(r.Method))
		if method == "" {
			method = "*"
		}
		if method != "*" && !slices.Contains(knownMethods, method) {
			return nil, fmt.Errorf("route %d: unsupported method %q", i, r.Method)
		}
		if !strings.HasPrefix(r.Pattern, "/") {
			return nil, fmt.Errorf("route %d: pattern must start with /", i)
		}
		if r.RateLimited == nil {
			return nil, fmt.Errorf("route %d (%s %s): rate_limited must be declared", i, method, r.Pattern)
		}
		id := method + " " + r.Pattern
		if seen[id] {
			return nil, fmt.Errorf("route %d: %s declared twice", i, id)
		}
		seen[id] = true

		roles := make([]domain.Role, 0, len(r.Roles))
		for _, name := range r.Roles {
			role, err := domain.ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("route %d (%s): %w", i, id, err)
			}
			roles = append(roles, role)
		}
		out = append(out, route{
			Method:  method,
			Pattern: r.Pattern,
			Policy:  domain.RoutePolicy{RequiredRoles: roles, RateLimited: *r.RateLimited},
		})
	}
	return out, nil
}

func mountRoutes(r chi.Router, gk *gatekeeper.Gatekeeper, routes []route, h http.Handler) {
	for _, rt := range routes {
		protected := r.With(gk.Protect(rt.Policy))
		if rt.Method == "*" {
			protected.Handle(rt.Pattern, h)
			continue
		}
		protected.Method(rt.Method, rt.Pattern, h)
	}
}
