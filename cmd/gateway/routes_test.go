package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/middleware/gatekeeper/domain"
)

func TestParseRoutes(t *testing.T) {
	routes, err := parseRoutes([]byte(`
routes:
  - method: get
    pattern: /api/posts
    rate_limited: true
  - method: "*"
    pattern: /api/users/*
    roles: [admin]
    rate_limited: false
  - pattern: /api/profile
    roles: [admin, user]
    rate_limited: false
`))
	require.NoError(t, err)
	require.Len(t, routes, 3)

	assert.Equal(t, "GET", routes[0].Method)
	assert.True(t, routes[0].Policy.RateLimited)
	assert.True(t, routes[0].Policy.AnyRole())

	assert.Equal(t, "*", routes[1].Method)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, routes[1].Policy.RequiredRoles)
	assert.False(t, routes[1].Policy.RateLimited)

	assert.Equal(t, "*", routes[2].Method)
	assert.Equal(t, []domain.Role{domain.RoleAdmin, domain.RoleUser}, routes[2].Policy.RequiredRoles)
}

func TestParseRoutes_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":          "routes: []",
		"missing flag":   "routes:\n  - pattern: /a\n",
		"unknown role":   "routes:\n  - pattern: /a\n    roles: [root]\n    rate_limited: true\n",
		"bad method":     "routes:\n  - method: BREW\n    pattern: /a\n    rate_limited: true\n",
		"relative":       "routes:\n  - pattern: a\n    rate_limited: true\n",
		"duplicate":      "routes:\n  - pattern: /a\n    rate_limited: true\n  - pattern: /a\n    rate_limited: false\n",
		"malformed yaml": "routes: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseRoutes([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadRoutes_DefaultsToCatchAll(t *testing.T) {
	routes, err := loadRoutes("")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "/*", routes[0].Pattern)
	assert.True(t, routes[0].Policy.RateLimited)
	assert.True(t, routes[0].Policy.AnyRole())
}

func TestLoadRoutes_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - method: DELETE\n    pattern: /api/posts/{id}\n    roles: [admin]\n    rate_limited: true\n"), 0o600))

	routes, err := loadRoutes(path)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "DELETE", routes[0].Method)

	_, err = loadRoutes(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
