package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Role é uma tag do conjunto fechado de papéis aceitos pelo gatekeeper.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Roles lista todos os papéis conhecidos, em ordem estável.
var Roles = []Role{RoleAdmin, RoleUser}

func (r Role) Valid() bool { return slices.Contains(Roles, r) }

func (r Role) String() string { return string(r) }

// ParseRole converte uma string em Role. Valores fora do conjunto fechado são rejeitados,
// assim um papel desconhecido nunca chega na autorização.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Principal é a identidade autenticada de uma requisição.
//
// É construído a cada requisição pelo resolver e descartado ao final dela.
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) IsZero() bool { return p.ID == "" && p.Role == "" }
