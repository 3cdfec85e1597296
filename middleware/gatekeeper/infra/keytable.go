package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"gatekeeper/middleware/gatekeeper/domain"
)

// KeyTable implementa domain.KeyAuthenticator sobre uma tabela fixa key -> principal.
// É imutável depois de construída, então pode ser lida por várias goroutines sem lock.
type KeyTable struct {
	keys map[string]domain.Principal
}

func NewKeyTable(entries map[string]domain.Principal) (*KeyTable, error) {
	keys := make(map[string]domain.Principal, len(entries))
	for k, p := range entries {
		if k == "" {
			return nil, errors.New("api key must not be empty")
		}
		if p.ID == "" {
			return nil, fmt.Errorf("api key %s: principal id is required", maskKey(k))
		}
		if !p.Role.Valid() {
			return nil, fmt.Errorf("api key %s: unknown role %q", maskKey(k), p.Role)
		}
		keys[k] = p
	}
	return &KeyTable{keys: keys}, nil
}

func (t *KeyTable) AuthenticateKey(raw string) (domain.Principal, error) {
	if t != nil {
		if p, ok := t.keys[raw]; ok {
			return p, nil
		}
	}
	return domain.Principal{}, domain.NewAuthenticationError(domain.ErrInvalidAPIKey, nil)
}

func (t *KeyTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// ParseKeyTable lê o formato compacto usado em variável de ambiente:
//
//	key1=1:admin,key2=svc-reports:user
func ParseKeyTable(spec string) (*KeyTable, error) {
	entries := make(map[string]domain.Principal)
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, rest, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("api key entry %q: expected key=id:role", item)
		}
		id, role, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("api key %s: expected id:role", maskKey(key))
		}
		r, err := domain.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("api key %s: %w", maskKey(key), err)
		}
		key = strings.TrimSpace(key)
		if _, dup := entries[key]; dup {
			return nil, fmt.Errorf("api key %s declared twice", maskKey(key))
		}
		entries[key] = domain.Principal{ID: strings.TrimSpace(id), Role: r}
	}
	return NewKeyTable(entries)
}

type keyFile struct {
	Keys []struct {
		Key  string `yaml:"key"`
		ID   string `yaml:"id"`
		Role string `yaml:"role"`
	} `yaml:"keys"`
}

// LoadKeyTableFile lê a tabela de um YAML:
//
//	keys:
//	  - key: test-api-key-123
//	    id: "1"
//	    role: admin
func LoadKeyTableFile(path string) (*KeyTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read api key file: %w", err)
	}
	var f keyFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse api key file: %w", err)
	}
	entries := make(map[string]domain.Principal, len(f.Keys))
	for i, k := range f.Keys {
		r, err := domain.ParseRole(k.Role)
		if err != nil {
			return nil, fmt.Errorf("api key file entry %d: %w", i, err)
		}
		// o extrator apara o header, então a chave guardada também
		key := strings.TrimSpace(k.Key)
		if _, dup := entries[key]; dup {
			return nil, fmt.Errorf("api key file entry %d: key declared twice", i)
		}
		entries[key] = domain.Principal{ID: strings.TrimSpace(k.ID), Role: r}
	}
	return NewKeyTable(entries)
}

// maskKey evita vazar a key inteira em mensagens de erro e logs.
func maskKey(k string) string {
	if len(k) <= 4 {
		return "****"
	}
	return k[:4] + "****"
}
