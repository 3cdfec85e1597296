package gatekeeper

import (
	"net/http"
	"strings"

	"gatekeeper/middleware/gatekeeper/domain"
)

const (
	DefaultAPIKeyHeader = "X-API-Key"
	bearerPrefix        = "Bearer "
)

// Extractor tira a credencial bruta dos headers.
type Extractor struct {
	// APIKeyHeader vazio usa DefaultAPIKeyHeader.
	APIKeyHeader string
}

// Extract devolve no máximo uma credencial. Authorization malformado (outro
// esquema, token vazio) vira "nenhuma credencial", igual a header ausente.
func (e Extractor) Extract(h http.Header) domain.Credential {
	name := e.APIKeyHeader
	if name == "" {
		name = DefaultAPIKeyHeader
	}
	if key := strings.TrimSpace(h.Get(name)); key != "" {
		return domain.Credential{Kind: domain.CredentialAPIKey, Raw: key}
	}

	auth := h.Get("Authorization")
	if tok, ok := strings.CutPrefix(auth, bearerPrefix); ok {
		if tok = strings.TrimSpace(tok); tok != "" {
			return domain.Credential{Kind: domain.CredentialBearer, Raw: tok}
		}
	}
	return domain.Credential{}
}
