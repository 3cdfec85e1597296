package domain

type CredentialKind int

const (
	CredentialNone CredentialKind = iota
	CredentialAPIKey
	CredentialBearer
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialAPIKey:
		return "api_key"
	case CredentialBearer:
		return "bearer"
	default:
		return "none"
	}
}

// Credential é o material bruto apresentado pelo cliente.
// O valor zero significa "nenhuma credencial".
type Credential struct {
	Kind CredentialKind
	Raw  string
}

func (c Credential) Present() bool { return c.Kind != CredentialNone && c.Raw != "" }

// KeyAuthenticator resolve uma API key estática em um Principal.
type KeyAuthenticator interface {
	AuthenticateKey(raw string) (Principal, error)
}

// TokenAuthenticator verifica um bearer token assinado e deriva o Principal das claims.
type TokenAuthenticator interface {
	AuthenticateToken(raw string) (Principal, error)
}
