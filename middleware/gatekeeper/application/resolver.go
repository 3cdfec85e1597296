package application

import "gatekeeper/middleware/gatekeeper/domain"

// Resolver aplica a precedência de credenciais: API key primeiro, bearer token depois.
//
// Com API key presente o token nunca é avaliado, mesmo que os dois headers venham juntos.
type Resolver struct {
	Keys   domain.KeyAuthenticator
	Tokens domain.TokenAuthenticator
}

func (r Resolver) Resolve(cred domain.Credential) (domain.Principal, error) {
	if !cred.Present() {
		return domain.Principal{}, domain.NewAuthenticationError(domain.ErrCredentialMissing, nil)
	}

	switch cred.Kind {
	case domain.CredentialAPIKey:
		if r.Keys == nil {
			return domain.Principal{}, domain.NewAuthenticationError(domain.ErrInvalidAPIKey, nil)
		}
		return r.Keys.AuthenticateKey(cred.Raw)
	case domain.CredentialBearer:
		if r.Tokens == nil {
			return domain.Principal{}, domain.NewAuthenticationError(domain.ErrInvalidToken, nil)
		}
		return r.Tokens.AuthenticateToken(cred.Raw)
	default:
		return domain.Principal{}, domain.NewAuthenticationError(domain.ErrCredentialMissing, nil)
	}
}
