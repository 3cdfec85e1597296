package domain

import (
	"errors"
	"strings"
)

// Motivos de falha de autenticação. Todos viram 401 na borda HTTP;
// só a mensagem muda.
var (
	ErrCredentialMissing = errors.New("credential missing")
	ErrInvalidAPIKey     = errors.New("invalid api key")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// AuthenticationError carrega o motivo (um dos sentinelas acima) e, opcionalmente,
// o erro de verificação que o causou.
type AuthenticationError struct {
	Reason error
	Cause  error
}

func NewAuthenticationError(reason, cause error) *AuthenticationError {
	return &AuthenticationError{Reason: reason, Cause: cause}
}

func (e *AuthenticationError) Error() string {
	if e.Cause == nil {
		return e.Reason.Error()
	}
	return e.Reason.Error() + ": " + e.Cause.Error()
}

func (e *AuthenticationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Cause}
}

// ForbiddenError informa quais papéis seriam aceitos. Serve apenas para diagnóstico.
type ForbiddenError struct {
	Required []Role
}

func (e *ForbiddenError) Error() string {
	return "forbidden: required role " + JoinRoles(e.Required, " or ")
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

func JoinRoles(roles []Role, sep string) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, sep)
}
