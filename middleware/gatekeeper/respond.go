package gatekeeper

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gatekeeper/middleware/gatekeeper/domain"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"

	// ISO-8601 em UTC com milissegundos, ex: 2024-05-01T12:01:00.000Z
	resetLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ErrorBody é o corpo JSON de toda rejeição do gatekeeper.
type ErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// authErrorBody traduz a falha de autenticação. O status é sempre 401; só a
// mensagem diferencia o motivo.
func authErrorBody(err error) ErrorBody {
	cause := ""
	var ae *domain.AuthenticationError
	if errors.As(err, &ae) && ae.Cause != nil {
		cause = ae.Cause.Error()
	}

	switch {
	case errors.Is(err, domain.ErrInvalidAPIKey):
		return ErrorBody{Error: "Invalid API key", Message: "The provided API key is invalid or expired"}
	case errors.Is(err, domain.ErrTokenExpired):
		return ErrorBody{Error: "Invalid token", Message: "The provided token has expired", Details: cause}
	case errors.Is(err, domain.ErrInvalidToken):
		return ErrorBody{Error: "Invalid token", Message: "The provided token is invalid or expired", Details: cause}
	default:
		return ErrorBody{Error: "Unauthorized", Message: "Missing or invalid authorization header"}
	}
}

func forbiddenBody(err error) ErrorBody {
	var fe *domain.ForbiddenError
	roles := ""
	if errors.As(err, &fe) {
		roles = domain.JoinRoles(fe.Required, " or ")
	}
	return ErrorBody{Error: "Forbidden", Message: "Access denied. Required role: " + roles}
}

func rateLimitedBody(dec domain.Decision) ErrorBody {
	return ErrorBody{
		Error:      "Too many requests",
		Message:    "Rate limit exceeded. Please try again later.",
		RetryAfter: int(dec.RetryAfter / time.Second),
	}
}

func setRateLimitHeaders(h http.Header, dec domain.Decision) {
	h.Set(HeaderRateLimitLimit, formatInt(dec.Limit))
	h.Set(HeaderRateLimitRemaining, formatInt(dec.Remaining))
	h.Set(HeaderRateLimitReset, dec.ResetAt.UTC().Format(resetLayout))
}

func formatInt(v int) string { return strconv.Itoa(v) }
