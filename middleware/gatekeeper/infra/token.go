package infra

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gatekeeper/middleware/gatekeeper/domain"
)

// TokenClaims são as claims aceitas no bearer token.
//
// O id pode vir como string ou número; ambos viram string no Principal.
type TokenClaims struct {
	jwt.RegisteredClaims
	PrincipalID SubjectID `json:"id"`
	Role        string    `json:"role"`
}

// SubjectID aceita `"id": 7` e `"id": "7"`.
type SubjectID string

func (s *SubjectID) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = SubjectID(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("id claim must be a string or number: %w", err)
	}
	*s = SubjectID(num.String())
	return nil
}

func (s SubjectID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(s), 10, 64); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(string(s))
}

// JWTAuthenticator implementa domain.TokenAuthenticator com HS256.
//
// As claims são confiadas como vieram depois que a assinatura confere; não há
// consulta a base de usuários aqui.
type JWTAuthenticator struct {
	secret []byte
	now    func() time.Time
	issuer string
}

type JWTOption func(*JWTAuthenticator)

func WithTokenClock(now func() time.Time) JWTOption {
	return func(a *JWTAuthenticator) { a.now = now }
}

// WithIssuer grava o issuer nos tokens emitidos. A verificação não exige issuer.
func WithIssuer(iss string) JWTOption {
	return func(a *JWTAuthenticator) { a.issuer = iss }
}

func NewJWTAuthenticator(secret string, opts ...JWTOption) (*JWTAuthenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	a := &JWTAuthenticator{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AuthenticateToken verifica assinatura e expiração, nessa ordem.
// A jwt/v5 só valida claims depois da assinatura, então um token expirado com
// assinatura adulterada continua sendo ErrInvalidToken.
func (a *JWTAuthenticator) AuthenticateToken(raw string) (domain.Principal, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, domain.NewAuthenticationError(domain.ErrTokenExpired, err)
		}
		return domain.Principal{}, domain.NewAuthenticationError(domain.ErrInvalidToken, err)
	}

	if claims.PrincipalID == "" {
		return domain.Principal{}, domain.NewAuthenticationError(domain.ErrInvalidToken, errors.New("id claim is missing"))
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Principal{}, domain.NewAuthenticationError(domain.ErrInvalidToken, err)
	}
	return domain.Principal{ID: string(claims.PrincipalID), Role: role}, nil
}

// Issue emite um token para o principal válido por ttl.
func (a *JWTAuthenticator) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	if !p.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", p.Role)
	}
	if p.ID == "" {
		return "", errors.New("principal id is required")
	}
	now := a.now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		PrincipalID: SubjectID(p.ID),
		Role:        string(p.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
