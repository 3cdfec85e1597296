package infra

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/middleware/gatekeeper/domain"
)

const testSecret = "test-secret-key-minimum-32-characters-long-for-hmac"

func newTestAuthenticator(t *testing.T, clock *fakeClock) *JWTAuthenticator {
	t.Helper()
	a, err := NewJWTAuthenticator(testSecret, WithTokenClock(clock.Now), WithIssuer("gatekeeper-test"))
	require.NoError(t, err)
	return a
}

func TestNewJWTAuthenticator_RequiresSecret(t *testing.T) {
	_, err := NewJWTAuthenticator("")
	assert.Error(t, err)
}

func TestJWTAuthenticator_IssueAndAuthenticate(t *testing.T) {
	clock := newFakeClock()
	a := newTestAuthenticator(t, clock)

	for _, role := range domain.Roles {
		tok, err := a.Issue(domain.Principal{ID: "42", Role: role}, time.Hour)
		require.NoError(t, err)

		p, err := a.AuthenticateToken(tok)
		require.NoError(t, err)
		assert.Equal(t, role, p.Role)
		assert.Equal(t, "42", p.ID)
	}
}

func TestJWTAuthenticator_ExpiredToken(t *testing.T) {
	clock := newFakeClock()
	a := newTestAuthenticator(t, clock)

	tok, err := a.Issue(domain.Principal{ID: "1", Role: domain.RoleUser}, time.Minute)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = a.AuthenticateToken(tok)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.NotErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTAuthenticator_TamperedSignature(t *testing.T) {
	clock := newFakeClock()
	a := newTestAuthenticator(t, clock)

	tok, err := a.Issue(domain.Principal{ID: "1", Role: domain.RoleUser}, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = a.AuthenticateToken(tampered)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWTAuthenticator_ExpiredAndTamperedIsInvalid(t *testing.T) {
	clock := newFakeClock()
	a := newTestAuthenticator(t, clock)

	tok, err := a.Issue(domain.Principal{ID: "1", Role: domain.RoleUser}, time.Minute)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	other, err := NewJWTAuthenticator("another-secret", WithTokenClock(clock.Now))
	require.NoError(t, err)
	_, err = other.AuthenticateToken(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTAuthenticator_Malformed(t *testing.T) {
	a := newTestAuthenticator(t, newFakeClock())

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := a.AuthenticateToken(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidToken, "token %q", raw)
	}
}

func TestJWTAuthenticator_RejectsOtherAlgorithms(t *testing.T) {
	clock := newFakeClock()
	a := newTestAuthenticator(t, clock)

	claims := jwt.MapClaims{"id": 1, "role": "admin", "exp": clock.Now().Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = a.AuthenticateToken(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTAuthenticator_ClaimShapes(t *testing.T) {
	clock := newFakeClock()
	a := newTestAuthenticator(t, clock)
	exp := clock.Now().Add(time.Hour).Unix()

	sign := func(c jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return tok
	}

	p, err := a.AuthenticateToken(sign(jwt.MapClaims{"id": 7, "role": "admin", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{ID: "7", Role: domain.RoleAdmin}, p)

	p, err = a.AuthenticateToken(sign(jwt.MapClaims{"id": "u-7", "role": "user", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{ID: "u-7", Role: domain.RoleUser}, p)

	_, err = a.AuthenticateToken(sign(jwt.MapClaims{"id": 7, "role": "root", "exp": exp}))
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = a.AuthenticateToken(sign(jwt.MapClaims{"role": "user", "exp": exp}))
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = a.AuthenticateToken(sign(jwt.MapClaims{"id": 7, "role": "user"}))
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "exp is required")
}

func TestJWTAuthenticator_IssueValidatesPrincipal(t *testing.T) {
	a := newTestAuthenticator(t, newFakeClock())

	_, err := a.Issue(domain.Principal{ID: "1", Role: "root"}, time.Hour)
	assert.Error(t, err)
	_, err = a.Issue(domain.Principal{Role: domain.RoleUser}, time.Hour)
	assert.Error(t, err)
}
