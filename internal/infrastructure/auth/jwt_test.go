package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_2abc",
			Issuer:    "https://auth.example.com",
			Audience:  jwt.ClaimStrings{"invoicely"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "jane@example.com",
		Name:  "Jane Doe",
	}
}

func newTestValidator() *JWTValidator {
	return NewJWTValidator(config.JWTConfig{
		Secret:   testSecret,
		Issuer:   "https://auth.example.com",
		Audience: "invoicely",
	})
}

func TestJWTValidator_Validate_Success(t *testing.T) {
	v := newTestValidator()
	token := sign(t, testSecret, jwt.SigningMethodHS256, validClaims())

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", claims.UserID())
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "Jane Doe", claims.Name)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.GetExpiresAtTime(), 2*time.Second)
}

func TestJWTValidator_Validate_Errors(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name   string
		token  func(t *testing.T) string
		expect error
	}{
		{
			name:   "empty token",
			token:  func(t *testing.T) string { return " " },
			expect: ErrInvalidToken,
		},
		{
			name:   "garbage",
			token:  func(t *testing.T) string { return "not.a.jwt" },
			expect: ErrInvalidToken,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return sign(t, "another-secret-another-secret-xx", jwt.SigningMethodHS256, validClaims())
			},
			expect: ErrInvalidToken,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				c := validClaims()
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
				return sign(t, testSecret, jwt.SigningMethodHS256, c)
			},
			expect: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				c := validClaims()
				c.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))
				return sign(t, testSecret, jwt.SigningMethodHS256, c)
			},
			expect: ErrTokenNotYetValid,
		},
		{
			name: "missing expiry",
			token: func(t *testing.T) string {
				c := validClaims()
				c.ExpiresAt = nil
				return sign(t, testSecret, jwt.SigningMethodHS256, c)
			},
			expect: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				c := validClaims()
				c.Issuer = "https://evil.example.com"
				return sign(t, testSecret, jwt.SigningMethodHS256, c)
			},
			expect: ErrInvalidClaims,
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				c := validClaims()
				c.Audience = jwt.ClaimStrings{"other"}
				return sign(t, testSecret, jwt.SigningMethodHS256, c)
			},
			expect: ErrInvalidClaims,
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				c := validClaims()
				c.Subject = ""
				return sign(t, testSecret, jwt.SigningMethodHS256, c)
			},
			expect: ErrMissingSubject,
		},
		{
			name: "unsigned token",
			token: func(t *testing.T) string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims()).
					SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return token
			},
			expect: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.token(t))
			assert.ErrorIs(t, err, tt.expect)
		})
	}
}

func TestJWTValidator_AcceptsHS512(t *testing.T) {
	v := newTestValidator()
	token := sign(t, testSecret, jwt.SigningMethodHS512, validClaims())

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", claims.Subject)
}

func TestJWTValidator_OptionalIssuerAndAudience(t *testing.T) {
	v := NewJWTValidator(config.JWTConfig{Secret: testSecret})
	c := validClaims()
	c.Issuer = "anyone"
	c.Audience = nil

	_, err := v.Validate(sign(t, testSecret, jwt.SigningMethodHS256, c))
	assert.NoError(t, err)
}
