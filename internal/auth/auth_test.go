package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/emailbuilder/emailbuilder/internal/config"
)

func testTokenService() *TokenService {
	return NewTokenService(config.SecurityConfig{JWTSecret: "test-secret", JWTIssuer: "emailbuilder"})
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := testTokenService()

	token, err := svc.IssueToken("ops@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, "emailbuilder", claims.Issuer)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := testTokenService()

	token, err := svc.IssueToken("ops", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsOtherSecretAndIssuer(t *testing.T) {
	other := NewTokenService(config.SecurityConfig{JWTSecret: "other", JWTIssuer: "emailbuilder"})
	token, err := other.IssueToken("ops", time.Hour)
	require.NoError(t, err)
	_, err = testTokenService().ValidateToken(token)
	assert.Error(t, err)

	foreign := NewTokenService(config.SecurityConfig{JWTSecret: "test-secret", JWTIssuer: "someone-else"})
	token, err = foreign.IssueToken("ops", time.Hour)
	require.NoError(t, err)
	_, err = testTokenService().ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	claims := AdminClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "emailbuilder",
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testTokenService().ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_Disabled(t *testing.T) {
	svc := NewTokenService(config.SecurityConfig{})
	assert.False(t, svc.Enabled())

	_, err := svc.IssueToken("ops", time.Hour)
	assert.ErrorIs(t, err, ErrTokensDisabled)
	_, err = svc.ValidateToken("x.y.z")
	assert.ErrorIs(t, err, ErrTokensDisabled)
}

func cheapParams() *Argon2Params {
	return &Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestVerifyAPIKey_Argon2(t *testing.T) {
	hash, err := HashAPIKey("correct-horse-battery-staple", cheapParams())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyAPIKey("correct-horse-battery-staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyAPIKey("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAPIKey_Bcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-key"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := VerifyAPIKey("secret-key", string(hash))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyAPIKey("other-key", string(hash))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAPIKey_UnknownFormat(t *testing.T) {
	_, err := VerifyAPIKey("key", "plaintext")
	assert.Error(t, err)
}

func TestAPIKeyVerifier(t *testing.T) {
	hash, err := HashAPIKey("admin-key", cheapParams())
	require.NoError(t, err)

	v := NewAPIKeyVerifier(hash)
	assert.True(t, v.Verify("admin-key"))
	assert.True(t, v.Verify("admin-key"))
	assert.False(t, v.Verify("nope"))
	assert.False(t, v.Verify(""))

	assert.False(t, NewAPIKeyVerifier("").Verify("admin-key"))
}

func TestValidateAPIKey(t *testing.T) {
	assert.Error(t, ValidateAPIKey("short"))
	assert.Error(t, ValidateAPIKey(strings.Repeat("a", 30)))
	assert.Error(t, ValidateAPIKey(strings.Repeat("ab", 100)))

	key, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NoError(t, ValidateAPIKey(key))
}
