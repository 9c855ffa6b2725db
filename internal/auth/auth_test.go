package auth

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, VerifyPassword("s3cret-password", hash))
	assert.Error(t, VerifyPassword("wrong-password", hash))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	assert.Error(t, VerifyPassword("anything", "not-a-hash"))
	assert.Error(t, VerifyPassword("anything", "$bcrypt$v=19$m=1,t=1,p=1$abc$def"))
}

func TestGenerateToken_RoundTrip(t *testing.T) {
	InitializeJWT("test-secret")

	token, err := GenerateAccessToken("01ARZ3NDEKTSV4RRFFQ69G5FAV", "chief@agency.gov")
	require.NoError(t, err)

	claims, err := ValidateToken(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", claims.UserID)
	assert.Equal(t, "chief@agency.gov", claims.Email)
}

func TestValidateToken_RejectsWrongType(t *testing.T) {
	InitializeJWT("test-secret")

	refresh, err := GenerateRefreshToken("user-1", "a@b.gov")
	require.NoError(t, err)

	_, err = ValidateToken(refresh, TokenTypeAccess)
	assert.Error(t, err)

	_, err = ValidateToken(refresh, TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	InitializeJWT("test-secret")

	token, err := GenerateToken("user-1", "a@b.gov", TokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, TokenTypeAccess)
	assert.Error(t, err)
}

func TestGenerateOTP_SixDigits(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for range 50 {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.True(t, pattern.MatchString(code), "unexpected OTP format: %s", code)
	}
}
