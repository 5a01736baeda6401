package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testSettings() TokenSettings {
	return TokenSettings{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		ResetSecret:   "reset-secret",
		AccessTTL:     30 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		ResetTTL:      20 * time.Minute,
	}
}

func TestTokenRoundTripPerPurpose(t *testing.T) {
	tokens, err := NewTokenService(testSettings())
	require.NoError(t, err)

	purposes := []Purpose{PurposeAccess, PurposeRefresh, PurposeReset}
	for _, purpose := range purposes {
		signed, err := tokens.Issue(purpose, "acc-1", " ada@x.com ")
		require.NoError(t, err)

		claims, err := tokens.Verify(purpose, signed)
		require.NoError(t, err, purpose)
		assert.Equal(t, "acc-1", claims.Subject)
		assert.Equal(t, "ada@x.com", claims.Email)

		for _, other := range purposes {
			if other == purpose {
				continue
			}
			_, err := tokens.Verify(other, signed)
			assert.ErrorIs(t, err, ErrInvalidToken, "%s token accepted as %s", purpose, other)
		}
	}
}

func TestTokenExpiry(t *testing.T) {
	tokens, err := NewTokenService(testSettings())
	require.NoError(t, err)

	issuedAt := time.Now()
	tokens.now = func() time.Time { return issuedAt }
	signed, err := tokens.Issue(PurposeReset, "acc-1", "ada@x.com")
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(19 * time.Minute) }
	_, err = tokens.Verify(PurposeReset, signed)
	assert.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(21 * time.Minute) }
	_, err = tokens.Verify(PurposeReset, signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenRejectsGarbage(t *testing.T) {
	tokens, err := NewTokenService(testSettings())
	require.NoError(t, err)

	signed, err := tokens.Issue(PurposeAccess, "acc-1", "ada@x.com")
	require.NoError(t, err)

	for _, raw := range []string{"", "not-a-jwt", signed + "x", signed[:len(signed)-4]} {
		_, err := tokens.Verify(PurposeAccess, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}

	_, err = tokens.Verify(Purpose("admin"), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Issue(Purpose("admin"), "acc-1", "ada@x.com")
	assert.Error(t, err)
}

func TestNewTokenServiceValidatesSettings(t *testing.T) {
	shared := testSettings()
	shared.ResetSecret = shared.AccessSecret
	_, err := NewTokenService(shared)
	assert.Error(t, err)

	empty := testSettings()
	empty.RefreshSecret = ""
	_, err = NewTokenService(empty)
	assert.Error(t, err)

	zeroTTL := testSettings()
	zeroTTL.AccessTTL = 0
	_, err = NewTokenService(zeroTTL)
	assert.Error(t, err)
}

func TestDigestTokenIsStable(t *testing.T) {
	assert.Equal(t, DigestToken("abc"), DigestToken("abc"))
	assert.NotEqual(t, DigestToken("abc"), DigestToken("abd"))
	assert.Len(t, DigestToken("abc"), 64)
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("Passw0rd!")
	require.NoError(t, err)
	assert.NotContains(t, string(hash), "Passw0rd!")

	ok, err := hasher.Compare(hash, "Passw0rd!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Compare(hash, "passw0rd!")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = hasher.Compare([]byte("not-a-hash"), "Passw0rd!")
	assert.Error(t, err)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, otp)
	}
}
