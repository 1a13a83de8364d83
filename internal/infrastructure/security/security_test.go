package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateULID(t *testing.T) {
	t.Parallel()

	a := GenerateULID()
	b := GenerateULID()
	assert.NotEqual(t, a, b)
	_, err := ulid.Parse(a)
	require.NoError(t, err)
}

func TestAdminTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, expires, err := GenerateAdminToken("secret", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := ValidateAdminToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, AdminRole, claims["role"])

	_, err = ValidateAdminToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateAdminTokenRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{
			name:   "wrong role",
			claims: jwt.MapClaims{"role": "viewer", "type": AdminTokenType, "exp": time.Now().Add(time.Hour).Unix()},
		},
		{
			name:   "wrong type",
			claims: jwt.MapClaims{"role": AdminRole, "type": "profile", "exp": time.Now().Add(time.Hour).Unix()},
		},
		{
			name:   "expired",
			claims: jwt.MapClaims{"role": AdminRole, "type": AdminTokenType, "exp": time.Now().Add(-time.Hour).Unix()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString([]byte("secret"))
			require.NoError(t, err)

			_, err = ValidateAdminToken(signed, "secret")
			assert.Error(t, err)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "battery staple"), ErrInvalidPassword)
}
