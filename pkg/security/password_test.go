package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersoneims/oracle-api/pkg/security"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "Password1", nil},
		{"too short", "Pa1", security.ErrPasswordTooShort},
		{"no uppercase", "password1", security.ErrPasswordNoUpper},
		{"no lowercase", "PASSWORD1", security.ErrPasswordNoLower},
		{"no digit", "Passwords", security.ErrPasswordNoDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := security.ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	hasher := security.NewBcryptHasher(4)

	hash, err := hasher.Hash("Password1")
	require.NoError(t, err)
	assert.NotEqual(t, "Password1", hash)

	assert.NoError(t, hasher.Compare(hash, "Password1"))
	assert.ErrorIs(t, hasher.Compare(hash, "WrongPass1"), security.ErrPasswordMismatched)
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := security.GenerateSessionToken()
	require.NoError(t, err)
	b, err := security.GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, a, security.TokenLength)
	assert.NotEqual(t, a, b)
}
