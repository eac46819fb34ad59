package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash1, err := HashPassword("secret123")
	require.NoError(t, err)
	hash2, err := HashPassword("secret123")
	require.NoError(t, err)

	// Соль случайная, хеши одного пароля различаются
	assert.NotEqual(t, hash1, hash2)
	assert.NotContains(t, hash1, "secret123")

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)

	tests := []struct {
		wantErr  error
		name     string
		password string
		hash     string
		fails    bool
	}{
		{name: "correct password", password: "secret123", hash: hash},
		{name: "wrong password", password: "secret124", hash: hash, fails: true, wantErr: ErrPasswordMismatch},
		{name: "empty hash", password: "secret123", hash: "", fails: true},
		{name: "garbage hash", password: "secret123", hash: "not-a-bcrypt-hash", fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPassword(tt.password, tt.hash)
			if !tt.fails {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
