package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophchat/pkg/api"
)

func TestStruct_Signup(t *testing.T) {
	tests := []struct {
		name    string
		req     api.SignupRequest
		field   string
		errMsg  string
		wantErr bool
	}{
		{
			name: "valid request",
			req:  api.SignupRequest{FullName: "Alice", Email: "alice@example.com", Password: "secret"},
		},
		{
			name:    "missing full name",
			req:     api.SignupRequest{Email: "alice@example.com", Password: "secret"},
			wantErr: true,
			field:   "fullName",
			errMsg:  "fullName is required",
		},
		{
			name:    "invalid email",
			req:     api.SignupRequest{FullName: "Alice", Email: "alice", Password: "secret"},
			wantErr: true,
			field:   "email",
			errMsg:  "email must be a valid email address",
		},
		{
			name:    "short password",
			req:     api.SignupRequest{FullName: "Alice", Email: "alice@example.com", Password: "12345"},
			wantErr: true,
			field:   "password",
			errMsg:  "password should be at least 6 characters long",
		},
		{
			name:    "first failing field is reported",
			req:     api.SignupRequest{},
			wantErr: true,
			field:   "fullName",
			errMsg:  "fullName is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, tt.errMsg, fe.Error())
		})
	}
}

func TestStruct_Login(t *testing.T) {
	assert.NoError(t, Struct(api.LoginRequest{Email: "bob@example.com", Password: "x"}))

	var fe *FieldError
	require.ErrorAs(t, Struct(api.LoginRequest{Email: "bob@example.com"}), &fe)
	assert.Equal(t, "password", fe.Field)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "secret", wantErr: false},
		{name: "empty", password: "", wantErr: true},
		{name: "too short", password: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
