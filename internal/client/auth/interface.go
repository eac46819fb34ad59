package auth

import (
	"context"

	"github.com/iudanet/gophchat/internal/client/api"
	pkgapi "github.com/iudanet/gophchat/pkg/api"
)

// API is the part of the server API the auth service needs
type API interface {
	Signup(ctx context.Context, req pkgapi.SignupRequest) (*api.Session, error)
	Login(ctx context.Context, req pkgapi.LoginRequest) (*api.Session, error)
	Logout(ctx context.Context, token string) error
}
