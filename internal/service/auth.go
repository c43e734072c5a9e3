package service

import (
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/kryptonation/creamrun-sub000/internal/server"
)

// AuthService configures Clerk, which verifies the bearer tokens on the API.
type AuthService struct {
	disabled bool
}

func NewAuthService(s *server.Server) *AuthService {
	clerk.SetKey(s.Config.Auth.SecretKey)
	return &AuthService{
		disabled: s.Config.Auth.Disabled && s.Config.Primary.Env == "local",
	}
}

// Disabled reports whether token checks are skipped. Only the local
// environment may skip them.
func (a *AuthService) Disabled() bool {
	return a.disabled
}
