package mock

import (
	"context"

	"github.com/fwojciec/clarifyr"
)

var _ clarifyr.IdentityService = (*IdentityService)(nil)

// IdentityService is a mock implementation of clarifyr.IdentityService.
type IdentityService struct {
	AuthenticateFn func(ctx context.Context, token string) (*clarifyr.Identity, error)
}

func (s *IdentityService) Authenticate(ctx context.Context, token string) (*clarifyr.Identity, error) {
	return s.AuthenticateFn(ctx, token)
}
