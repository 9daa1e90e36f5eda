// Package supabase implements clarifyr.IdentityService on top of the
// Supabase Auth client.
package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/clarifyr"
	"github.com/google/uuid"
	auth "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"
)

// DefaultTimeout bounds a token verification request.
const DefaultTimeout = 5 * time.Second

// Ensure IdentityService implements clarifyr.IdentityService at compile time.
var _ clarifyr.IdentityService = (*IdentityService)(nil)

// IdentityService verifies access tokens issued by Supabase Auth.
type IdentityService struct {
	authURL string
	apiKey  string
	client  http.Client
}

// NewIdentityService creates a new IdentityService for the project at
// baseURL, authenticating to the API with apiKey.
func NewIdentityService(baseURL, apiKey string) *IdentityService {
	return &IdentityService{
		authURL: strings.TrimRight(baseURL, "/") + "/auth/v1",
		apiKey:  apiKey,
		client:  http.Client{Timeout: DefaultTimeout},
	}
}

type userResult struct {
	user *types.UserResponse
	err  error
}

// Authenticate returns the identity the access token belongs to.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*clarifyr.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, clarifyr.Errorf(clarifyr.EUNAUTHORIZED, "no token provided")
	}

	// The auth client takes no context; the HTTP client timeout ends the
	// call if ctx is abandoned first.
	done := make(chan userResult, 1)
	go func() {
		client := auth.New("", s.apiKey).
			WithCustomAuthURL(s.authURL).
			WithClient(s.client).
			WithToken(token)
		user, err := client.GetUser()
		done <- userResult{user: user, err: err}
	}()

	var res userResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("verify token: %w", ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		switch statusCode(res.err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, clarifyr.WrapError(res.err, clarifyr.EUNAUTHORIZED, "invalid token")
		}
		return nil, fmt.Errorf("verify token: %w", res.err)
	}
	if res.user == nil || res.user.ID == uuid.Nil {
		return nil, clarifyr.Errorf(clarifyr.EUNAUTHORIZED, "invalid token")
	}

	return &clarifyr.Identity{ID: res.user.ID.String(), Email: res.user.Email}, nil
}

// statusCode extracts the HTTP status from an auth client error, which
// reads "response status code <n>: <body>". Returns 0 for transport errors.
func statusCode(err error) int {
	var code int
	if _, scanErr := fmt.Sscanf(err.Error(), "response status code %d", &code); scanErr != nil {
		return 0
	}
	return code
}
