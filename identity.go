package clarifyr

import "context"

// Identity is the authenticated caller of an explain request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Label returns the value used to attribute a result to the caller:
// the email when known, otherwise the ID.
func (i Identity) Label() string {
	if i.Email != "" {
		return i.Email
	}
	return i.ID
}

// IdentityService verifies bearer tokens issued by an external auth provider.
type IdentityService interface {
	// Authenticate returns the identity the token was issued to.
	// Returns EUNAUTHORIZED if the token is missing, expired or unknown.
	Authenticate(ctx context.Context, token string) (*Identity, error)
}
