package auth

import "context"

// noopVerifier trusts the token as the user id.
type noopVerifier struct{}

func (noopVerifier) Verify(_ context.Context, token string) (Principal, error) {
	return Principal{UserID: token}, nil
}
