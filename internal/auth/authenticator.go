package auth

import (
	"context"

	"github.com/bubelovv/bounty-board/internal/domain"
)

type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (Identity, error)
}

type UserStore interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
}

type Authenticator struct {
	verifier TokenVerifier
	users    UserStore
}

func NewAuthenticator(verifier TokenVerifier, users UserStore) *Authenticator {
	return &Authenticator{verifier: verifier, users: users}
}

// Authenticate verifies the bearer token in header without touching the user store.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (Identity, error) {
	token, err := BearerToken(header)
	if err != nil {
		return Identity{}, err
	}
	return a.verifier.Verify(ctx, token)
}

// Resolve authenticates header and loads the user record for its subject.
func (a *Authenticator) Resolve(ctx context.Context, header string) (domain.User, error) {
	identity, err := a.Authenticate(ctx, header)
	if err != nil {
		return domain.User{}, err
	}
	return a.users.GetUser(ctx, identity.Subject)
}
