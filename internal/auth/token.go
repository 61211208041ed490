package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)
	ErrInvalidToken = fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	ErrNoSubject    = fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
)

// Identity is what a verified token asserts about the caller.
type Identity struct {
	Subject string
	Email   string
}

type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

type Verifier struct {
	keys   KeySource
	parser *jwt.Parser
}

func NewVerifier(keys KeySource, issuer, audience string) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &Verifier{keys: keys, parser: jwt.NewParser(opts...)}
}

// Verify checks the signature and registered claims of raw. Failure to obtain
// signing keys is returned unclassified so callers report it as upstream.
func (v *Verifier) Verify(ctx context.Context, raw string) (Identity, error) {
	var keyErr error
	claims := &Claims{}

	_, err := v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, err := v.keys.PublicKey(ctx, kid)
		if err != nil {
			keyErr = err
			return nil, err
		}
		return key, nil
	})
	if keyErr != nil && errors.Is(keyErr, ErrKeysUnavailable) {
		return Identity{}, keyErr
	}
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject := claims.UserID
	if subject == "" {
		subject = claims.Subject
	}
	if strings.TrimSpace(subject) == "" {
		return Identity{}, ErrNoSubject
	}

	return Identity{Subject: subject, Email: claims.Email}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
