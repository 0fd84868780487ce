package meetup

import (
	"context"
	"errors"
)

// TokenSource supplies the bearer token for GraphQL calls. Acquiring and
// refreshing the token happens elsewhere.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a token read from configuration.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.New("meetup access token is not configured")
	}
	return string(t), nil
}
