package client

import (
	"context"

	"connectrpc.com/connect"
)

// CredentialProvider supplies the bearer token for each call. An empty token
// sends the request anonymously.
type CredentialProvider interface {
	Token() string
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

func credentialInterceptor(creds CredentialProvider) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				if token := creds.Token(); token != "" {
					req.Header().Set("Authorization", "Bearer "+token)
				}
			}
			return next(ctx, req)
		}
	}
}
