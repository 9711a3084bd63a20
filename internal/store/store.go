// Package store persists the credential pair between runs. The file store is
// the default for interactive use; the redis store suits headless clients
// that share a session across processes.
package store

import (
	"context"

	"lingua-client/internal/domain"
)

// Store owns the credential pair lifecycle: written on login, access token
// overwritten on refresh, cleared on logout or unrecoverable auth failure.
type Store interface {
	// Load returns the stored pair, or domain.ErrNoCredentials if none exists.
	Load(ctx context.Context) (domain.TokenPair, error)
	// Save replaces both tokens.
	Save(ctx context.Context, pair domain.TokenPair) error
	// SetAccessToken overwrites the access token only, keeping the refresh token.
	SetAccessToken(ctx context.Context, token string) error
	// Clear removes both tokens.
	Clear(ctx context.Context) error
}
