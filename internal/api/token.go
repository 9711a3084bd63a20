package api

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims decodes the stored access token without verifying its
// signature. Verification is the server's job; the client only surfaces
// claims such as expiry and subject for display.
func (c *Client) AccessTokenClaims(ctx context.Context) (jwt.MapClaims, error) {
	pair, err := c.tokens.Load(ctx)
	if err != nil {
		return nil, err
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, claims); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}
	return claims, nil
}
