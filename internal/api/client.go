// Package api implements the authenticated client for the Lingua platform
// API, including transparent recovery from access-token expiry via a
// single-flight refresh shared by all in-flight requests.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lingua-client/internal/domain"
	"lingua-client/internal/store"
)

const defaultRefreshTimeout = 10 * time.Second

// Client performs JSON calls against the platform API. It attaches the
// stored access token to every request and owns the 401 recovery protocol.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    store.Store
	logger    *slog.Logger
	refresher *refresher

	refreshTimeout time.Duration

	// onSessionExpired fires after stored credentials are cleared because a
	// 401 could not be recovered. It is the CLI analog of the browser
	// client redirecting to the login page.
	onSessionExpired func()
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the structured logger used for auth recovery and
// error passthrough logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSessionExpiredHook registers the callback run when the session is
// terminally lost and the user must authenticate again.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// WithRefreshTimeout bounds the refresh call so a hung refresh fails the
// pending queue instead of suspending it indefinitely.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) { c.refreshTimeout = d }
}

// New builds a client for the API rooted at baseURL (e.g. "https://host/api").
func New(baseURL string, tokens store.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Timeout: 30 * time.Second},
		tokens:         tokens,
		logger:         slog.Default(),
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.refresher = newRefresher(c.performRefresh)
	return c
}

// do runs one authenticated request, transparently refreshing the access
// token on a refresh-eligible 401 and retrying the original request exactly
// once with the new token.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	err := c.send(ctx, method, path, c.accessToken(ctx), body, out)
	if err == nil {
		return nil
	}

	httpErr, ok := err.(*domain.HTTPError)
	if !ok {
		return err
	}
	if httpErr.Status != http.StatusUnauthorized {
		c.logPassthrough(method, path, httpErr)
		return err
	}

	pair, loadErr := c.tokens.Load(ctx)
	if !refreshEligible(httpErr) || loadErr != nil || pair.RefreshToken == "" {
		// Unrecoverable 401: drop the session and surface the original error.
		c.logger.Warn("unauthorized, session cleared",
			slog.String("path", path), slog.String("message", httpErr.Message))
		c.expireSession(ctx)
		return httpErr
	}

	token, refreshErr := c.refresher.await(ctx)
	if refreshErr != nil {
		return refreshErr
	}

	// Retry once with the refreshed token; a second 401 propagates as-is.
	c.logger.Debug("retrying request after token refresh", slog.String("path", path))
	return c.send(ctx, method, path, token, body, out)
}

// performRefresh is the single-flight leader body: it calls the refresh
// endpoint directly (bypassing 401 handling) with the refresh token as
// bearer. On success the new access token is persisted; on any failure the
// session is terminally cleared.
func (c *Client) performRefresh(ctx context.Context) (string, error) {
	pair, err := c.tokens.Load(ctx)
	if err != nil {
		c.expireSession(ctx)
		return "", &domain.RefreshError{Err: err}
	}

	refreshCtx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.send(refreshCtx, http.MethodPost, "/auth/refresh", pair.RefreshToken, nil, &resp); err != nil {
		c.logger.Warn("token refresh failed, session cleared", slog.Any("error", err))
		c.expireSession(ctx)
		return "", &domain.RefreshError{Err: err}
	}
	if err := c.tokens.SetAccessToken(ctx, resp.AccessToken); err != nil {
		c.expireSession(ctx)
		return "", &domain.RefreshError{Err: err}
	}
	c.logger.Info("access token refreshed")
	return resp.AccessToken, nil
}

func (c *Client) expireSession(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Error("failed to clear credentials", slog.Any("error", err))
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// accessToken fetches the current access token, or "" when anonymous.
func (c *Client) accessToken(ctx context.Context) string {
	pair, err := c.tokens.Load(ctx)
	if err != nil {
		return ""
	}
	return pair.AccessToken
}

// send performs a single HTTP exchange with no recovery logic. A non-empty
// token is attached as a bearer credential. out, when non-nil, receives the
// decoded JSON body of a 2xx response.
func (c *Client) send(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeHTTPError(resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) logPassthrough(method, path string, err *domain.HTTPError) {
	switch err.Status {
	case http.StatusForbidden:
		c.logger.Warn("forbidden", slog.String("method", method), slog.String("path", path), slog.String("message", err.Message))
	case http.StatusNotFound:
		c.logger.Warn("not found", slog.String("method", method), slog.String("path", path), slog.String("message", err.Message))
	case http.StatusInternalServerError:
		c.logger.Error("server error", slog.String("method", method), slog.String("path", path), slog.String("message", err.Message))
	}
}

// Error codes the backend may attach to 401 payloads. The message fallbacks
// cover backends that only send human-readable text.
const (
	codeTokenRevoked    = "TOKEN_REVOKED"
	codeSignatureFailed = "SIGNATURE_FAILED"
)

func refreshEligible(err *domain.HTTPError) bool {
	switch err.Code {
	case codeTokenRevoked, codeSignatureFailed:
		return true
	}
	switch err.Message {
	case "Token has been revoked.", "Signature verification failed.":
		return true
	}
	return false
}

func decodeHTTPError(status int, data []byte) *domain.HTTPError {
	payload := struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}{}
	_ = json.Unmarshal(data, &payload)
	if payload.Message == "" {
		payload.Message = http.StatusText(status)
	}
	return &domain.HTTPError{Status: status, Code: payload.Code, Message: payload.Message}
}
