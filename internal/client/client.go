// Package client is the storefront's API client. Every request goes through
// Client.send, which attaches the session credential and reacts to 401s.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"aerokit/internal/session"

	"go.uber.org/zap"
)

const (
	defaultUserAgent = "aerokit-web/1.0"
	defaultLoginPath = "/login"
)

// Navigator moves the browser. Implementations decide what a redirect means
// for their surface.
type Navigator interface {
	CurrentPath(ctx context.Context) string
	Redirect(ctx context.Context, path string)
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      session.Store
	Navigator  Navigator
	LoginPath  string
	UserAgent  string
	Logger     *zap.SugaredLogger
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      session.Store
	navigator  Navigator
	loginPath  string
	userAgent  string
	logger     *zap.SugaredLogger
}

func NewClient(cfg Config) (*Client, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Store == nil {
		return nil, errors.New("client: session store required")
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: cfg.HTTPClient,
		store:      cfg.Store,
		navigator:  cfg.Navigator,
		loginPath:  cfg.LoginPath,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.loginPath == "" {
		c.loginPath = defaultLoginPath
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	return c, nil
}

// WithSession returns a copy of c bound to another session and navigator.
// The HTTP client is shared.
func (c *Client) WithSession(store session.Store, nav Navigator) *Client {
	cp := *c
	cp.store = store
	cp.navigator = nav
	return &cp
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("client: base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("client: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("client: base URL must be http(s): %q", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Do sends a JSON request and decodes the "data" member of a 2xx answer into
// out. Non-2xx answers come back as *APIError and failed round trips as
// *TransportError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type anonymousKey struct{}

// anonymous marks a request that must not carry the stored credential. A 401
// on such a request is an answer about the submitted credentials and leaves
// the session alone.
func anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

// send is the only path to the network.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var token string
	if !isAnonymous(ctx) {
		var err error
		if token, err = c.store.Token(ctx); err != nil {
			return nil, fmt.Errorf("read session token: %w", err)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnw("api request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}

	c.logger.Debugw("api request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	apiErr := decodeAPIError(resp)
	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, token)
	}
	return nil, apiErr
}

// handleUnauthorized purges the session the rejected request carried. Only
// the first request to observe a 401 for a given credential wins the purge,
// so concurrent failures redirect once.
func (c *Client) handleUnauthorized(ctx context.Context, token string) {
	if token == "" {
		return
	}

	cleared, err := c.store.ClearIfToken(ctx, token)
	if err != nil {
		c.logger.Errorw("could not purge rejected session", "error", err)
		return
	}
	if !cleared {
		return
	}

	if err := c.store.SetFlag(ctx, session.FlagRecentlyLoggedOut); err != nil {
		c.logger.Warnw("could not mark session as logged out", "error", err)
	}
	c.logger.Infow("session rejected by api, logged out")

	if c.navigator == nil {
		return
	}
	if c.navigator.CurrentPath(ctx) != c.loginPath {
		c.navigator.Redirect(ctx, c.loginPath)
	}
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
