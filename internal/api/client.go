// Package api implements the authenticated request layer shared by every
// backend client: bearer injection, a single refresh-and-retry on 401,
// envelope decoding and the domain error taxonomy.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/siteprobe/siteprobe-cli/internal/logging"
)

// TokenSource supplies the current access token and a way to exchange the
// refresh token for a new one. Implementations must make Refresh safe for
// concurrent callers; the session client guards it with a single-flight group
// so simultaneous 401s share one upstream exchange.
type TokenSource interface {
	// AccessToken returns the current access token, or "" when signed out.
	AccessToken() string

	// Refresh exchanges the refresh token for a new access token. It returns
	// "" with an error when the exchange fails; stored state is not cleared.
	Refresh(ctx context.Context) (string, error)
}

// Options configures a Client.
type Options struct {
	// BaseURL is the backend base URL, without a trailing slash.
	BaseURL string

	// Tokens supplies bearer tokens; nil disables authentication entirely.
	Tokens TokenSource

	// HTTPClient overrides the default TLS1.2+ client (tests).
	HTTPClient *http.Client

	// Timeout bounds each individual request, retry included.
	Timeout time.Duration

	// RequestsPerSecond paces outbound calls; zero disables pacing.
	RequestsPerSecond int

	// Logger defaults to logging.Nop.
	Logger logging.Logger
}

// Client executes envelope-wrapped JSON requests against the backend.
type Client struct {
	baseURL string
	http    *retry.Client
	limiter *rate.Limiter
	tokens  TokenSource
	timeout time.Duration
	log     logging.Logger
}

const defaultRequestTimeout = 60 * time.Second

// New creates a Client. The underlying transport retries transient failures
// via go-httpretry; the 401 handling here is layered on top of that.
func New(opts Options) (*Client, error) {
	if err := validateBaseURL(opts.BaseURL); err != nil {
		return nil, err
	}

	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	retryClient, err := retry.NewBackgroundClient(
		retry.WithHTTPClient(base),
	)
	if err != nil {
		return nil, fmt.Errorf("create retry client: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestsPerSecond)
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop{}
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    retryClient,
		limiter: limiter,
		tokens:  opts.Tokens,
		timeout: timeout,
		log:     log,
	}, nil
}

func validateBaseURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("base URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("base URL must include a host")
	}
	return nil
}

// Get performs an authenticated GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// GetPublic performs an unauthenticated GET (no bearer, no refresh).
func (c *Client) GetPublic(ctx context.Context, path string, query url.Values, out any) error {
	payload, apiErr := marshalBody(nil)
	if apiErr != nil {
		return apiErr
	}
	status, raw, err := c.roundTrip(ctx, http.MethodGet, c.buildURL(path, query), payload, "")
	if err != nil {
		return err
	}
	return c.finish(status, raw, out)
}

// PostPublic performs an unauthenticated POST with a JSON body.
func (c *Client) PostPublic(ctx context.Context, path string, body, out any) error {
	payload, apiErr := marshalBody(body)
	if apiErr != nil {
		return apiErr
	}
	status, raw, err := c.roundTrip(ctx, http.MethodPost, c.buildURL(path, nil), payload, "")
	if err != nil {
		return err
	}
	return c.finish(status, raw, out)
}

// DoWithToken performs a request with an explicit bearer token and no
// refresh-on-401. The session client uses this for the auth endpoints
// themselves, so a rejected token cannot recurse into another refresh.
func (c *Client) DoWithToken(ctx context.Context, method, path, token string, body, out any) error {
	payload, apiErr := marshalBody(body)
	if apiErr != nil {
		return apiErr
	}
	status, raw, err := c.roundTrip(ctx, method, c.buildURL(path, nil), payload, token)
	if err != nil {
		return err
	}
	return c.finish(status, raw, out)
}

// do executes one logical authenticated request. On exactly one 401 it asks
// the token source for a refresh and re-issues the original request with the
// new token; a second 401 surfaces as AuthRequired.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	payload, apiErr := marshalBody(body)
	if apiErr != nil {
		return apiErr
	}

	fullURL := c.buildURL(path, query)

	token := ""
	if c.tokens != nil {
		token = c.tokens.AccessToken()
	}

	status, raw, err := c.roundTrip(ctx, method, fullURL, payload, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && c.tokens != nil {
		newToken, refreshErr := c.tokens.Refresh(ctx)
		if refreshErr != nil || newToken == "" {
			// Surface the original 401, not the refresh failure.
			if refreshErr != nil {
				c.log.Warn(ctx, "token refresh failed", "error", refreshErr)
			}
			return c.finish(status, raw, out)
		}

		c.log.Debug(ctx, "access token refreshed, retrying request", "method", method, "path", path)
		status, raw, err = c.roundTrip(ctx, method, fullURL, payload, newToken)
		if err != nil {
			return err
		}
	}

	return c.finish(status, raw, out)
}

// roundTrip executes a single HTTP exchange and returns the status and body.
// Transport and deadline failures come back as domain errors.
func (c *Client) roundTrip(ctx context.Context, method, fullURL string, payload []byte, token string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, transportError(err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, fullURL, bodyReader)
	if err != nil {
		return 0, nil, &Error{Kind: KindNetwork, Message: "failed to build request", Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.DoWithContext(reqCtx, req)
	if err != nil {
		return 0, nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &Error{Kind: KindNetwork, Message: "failed to read response", Err: err}
	}

	return resp.StatusCode, raw, nil
}

// finish maps a completed exchange to either decoded data or a domain error.
func (c *Client) finish(httpStatus int, raw []byte, out any) error {
	if httpStatus >= 200 && httpStatus < 300 {
		env, envErr := decodeEnvelope(httpStatus, raw)
		if envErr != nil {
			return envErr
		}
		if env.Status == statusError {
			return mapFailure(httpStatus, env)
		}
		if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
			return nil
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{
				Kind:       KindProtocol,
				Message:    "malformed envelope data",
				HTTPStatus: httpStatus,
				Err:        err,
			}
		}
		return nil
	}

	env, envErr := decodeEnvelope(httpStatus, raw)
	if envErr != nil {
		env = nil
	}
	return mapFailure(httpStatus, env)
}

func (c *Client) buildURL(path string, query url.Values) string {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func marshalBody(body any) ([]byte, *Error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Message: "failed to encode request body", Err: err}
	}
	return payload, nil
}

func transportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Message: "request cancelled", Err: err}
	}
	return &Error{Kind: KindNetwork, Message: "network request failed", Err: err}
}
