package auth

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/siteprobe/siteprobe-cli/internal/api"
	"github.com/siteprobe/siteprobe-cli/internal/logging"
)

// Client drives the OAuth session lifecycle against the backend auth
// endpoints. It talks to the backend through an unauthenticated api.Client so
// a rejected token can never recurse into another refresh, and it implements
// api.TokenSource for the authenticated clients layered above it.
type Client struct {
	api   *api.Client
	store Store
	log   logging.Logger

	// refreshGroup serializes refresh attempts: concurrent 401 handlers and
	// explicit Refresh callers share one in-flight token exchange.
	refreshGroup singleflight.Group
}

var _ api.TokenSource = (*Client)(nil)

// NewClient creates a session client. apiClient must be built without a token
// source of its own.
func NewClient(apiClient *api.Client, store Store, log logging.Logger) *Client {
	if log == nil {
		log = logging.Nop{}
	}
	return &Client{api: apiClient, store: store, log: log}
}

// authURLData is the payload of GET /api/auth/google.
type authURLData struct {
	AuthURL string `json:"authUrl"`
}

// refreshData is the payload of POST /api/auth/refresh.
type refreshData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthorizationURL asks the backend for a provider authorization URL that
// will redirect back to redirectURI after consent.
func (c *Client) AuthorizationURL(ctx context.Context, redirectURI string) (string, error) {
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)

	var data authURLData
	if err := c.api.GetPublic(ctx, "/api/auth/google", q, &data); err != nil {
		return "", err
	}
	if data.AuthURL == "" {
		return "", &api.Error{Kind: api.KindProtocol, Message: "backend returned an empty authorization URL"}
	}
	return data.AuthURL, nil
}

// CompleteCallback consumes the provider redirect query. The backend places
// the token pair directly in the redirect (token-in-redirect variant). On
// success the session is persisted and the profile cached; on any failure
// partial state is cleared and false is returned. Nothing escapes this
// boundary as an error.
func (c *Client) CompleteCallback(ctx context.Context, params url.Values) bool {
	if errParam := params.Get("error"); errParam != "" {
		c.log.Warn(ctx, "authorization callback returned an error", "error", errParam)
		return false
	}

	token := &oauth2.Token{
		AccessToken:  params.Get("access_token"),
		RefreshToken: params.Get("refresh_token"),
		TokenType:    "Bearer",
	}
	if !token.Valid() || token.RefreshToken == "" {
		c.log.Warn(ctx, "authorization callback missing token pair")
		return false
	}

	if err := c.store.Save(&Session{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}); err != nil {
		c.log.Error(ctx, "failed to persist session", "error", err)
		return false
	}

	profile, err := c.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		c.log.Warn(ctx, "failed to fetch profile after callback", "error", err)
		if clearErr := c.store.Clear(); clearErr != nil {
			c.log.Error(ctx, "failed to clear partial session", "error", clearErr)
		}
		return false
	}

	if err := c.store.Save(&Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		User:         profile,
	}); err != nil {
		c.log.Error(ctx, "failed to persist session", "error", err)
		if clearErr := c.store.Clear(); clearErr != nil {
			c.log.Error(ctx, "failed to clear partial session", "error", clearErr)
		}
		return false
	}

	c.log.Info(ctx, "signed in", "email", profile.Email)
	return true
}

// CheckStatus validates the stored access token against the profile endpoint.
// On success the cached profile is refreshed; on any non-success outcome it
// returns false without mutating stored tokens.
func (c *Client) CheckStatus(ctx context.Context) bool {
	sess, err := c.store.Load()
	if err != nil || sess == nil {
		return false
	}

	profile, err := c.fetchProfile(ctx, sess.AccessToken)
	if err != nil {
		return false
	}

	if err := c.store.Save(&Session{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User:         profile,
	}); err != nil {
		c.log.Warn(ctx, "failed to update cached profile", "error", err)
	}
	return true
}

// Refresh exchanges the stored refresh token for a new token pair and
// persists it. Failures leave stored state untouched; whether a failed
// refresh ends the session is the caller's policy. Concurrent callers share
// one in-flight exchange.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	// The first caller's context drives the shared exchange; latecomers
	// joining the flight inherit its deadline.
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.refreshOnce(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refreshOnce(ctx context.Context) (string, error) {
	sess, err := c.store.Load()
	if err != nil {
		return "", err
	}
	if sess == nil || sess.RefreshToken == "" {
		return "", &api.Error{Kind: api.KindAuthRequired, Message: "no refresh token stored"}
	}

	body := map[string]string{"refresh_token": sess.RefreshToken}
	var data refreshData
	if err := c.api.PostPublic(ctx, "/api/auth/refresh", body, &data); err != nil {
		return "", err
	}

	token := &oauth2.Token{
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		TokenType:    "Bearer",
	}
	if !token.Valid() || token.RefreshToken == "" {
		return "", &api.Error{Kind: api.KindProtocol, Message: "refresh response missing token pair"}
	}

	if err := c.store.Save(&Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		User:         sess.User,
	}); err != nil {
		return "", err
	}

	c.log.Debug(ctx, "token pair rotated")
	return token.AccessToken, nil
}

// SignOut notifies the backend (best effort, failure ignored) and then
// unconditionally clears the local session.
func (c *Client) SignOut(ctx context.Context) error {
	sess, err := c.store.Load()
	if err == nil && sess != nil && sess.AccessToken != "" {
		if err := c.api.DoWithToken(ctx, http.MethodPost, "/api/auth/logout", sess.AccessToken, nil, nil); err != nil {
			c.log.Warn(ctx, "server-side logout failed", "error", err)
		}
	}
	return c.store.Clear()
}

// AccessToken implements api.TokenSource.
func (c *Client) AccessToken() string {
	sess, err := c.store.Load()
	if err != nil || sess == nil {
		return ""
	}
	return sess.AccessToken
}

// CurrentUser returns the cached profile, or nil when signed out.
func (c *Client) CurrentUser() *Profile {
	sess, err := c.store.Load()
	if err != nil || sess == nil {
		return nil
	}
	return sess.User
}

func (c *Client) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	if err := c.api.DoWithToken(ctx, http.MethodGet, "/api/auth/me", accessToken, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
