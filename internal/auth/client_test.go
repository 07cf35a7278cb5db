package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteprobe/siteprobe-cli/internal/api"
)

const profileJSON = `{"status":"success","data":{"id":"u-1","email":"dev@example.com","name":"Dev"}}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *MemStore, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	apiClient, err := api.New(api.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	store := NewMemStore()
	return NewClient(apiClient, store, nil), store, srv
}

func callbackParams(access, refresh string) url.Values {
	v := url.Values{}
	if access != "" {
		v.Set("access_token", access)
	}
	if refresh != "" {
		v.Set("refresh_token", refresh)
	}
	return v
}

func TestAuthorizationURL(t *testing.T) {
	var gotRedirect string
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/google", r.URL.Path)
		gotRedirect = r.URL.Query().Get("redirect_uri")
		fmt.Fprint(w, `{"status":"success","data":{"authUrl":"https://accounts.google.com/o/oauth2/auth?x=1"}}`)
	}))

	u, err := c.AuthorizationURL(context.Background(), "http://127.0.0.1:9999/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?x=1", u)
	assert.Equal(t, "http://127.0.0.1:9999/auth/callback", gotRedirect)
}

func TestAuthorizationURLEmptyIsProtocolError(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","data":{"authUrl":""}}`)
	}))

	_, err := c.AuthorizationURL(context.Background(), "http://127.0.0.1:9999/auth/callback")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindProtocol))
}

func TestCompleteCallbackSuccess(t *testing.T) {
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		fmt.Fprint(w, profileJSON)
	}))

	ok := c.CompleteCallback(context.Background(), callbackParams("at-1", "rt-1"))
	require.True(t, ok)

	sess, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "at-1", sess.AccessToken)
	assert.Equal(t, "rt-1", sess.RefreshToken)
	require.NotNil(t, sess.User)
	assert.Equal(t, "dev@example.com", sess.User.Email)
}

func TestCompleteCallbackProviderError(t *testing.T) {
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no backend call expected")
	}))

	params := callbackParams("at-1", "rt-1")
	params.Set("error", "access_denied")
	assert.False(t, c.CompleteCallback(context.Background(), params))

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestCompleteCallbackMissingTokenPair(t *testing.T) {
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no backend call expected")
	}))

	assert.False(t, c.CompleteCallback(context.Background(), callbackParams("at-1", "")))
	assert.False(t, c.CompleteCallback(context.Background(), callbackParams("", "rt-1")))

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestCompleteCallbackProfileFailureClearsSession(t *testing.T) {
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":"error","message":"bad token"}`)
	}))

	assert.False(t, c.CompleteCallback(context.Background(), callbackParams("at-1", "rt-1")))

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess, "partial session must not survive a failed profile fetch")
}

func TestCheckStatus(t *testing.T) {
	var respond atomic.Int32 // 0 = 401, 1 = success
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if respond.Load() == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"status":"error","message":"expired"}`)
			return
		}
		fmt.Fprint(w, profileJSON)
	}))

	// Signed out: no backend call either way.
	assert.False(t, c.CheckStatus(context.Background()))

	require.NoError(t, store.Save(&Session{AccessToken: "at-1", RefreshToken: "rt-1"}))

	// Rejected token: false, stored tokens untouched.
	assert.False(t, c.CheckStatus(context.Background()))
	sess, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "at-1", sess.AccessToken)
	assert.Equal(t, "rt-1", sess.RefreshToken)

	// Accepted token: true, profile cached.
	respond.Store(1)
	assert.True(t, c.CheckStatus(context.Background()))
	sess, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.Equal(t, "dev@example.com", sess.User.Email)
}

func TestRefreshRotatesTokenPair(t *testing.T) {
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/refresh", r.URL.Path)
		fmt.Fprint(w, `{"status":"success","data":{"accessToken":"at-2","refreshToken":"rt-2"}}`)
	}))

	user := &Profile{ID: "u-1", Email: "dev@example.com"}
	require.NoError(t, store.Save(&Session{AccessToken: "at-1", RefreshToken: "rt-1", User: user}))

	token, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-2", token)

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "at-2", sess.AccessToken)
	assert.Equal(t, "rt-2", sess.RefreshToken)
	require.NotNil(t, sess.User, "profile must survive rotation")
	assert.Equal(t, "dev@example.com", sess.User.Email)
}

func TestRefreshFailureLeavesStoreUntouched(t *testing.T) {
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":"error","message":"refresh token revoked"}`)
	}))

	require.NoError(t, store.Save(&Session{AccessToken: "at-1", RefreshToken: "rt-1"}))

	_, err := c.Refresh(context.Background())
	require.Error(t, err)

	sess, loadErr := store.Load()
	require.NoError(t, loadErr)
	require.NotNil(t, sess)
	assert.Equal(t, "at-1", sess.AccessToken)
	assert.Equal(t, "rt-1", sess.RefreshToken)
}

func TestRefreshWithoutSession(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no backend call expected")
	}))

	_, err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindAuthRequired))
}

func TestRefreshIncompletePairIsProtocolError(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","data":{"accessToken":"at-2"}}`)
	}))

	store := c.store.(*MemStore)
	require.NoError(t, store.Save(&Session{AccessToken: "at-1", RefreshToken: "rt-1"}))

	_, err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindProtocol))
}

func TestConcurrentRefreshSharesOneExchange(t *testing.T) {
	var upstream atomic.Int32
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstream.Add(1)
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"status":"success","data":{"accessToken":"at-2","refreshToken":"rt-2"}}`)
	}))

	require.NoError(t, store.Save(&Session{AccessToken: "at-1", RefreshToken: "rt-1"}))

	const workers = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	tokens := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			tokens[i], errs[i] = c.Refresh(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "at-2", tokens[i])
	}
	assert.EqualValues(t, 1, upstream.Load(), "concurrent refreshes must share one token exchange")
}

func TestSignOutClearsDespiteServerError(t *testing.T) {
	var loggedOut atomic.Bool
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/logout", r.URL.Path)
		loggedOut.Store(true)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"status":"error","message":"boom"}`)
	}))

	require.NoError(t, store.Save(&Session{AccessToken: "at-1", RefreshToken: "rt-1"}))
	require.NoError(t, c.SignOut(context.Background()))

	assert.True(t, loggedOut.Load())
	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestAccessTokenAndCurrentUser(t *testing.T) {
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	assert.Empty(t, c.AccessToken())
	assert.Nil(t, c.CurrentUser())

	require.NoError(t, store.Save(&Session{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		User:         &Profile{Email: "dev@example.com"},
	}))
	assert.Equal(t, "at-1", c.AccessToken())
	require.NotNil(t, c.CurrentUser())
	assert.Equal(t, "dev@example.com", c.CurrentUser().Email)
}
