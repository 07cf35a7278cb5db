package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// CallbackServer is a loopback HTTP listener that receives the provider
// redirect during sign-in. It is the CLI's stand-in for the web app's
// /auth/callback route: the backend redirects the browser to it with the
// token pair in the query string.
type CallbackServer struct {
	srv    *http.Server
	ln     net.Listener
	params chan url.Values
}

const callbackPath = "/auth/callback"

// StartCallbackServer listens on an ephemeral loopback port and serves the
// callback route until Close.
func StartCallbackServer() (*CallbackServer, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("start callback listener: %w", err)
	}

	s := &CallbackServer{
		ln: ln,
		// Buffered so the handler never blocks on a slow consumer.
		params: make(chan url.Values, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, s.handleCallback)

	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		// ErrServerClosed is the normal shutdown path.
		_ = s.srv.Serve(ln)
	}()

	return s, nil
}

// RedirectURI is the redirect target to hand to AuthorizationURL.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://%s%s", s.ln.Addr().String(), callbackPath)
}

// Wait blocks until the provider redirect arrives or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) (url.Values, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case params := <-s.params:
		return params, nil
	}
}

// Close shuts the listener down.
func (s *CallbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	select {
	case s.params <- r.URL.Query():
	default:
		// A second redirect while one is pending is dropped; the session
		// client does not deduplicate concurrent callbacks, so the server
		// enforces one delivery.
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<html><body><p>Sign-in received. You can close this window and return to the terminal.</p></body></html>`)
}
