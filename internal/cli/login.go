package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/siteprobe/siteprobe-cli/internal/auth"
	"github.com/siteprobe/siteprobe-cli/internal/tui"
)

// loginTimeout bounds how long we wait for the browser sign-in redirect.
const loginTimeout = 5 * time.Minute

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with Google",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear local credentials",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := tui.NewPlainDisplayer(os.Stderr)
	d.Banner()

	// An existing valid session short-circuits the flow.
	if a.session.CheckStatus(ctx) {
		if user := a.session.CurrentUser(); user != nil {
			d.SessionFound(user.Email)
			return nil
		}
	}

	// A stored session whose access token went stale may still refresh.
	if sess, loadErr := a.store.Load(); loadErr == nil && sess != nil {
		d.Refreshing()
		if _, refreshErr := a.session.Refresh(ctx); refreshErr == nil {
			d.RefreshOK()
			if a.session.CheckStatus(ctx) {
				if user := a.session.CurrentUser(); user != nil {
					d.SessionFound(user.Email)
					return nil
				}
			}
		} else {
			d.RefreshFailed(refreshErr)
		}
	}

	profile, err := browserSignIn(ctx, a.session, d)
	if err != nil {
		d.Fatal(err)
		return err
	}

	d.AuthSuccess(profile.Email)
	return nil
}

// browserSignIn runs the loopback-redirect sign-in: the backend's provider
// authorization URL sends the browser back to a local listener carrying the
// token pair, which the session client persists.
func browserSignIn(ctx context.Context, session *auth.Client, d tui.Displayer) (*auth.Profile, error) {
	srv, err := auth.StartCallbackServer()
	if err != nil {
		return nil, err
	}
	defer srv.Close()

	authURL, err := session.AuthorizationURL(ctx, srv.RedirectURI())
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization URL: %w", err)
	}

	d.AuthURLReady(authURL)
	d.WaitingForCallback()

	waitCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	params, err := srv.Wait(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("sign-in was not completed: %w", err)
	}

	if !session.CompleteCallback(ctx, params) {
		d.AuthFailed()
		return nil, fmt.Errorf("sign-in callback was rejected")
	}

	user := session.CurrentUser()
	if user == nil {
		return nil, fmt.Errorf("sign-in succeeded but no profile was cached")
	}
	return user, nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := tui.NewPlainDisplayer(os.Stderr)
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	d.SignedOut()
	return nil
}
