package tui

import (
	"time"

	"github.com/siteprobe/siteprobe-cli/internal/scan"
)

// MsgBanner signals that the banner/title should be displayed.
type MsgBanner struct{}

// MsgSessionFound signals that a stored session was found.
type MsgSessionFound struct{ Email string }

// MsgSessionMissing signals that no stored session exists.
type MsgSessionMissing struct{}

// MsgRefreshing signals that a token refresh is in progress.
type MsgRefreshing struct{}

// MsgRefreshOK signals that the token was refreshed successfully.
type MsgRefreshOK struct{}

// MsgRefreshFailed signals that token refresh failed.
type MsgRefreshFailed struct{ Err error }

// MsgAuthURLReady signals that the authorization URL is ready for the user.
type MsgAuthURLReady struct{ AuthURL string }

// MsgWaitingForCallback signals that the loopback listener is waiting for the
// browser redirect.
type MsgWaitingForCallback struct{}

// MsgAuthSuccess signals that sign-in completed.
type MsgAuthSuccess struct{ Email string }

// MsgAuthFailed signals that sign-in failed.
type MsgAuthFailed struct{}

// MsgSignedOut signals that the local session was cleared.
type MsgSignedOut struct{}

// MsgScanCreated signals that a scan task was accepted by the backend.
type MsgScanCreated struct{ Task *scan.Task }

// MsgScanSnapshot carries one polled status snapshot.
type MsgScanSnapshot struct {
	Task    *scan.Task
	Attempt int
}

// MsgPollDelay signals that the polling interval changed.
type MsgPollDelay struct{ NewDelay time.Duration }

// MsgScanCompleted signals that the task reached the completed state.
type MsgScanCompleted struct{ Task *scan.Task }

// MsgScanFailed signals that the task reached the failed state.
type MsgScanFailed struct{ Task *scan.Task }

// MsgFatal signals a fatal error that should terminate the flow.
type MsgFatal struct{ Err error }
