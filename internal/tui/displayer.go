package tui

import (
	"fmt"
	"io"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/siteprobe/siteprobe-cli/internal/scan"
)

// Displayer abstracts all output from the sign-in and scan flows.
type Displayer interface {
	Banner()
	SessionFound(email string)
	SessionMissing()
	Refreshing()
	RefreshOK()
	RefreshFailed(err error)
	AuthURLReady(authURL string)
	WaitingForCallback()
	AuthSuccess(email string)
	AuthFailed()
	SignedOut()
	ScanCreated(task *scan.Task)
	ScanSnapshot(task *scan.Task, attempt int)
	PollDelay(newDelay time.Duration)
	ScanCompleted(task *scan.Task)
	ScanFailed(task *scan.Task)
	Fatal(err error)
}

// PlainDisplayer writes plain text output to w.
// Used when stderr is not a TTY (pipes, CI, SSH without pty).
type PlainDisplayer struct {
	w io.Writer
}

// NewPlainDisplayer creates a PlainDisplayer that writes to w.
func NewPlainDisplayer(w io.Writer) *PlainDisplayer {
	return &PlainDisplayer{w: w}
}

func (p *PlainDisplayer) Banner() {
	fmt.Fprintln(p.w, "=== siteprobe — website security scanner ===")
	fmt.Fprintln(p.w)
}

func (p *PlainDisplayer) SessionFound(email string) {
	fmt.Fprintf(p.w, "Signed in as %s\n", email)
}

func (p *PlainDisplayer) SessionMissing() {
	fmt.Fprintln(p.w, "Not signed in.")
}

func (p *PlainDisplayer) Refreshing() {
	fmt.Fprintln(p.w, "Refreshing access token...")
}

func (p *PlainDisplayer) RefreshOK() {
	fmt.Fprintln(p.w, "Token refreshed successfully.")
}

func (p *PlainDisplayer) RefreshFailed(err error) {
	fmt.Fprintf(p.w, "Refresh failed: %v\n", err)
}

func (p *PlainDisplayer) AuthURLReady(authURL string) {
	fmt.Fprintln(p.w, "----------------------------------------")
	fmt.Fprintf(p.w, "Open this link to sign in with Google:\n%s\n", authURL)
	fmt.Fprintln(p.w, "----------------------------------------")
	fmt.Fprintln(p.w)
}

func (p *PlainDisplayer) WaitingForCallback() {
	fmt.Fprintln(p.w, "Waiting for the browser sign-in to complete...")
}

func (p *PlainDisplayer) AuthSuccess(email string) {
	fmt.Fprintf(p.w, "\nSign-in successful! Welcome, %s\n", email)
}

func (p *PlainDisplayer) AuthFailed() {
	fmt.Fprintln(p.w, "Sign-in failed.")
}

func (p *PlainDisplayer) SignedOut() {
	fmt.Fprintln(p.w, "Signed out.")
}

func (p *PlainDisplayer) ScanCreated(task *scan.Task) {
	fmt.Fprintf(p.w, "Scan task %s created for %s (%s)\n", task.TaskID, task.URL, task.ScanType)
}

func (p *PlainDisplayer) ScanSnapshot(task *scan.Task, attempt int) {
	fmt.Fprintf(p.w, "  [%d] status: %s\n", attempt, task.Status)
}

func (p *PlainDisplayer) PollDelay(newDelay time.Duration) {
	fmt.Fprintf(p.w, "  polling interval now %s\n", newDelay)
}

func (p *PlainDisplayer) ScanCompleted(task *scan.Task) {
	fmt.Fprintln(p.w, "\nScan completed.")
	fmt.Fprintf(p.w, "Risk level: %s", task.RiskLevel)
	if task.RiskScore > 0 {
		fmt.Fprintf(p.w, " (score %.1f)", task.RiskScore)
	}
	fmt.Fprintln(p.w)
	if rc := task.RiskCount; rc != nil {
		fmt.Fprintf(p.w, "Findings: %d high, %d medium, %d low, %d info\n",
			rc.High, rc.Medium, rc.Low, rc.Info)
	}
	if task.Summary != "" {
		fmt.Fprintf(p.w, "Summary: %s\n", task.Summary)
	}
}

func (p *PlainDisplayer) ScanFailed(task *scan.Task) {
	fmt.Fprintf(p.w, "\nScan failed for %s.\n", task.URL)
	if task.Summary != "" {
		fmt.Fprintf(p.w, "Reason: %s\n", task.Summary)
	}
}

func (p *PlainDisplayer) Fatal(err error) {
	fmt.Fprintf(p.w, "Error: %v\n", err)
}

// NoopDisplayer is a no-op implementation used in tests.
type NoopDisplayer struct{}

func (NoopDisplayer) Banner()                              {}
func (NoopDisplayer) SessionFound(_ string)                {}
func (NoopDisplayer) SessionMissing()                      {}
func (NoopDisplayer) Refreshing()                          {}
func (NoopDisplayer) RefreshOK()                           {}
func (NoopDisplayer) RefreshFailed(_ error)                {}
func (NoopDisplayer) AuthURLReady(_ string)                {}
func (NoopDisplayer) WaitingForCallback()                  {}
func (NoopDisplayer) AuthSuccess(_ string)                 {}
func (NoopDisplayer) AuthFailed()                          {}
func (NoopDisplayer) SignedOut()                           {}
func (NoopDisplayer) ScanCreated(_ *scan.Task)             {}
func (NoopDisplayer) ScanSnapshot(_ *scan.Task, _ int)     {}
func (NoopDisplayer) PollDelay(_ time.Duration)            {}
func (NoopDisplayer) ScanCompleted(_ *scan.Task)           {}
func (NoopDisplayer) ScanFailed(_ *scan.Task)              {}
func (NoopDisplayer) Fatal(_ error)                        {}

// ProgramDisplayer sends BubbleTea messages to a running tea.Program.
type ProgramDisplayer struct {
	p *tea.Program
}

// NewProgramDisplayer creates a ProgramDisplayer that sends messages to p.
func NewProgramDisplayer(p *tea.Program) *ProgramDisplayer {
	return &ProgramDisplayer{p: p}
}

func (t *ProgramDisplayer) Banner() {
	t.p.Send(MsgBanner{})
}

func (t *ProgramDisplayer) SessionFound(email string) {
	t.p.Send(MsgSessionFound{Email: email})
}

func (t *ProgramDisplayer) SessionMissing() {
	t.p.Send(MsgSessionMissing{})
}

func (t *ProgramDisplayer) Refreshing() {
	t.p.Send(MsgRefreshing{})
}

func (t *ProgramDisplayer) RefreshOK() {
	t.p.Send(MsgRefreshOK{})
}

func (t *ProgramDisplayer) RefreshFailed(err error) {
	t.p.Send(MsgRefreshFailed{Err: err})
}

func (t *ProgramDisplayer) AuthURLReady(authURL string) {
	t.p.Send(MsgAuthURLReady{AuthURL: authURL})
}

func (t *ProgramDisplayer) WaitingForCallback() {
	t.p.Send(MsgWaitingForCallback{})
}

func (t *ProgramDisplayer) AuthSuccess(email string) {
	t.p.Send(MsgAuthSuccess{Email: email})
}

func (t *ProgramDisplayer) AuthFailed() {
	t.p.Send(MsgAuthFailed{})
}

func (t *ProgramDisplayer) SignedOut() {
	t.p.Send(MsgSignedOut{})
}

func (t *ProgramDisplayer) ScanCreated(task *scan.Task) {
	t.p.Send(MsgScanCreated{Task: task})
}

func (t *ProgramDisplayer) ScanSnapshot(task *scan.Task, attempt int) {
	t.p.Send(MsgScanSnapshot{Task: task, Attempt: attempt})
}

func (t *ProgramDisplayer) PollDelay(newDelay time.Duration) {
	t.p.Send(MsgPollDelay{NewDelay: newDelay})
}

func (t *ProgramDisplayer) ScanCompleted(task *scan.Task) {
	t.p.Send(MsgScanCompleted{Task: task})
}

func (t *ProgramDisplayer) ScanFailed(task *scan.Task) {
	t.p.Send(MsgScanFailed{Task: task})
}

func (t *ProgramDisplayer) Fatal(err error) {
	t.p.Send(MsgFatal{Err: err})
}
