package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/siteprobe/siteprobe-cli/internal/scan"
)

// state represents the current phase of the flow.
type state int

const (
	stateInit       state = iota
	stateRefreshing       // refreshing existing token
	stateSignIn           // waiting for the browser sign-in
	stateScanning         // polling a scan task
	stateSuccess          // terminal: completed
	stateError            // terminal: fatal error
)

// statusKind distinguishes line types in the status log.
type statusKind int

const (
	statusOK   statusKind = iota
	statusWarn            // warning / non-fatal
	statusInfo            // neutral info
)

// statusLine is one row in the scrolling status log.
type statusLine struct {
	kind statusKind
	text string
}

// Model is the BubbleTea model for the sign-in and scan flows.
type Model struct {
	state   state
	spinner spinner.Model
	width   int
	height  int

	// Sign-in display
	authURL string
	email   string

	// Scan display
	targetURL  string
	scanType   scan.Type
	taskStatus scan.Status
	attempt    int
	result     *scan.Task
	errMsg     string

	// Scrolling status log shown below the main panel
	statusLines []statusLine
}

// Lipgloss styles — defined once at package level.
var (
	styleTitleBox = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 2)

	styleURLBox = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("228")).
			Padding(0, 1)

	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleBold = lipgloss.NewStyle().Bold(true)

	riskStyles = map[string]lipgloss.Style{
		"safe":     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"low":      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		"medium":   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"high":     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"critical": lipgloss.NewStyle().Foreground(lipgloss.Color("129")),
	}
)

// NewModel creates the initial TUI model.
func NewModel() Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("39"))),
	)
	return Model{
		state:   stateInit,
		spinner: s,
	}
}

// Init starts the spinner animation.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	// ── Flow messages ────────────────────────────────────────────────────────

	case MsgBanner:
		return m, nil

	case MsgSessionFound:
		m.email = msg.Email
		m.addStatus(statusOK, "Signed in as "+msg.Email)
		return m, nil

	case MsgSessionMissing:
		m.addStatus(statusInfo, "Not signed in")
		return m, nil

	case MsgRefreshing:
		m.state = stateRefreshing
		m.addStatus(statusInfo, "Refreshing access token...")
		return m, nil

	case MsgRefreshOK:
		m.addStatus(statusOK, "Token refreshed successfully")
		return m, nil

	case MsgRefreshFailed:
		m.addStatus(statusWarn, fmt.Sprintf("Refresh failed: %v", msg.Err))
		return m, nil

	case MsgAuthURLReady:
		m.authURL = msg.AuthURL
		m.state = stateSignIn
		m.addStatus(statusInfo, "Authorization URL ready")
		return m, nil

	case MsgWaitingForCallback:
		m.state = stateSignIn
		return m, nil

	case MsgAuthSuccess:
		m.email = msg.Email
		m.addStatus(statusOK, "Sign-in successful: "+msg.Email)
		return m, nil

	case MsgAuthFailed:
		m.addStatus(statusWarn, "Sign-in failed")
		return m, nil

	case MsgSignedOut:
		m.addStatus(statusOK, "Signed out")
		return m, nil

	case MsgScanCreated:
		m.targetURL = msg.Task.URL
		m.scanType = msg.Task.ScanType
		m.taskStatus = msg.Task.Status
		m.state = stateScanning
		m.addStatus(statusOK, "Scan task created: "+msg.Task.TaskID)
		return m, nil

	case MsgScanSnapshot:
		m.taskStatus = msg.Task.Status
		m.attempt = msg.Attempt
		return m, nil

	case MsgPollDelay:
		m.addStatus(statusInfo, fmt.Sprintf("Polling interval now %s", msg.NewDelay))
		return m, nil

	case MsgScanCompleted:
		m.result = msg.Task
		m.state = stateSuccess
		return m, nil

	case MsgScanFailed:
		m.result = msg.Task
		m.errMsg = msg.Task.Summary
		if m.errMsg == "" {
			m.errMsg = "the backend reported the scan as failed"
		}
		m.state = stateError
		return m, nil

	case MsgFatal:
		m.errMsg = msg.Err.Error()
		m.state = stateError
		return m, nil
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() tea.View {
	switch m.state {
	case stateSuccess:
		return tea.NewView(m.viewResult())
	case stateError:
		return tea.NewView(m.viewError())
	default:
		return tea.NewView(m.viewMain())
	}
}

// viewMain is shown during init, refresh, sign-in, and scanning.
func (m Model) viewMain() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  siteprobe  "))
	b.WriteString("\n\n")

	switch m.state {
	case stateSignIn:
		b.WriteString(styleBold.Render("Open this link to sign in with Google:"))
		b.WriteString("\n\n")
		b.WriteString(styleURLBox.Render(" " + m.authURL + " "))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" Waiting for the browser sign-in to complete...")
		b.WriteString("\n")

	case stateScanning:
		b.WriteString(styleBold.Render("Scanning: "))
		b.WriteString(m.targetURL)
		b.WriteString(styleDim.Render("  (" + string(m.scanType) + ")"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View())
		b.WriteString(fmt.Sprintf(" status: %s", m.taskStatus))
		if m.attempt > 0 {
			b.WriteString(styleDim.Render(fmt.Sprintf("  attempt %d", m.attempt)))
		}
		b.WriteString("\n")

	case stateRefreshing:
		b.WriteString(m.spinner.View())
		b.WriteString(" Refreshing access token...\n")

	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" Initializing...\n")
	}

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewResult is shown after a completed scan.
func (m Model) viewResult() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleOK.Render("  ✓ Scan completed"))
	b.WriteString("\n\n")

	b.WriteString(styleBold.Render("URL:        "))
	b.WriteString(m.result.URL + "\n")

	b.WriteString(styleBold.Render("Risk level: "))
	b.WriteString(renderRiskLevel(m.result.RiskLevel))
	if m.result.RiskScore > 0 {
		b.WriteString(styleDim.Render(fmt.Sprintf("  (score %.1f)", m.result.RiskScore)))
	}
	b.WriteString("\n")

	if rc := m.result.RiskCount; rc != nil {
		b.WriteString(styleBold.Render("Findings:   "))
		b.WriteString(fmt.Sprintf("%d high, %d medium, %d low, %d info\n",
			rc.High, rc.Medium, rc.Low, rc.Info))
	}

	if fr := m.result.FraudRisk; fr != nil && fr.IsFraud {
		b.WriteString(styleErr.Render("Fraud risk: " + fr.FraudType))
		b.WriteString(styleDim.Render(fmt.Sprintf("  (confidence %.0f%%)", fr.Confidence*100)))
		b.WriteString("\n")
	}

	if m.result.Summary != "" {
		b.WriteString("\n")
		b.WriteString(styleDim.Render(m.result.Summary))
		b.WriteString("\n")
	}

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewError is shown when a scan fails or a fatal error occurs.
func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleErr.Render("  ✗ Scan failed"))
	b.WriteString("\n\n")
	b.WriteString(styleDim.Render("  " + m.errMsg))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewStatusLog renders the scrolling status log.
func (m Model) viewStatusLog() string {
	if len(m.statusLines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	for _, line := range m.statusLines {
		switch line.kind {
		case statusOK:
			b.WriteString(styleOK.Render("  ✓ " + line.text))
		case statusWarn:
			b.WriteString(styleWarn.Render("  ⚠ " + line.text))
		default:
			b.WriteString(styleDim.Render("  · " + line.text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// addStatus appends a line to the status log.
func (m *Model) addStatus(kind statusKind, text string) {
	m.statusLines = append(m.statusLines, statusLine{kind: kind, text: text})
}

// renderRiskLevel colors a risk level the way the result views expect.
func renderRiskLevel(level string) string {
	if style, ok := riskStyles[level]; ok {
		return style.Render(level)
	}
	return styleDim.Render(orUnknown(level))
}

func orUnknown(level string) string {
	if level == "" {
		return "unknown"
	}
	return level
}
