package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/siteprobe/siteprobe-cli/internal/api"
	"github.com/siteprobe/siteprobe-cli/internal/auth"
	"github.com/siteprobe/siteprobe-cli/internal/config"
	"github.com/siteprobe/siteprobe-cli/internal/history"
	"github.com/siteprobe/siteprobe-cli/internal/logging"
	"github.com/siteprobe/siteprobe-cli/internal/order"
	"github.com/siteprobe/siteprobe-cli/internal/scan"
	"github.com/siteprobe/siteprobe-cli/internal/settings"
)

// app bundles the wired-up clients every command needs. The session object is
// explicitly owned here and handed to components by reference; it lives from
// command start until sign-out.
type app struct {
	cfg      *config.Config
	log      logging.Logger
	store    auth.Store
	session  *auth.Client
	authed   *api.Client
	settings settings.Settings
	jsonOut  bool
}

// newApp resolves configuration from flags/env and builds the client stack:
// an unauthenticated api.Client for the session client, and an authenticated
// one (with the session as its token source) for everything else.
func newApp(cmd *cobra.Command) (*app, error) {
	apiURL, _ := cmd.Flags().GetString("api-url")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	tokenFile, _ := cmd.Flags().GetString("token-file")
	verbosity, _ := cmd.Flags().GetInt("verbose")
	jsonOut, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load(apiURL, dataDir, tokenFile)
	if err != nil {
		return nil, err
	}
	cfg.Verbosity = verbosity

	log := logging.NewTextLogger(os.Stderr, verbosity)

	base, err := api.New(api.Options{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}

	store := auth.NewFileStore(cfg.TokenFile)
	session := auth.NewClient(base, store, log)

	authed, err := api.New(api.Options{
		BaseURL:           cfg.APIBaseURL,
		Tokens:            session,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}

	st, err := settings.Load(cfg.SettingsFile)
	if err != nil {
		log.Warn(cmd.Context(), "failed to load settings, using defaults", "error", err)
		st = settings.Defaults()
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		session:  session,
		authed:   authed,
		settings: st,
		jsonOut:  jsonOut,
	}, nil
}

func (a *app) scanClient() *scan.Client {
	return scan.NewClient(a.authed, a.log)
}

func (a *app) orderClient() *order.Client {
	return order.NewClient(a.authed, a.log)
}

func (a *app) historyStore() (history.Store, error) {
	if err := a.cfg.EnsureDataDir(); err != nil {
		return nil, err
	}
	return history.NewSQLiteStore(a.cfg.HistoryDB)
}

// isTTY reports whether stderr is a character device (interactive terminal).
// We check stderr because the TUI renders to stderr, allowing stdout to be piped.
func isTTY() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
