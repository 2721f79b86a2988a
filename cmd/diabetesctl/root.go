package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"diabetes-console/internal/backend"
	"diabetes-console/internal/config"
	"diabetes-console/internal/controller"
	"diabetes-console/internal/session"
	"diabetes-console/internal/storage"
	"diabetes-console/internal/terminal"
	"diabetes-console/internal/view"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	verbose    bool
	quiet      bool
	noColor    bool
	configPath string
	backendURL string
	store      string
	storePath  string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   terminal.Prog,
		Short: "Diabetes prediction console for the terminal",
		Long: `diabetesctl talks to the diabetes prediction API: log in, upload a
patient report, run a model on the extracted data and review past
predictions. The access token is kept between invocations in a local
session store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd.ErrOrStderr(), opts.verbose, opts.quiet)
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-essential output")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	pf.StringVar(&opts.configPath, "config", os.Getenv("CONFIG_FILE"), "TOML config file")
	pf.StringVar(&opts.backendURL, "backend", "", "prediction API base URL (overrides config)")
	pf.StringVar(&opts.store, "store", string(config.StorageFile), "session store: file, sqlite or memory")
	pf.StringVar(&opts.storePath, "store-path", defaultStorePath(), "session store location")

	root.AddCommand(
		newLoginCmd(opts),
		newUploadCmd(opts),
		newPredictCmd(opts),
		newHistoryCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)
	return root
}

// setupLogging sends text logs to w. Quiet wins over verbose.
func setupLogging(w io.Writer, verbose, quiet bool) {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".diabetesctl", "session.yaml")
	}
	return filepath.Join(dir, "diabetesctl", "session.yaml")
}

// console is what one command invocation works with.
type console struct {
	cfg    config.Config
	client *backend.Client
	store  storage.Store
	sess   *session.Session
	logger *slog.Logger
}

// open loads config, applies flag overrides and opens the session store.
func (o *globalOptions) open() (*console, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, exitError(ExitUsage, "config error: %v", err)
	}
	if o.backendURL != "" {
		cfg.BackendURL = o.backendURL
	}
	cfg.Storage = config.StorageType(o.store)
	cfg.StoragePath = o.storePath
	if err := cfg.Validate(); err != nil {
		return nil, exitError(ExitUsage, "config error: %v", err)
	}

	logger := slog.Default()

	client, err := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	if err != nil {
		return nil, exitError(ExitUsage, "backend: %v", err)
	}
	client.Logger = logger

	store, err := storage.Open(cfg, logger)
	if err != nil {
		return nil, exitError(ExitFailure, "session store: %v", err)
	}
	sess, err := session.Load(store, session.TokenKey)
	if err != nil {
		_ = store.Close()
		return nil, exitError(ExitFailure, "session store: %v", err)
	}

	return &console{cfg: cfg, client: client, store: store, sess: sess, logger: logger}, nil
}

func (c *console) Close() error {
	return c.store.Close()
}

func (c *console) controller(v view.View) *controller.Controller {
	return controller.New(c.client, c.sess, v, controller.Options{
		Policy: c.cfg.UnauthorizedPolicy,
		Logger: c.logger,
	})
}
