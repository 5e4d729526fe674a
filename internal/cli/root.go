package cli

import (
	"os"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/logging"
	"github.com/spf13/cobra"
)

// configureLogging is replaced in tests, which share the global logger with
// an in-process server.
var configureLogging = logging.Setup

type rootFlags struct {
	server    string
	state     string
	debug     bool
	logLevel  string
	logFormat string
}

// NewRootCmd creates the root cobra command for the authclient CLI.
func NewRootCmd(cfg config.Config) *cobra.Command {
	flags := &rootFlags{}
	var current *app

	// Commands share one app built after flag parsing.
	getApp := func() *app { return current }

	root := &cobra.Command{
		Use:   "authclient",
		Short: "Authenticated API client",
		Long:  "authclient signs in to the API, keeps the session in a local state file and refreshes it transparently.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := flags.logLevel
			if flags.debug {
				level = "debug"
			}
			configureLogging(level, flags.logFormat, cmd.ErrOrStderr())

			a, err := newApp(cfg, flags.server, flags.state)
			if err != nil {
				return err
			}
			current = a
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.server, "server", cfg.GetAPIBaseURL(), "API base URL (or API_BASE_URL env)")
	root.PersistentFlags().StringVar(&flags.state, "state", cfg.GetStateFile(), "Session state file (or STATE_FILE env)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", defaultLogLevel(cfg), "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "console", "Log format (console, json)")

	root.AddCommand(
		newLoginCmd(getApp),
		newLogoutCmd(getApp),
		newStatusCmd(getApp),
		newGetCmd(getApp),
		newListCmd(getApp),
	)
	return root
}

// defaultLogLevel keeps command output readable unless LOG_LEVEL asks for
// more.
func defaultLogLevel(cfg config.Config) string {
	if os.Getenv("LOG_LEVEL") != "" {
		return cfg.GetLogLevel()
	}
	return "warn"
}
