package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Mohsinsiddi/txdash/internal/config"
	"github.com/Mohsinsiddi/txdash/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/txdash/cmd.Version=1.2.3" .
var Version = "0.3.0"

var (
	cfgDir  string
	cfg     *config.Config
	verbose bool
	logPath string

	log       = zerolog.Nop()
	logCloser io.Closer
)

// annotationTUI marks commands that own the terminal; their logs never go
// to stderr.
const annotationTUI = "tui"

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "txdash",
	Short: "Live transaction dashboard for a wallet address",
	Long: `txdash fetches the transaction history of an address from an
Etherscan-compatible explorer API, summarises it, and keeps it current by
polling for new transactions.

The API key is read from --key, then $ETHERSCAN_API_KEY, then the OS
keychain (see: txdash key set).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return setupLogger(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		closeLogger()
		return nil
	},
}

// setupLogger routes logs to --log-file when given. Without it, verbose
// mode logs to stderr for plain commands and to the default log file for
// the dashboard; otherwise logs are discarded.
func setupLogger(cmd *cobra.Command) error {
	level := cfg.Level()
	if verbose {
		level = zerolog.DebugLevel
	}

	path := logPath
	if path == "" && verbose {
		if cmd.Annotations[annotationTUI] == "" {
			log = logging.Console(os.Stderr, level)
			return nil
		}
		path = cfg.LogPath()
	}
	if path == "" {
		log = zerolog.Nop()
		return nil
	}

	f, err := logging.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logCloser = f
	log = logging.New(f, level).With().Str("cmd", cmd.Name()).Logger()
	return nil
}

func closeLogger() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	closeLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $"+config.EnvDir+" or ~/.txdash)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "", "write logs to this file")

	rootCmd.AddCommand(
		watchCmd,
		txsCmd,
		keyCmd,
		configCmd,
	)
}
