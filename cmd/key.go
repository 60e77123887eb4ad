package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Mohsinsiddi/txdash/internal/credential"
	"github.com/Mohsinsiddi/txdash/internal/ui"
	"github.com/spf13/cobra"
)

var keyReveal bool

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the explorer API key",
	Long: `Store the explorer API key in the OS keychain (macOS Keychain, Windows
Credential Manager, Secret Service, or an encrypted file under the config
directory as a fallback).

$ETHERSCAN_API_KEY and --key take precedence over the stored key.`,
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store the API key (reads stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading key: %w", err)
			}
			key = line
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return errors.New("API key is empty")
		}
		if err := credential.OpenKeychain(cfg.Dir()).Set(key); err != nil {
			return fmt.Errorf("storing key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("API key stored ("+credential.Mask(key)+")"))
		return nil
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which API key would be used",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, src, err := credential.Resolve("", credential.OpenKeychain(cfg.Dir()))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if key == "" {
			fmt.Fprintln(out, ui.Warn("No API key configured."))
			fmt.Fprintln(out, ui.Hint("Set one with: txdash key set <key>  or export "+credential.EnvAPIKey))
			return nil
		}
		shown := credential.Mask(key)
		if keyReveal {
			shown = key
		}
		fmt.Fprintln(out, ui.KeyValueBlock("API Key", [][2]string{
			{"Key", shown},
			{"Source", string(src)},
		}))
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := credential.OpenKeychain(cfg.Dir()).Delete()
		if errors.Is(err, credential.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("No stored API key."))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("API key removed"))
		if os.Getenv(credential.EnvAPIKey) != "" {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Hint("$"+credential.EnvAPIKey+" is still set and will be used."))
		}
		return nil
	},
}

func init() {
	keyShowCmd.Flags().BoolVar(&keyReveal, "reveal", false, "print the full key")
	keyCmd.AddCommand(keySetCmd, keyShowCmd, keyDeleteCmd)
}
