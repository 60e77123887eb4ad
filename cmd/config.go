package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/txdash/internal/config"
	"github.com/Mohsinsiddi/txdash/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		var pairs [][2]string
		for _, k := range config.Keys() {
			v, err := cfg.Get(k)
			if err != nil {
				return err
			}
			if v == "" {
				v = "-"
			}
			pairs = append(pairs, [2]string{k, v})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Banner(Version))
		fmt.Fprintln(out, ui.KeyValueBlock("Current Configuration", pairs))
		fmt.Fprintln(out, ui.Meta("Config directory: "+cfg.Dir()))

		recent, err := cfg.LoadRecent()
		if err == nil && len(recent.Addresses) > 0 {
			fmt.Fprintln(out, ui.Meta("Recent addresses:"))
			for _, a := range recent.Addresses {
				fmt.Fprintln(out, "  "+ui.Addr(a))
			}
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		v, _ := cfg.Get(args[0])
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("%s set to %q", args[0], v)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd)
}
