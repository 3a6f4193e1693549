package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/torctl/control"
)

// NewSetConfigCmd creates the set-config command.
func NewSetConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-config <key=value|key>...",
		Short: "Change daemon configuration values",
		Long: `Change daemon configuration values with SETCONF.

Each argument is either key=value, or a bare key to reset that option
to its default. SETCONF is all-or-nothing: one rejected option makes
the daemon reject the whole batch.

Examples:
  torctl set-config MaxCircuitDirtiness=600
  torctl set-config --save Nickname=myrelay ContactInfo="admin (at) example.com"
  torctl set-config Nickname`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSetConfigCmd,
	}
	cmd.Flags().Bool("save", false, "Write the configuration to the daemon's torrc afterwards (SAVECONF)")
	return cmd
}

// parseConfigArgs turns key=value / bare-key arguments into entries.
func parseConfigArgs(args []string) []control.ConfigEntry {
	entries := make([]control.ConfigEntry, 0, len(args))
	for _, arg := range args {
		k, v, _ := strings.Cut(arg, "=")
		entries = append(entries, control.ConfigEntry{Key: k, Value: v})
	}
	return entries
}

// runSetConfigCmd executes the set-config command.
func runSetConfigCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	conn, err := connect(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SetConf(ctx, parseConfigArgs(args)...); err != nil {
		return describeError(err)
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := conn.SaveConf(ctx, false); err != nil {
			return describeError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "configuration updated and saved")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "configuration updated")
	return nil
}
