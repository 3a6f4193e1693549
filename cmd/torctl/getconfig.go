package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewGetConfigCmd creates the get-config command.
func NewGetConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-config <key>...",
		Short: "Query daemon configuration values",
		Long: `Query daemon configuration values with GETCONF.

A key that is set to its default prints without a value. Options that
appear multiple times in the configuration print once per occurrence.

Examples:
  torctl get-config SocksPort
  torctl get-config Nickname ORPort`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGetConfigCmd,
	}
}

// runGetConfigCmd executes the get-config command.
func runGetConfigCmd(cmd *cobra.Command, args []string) error {
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

	entries, err := conn.GetConf(ctx, args...)
	if err != nil {
		return describeError(err)
	}
	for _, e := range entries {
		if e.Value == "" {
			fmt.Fprintln(cmd.OutOrStdout(), e.Key)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", e.Key, e.Value)
	}
	return nil
}
