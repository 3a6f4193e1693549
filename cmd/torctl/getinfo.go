package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewGetInfoCmd creates the get-info command.
func NewGetInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-info <key>...",
		Short: "Query daemon information values",
		Long: `Query daemon information values with GETINFO.

Useful keys include "version", "network-liveness", "traffic/read",
"traffic/written", "circuit-status", and "config-text".

Examples:
  torctl get-info version
  torctl get-info traffic/read traffic/written`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGetInfoCmd,
	}
}

// runGetInfoCmd executes the get-info command.
func runGetInfoCmd(cmd *cobra.Command, args []string) error {
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

	values, err := conn.GetInfo(ctx, args...)
	if err != nil {
		return describeError(err)
	}

	for _, key := range args {
		value := values[key]
		if strings.Contains(value, "\n") {
			// Multi-line values (data blocks) read better as a block
			// under their key.
			fmt.Fprintf(cmd.OutOrStdout(), "%s:\n%s\n", key, value)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, value)
	}
	return nil
}
