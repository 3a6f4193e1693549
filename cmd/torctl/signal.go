package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/torctl/control"
)

// NewSignalCmd creates the signal command.
func NewSignalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signal <name>",
		Short: "Send a signal to the daemon",
		Long: `Send a signal to the daemon with SIGNAL.

Accepted signals: ` + strings.Join(control.Signals, ", ") + `.

SHUTDOWN and HALT are sent without waiting for an acknowledgment,
because the daemon may close the control connection before replying.

Examples:
  torctl signal NEWNYM
  torctl signal RELOAD`,
		Args: cobra.ExactArgs(1),
		RunE: runSignalCmd,
	}
}

// validSignal normalizes name and reports whether the daemon accepts
// it.
func validSignal(name string) (string, bool) {
	name = strings.ToUpper(name)
	for _, s := range control.Signals {
		if s == name {
			return name, true
		}
	}
	return name, false
}

// runSignalCmd executes the signal command.
func runSignalCmd(cmd *cobra.Command, args []string) error {
	name, ok := validSignal(args[0])
	if !ok {
		return fmt.Errorf("unknown signal %q (accepted: %s)", args[0], strings.Join(control.Signals, ", "))
	}

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

	// The daemon may hang up before acknowledging a shutdown; waiting
	// for the reply would report a spurious error.
	if name == control.SignalShutdown || name == control.SignalHalt {
		if err := conn.ShutdownTor(name); err != nil {
			return describeError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signal %s sent\n", name)
		return nil
	}

	if err := conn.Signal(ctx, name); err != nil {
		return describeError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "signal %s acknowledged\n", name)
	return nil
}
