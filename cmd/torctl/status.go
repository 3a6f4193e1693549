package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/torctl/control"
	"github.com/nao1215/torctl/internal/config"
	"github.com/nao1215/torctl/internal/model"
	"github.com/nao1215/torctl/internal/report"
	"github.com/nao1215/torctl/internal/socks"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the daemon's current state",
		Long: `Report the daemon's version, network liveness, traffic counters,
and open circuits, and probe the SOCKS port for liveness.

Examples:
  torctl status
  torctl status --format markdown > status.md
  torctl status --skip-socks`,
		RunE: runStatusCmd,
	}
	cmd.Flags().String("format", "simple", "Output format: simple or markdown")
	cmd.Flags().Bool("skip-socks", false, "Skip the SOCKS proxy liveness probe")
	cmd.Flags().String("socks", "", "SOCKS address to probe (default "+config.DefaultSocksAddress+")")
	return cmd
}

// gatherStatus collects the report data over an authenticated
// connection.
func gatherStatus(ctx context.Context, conn *control.Conn, cfg config.Config) (*model.StatusReport, error) {
	values, err := conn.GetInfo(ctx,
		"version", "network-liveness", "traffic/read", "traffic/written", "circuit-status")
	if err != nil {
		return nil, err
	}

	read, _ := strconv.ParseInt(values["traffic/read"], 10, 64)
	written, _ := strconv.ParseInt(values["traffic/written"], 10, 64)
	return &model.StatusReport{
		GatheredAt:     time.Now(),
		ControlAddress: cfg.ControlAddress,
		TorVersion:     values["version"],
		Liveness:       values["network-liveness"],
		TrafficRead:    read,
		TrafficWritten: written,
		Circuits:       model.ParseCircuits(values["circuit-status"]),
	}, nil
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	var w report.Writer
	switch format {
	case "simple":
		w = report.NewSimpleWriter(cmd.OutOrStdout())
	case "markdown":
		w = report.NewMarkdownWriter(cmd.OutOrStdout())
	default:
		return fmt.Errorf("unknown format %q (accepted: simple, markdown)", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("socks"); addr != "" {
		cfg.SocksAddress = addr
	}
	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	conn, err := connect(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	statusReport, err := gatherStatus(ctx, conn, cfg)
	if err != nil {
		return describeError(err)
	}

	if skip, _ := cmd.Flags().GetBool("skip-socks"); !skip {
		statusReport.SocksAddress = cfg.SocksAddress
		statusReport.SocksStatus = socks.Probe(ctx, cfg.SocksAddress).String()
	}

	_, err = w.Write(statusReport)
	return err
}
