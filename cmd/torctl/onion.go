package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/torctl/control"
	"github.com/nao1215/torctl/internal/socks"
	"github.com/nao1215/torctl/onion"
)

// NewOnionCmd creates the onion command group.
func NewOnionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onion",
		Short: "Manage ephemeral onion services",
		Long: `Manage ephemeral onion services with ADD_ONION and DEL_ONION.

An ADD_ONION service lives as long as the control connection unless
it carries the Detach flag; torctl always sets that flag so the service
survives the command. Use "onion del" to remove it again.`,
	}
	cmd.AddCommand(newOnionAddCmd())
	cmd.AddCommand(newOnionDelCmd())
	return cmd
}

// newOnionAddCmd creates the onion add command.
func newOnionAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an ephemeral onion service",
		Long: `Create an ephemeral onion service.

Each --port maps a virtual port on the onion address to a local
target, as "VIRTPORT" or "VIRTPORT,TARGET". With no --key, the daemon
generates a fresh ed25519 key and returns it; pass --discard-key to
make the daemon keep no reusable key at all.

Examples:
  torctl onion add --port 80,127.0.0.1:8080
  torctl onion add --port 80 --port 443,127.0.0.1:8443
  torctl onion add --key "ED25519-V3:<base64>" --port 80,127.0.0.1:8080`,
		RunE: runOnionAddCmd,
	}
	cmd.Flags().StringArray("port", nil, "Port mapping VIRTPORT[,TARGET] (repeatable, required)")
	cmd.Flags().String("key", "NEW:ED25519-V3", "Key spec: NEW:ED25519-V3, NEW:BEST, or keytype:material")
	cmd.Flags().Bool("discard-key", false, "Do not return the generated private key (Flags=DiscardPK)")
	cmd.Flags().Bool("verify", false, "After creation, check the service is reachable through the SOCKS proxy")
	return cmd
}

// parseOnionPort parses a --port value: "VIRTPORT" or
// "VIRTPORT,TARGET".
func parseOnionPort(arg string) (control.OnionPort, error) {
	virt, target, _ := strings.Cut(arg, ",")
	port, err := strconv.Atoi(virt)
	if err != nil || port < 1 || port > 65535 {
		return control.OnionPort{}, fmt.Errorf("invalid virtual port %q", virt)
	}
	return control.OnionPort{VirtPort: port, Target: target}, nil
}

// runOnionAddCmd executes the onion add command.
func runOnionAddCmd(cmd *cobra.Command, _ []string) error {
	portArgs, _ := cmd.Flags().GetStringArray("port")
	if len(portArgs) == 0 {
		return fmt.Errorf("at least one --port mapping is required")
	}
	ports := make([]control.OnionPort, 0, len(portArgs))
	for _, arg := range portArgs {
		p, err := parseOnionPort(arg)
		if err != nil {
			return err
		}
		ports = append(ports, p)
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

	key, _ := cmd.Flags().GetString("key")
	flags := []string{control.OnionFlagDetach}
	if discard, _ := cmd.Flags().GetBool("discard-key"); discard {
		flags = append(flags, control.OnionFlagDiscardPK)
	}

	svc, err := conn.AddOnion(ctx, control.AddOnionRequest{
		Key:   key,
		Ports: ports,
		Flags: flags,
	})
	if err != nil {
		return describeError(err)
	}

	address := svc.ServiceID + onion.Suffix
	fmt.Fprintf(cmd.OutOrStdout(), "address:     %s\n", address)
	if !onion.IsValid(address) {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: daemon returned a service ID that fails v3 checksum validation")
	}
	if svc.PrivateKey != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "private key: %s\n", svc.PrivateKey)
		fmt.Fprintln(cmd.OutOrStdout(), "store the private key now; it is not shown again")
	}

	if verify, _ := cmd.Flags().GetBool("verify"); verify {
		target := address + ":" + strconv.Itoa(ports[0].VirtPort)
		probe, err := socks.DialContext(ctx, cfg.SocksAddress, "tcp", target)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "reachability: not yet reachable (%v)\n", err)
			return nil
		}
		_ = probe.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "reachability: OK")
	}
	return nil
}

// newOnionDelCmd creates the onion del command.
func newOnionDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <service-id>",
		Short: "Remove an onion service",
		Long: `Remove an onion service created with "onion add".

The service ID may be given with or without the .onion suffix.`,
		Args: cobra.ExactArgs(1),
		RunE: runOnionDelCmd,
	}
}

// runOnionDelCmd executes the onion del command.
func runOnionDelCmd(cmd *cobra.Command, args []string) error {
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

	serviceID := onion.Normalize(args[0])
	if err := conn.DelOnion(ctx, serviceID); err != nil {
		return describeError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s%s\n", serviceID, onion.Suffix)
	return nil
}
