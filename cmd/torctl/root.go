package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/torctl/control"
	"github.com/nao1215/torctl/internal/config"
	"github.com/nao1215/torctl/internal/log"
)

// NewRootCmd creates the root command for torctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "torctl",
		Short: "Command line controller for a running Tor daemon",
		Long: `torctl talks to a running Tor daemon over its control port.

It authenticates automatically (password, cookie, or open control
port), issues control commands, and streams asynchronous events.

The control address and credentials can be set with flags or with a
.torctl configuration file in the current or home directory.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("address", "a", "",
		"Control port address, host:port or Unix socket path (default 127.0.0.1:9051)")
	cmd.PersistentFlags().String("password", "",
		"Control port password (HASHEDPASSWORD authentication)")
	cmd.PersistentFlags().String("cookie-file", "",
		"Path of the control authentication cookie")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .torctl in current or home directory)")
	cmd.PersistentFlags().Bool("debug", false,
		"Trace control port traffic on stderr")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose logging")

	cmd.AddCommand(NewGetInfoCmd())
	cmd.AddCommand(NewGetConfigCmd())
	cmd.AddCommand(NewSetConfigCmd())
	cmd.AddCommand(NewSignalCmd())
	cmd.AddCommand(NewListenCmd())
	cmd.AddCommand(NewOnionCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig assembles the effective configuration for a command:
// defaults, then the configuration file, then flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.New()

	configPath, _ := cmd.Flags().GetString("config")
	if found := config.FindConfigFile(configPath); found != "" {
		f, err := config.LoadConfigFile(found)
		if err != nil {
			return cfg, fmt.Errorf("load %s: %w", found, err)
		}
		cfg.Apply(f)
	} else if configPath != "" {
		return cfg, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}

	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		cfg.ControlAddress = addr
	}
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		cfg.Password = pw
	}
	if cookie, _ := cmd.Flags().GetString("cookie-file"); cookie != "" {
		cfg.CookieFile = cookie
	}
	cfg.Debug, _ = cmd.Flags().GetBool("debug")
	cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
	return cfg, nil
}

// newLogger builds the secret-masking logger for a command run.
func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return log.NewSecureLogger(os.Stderr, level)
}

// connect dials the control port and authenticates. The caller owns
// the returned connection and must Close it.
func connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (*control.Conn, error) {
	conn, err := control.Dial(cfg.ControlAddress, control.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		conn.SetDebug(os.Stderr)
	}
	if err := authenticate(ctx, conn, cfg); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("authenticate to %s: %w", cfg.ControlAddress, err)
	}
	return conn, nil
}

// authenticate picks the strongest workable method: an explicit
// password wins; otherwise the daemon's PROTOCOLINFO decides between
// SAFECOOKIE, COOKIE, and an open control port.
func authenticate(ctx context.Context, conn *control.Conn, cfg config.Config) error {
	if cfg.Password != "" {
		return conn.AuthenticateWithPassword(ctx, cfg.Password)
	}

	info, err := conn.ProtocolInfo(ctx)
	if err != nil {
		return err
	}

	if info.HasAuthMethod("COOKIE") || info.HasAuthMethod("SAFECOOKIE") {
		cookiePath := cfg.CookieFile
		if cookiePath == "" {
			cookiePath = info.CookieFile
		}
		if cookiePath == "" {
			cookiePath = config.DefaultCookiePath
		}
		cookie, err := os.ReadFile(cookiePath) //nolint:gosec // The daemon names its own cookie file
		if err != nil {
			if info.HasAuthMethod("NULL") {
				return conn.Authenticate(ctx, nil)
			}
			return fmt.Errorf("read cookie file: %w", err)
		}
		if info.HasAuthMethod("SAFECOOKIE") {
			return conn.AuthenticateSafeCookie(ctx, cookie)
		}
		return conn.Authenticate(ctx, cookie)
	}

	return conn.Authenticate(ctx, nil)
}

// commandContext bounds a single control exchange with the configured
// timeout.
func commandContext(ctx context.Context, cfg config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, cfg.Timeout)
}

// describeError turns engine errors into messages a CLI user can act
// on.
func describeError(err error) error {
	var serverErr *control.ServerError
	if errors.As(err, &serverErr) {
		return fmt.Errorf("tor rejected the command: %s (%s)", serverErr.Message, serverErr.Description())
	}
	return err
}
