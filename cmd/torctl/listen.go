package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/torctl/control"
	"github.com/nao1215/torctl/internal/database"
	"github.com/nao1215/torctl/internal/model"
)

// NewListenCmd creates the listen command.
func NewListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen <event>...",
		Short: "Stream daemon events to the terminal",
		Long: `Stream asynchronous daemon events until interrupted.

Each argument is an event name to subscribe to with SETEVENTS, e.g.
CIRC, STREAM, ORCONN, BW, NOTICE, WARN, ERR, HS_DESC. Unknown names
are rejected before anything is sent.

With --db, every event is also recorded into an SQLite database in
the given directory for later inspection.

Examples:
  torctl listen BW CIRC
  torctl listen --db ./events NOTICE WARN ERR`,
		Args: cobra.MinimumNArgs(1),
		RunE: runListenCmd,
	}
	cmd.Flags().String("db", "", "Directory to record events into (SQLite)")
	return cmd
}

// runListenCmd executes the listen command.
func runListenCmd(cmd *cobra.Command, args []string) error {
	events := make([]string, 0, len(args))
	for _, name := range args {
		events = append(events, strings.ToUpper(name))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := commandContext(ctx, cfg)
	conn, err := connect(connectCtx, cfg, logger)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()

	var db *database.EventDB
	if dir, _ := cmd.Flags().GetString("db"); dir != "" {
		db, err = database.Open(dir, database.DefaultOptions())
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "recording events to %s\n", db.Path())
	}

	// The recorder drains a buffered channel on its own goroutine so
	// that database latency never blocks the connection's reader.
	records := make(chan model.EventRecord, 256)
	g, gctx := errgroup.WithContext(ctx)
	if db != nil {
		g.Go(func() error {
			for {
				select {
				case r := <-records:
					if err := db.InsertEvent(context.Background(), r.Name, r.Args, r.ReceivedAt); err != nil {
						return err
					}
				case <-gctx.Done():
					return nil
				}
			}
		})
	}

	out := cmd.OutOrStdout()
	listener := control.RawEventFunc(func(name, eventArgs string) {
		now := time.Now()
		fmt.Fprintf(out, "%s %-12s %s\n", now.Format("15:04:05"), name, eventArgs)
		if db == nil {
			return
		}
		select {
		case records <- model.EventRecord{Name: name, Args: eventArgs, ReceivedAt: now}:
		default:
			logger.Warn("event recorder backlog full, dropping event", "event", name)
		}
	})
	conn.AddRawEventListener(listener)
	defer conn.RemoveRawEventListener(listener)

	setCtx, cancel := commandContext(ctx, cfg)
	err = conn.SetEvents(setCtx, events...)
	cancel()
	if err != nil {
		return describeError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "listening for %s (interrupt to stop)\n", strings.Join(events, ", "))

	<-ctx.Done()
	stop()
	if err := g.Wait(); err != nil {
		return fmt.Errorf("record events: %w", err)
	}

	if db != nil {
		counts, err := db.CountByName(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\nrecorded events:")
		for name, n := range counts {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %d\n", name, n)
		}
	}
	return nil
}
