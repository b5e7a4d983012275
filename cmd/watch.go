package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/dxcwatch/internal/config"
	"github.com/conneroisu/dxcwatch/internal/filewatch"
	"github.com/conneroisu/dxcwatch/internal/logging"
	"github.com/conneroisu/dxcwatch/internal/notify"
	"github.com/conneroisu/dxcwatch/internal/rebuild"
)

var watchCmd = &cobra.Command{
	Use:     "watch <shaderlist>",
	Aliases: []string{"w"},
	Short:   "Watch a shaderlist and rebuild shaders as their sources change",
	Long: `Build every shader named by the shaderlist, then keep watching the
shaderlist, each shader source and everything it includes. A changed file
rebuilds only the shaders that depend on it; a changed shaderlist is
reloaded and only its new or modified entries are built.

With --notify-addr, rebuild events are streamed as JSON over a WebSocket
at ws://<addr>/ws so a running engine can hot-reload its shaders.

Examples:
  dxcwatch watch shaders/shaderlist.txt
  dxcwatch watch shaders.yaml --backend inotify --poll-interval 100ms
  dxcwatch watch shaders.json --notify-addr 127.0.0.1:9630`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("poll-interval", rebuild.DefaultPollInterval, "delay between two checks for changes")
	watchCmd.Flags().String("backend", filewatch.BackendFSNotify, "file notification backend (fsnotify, inotify, notify)")
	watchCmd.Flags().String("notify-addr", "", "serve rebuild events over WebSocket on this address")

	bind(watchCmd.Flags(), map[string]string{
		"watch.poll_interval": "poll-interval",
		"watch.backend":       "backend",
		"notify.addr":         "notify-addr",
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := watch(ctx, cfg, logger, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summaryLine(summary))
	return nil
}

// watch runs a rebuild session, and the notify server when one is
// configured, until ctx is cancelled or either of them fails.
func watch(ctx context.Context, cfg *config.Config, logger logging.Logger, shaderlist string) (rebuild.Summary, error) {
	backend, err := filewatch.BackendByName(cfg.Watch.Backend)
	if err != nil {
		return rebuild.Summary{}, err
	}
	registry := filewatch.NewRegistry(filewatch.Options{Backend: backend, Logger: logger})
	defer registry.Close()

	opts, err := cfg.CompilerOptions(logger)
	if err != nil {
		return rebuild.Summary{}, err
	}
	dxc, err := newDXC(opts)
	if err != nil {
		return rebuild.Summary{}, err
	}

	g, ctx := errgroup.WithContext(ctx)

	var listener rebuild.Listener
	if cfg.Notify.Addr != "" {
		hub := notify.NewHub(notify.HubOptions{AllowedOrigins: cfg.Notify.AllowedOrigins, Logger: logger})
		server, err := notify.Listen(cfg.Notify.Addr, hub, logger)
		if err != nil {
			_ = hub.Shutdown(context.Background())
			_ = dxc.Close()
			return rebuild.Summary{}, err
		}
		listener = hub
		g.Go(func() error { return server.Run(ctx) })
	}

	session := rebuild.New(rebuild.Options{
		Shaderlist:   shaderlist,
		Compiler:     dxc,
		Watcher:      registry,
		Listener:     listener,
		Logger:       logger,
		IncludeDirs:  cfg.Compiler.IncludeDirs,
		PollInterval: cfg.Watch.PollInterval,
	})

	var summary rebuild.Summary
	g.Go(func() error {
		var err error
		summary, err = session.Run(ctx)
		return err
	})

	err = g.Wait()
	return summary, err
}
