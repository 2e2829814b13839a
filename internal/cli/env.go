package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/isolate/internal/registry"
	"github.com/roach88/isolate/internal/store"
)

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// openStore opens the configured database. The caller closes it.
func (o *RootOptions) openStore() (*store.Store, error) {
	o.logger().Debug("opening database", "path", o.Config.DB)
	st, err := store.Open(o.Config.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// openRegistry opens the configured manifest.
func (o *RootOptions) openRegistry() (*registry.Manifest, error) {
	reg, err := registry.NewManifest(o.Config.Manifest, o.Config.HostID, o.Config.Kind)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open manifest", err)
	}
	return reg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM, or when
// the command's own context ends.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
