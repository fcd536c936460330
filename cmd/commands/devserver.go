package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/internal/config"
	"github.com/dohr-michael/taskdeck/internal/devserver"
)

const beaconInterval = 30 * time.Second

// NewDevServerCommand returns the dev-server subcommand.
func NewDevServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "dev-server",
		Usage: "Run the in-memory reference task API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides dev_server.addr)"},
		},
		Action: withEnv(runDevServer),
	}
}

func runDevServer(ctx context.Context, cmd *cli.Command, e *env) error {
	addr := e.cfg.DevServer.Addr
	if cmd.IsSet("addr") {
		addr = cmd.String("addr")
	}

	server := devserver.New(devserver.Options{
		Addr:     addr,
		Routes:   e.cfg.API.Routes,
		Secret:   e.cfg.DevServer.Secret,
		TokenTTL: e.cfg.DevServer.TokenTTL.Duration(),
		Logger:   e.log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	beaconCtx, stopBeacon := context.WithCancel(ctx)
	defer stopBeacon()
	go server.RunBeacon(beaconCtx, config.BeaconPath(), beaconInterval)
	fmt.Fprintf(e.out, "Task API listening on http://%s (data is kept in memory)\n", addr)

	select {
	case <-ctx.Done():
		e.log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
