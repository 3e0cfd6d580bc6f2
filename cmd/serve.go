package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/desertthunder/crossfade/internal/server"
	"github.com/urfave/cli/v3"
)

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the migration HTTP service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind address (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// Serve wires the full stack and runs the HTTP server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = int(port)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	stack, err := r.buildStack(db)
	if err != nil {
		return err
	}

	srv := server.New(server.ServerOpts{
		Config:     r.config.Server,
		Logger:     r.logger,
		Migration:  server.NewMigrationHandler(stack.engine, r.logger),
		Playlists:  server.NewPlaylistHandler(stack.store, stack.source, r.logger),
		Disconnect: server.NewDisconnectHandler(stack.store, r.logger),
		Auth:       server.NewAuthHandler(stack.store, stack.refresher, r.logger),
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
