package main

import (
	"context"

	"github.com/desertthunder/crossfade/internal/formatter"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/urfave/cli/v3"
)

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List the source playlists available to migrate",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Usage: "User whose playlists to list",
				Value: "local",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit the listing as JSON",
			},
		},
		Action: r.Playlists,
	}
}

// Playlists prints the user's source playlists so ids can be fed to migrate.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	stack, err := r.buildStack(db)
	if err != nil {
		return err
	}

	cred, err := stack.store.Valid(ctx, cmd.String("user"), models.ProviderSpotify)
	if err != nil {
		return err
	}

	playlists, err := stack.source.UserPlaylists(ctx, cred.AccessToken)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}
	return r.writePlain("%s", formatter.PlaylistsToText(playlists))
}
