package main

import (
	"context"

	"github.com/desertthunder/crossfade/internal/formatter"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/tasks"
	"github.com/urfave/cli/v3"
)

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Migrate one or more Spotify playlists to a new YouTube playlist",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Source playlist id (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "Name for the destination playlist",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum tracks to take per playlist",
			},
			&cli.BoolFlag{
				Name:  "latest",
				Usage: "Take the most recently added tracks first (requires --limit)",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User whose credentials to migrate with",
				Value: "local",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit the report as JSON instead of styled text",
			},
		},
		Action: r.Migrate,
	}
}

// Migrate runs one migration from the command line, streaming progress to the
// log and printing the final report.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	req := models.MigrationRequest{
		SourcePlaylistIDs:  cmd.StringSlice("playlist"),
		TargetPlaylistName: cmd.String("name"),
		TrackLimit:         int(cmd.Int("limit")),
	}
	if cmd.Bool("latest") {
		req.LimitMode = models.LimitModeLatest
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

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	report, runErr := stack.engine.Run(ctx, cmd.String("user"), req, progress)
	close(progress)
	<-done

	if runErr != nil {
		return runErr
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}
	return r.writePlain("%s", formatter.ReportToStyled(report))
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded migration runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Usage: "User whose history to show",
				Value: "local",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit the history as JSON",
			},
		},
		Action: r.History,
	}
}

// History prints the recorded migration runs for a user, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	stack, err := r.buildStack(db)
	if err != nil {
		return err
	}

	records, err := stack.history.ListByUser(cmd.String("user"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	return r.writePlain("%s", formatter.HistoryToText(records))
}
