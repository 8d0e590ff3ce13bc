package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dandantas/pimpush/cmd/pushctl/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Usage:   "push service base URL",
			Value:   "http://localhost:8080",
			Sources: cli.EnvVars("PIMPUSH_SERVER"),
		},
		&cli.StringFlag{
			Name:    "user",
			Usage:   "user the job is submitted as",
			Sources: cli.EnvVars("PIMPUSH_USER", "USER"),
		},
		&cli.StringFlag{
			Name:  "identity-header",
			Usage: "header carrying the user",
			Value: "X-Remote-User",
		},
	}
	waitFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "wait",
			Usage: "poll until the job finishes",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "poll interval",
			Value: 2 * time.Second,
		},
	}

	app := &cli.Command{
		Name:  "pushctl",
		Usage: "submit item push jobs and follow their progress",
		Commands: []*cli.Command{
			{
				Name:  "push",
				Usage: "enqueue the rows of a CSV file",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "CSV file with a header row of field names",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "environment",
						Usage:    "target environment",
						Required: true,
					},
				}, connFlags...), waitFlags...),
				Action: commands.PushAction,
			},
			{
				Name:  "status",
				Usage: "show a job",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "job id",
						Required: true,
					},
				}, connFlags...), waitFlags...),
				Action: commands.StatusAction,
			},
			{
				Name:  "list",
				Usage: "list recent jobs",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "pending, running, completed or error",
					},
					&cli.StringFlag{
						Name:  "owner",
						Usage: "only jobs submitted by this user",
					},
					&cli.IntFlag{
						Name:  "page",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
					},
				}, connFlags...),
				Action: commands.ListAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
