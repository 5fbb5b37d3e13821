package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/patelhet04/EssayBot-API/cmd/essaybot/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "essaybot",
		Usage: "per-professor knowledge indexing and multi-agent essay grading",
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "build or update a professor's knowledge index from course materials",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "course material file or directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "professor",
						Usage:    "professor username that owns the index",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "project-root",
						Usage:    "workspace root holding per-professor uploads",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "force-init",
						Usage: "rebuild the index from scratch instead of merging",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "config file path",
						Value: "configs/config.yaml",
					},
					&cli.StringFlag{
						Name:  "env",
						Usage: "env file path",
						Value: ".env",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "enable debug logging",
					},
				},
				Action: commands.IndexAction,
			},
			{
				Name:  "grade",
				Usage: "grade every response in a spreadsheet with the four rubric agents",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "spreadsheet of student responses",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "professor",
						Usage:    "professor username whose index grounds the feedback",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "project-root",
						Usage:    "workspace root holding per-professor uploads",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "job-id",
						Usage: "job identifier for status records (generated when empty)",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "generation model override",
					},
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "directory for graded output and status records",
						Value: "outputs",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "config file path",
						Value: "configs/config.yaml",
					},
					&cli.StringFlag{
						Name:  "env",
						Usage: "env file path",
						Value: ".env",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "enable debug logging",
					},
				},
				Action: commands.GradeAction,
			},
			{
				Name:  "analyze",
				Usage: "inspect a roster spreadsheet before grading",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "spreadsheet or CSV to inspect",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "enable debug logging",
					},
				},
				Action: commands.AnalyzeAction,
			},
			{
				Name:  "rubrics",
				Usage: "generate sample grading rubrics for an essay question",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "question",
						Usage:    "essay question to design rubrics for",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "professor",
						Usage:    "professor username whose index grounds the rubrics",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "project-root",
						Usage:    "workspace root holding per-professor uploads",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "samples",
						Usage: "number of sample rubrics to generate",
						Value: 3,
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "generation model override",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "also write the result JSON to this file",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "config file path",
						Value: "configs/config.yaml",
					},
					&cli.StringFlag{
						Name:  "env",
						Usage: "env file path",
						Value: ".env",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "enable debug logging",
					},
				},
				Action: commands.RubricsAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("essaybot failed")
	}
}
