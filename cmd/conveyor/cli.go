package main

import (
	"github.com/urfave/cli/v2"

	"github.com/conveyor-ci/conveyor/internal/meta"
)

var verbosity int

func initCli() *cli.App {
	app := &cli.App{
		Name:                 meta.AppName,
		Usage:                meta.AppDescription,
		Version:              meta.AppVersion,
		Action:               cliRunPipeline,
		EnableBashCompletion: true,

		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "The pipeline file which needs to run",
			},
			&cli.PathFlag{
				Name:    "chdir",
				Aliases: []string{"C"},
				Usage:   "The directory where the pipeline needs to run",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Increase logging verbosity, can be repeated",
				Count:   &verbosity,
			},
			&cli.BoolFlag{
				Name:    "ci",
				Usage:   "Enable CI mode",
				EnvVars: []string{meta.EnvVarPrefix + "CI", "CI"},
			},
			&cli.BoolFlag{
				Name:    "unattended",
				Usage:   "Do not prompt for variables, fail instead",
				EnvVars: []string{meta.EnvVarPrefix + "UNATTENDED"},
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Print the commands which would run without executing them",
			},
			&cli.BoolFlag{
				Name:  "parallel",
				Usage: "Run matrix jobs concurrently",
			},
			&cli.StringSliceFlag{
				Name:  "var",
				Usage: "Set a pipeline variable, NAME=VALUE",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Log in JSON format",
			},
			&cli.BoolFlag{
				Name:  "logging.local.file",
				Usage: "Additionally write logs to a local file",
			},
			&cli.PathFlag{
				Name:  "logging.local.file.path",
				Usage: "Path of the local log file",
				Value: meta.AppName + ".log",
			},
			&cli.BoolFlag{
				Name:  "logging.remote.google-cloud",
				Usage: "Additionally ship logs to Google Cloud Logging",
			},
			&cli.StringFlag{
				Name:  "logging.remote.google-cloud.project",
				Usage: "Google Cloud project id for the logging sink",
			},
		},

		Commands: []*cli.Command{
			{
				Name:    "run",
				Aliases: []string{"r"},
				Usage:   "Run the pipeline, optionally filtered to the given stages or phases",
				Action:  cliRunPipeline,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the stages, services and matrix jobs of the pipeline",
				Action:  cliListPipeline,
			},
			{
				Name:   "fmt",
				Usage:  "Format the pipeline files in canonical style",
				Action: cliFormat,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "check",
						Usage: "List files which would change and exit non-zero",
					},
					&cli.BoolFlag{
						Name:    "recursive",
						Aliases: []string{"r"},
						Usage:   "Format **/*.hcl recursively",
					},
				},
			},
			{
				Name:   "migrate",
				Usage:  "Convert a .travis.yml into a pipeline file",
				Action: cliMigrate,
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:  "source",
						Usage: "Path to the .travis.yml to convert",
					},
				},
			},
			{
				Name:   "signoff",
				Usage:  "Verify that commits carry a Signed-off-by trailer",
				Action: cliSignoff,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "range",
						Usage: "Git revision range to inspect, defaults to HEAD",
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Manage the build cache",
				Subcommands: []*cli.Command{
					{
						Name:   "clean",
						Usage:  "Remove the build cache directory",
						Action: cliCacheClean,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "recursive",
								Usage: "Clean caches of nested pipelines too",
							},
						},
					},
				},
			},
		},
	}

	return app
}
