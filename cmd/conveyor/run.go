package main

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/conveyor-ci/conveyor/internal/behavior"
	"github.com/conveyor-ci/conveyor/internal/cache"
	"github.com/conveyor-ci/conveyor/internal/ci"
	"github.com/conveyor-ci/conveyor/internal/logging"
	"github.com/conveyor-ci/conveyor/internal/orchestra"
	"github.com/conveyor-ci/conveyor/internal/path"
	"github.com/conveyor-ci/conveyor/internal/rules"
)

func configFromCliContext(cliCtx *cli.Context) (ci.ConductorConfig, error) {
	owd, err := os.Getwd()
	if err != nil {
		return ci.ConductorConfig{}, err
	}

	var username string
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	hostname, _ := os.Hostname()

	cwd := cliCtx.Path("chdir")
	pipelineFile := cliCtx.Path("file")
	if cwd == "" && pipelineFile == "" {
		cwd = owd
	}

	filtered, diags := rules.Unmarshal(cliCtx.Args().Slice())
	if diags.HasErrors() {
		return ci.ConductorConfig{}, fmt.Errorf("invalid stage filter: %s", diags.Error())
	}

	var variables ci.Variables
	for _, v := range cliCtx.StringSlice("var") {
		key, value, found := strings.Cut(v, "=")
		if !found {
			return ci.ConductorConfig{}, fmt.Errorf("invalid variable %q, expected NAME=VALUE", v)
		}
		variables = append(variables, ci.NewVariable(key, value))
	}

	b := behavior.NewDefaultBehavior()
	b.Ci = cliCtx.Bool("ci")
	b.Unattended = cliCtx.Bool("unattended") || cliCtx.Bool("ci")
	b.DryRun = cliCtx.Bool("dry-run")
	b.Parallel = cliCtx.Bool("parallel")

	return ci.ConductorConfig{
		User:     username,
		Hostname: hostname,
		Paths: &path.Path{
			Pipeline: pipelineFile,
			Owd:      owd,
			Cwd:      cwd,
		},
		Interface: ci.Interface{
			Verbosity:   verbosity,
			JSONLogging: cliCtx.Bool("json"),
		},
		Pipeline: ci.ConfigPipeline{
			Filtered: filtered,
			DryRun:   cliCtx.Bool("dry-run"),
		},
		Behavior:  b,
		Variables: variables,
	}, nil
}

// newConductor builds a conductor from the command line, wiring in the
// optional logging sinks.
func newConductor(cliCtx *cli.Context) (*ci.Conductor, error) {
	cfg, err := configFromCliContext(cliCtx)
	if err != nil {
		return nil, err
	}

	var opts []ci.ConductorOption
	if sinks := logging.ParseSinksFromCLI(cliCtx); len(sinks) > 0 {
		logger, err := logging.New(logging.Config{
			Verbosity: cfg.Interface.Verbosity,
			IsCI:      cfg.Behavior.Ci,
			JSON:      cfg.Interface.JSONLogging,
			Sinks:     sinks,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, ci.ConductorWithLogger(logger))
	}

	return ci.NewConductor(cfg, opts...), nil
}

func cliRunPipeline(cliCtx *cli.Context) error {
	conductor, err := newConductor(cliCtx)
	if err != nil {
		return err
	}
	defer conductor.Destroy()

	if code := orchestra.Perform(conductor); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

func cliListPipeline(cliCtx *cli.Context) error {
	cfg, err := configFromCliContext(cliCtx)
	if err != nil {
		return err
	}
	return orchestra.List(cfg)
}

func cliFormat(cliCtx *cli.Context) error {
	cfg, err := configFromCliContext(cliCtx)
	if err != nil {
		return err
	}
	return orchestra.Format(cfg, cliCtx.Bool("check"), cliCtx.Bool("recursive"))
}

func cliMigrate(cliCtx *cli.Context) error {
	cfg, err := configFromCliContext(cliCtx)
	if err != nil {
		return err
	}
	return orchestra.Migrate(cfg, cliCtx.Path("source"))
}

func cliSignoff(cliCtx *cli.Context) error {
	cfg, err := configFromCliContext(cliCtx)
	if err != nil {
		return err
	}
	return orchestra.Signoff(cfg, cliCtx.String("range"))
}

func cliCacheClean(cliCtx *cli.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	log.Infof("cleaning cache under %s", cwd)
	cache.CleanCache(cwd, cliCtx.Bool("recursive"))
	return nil
}
