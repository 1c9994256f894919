package ci

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/runnable"
	"github.com/conveyor-ci/conveyor/internal/ui"
)

func (d *Database) Prepare(conductor *Conductor, skip bool, overridden bool) hcl.Diagnostics {
	logger := conductor.Logger().WithField("database", d.Name)
	if skip {
		logger.Infof("%s", ui.Grey("skipped"))
	}
	return nil
}

func (d *Database) CanRun(conductor *Conductor, options ...runnable.Option) (bool, hcl.Diagnostics) {
	// sqlite databases are files created by the test suite itself
	return d.Engine != EngineSqlite, nil
}

func (d *Database) Run(conductor *Conductor, options ...runnable.Option) hcl.Diagnostics {
	var diags hcl.Diagnostics
	logger := conductor.Logger().WithField("database", d.Name)
	cfg := runnable.NewConfig(options...)

	args, env, diags := d.clientCommand(conductor)
	if diags.HasErrors() {
		return diags
	}
	if args == nil {
		logger.Debugf("engine %s needs no provisioning", d.Engine)
		return diags
	}

	if cfg.Behavior.DryRun {
		fmt.Println(ui.Blue("database:create"), ui.Green(shellescape.QuoteCommand(args)))
		return diags
	}

	cmd := exec.CommandContext(conductor.Context(), args[0], args[1:]...)
	cmd.Stdout = logger.Writer()
	cmd.Stderr = logger.Writer()
	cmd.Env = append(os.Environ(), env...)
	cmd.Dir = cfg.Paths.Cwd

	logger.Infof("creating %s database %s", d.Engine, d.Name)
	if err := cmd.Run(); err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("failed to provision database (%s)", d.Identifier()),
			Detail:   err.Error(),
		})
	}
	return diags
}

// clientCommand renders the engine client invocation. The returned env
// carries connection details which should not appear on the command line.
func (d *Database) clientCommand(conductor *Conductor) ([]string, []string, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	host := ""
	port := ""
	if d.Service != "" {
		pipe := conductor.Pipeline()
		if pipe != nil {
			service, sd := pipe.Services.ById(d.Service)
			if sd.HasErrors() {
				return nil, nil, diags.Extend(sd)
			}
			host = "127.0.0.1"
			port = service.HostPort()
		}
	}

	name := strings.ReplaceAll(d.Name, `"`, "")
	switch d.Engine {
	case EnginePostgres:
		args := []string{"psql", "-c", fmt.Sprintf("create database %s;", name)}
		if d.User != "" {
			args = append(args, "-U", d.User)
		}
		var env []string
		if host != "" {
			env = append(env, "PGHOST="+host, "PGPORT="+port)
		}
		return args, env, diags
	case EngineMysql:
		args := []string{"mysql"}
		if d.User != "" {
			args = append(args, "-u", d.User)
		}
		if host != "" {
			args = append(args, "-h", host, "-P", port)
		}
		args = append(args, "-e", fmt.Sprintf("create database %s;", name))
		return args, nil, diags
	case EngineSqlite:
		return nil, nil, diags
	}
	return nil, nil, diags.Append(&hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "unsupported database engine",
		Detail:   fmt.Sprintf("database %s uses unsupported engine %q", d.Name, d.Engine),
	})
}
