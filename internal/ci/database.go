package ci

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/blocks"
	"github.com/conveyor-ci/conveyor/internal/x"
)

// Database declares a database which must exist before the
// before_script phase runs:
//
//	database "avocado" {
//	  engine  = "postgres"
//	  user    = "postgres"
//	  service = "postgres"
//	}
//
// Provisioning happens through the engine's client binary, the same way
// a CI manifest would run `psql -c 'create database avocado;'`.
type Database struct {
	Name string `hcl:"name,label" json:"name"`

	Engine string `hcl:"engine" json:"engine"`
	User   string `hcl:"user,optional" json:"user"`

	// Service is the id of the service block the database lives on.
	// sqlite needs none.
	Service string `hcl:"service,optional" json:"service"`

	terminated bool
}

type Databases []Database

const (
	EnginePostgres = "postgres"
	EngineMysql    = "mysql"
	EngineSqlite   = "sqlite"
)

func (d *Database) Description() Description {
	return Description{
		Name:        d.Name,
		Description: "",
	}
}

func (d *Database) Identifier() string {
	return d.String()
}

func (d *Database) Type() string {
	return blocks.DatabaseBlock
}

func (d *Database) IsDaemon() bool {
	return false
}

func (d *Database) String() string {
	return x.RenderBlock(blocks.DatabaseBlock, d.Name)
}

func (d *Database) Variables() []hcl.Traversal {
	return nil
}

func (db Databases) Variables() []hcl.Traversal {
	var traversal []hcl.Traversal
	for i := range db {
		traversal = append(traversal, db[i].Variables()...)
	}
	return traversal
}

func (d *Database) CanRetry() bool {
	return false
}

func (d *Database) MaxRetries() int {
	return 0
}

func (d *Database) MinRetryBackoff() int {
	return 0
}

func (d *Database) MaxRetryBackoff() int {
	return 0
}

func (d *Database) RetryExponentialBackoff() bool {
	return false
}

func (d *Database) Terminate(safe bool) hcl.Diagnostics {
	d.terminated = true
	return nil
}

func (d *Database) Kill() hcl.Diagnostics {
	return d.Terminate(false)
}

func (d *Database) Terminated() bool {
	return d.terminated
}

func (db Databases) ById(name string) (*Database, hcl.Diagnostics) {
	for i := range db {
		if db[i].Name == name {
			return &db[i], nil
		}
	}
	return nil, hcl.Diagnostics{
		{
			Severity: hcl.DiagError,
			Summary:  "Database not found",
			Detail:   fmt.Sprintf("Database with name %s not found", name),
		},
	}
}

func (db Databases) CheckIfDistinct(dbs Databases) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, d := range db {
		for _, d2 := range dbs {
			if d.Name == d2.Name {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate database",
					Detail:   "Database with name " + d.Name + " is defined more than once",
				})
			}
		}
	}
	return diags
}
