package travis

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Parse reads a .travis.yml document.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(false)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse travis config: %w", err)
	}
	return &cfg, nil
}

// knownServices maps Travis addon service names to the container image
// and port the equivalent service block uses.
var knownServices = map[string]struct {
	image string
	port  int
}{
	"postgresql":    {"postgres", 5432},
	"mysql":         {"mysql", 3306},
	"mariadb":       {"mariadb", 3306},
	"memcached":     {"memcached", 11211},
	"redis":         {"redis", 6379},
	"redis-server":  {"redis", 6379},
	"mongodb":       {"mongo", 27017},
	"rabbitmq":      {"rabbitmq", 5672},
	"elasticsearch": {"elasticsearch", 9200},
}

type phaseCommands struct {
	phase    string
	commands StringList
}

// Convert renders the Travis configuration as an equivalent pipeline
// file. Lifecycle keys become one stage per phase, the python key and
// the env matrix become matrix axes, and addon services become service
// blocks.
func Convert(cfg *Config) *hclwrite.File {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	builder := body.AppendNewBlock("conveyor", nil)
	builder.Body().SetAttributeValue("version", cty.NumberIntVal(1))
	body.AppendNewline()

	if len(cfg.Python) > 0 || len(cfg.Env.Matrix) > 0 || len(cfg.Matrix.Exclude) > 0 {
		matrix := body.AppendNewBlock("matrix", nil)
		if len(cfg.Python) > 0 {
			axis := matrix.Body().AppendNewBlock("axis", []string{"python"})
			axis.Body().SetAttributeValue("values", stringsVal(cfg.Python))
		}
		if len(cfg.Env.Matrix) > 0 {
			matrix.Body().SetAttributeValue("env", stringsVal(cfg.Env.Matrix))
		}
		if len(cfg.Matrix.Exclude) > 0 {
			var excludes []cty.Value
			for _, exclude := range cfg.Matrix.Exclude {
				entry := make(map[string]cty.Value, len(exclude))
				for k, v := range exclude {
					entry[k] = cty.StringVal(v)
				}
				excludes = append(excludes, cty.MapVal(entry))
			}
			matrix.Body().SetAttributeValue("exclude", cty.TupleVal(excludes))
		}
		body.AppendNewline()
	}

	for _, global := range cfg.Env.Global {
		key, value, found := strings.Cut(global, "=")
		if !found {
			continue
		}
		env := body.AppendNewBlock("env", []string{key})
		env.Body().SetAttributeValue("value", cty.StringVal(strings.Trim(value, `"'`)))
		body.AppendNewline()
	}

	emitted := map[string]bool{}
	emitService := func(id, image string, port int) {
		if emitted[id] {
			return
		}
		emitted[id] = true
		block := body.AppendNewBlock("service", []string{id})
		block.Body().SetAttributeValue("image", cty.StringVal(image))
		if port != 0 {
			block.Body().SetAttributeValue("port", cty.NumberIntVal(int64(port)))
		}
		body.AppendNewline()
	}

	// Addons pin an engine version, so they win over a bare services entry
	// for the same engine.
	if cfg.Addons.Postgresql != "" {
		emitService("postgres", imageRef("postgres", cfg.Addons.Postgresql), 5432)
	}
	if cfg.Addons.Mariadb != "" {
		emitService("mariadb", imageRef("mariadb", cfg.Addons.Mariadb), 3306)
	}
	for _, name := range cfg.Services {
		service, ok := knownServices[name]
		if !ok {
			service.image = name
		}
		emitService(serviceId(name), service.image, service.port)
	}

	phases := []phaseCommands{
		{"before_install", cfg.BeforeInstall},
		{"install", cfg.Install},
		{"before_script", cfg.BeforeScript},
		{"script", cfg.Script},
		{"after_success", cfg.AfterSuccess},
	}
	for _, p := range phases {
		if len(p.commands) == 0 {
			continue
		}
		stage := body.AppendNewBlock("stage", []string{p.phase})
		stage.Body().SetAttributeValue("phase", cty.StringVal(p.phase))
		stage.Body().SetAttributeValue("script", cty.StringVal(strings.Join(p.commands, "\n")))
		body.AppendNewline()
	}

	return f
}

// serviceId normalizes a Travis service name into a block label,
// e.g. postgresql -> postgres.
func serviceId(name string) string {
	switch name {
	case "postgresql":
		return "postgres"
	case "redis-server":
		return "redis"
	}
	return name
}

func imageRef(image, version string) string {
	return image + ":" + version
}

func stringsVal(values []string) cty.Value {
	vals := make([]cty.Value, 0, len(values))
	for _, v := range values {
		vals = append(vals, cty.StringVal(v))
	}
	return cty.TupleVal(vals)
}
