package ci

import (
	"os"
	"os/exec"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/tryfunc"
	ctyyaml "github.com/zclconf/go-cty-yaml"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/conveyor-ci/conveyor/internal/meta"
	"github.com/conveyor-ci/conveyor/internal/ui"
)

// CreateEvalContext builds the root HCL evaluation context for a
// conductor. Blocks merge their own objects (var.*, local.*, service.*,
// matrix.*, output.*) into the Variables map as they run, under the
// conductor's eval mutex.
func CreateEvalContext(cfg ConductorConfig, process Process) *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"abs":             stdlib.AbsoluteFunc,
			"can":             tryfunc.CanFunc,
			"ceil":            stdlib.CeilFunc,
			"chomp":           stdlib.ChompFunc,
			"chunklist":       stdlib.ChunklistFunc,
			"coalesce":        stdlib.CoalesceFunc,
			"coalescelist":    stdlib.CoalesceListFunc,
			"compact":         stdlib.CompactFunc,
			"concat":          stdlib.ConcatFunc,
			"contains":        stdlib.ContainsFunc,
			"csvdecode":       stdlib.CSVDecodeFunc,
			"distinct":        stdlib.DistinctFunc,
			"element":         stdlib.ElementFunc,
			"flatten":         stdlib.FlattenFunc,
			"floor":           stdlib.FloorFunc,
			"format":          stdlib.FormatFunc,
			"formatdate":      stdlib.FormatDateFunc,
			"formatlist":      stdlib.FormatListFunc,
			"indent":          stdlib.IndentFunc,
			"join":            stdlib.JoinFunc,
			"jsondecode":      stdlib.JSONDecodeFunc,
			"jsonencode":      stdlib.JSONEncodeFunc,
			"keys":            stdlib.KeysFunc,
			"length":          stdlib.LengthFunc,
			"log":             stdlib.LogFunc,
			"lookup":          stdlib.LookupFunc,
			"lower":           stdlib.LowerFunc,
			"max":             stdlib.MaxFunc,
			"merge":           stdlib.MergeFunc,
			"min":             stdlib.MinFunc,
			"parseint":        stdlib.ParseIntFunc,
			"pow":             stdlib.PowFunc,
			"range":           stdlib.RangeFunc,
			"regex":           stdlib.RegexFunc,
			"regexall":        stdlib.RegexAllFunc,
			"replace":         stdlib.ReplaceFunc,
			"reverse":         stdlib.ReverseListFunc,
			"setintersection": stdlib.SetIntersectionFunc,
			"setproduct":      stdlib.SetProductFunc,
			"setsubtract":     stdlib.SetSubtractFunc,
			"setunion":        stdlib.SetUnionFunc,
			"signum":          stdlib.SignumFunc,
			"slice":           stdlib.SliceFunc,
			"sort":            stdlib.SortFunc,
			"split":           stdlib.SplitFunc,
			"strrev":          stdlib.ReverseFunc,
			"substr":          stdlib.SubstrFunc,
			"timeadd":         stdlib.TimeAddFunc,
			"title":           stdlib.TitleFunc,
			"trim":            stdlib.TrimFunc,
			"trimprefix":      stdlib.TrimPrefixFunc,
			"trimspace":       stdlib.TrimSpaceFunc,
			"trimsuffix":      stdlib.TrimSuffixFunc,
			"try":             tryfunc.TryFunc,
			"upper":           stdlib.UpperFunc,
			"values":          stdlib.ValuesFunc,
			"yamldecode":      ctyyaml.YAMLDecodeFunc,
			"yamlencode":      ctyyaml.YAMLEncodeFunc,
			"zipmap":          stdlib.ZipmapFunc,

			"ansifmt":    ui.AnsiFunc,
			"strip_ansi": ui.StripAnsiFunc,
			"which": function.New(&function.Spec{
				Params: []function.Parameter{
					{
						Name:             "executable",
						AllowDynamicType: true,
						Type:             cty.String,
					},
				},
				Type: function.StaticReturnType(cty.String),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					path, err := exec.LookPath(args[0].AsString())
					if err != nil {
						return cty.StringVal(""), err
					}
					return cty.StringVal(path), nil
				},
				Description: "Returns the absolute path to an executable in the current PATH.",
			}),
			"env": function.New(&function.Spec{
				Params: []function.Parameter{
					{
						Name:             "key",
						AllowDynamicType: true,
						Type:             cty.String,
					},
				},
				VarParam: &function.Parameter{
					Name:        "default",
					Description: "Value to return when the environment variable is unset.",
					Type:        cty.String,
				},
				Type: function.StaticReturnType(cty.String),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					v, ok := os.LookupEnv(args[0].AsString())
					if ok {
						return cty.StringVal(v), nil
					}
					if len(args) > 1 {
						return args[1], nil
					}
					return cty.StringVal(""), nil
				},
				Description: "Returns the value of the environment variable, or the default when unset.",
			}),
		},

		Variables: map[string]cty.Value{
			"true":  cty.True,
			"false": cty.False,
			"null":  cty.NullVal(cty.DynamicPseudoType),

			"owd":      cty.StringVal(cfg.Paths.Owd),
			"cwd":      cty.StringVal(cfg.Paths.Cwd),
			"hostname": cty.StringVal(cfg.Hostname),
			"user":     cty.StringVal(cfg.User),

			"pipeline": cty.ObjectVal(map[string]cty.Value{
				"id":     cty.StringVal(process.Id.String()),
				"path":   cty.StringVal(cfg.Paths.Pipeline),
				"tmpDir": cty.StringVal(process.TempDir),
			}),

			meta.AppName: cty.ObjectVal(map[string]cty.Value{
				"version":        cty.StringVal(meta.AppVersion),
				"boot_time":      cty.StringVal(process.BootTime.Format(time.RFC3339)),
				"boot_time_unix": cty.NumberIntVal(process.BootTime.Unix()),
				"pipeline_id":    cty.StringVal(process.Id.String()),
				"ci":             cty.BoolVal(cfg.Behavior.Ci),
				"unattended":     cty.BoolVal(cfg.Behavior.Unattended),
			}),

			"ansi": cty.ObjectVal(map[string]cty.Value{
				"bg": cty.ObjectVal(map[string]cty.Value{
					"red":    cty.StringVal("\033[41m"),
					"green":  cty.StringVal("\033[42m"),
					"yellow": cty.StringVal("\033[43m"),
					"blue":   cty.StringVal("\033[44m"),
					"purple": cty.StringVal("\033[45m"),
					"cyan":   cty.StringVal("\033[46m"),
					"white":  cty.StringVal("\033[47m"),
					"grey":   cty.StringVal("\033[100m"),
				}),
				"fg": cty.ObjectVal(map[string]cty.Value{
					"red":       cty.StringVal("\033[31m"),
					"green":     cty.StringVal("\033[32m"),
					"yellow":    cty.StringVal("\033[33m"),
					"blue":      cty.StringVal("\033[34m"),
					"purple":    cty.StringVal("\033[35m"),
					"cyan":      cty.StringVal("\033[36m"),
					"white":     cty.StringVal("\033[37m"),
					"grey":      cty.StringVal("\033[90m"),
					"bold":      cty.StringVal("\033[1m"),
					"italic":    cty.StringVal("\033[3m"),
					"underline": cty.StringVal("\033[4m"),
				}),

				"reset": cty.StringVal("\033[0m"),
			}),
		},
	}
}
