package ci

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/sirupsen/logrus"

	"github.com/conveyor-ci/conveyor/internal/meta"
	"github.com/conveyor-ci/conveyor/internal/x"
)

type ConductorOption func(*Conductor)

func ConductorWithLogger(logger logrus.Ext1FieldLogger) ConductorOption {
	return func(c *Conductor) {
		c.RootLogger = logger
	}
}

func ConductorWithConfig(cfg ConductorConfig) ConductorOption {
	return func(c *Conductor) {
		c.Config = cfg
	}
}

func ConductorWithContext(ctx context.Context) ConductorOption {
	return func(c *Conductor) {
		c.ctx = ctx
	}
}

func ConductorWithParser(parser *Parser) ConductorOption {
	return func(c *Conductor) {
		c.Parser = parser
	}
}

func ConductorWithDiagWriter(diagWriter hcl.DiagnosticWriter) ConductorOption {
	return func(c *Conductor) {
		c.DiagWriter = diagWriter
	}
}

func ConductorWithEvalContext(evalContext *hcl.EvalContext) ConductorOption {
	return func(c *Conductor) {
		c.eval.context = evalContext
	}
}

func ConductorWithProcess(process Process) ConductorOption {
	return func(c *Conductor) {
		c.Process = process
	}
}

func ConductorWithVariable(variable *Variable) ConductorOption {
	return func(c *Conductor) {
		c.variables = append(c.variables, variable)
	}
}

func ConductorWithVariablesList(variables Variables) ConductorOption {
	return func(c *Conductor) {
		c.variables = variables
	}
}

// Parser is a mutex-guarded wrapper around hclparse.Parser. Matrix jobs
// parse and evaluate concurrently under --parallel, and the underlying
// parser's file map is not safe for that.
type Parser struct {
	parser *hclparse.Parser
	mu     *sync.RWMutex
}

func (p *Parser) ParseHCLFile(filename string) (*hcl.File, hcl.Diagnostics) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.parser.ParseHCLFile(filename)
}

func (p *Parser) Files() map[string]*hcl.File {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.parser.Files()
}

type Conductor struct {
	RootLogger logrus.Ext1FieldLogger
	Config     ConductorConfig

	stdinMu sync.Mutex

	ctx context.Context

	// Process is the current process
	Process Process

	// Parser is the HCL parser
	Parser *Parser

	// DiagWriter is the HCL diagnostic writer, it is used to write the diagnostics
	// to os.Stdout
	DiagWriter hcl.DiagnosticWriter

	// eval has the evaluation context and the mutex guarding its variable maps
	eval *Eval

	parent *Conductor

	variables Variables

	pipelineMu sync.Mutex
	pipeline   *Pipeline
}

// Pipeline returns the pipeline this conductor currently runs. It is
// populated by the orchestra once parsing finishes, and blocks that
// need to look up sibling blocks at runtime read it from here.
func (c *Conductor) Pipeline() *Pipeline {
	c.pipelineMu.Lock()
	defer c.pipelineMu.Unlock()
	return c.pipeline
}

func (c *Conductor) SetPipeline(pipe *Pipeline) {
	c.pipelineMu.Lock()
	defer c.pipelineMu.Unlock()
	c.pipeline = pipe
}

func (c *Conductor) TempDir() string {
	return c.Process.TempDir
}

func (c *Conductor) Eval() *Eval {
	return c.eval
}

// StdinLock takes exclusive ownership of the terminal for interactive
// prompts. Every block that reads from stdin must hold this.
func (c *Conductor) StdinLock() {
	c.stdinMu.Lock()
}

func (c *Conductor) StdinUnlock() {
	c.stdinMu.Unlock()
}

// Child derives a conductor for a single matrix job. The child gets its
// own evaluation context so that jobs never observe one another's
// variables, but shares the parser and the process metadata.
func (c *Conductor) Child(opts ...ConductorOption) *Conductor {
	inheritOpts := []ConductorOption{
		ConductorWithConfig(c.Config),
		ConductorWithParser(c.Parser),
		ConductorWithDiagWriter(c.DiagWriter),
		ConductorWithContext(c.ctx),
		ConductorWithVariablesList(c.variables),
	}
	opts = append(inheritOpts, opts...)
	child := NewConductor(c.Config, opts...)
	child.parent = c
	return child
}

func (c *Conductor) Parent() *Conductor {
	return c.parent
}

func (c *Conductor) RootParent() *Conductor {
	if c.parent == nil {
		return c
	}
	return c.parent.RootParent()
}

func (c *Conductor) Logger() logrus.Ext1FieldLogger {
	return c.RootLogger
}

type Process struct {
	Id uuid.UUID

	Executable string

	// BootTime is the time when the process was started
	BootTime time.Time

	// TempDir is the temporary directory created for the process
	TempDir string
}

func (c *Conductor) Context() context.Context {
	return c.ctx
}

func NewProcess(cfg ConductorConfig) Process {
	e, err := os.Executable()
	x.Must(err)

	pipelineId := uuid.New()

	// create a temporary directory
	tempDir, err := os.MkdirTemp("", meta.AppName)
	x.Must(err)

	return Process{
		Id:         pipelineId,
		Executable: e,
		BootTime:   time.Now(),
		TempDir:    tempDir,
	}
}

func (c *Conductor) Variables() Variables {
	return c.variables
}

func Chdir(cfg ConductorConfig, logger *logrus.Logger) string {
	cwd := cfg.Paths.Cwd
	if cwd == "" {
		cwd = filepath.Dir(cfg.Paths.Pipeline)
		if filepath.Base(cwd) == meta.BuildDirPrefix {
			cwd = filepath.Dir(cwd)
		}
	}
	err := os.Chdir(cwd)
	if err != nil {
		logger.Fatal(err)
	}
	cwd, err = os.Getwd()
	x.Must(err)
	logger.Debug("changing working directory to ", cwd)
	return cwd
}

func NewConductor(cfg ConductorConfig, opts ...ConductorOption) *Conductor {
	parser := hclparse.NewParser()

	diagWriter := hcl.NewDiagnosticTextWriter(os.Stdout, parser.Files(), 0, true)

	logger := NewLogger(cfg)

	dir := Chdir(cfg, logger)
	if dir != cfg.Paths.Cwd {
		cfg.Paths.Cwd = dir
	}

	process := NewProcess(cfg)

	c := &Conductor{
		Parser: &Parser{
			parser: parser,
			mu:     &sync.RWMutex{},
		},
		DiagWriter: diagWriter,
		ctx:        context.Background(),
		Process:    process,
		RootLogger: logger,
		Config:     cfg,
		eval: &Eval{
			context: CreateEvalContext(cfg, process),
			mu:      &sync.RWMutex{},
		},
	}
	for _, v := range cfg.Variables {
		c.variables = append(c.variables, v)
	}

	for _, opt := range opts {
		opt(c)
	}

	if !c.Config.Behavior.Child.Enabled {
		logger.Infof("%s (version=%s)", meta.AppName, meta.AppVersion)
	}

	return c
}

func (c *Conductor) Destroy() {
	c.Logger().Debug("removing temporary directory")
	err := os.RemoveAll(c.Process.TempDir)
	if err != nil {
		c.Logger().Warnf("failed to remove temporary directory: %s", err)
	}

	c.Logger().Debugf("destroying %s", meta.AppName)

	c.RootLogger = nil
	c.Config = ConductorConfig{}
	c.Parser = nil
	c.DiagWriter = nil
}

func (c *Conductor) Update(opts ...ConductorOption) {
	for _, opt := range opts {
		opt(c)
	}
}
