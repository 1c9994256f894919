package ci

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/sirupsen/logrus"

	"github.com/conveyor-ci/conveyor/internal/dg"
	"github.com/conveyor-ci/conveyor/internal/ui"
	"github.com/conveyor-ci/conveyor/internal/x"
)

type Tracker struct {
	runnables   Blocks
	runnablesMu sync.Mutex
	runnablesWg sync.WaitGroup

	daemons   Blocks
	daemonsMu sync.Mutex

	killSignal      chan os.Signal
	interruptSignal chan os.Signal
}

func NewTracker() *Tracker {
	return &Tracker{
		killSignal:      make(chan os.Signal, 1),
		interruptSignal: make(chan os.Signal, 1),
	}
}

func (t *Tracker) AppendRunnable(runnable Block) {
	t.runnablesWg.Add(1)
	t.runnablesMu.Lock()
	defer t.runnablesMu.Unlock()
	t.runnables = append(t.runnables, runnable)
}

func (t *Tracker) RunnableWait() {
	t.runnablesWg.Wait()
}

func (t *Tracker) RunnableDone() {
	t.runnablesWg.Done()
}

func (t *Tracker) AppendDaemon(daemon Block) {
	t.daemonsMu.Lock()
	defer t.daemonsMu.Unlock()
	t.daemons = append(t.daemons, daemon)
}

func (t *Tracker) Daemons() Blocks {
	t.daemonsMu.Lock()
	defer t.daemonsMu.Unlock()
	return t.daemons
}

func (t *Tracker) HasDaemons() bool {
	t.daemonsMu.Lock()
	defer t.daemonsMu.Unlock()
	return len(t.daemons) > 0
}

type Handler struct {
	Tracker *Tracker
	Diags   *dg.SafeDiagnostics
	Logger  logrus.Ext1FieldLogger
	Process *HandlerProcess

	diagWriter hcl.DiagnosticWriter
	ctxMu      sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
}

func (h *Handler) Context() context.Context {
	h.ctxMu.RLock()
	defer h.ctxMu.RUnlock()
	return h.ctx
}

type HandlerOption func(*Handler)

func WithContext(ctx context.Context) HandlerOption {
	return func(h *Handler) {
		ctx, cancel := context.WithCancel(ctx)
		h.ctxMu.Lock()
		h.ctx = ctx
		h.cancel = cancel
		h.ctxMu.Unlock()
	}
}

func WithLogger(logger logrus.Ext1FieldLogger) HandlerOption {
	return func(h *Handler) {
		h.Logger = logger
	}
}

func WithDiagnostics(diagnostics *dg.SafeDiagnostics) HandlerOption {
	return func(h *Handler) {
		h.Diags = diagnostics
	}
}

func WithDiagnosticWriter(diagnosticWriter hcl.DiagnosticWriter) HandlerOption {
	return func(h *Handler) {
		h.diagWriter = diagnosticWriter
	}
}

func WithTracker(tracker *Tracker) HandlerOption {
	return func(h *Handler) {
		h.Tracker = tracker
	}
}

func WithProcessBootTime(bootTime time.Time) HandlerOption {
	return func(h *Handler) {
		h.Process.BootTime = bootTime
	}
}

type HandlerProcess struct {
	BootTime time.Time
}

func NewHandlerProcess() *HandlerProcess {
	return &HandlerProcess{
		BootTime: time.Now(),
	}
}

func NewHandler(opts ...HandlerOption) *Handler {
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	h := &Handler{
		Tracker: NewTracker(),
		Diags:   &dg.SafeDiagnostics{},
		Logger:  logrus.New(),
		Process: NewHandlerProcess(),

		diagWriter: hcl.NewDiagnosticTextWriter(os.Stdout, nil, 0, true),
		ctx:        ctx,
		cancel:     cancel,
	}

	h = h.Update(opts...)
	return h
}

func (h *Handler) Update(opts ...HandlerOption) *Handler {
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Cancel() {
	h.ctxMu.RLock()
	defer h.ctxMu.RUnlock()
	h.cancel()
}

func (h *Handler) Kill() {
	signal.Notify(h.Tracker.killSignal, os.Kill)
	ctx := h.Context()
	logger := h.Logger.WithField("orchestra", "watchdog")
	select {
	case <-h.Tracker.killSignal:
		var diags hcl.Diagnostics
		logger.Warn("received kill signal, killing all subprocesses")
		logger.Warn("stopping running operations...")

		for _, runnable := range h.Tracker.runnables {
			logger.Debugf("killing runnable %s", runnable.Identifier())
			d := runnable.Kill()
			diags = diags.Extend(d)
		}

		h.Cancel()
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Force quit",
			Detail:   "data loss may have occurred",
		})
		if diags.HasErrors() {
			writer := hcl.NewDiagnosticTextWriter(os.Stderr, nil, 78, true)
			_ = writer.WriteDiagnostics(diags)
		}
		os.Exit(h.Fatal())
	case <-ctx.Done():
		logger.Tracef("took %s to complete the pipeline", time.Since(h.Process.BootTime))
		return
	}
}

func (h *Handler) Interrupt() {
	signal.Notify(h.Tracker.interruptSignal, os.Interrupt)
	signal.Notify(h.Tracker.interruptSignal, syscall.SIGTERM)

	ctx := h.Context()
	logger := h.Logger.WithField("orchestra", "watchdog")
	select {
	case <-h.Tracker.interruptSignal:
		var diags hcl.Diagnostics
		logger.Warn("received interrupt signal, cancelling the pipeline")
		logger.Warn("stopping running operations...")
		logger.Warn("press CTRL+C again to force quit")

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		go func() {
			<-ch
			logger.Warn("Two interrupts received. Exiting immediately.")
			os.Exit(h.Fatal())
		}()
		for _, runnable := range h.Tracker.runnables {
			logger.Debugf("stopping runnable %s", runnable.Identifier())
			d := runnable.Terminate(false)
			diags = diags.Extend(d)
		}
		for _, daemon := range h.Tracker.Daemons() {
			logger.Debugf("stopping daemon %s", daemon.Identifier())
			d := daemon.Terminate(false)
			diags = diags.Extend(d)
		}

		if diags.HasErrors() {
			writer := hcl.NewDiagnosticTextWriter(os.Stderr, nil, 78, true)
			_ = writer.WriteDiagnostics(diags)
			os.Exit(h.Fatal())
		}
		h.Cancel()
	case <-ctx.Done():
		logger.Debugf("took %s to complete the pipeline", time.Since(h.Process.BootTime))
		return
	}
}

// TerminateDaemons gracefully stops every service container that is
// still up. Called once the job's last layer has finished, whether it
// succeeded or not.
func (h *Handler) TerminateDaemons() {
	logger := h.Logger.WithField("orchestra", "watchdog")
	for _, daemon := range h.Tracker.Daemons() {
		if daemon.Terminated() {
			continue
		}
		logger.Infof("stopping daemon %s", daemon.Identifier())
		d := daemon.Terminate(true)
		if d.HasErrors() {
			h.Diags.Extend(d)
		}
	}
}

func (h *Handler) WriteDiagnostics() {
	if h.Diags.Diagnostics() == nil {
		return
	}
	x.Must(h.diagWriter.WriteDiagnostics(h.Diags.Diagnostics()))
}

func (h *Handler) finale(logLevel logrus.Level) {
	message := ui.Grey(fmt.Sprintf("took %s", time.Since(h.Process.BootTime).Round(time.Millisecond)))
	switch logLevel {
	case logrus.ErrorLevel:
		h.Logger.Error(message)
	case logrus.InfoLevel:
		h.Logger.Info(message)
	default:
		panic("invalid log level")
	}
}

func (h *Handler) Fatal() int {
	h.finale(logrus.ErrorLevel)
	return 1
}

func (h *Handler) Ok() int {
	h.finale(logrus.InfoLevel)
	return 0
}
