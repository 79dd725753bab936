package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/livetree/internal/engine/liverange"
	"github.com/dshills/livetree/internal/engine/model"
	"github.com/dshills/livetree/internal/engine/tracking"
)

// Default limits.
const (
	DefaultTimeout       = 5 * time.Second
	DefaultCallStackSize = 256
	DefaultMaxCalls      = 1_000_000
	DefaultJournalSize   = tracking.DefaultMaxChanges
)

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger handed to documents and live ranges.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithTimeout bounds each run.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// WithCallStackSize sets the Lua call stack depth.
func WithCallStackSize(n int) Option {
	return func(h *Host) {
		if n > 0 {
			h.callStackSize = n
		}
	}
}

// WithMaxCalls bounds livetree API calls per run. Zero disables the limit.
func WithMaxCalls(n int64) Option {
	return func(h *Host) {
		h.maxCalls = n
	}
}

// WithOutput redirects print.
func WithOutput(w io.Writer) Option {
	return func(h *Host) {
		h.out = w
	}
}

// WithJournal enables a change journal of the given capacity on every
// document a script creates. Zero disables journaling.
func WithJournal(maxChanges int) Option {
	return func(h *Host) {
		h.journalSize = maxChanges
	}
}

// Host owns a sandboxed Lua state and the documents its scripts create.
//
// A Host is not safe for concurrent use; gopher-lua states are bound to one
// goroutine at a time.
type Host struct {
	L *lua.LState

	timeout       time.Duration
	callStackSize int
	maxCalls      int64
	calls         int64
	journalSize   int

	out    io.Writer
	logger *zap.Logger

	docs   []*docHandle
	closed bool
}

// New creates a host with the livetree module installed.
func New(opts ...Option) *Host {
	h := &Host{
		timeout:       DefaultTimeout,
		callStackSize: DefaultCallStackSize,
		maxCalls:      DefaultMaxCalls,
		journalSize:   DefaultJournalSize,
		out:           os.Stdout,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.L = lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: h.callStackSize,
	})
	h.openLibraries()
	h.installSandbox()
	h.registerTypes()
	h.L.PreloadModule(moduleName, h.loadModule)
	h.L.SetGlobal(moduleName, h.newModule(h.L))
	return h
}

func (h *Host) openLibraries() {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.LoadLibName, lua.OpenPackage},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		h.L.Push(h.L.NewFunction(lib.fn))
		h.L.Push(lua.LString(lib.name))
		h.L.Call(1, 0)
	}
}

// installSandbox removes file loading, restricts require to preloaded
// modules and routes print to the host output.
func (h *Host) installSandbox() {
	L := h.L
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}

	original := L.GetGlobal("require")
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		switch name {
		case moduleName, "string", "table", "math":
		default:
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(original)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		fmt.Fprintln(h.out, strings.Join(parts, "\t"))
		return 0
	}))
}

// RunString executes code. name labels the chunk in error messages.
func (h *Host) RunString(ctx context.Context, name, code string) error {
	fn, err := h.compile(name, code)
	if err != nil {
		return err
	}
	return h.run(ctx, name, fn)
}

// RunFile executes the script at path.
func (h *Host) RunFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	return h.RunString(ctx, path, string(data))
}

func (h *Host) compile(name, code string) (*lua.LFunction, error) {
	if h.closed {
		return nil, ErrHostClosed
	}
	fn, err := h.L.Load(strings.NewReader(code), name)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", name, err)
	}
	return fn, nil
}

func (h *Host) run(ctx context.Context, name string, fn *lua.LFunction) (err error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()
	h.calls = 0

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("running %s: lua panic: %v", name, r)
		}
	}()

	start := time.Now()
	h.L.Push(fn)
	if err := h.L.PCall(0, lua.MultRet, nil); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			err = fmt.Errorf("running %s: %w", name, ErrScriptTimeout)
		case h.maxCalls > 0 && h.calls > h.maxCalls:
			err = fmt.Errorf("running %s: %w", name, ErrCallLimit)
		default:
			err = fmt.Errorf("running %s: %w", name, err)
		}
		h.logger.Warn("script failed", zap.String("script", name), zap.Error(err))
		return err
	}
	h.L.SetTop(0)
	h.logger.Debug("script finished",
		zap.String("script", name),
		zap.Int64("calls", h.calls),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Documents returns the documents created by scripts so far.
func (h *Host) Documents() []*model.Document {
	out := make([]*model.Document, len(h.docs))
	for i, d := range h.docs {
		out[i] = d.doc
	}
	return out
}

// Journal returns the change journal of doc, or nil when journaling is off
// or doc was not created by this host.
func (h *Host) Journal(doc *model.Document) *tracking.Tracker {
	for _, d := range h.docs {
		if d.doc == doc {
			return d.journal
		}
	}
	return nil
}

// Close detaches every live range and journal and releases the Lua state.
func (h *Host) Close() {
	if h.closed {
		return
	}
	for _, d := range h.docs {
		d.release()
	}
	h.docs = nil
	h.L.Close()
	h.closed = true
}

// tick counts an API call and raises a Lua error past the limit.
func (h *Host) tick(L *lua.LState) {
	h.calls++
	if h.maxCalls > 0 && h.calls > h.maxCalls {
		L.RaiseError("%v", ErrCallLimit)
	}
}

func (h *Host) rangeOptions(name string) []liverange.Option {
	return []liverange.Option{
		liverange.WithName(name),
		liverange.WithLogger(h.logger.Named("liverange")),
	}
}
