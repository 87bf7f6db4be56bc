package module

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/robbyt/go-scripttree/engine"
	"github.com/robbyt/go-scripttree/internal/helpers"
	"github.com/robbyt/go-scripttree/persist"
	"github.com/robbyt/go-scripttree/source"
)

// State is the compile state of a ScriptModule.
type State int32

const (
	Uncompiled State = iota
	Compiling
	Compiled
)

func (s State) String() string {
	switch s {
	case Uncompiled:
		return "Uncompiled"
	case Compiling:
		return "Compiling"
	case Compiled:
		return "Compiled"
	default:
		return "Unknown"
	}
}

// ScriptModule is a tree node carrying source text. Compiling it turns the
// library and its own subtree into ordered FuncNode lists; running it invokes
// them in that order.
//
// A ScriptModule must not be copied after first use.
type ScriptModule struct {
	Tree

	id           uuid.UUID
	codeType     int
	friendlyName string
	flavor       Flavor
	eng          engine.Engine
	isolated     bool
	logger       *slog.Logger

	// mu serializes source mutation, compile, run and diagnostic changes.
	mu        sync.Mutex
	compiling atomic.Bool
	snapshot  atomic.Pointer[snapshot]
	env       engine.Environment

	libraryFuncs []*FuncNode
	funcs        []*FuncNode
	diagnostics  []*FuncNode

	// srcMu lets library compilations read the source without taking mu.
	srcMu  sync.RWMutex
	source string

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

var _ Node = (*ScriptModule)(nil)

// NewScriptModule creates an uncompiled module. codeType distinguishes
// modules that otherwise share a name.
func NewScriptModule(eng engine.Engine, name string, codeType int, opts ...Option) (*ScriptModule, error) {
	if isNil(eng) {
		return nil, ErrNilEngine
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	m := &ScriptModule{
		Tree:         Tree{name: name},
		id:           uuid.New(),
		codeType:     codeType,
		friendlyName: cfg.friendlyName,
		flavor:       cfg.flavor,
		eng:          eng,
		isolated:     cfg.isolated,
		logger:       cfg.newLogger().With("module", name),
		source:       cfg.source,
	}
	if m.friendlyName == "" {
		m.friendlyName = fmt.Sprintf("%s_%d", name, codeType)
	}
	if m.isolated {
		m.env = eng.NewEnvironment()
	} else {
		m.env = eng.Globals()
	}
	if isNil(m.env) {
		return nil, fmt.Errorf("engine returned no environment for module %s", name)
	}
	return m, nil
}

func (cfg *config) newLogger() *slog.Logger {
	if cfg.logger != nil {
		return cfg.logger
	}
	handler := cfg.logHandler
	if handler == nil {
		handler = slog.Default().Handler()
	}
	_, logger := helpers.SetupLogger(handler, "module", "")
	return logger
}

func (m *ScriptModule) String() string {
	return fmt.Sprintf("module.ScriptModule{Name: %s, CodeType: %d, State: %s}", m.name, m.codeType, m.State())
}

// ID is the identity token of the module instance.
func (m *ScriptModule) ID() uuid.UUID { return m.id }

func (m *ScriptModule) CodeType() int { return m.codeType }

func (m *ScriptModule) FriendlyName() string { return m.friendlyName }

func (m *ScriptModule) Flavor() Flavor { return m.flavor }

func (m *ScriptModule) Engine() engine.Engine { return m.eng }

// Isolated reports whether the module owns a private environment.
func (m *ScriptModule) Isolated() bool { return m.isolated }

// Equal reports whether other is the same module instance. Two modules with
// the same name and code type are not equal.
func (m *ScriptModule) Equal(other *ScriptModule) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.id == other.id
}

// SameAs reports whether other has the same code type and, ignoring case, the
// same name.
func (m *ScriptModule) SameAs(other *ScriptModule) bool {
	if m == nil || other == nil {
		return false
	}
	return m.codeType == other.codeType && strings.EqualFold(m.name, other.name)
}

// Find searches the module and its subtree by name. See Tree.Find.
func (m *ScriptModule) Find(name string) Node {
	return findNode(m, name, make(map[*Tree]struct{}))
}

// Source returns the current source text.
func (m *ScriptModule) Source() string {
	m.srcMu.RLock()
	defer m.srcMu.RUnlock()
	return m.source
}

// IsEmpty reports whether the source is blank.
func (m *ScriptModule) IsEmpty() bool {
	return strings.TrimSpace(m.Source()) == ""
}

// SetSource replaces the source text. A different value drops the compiled
// state and every FuncNode list; the same value is a no-op. It reports
// whether the source changed.
func (m *ScriptModule) SetSource(text string) bool {
	m.mu.Lock()
	m.srcMu.Lock()
	if text == m.source {
		m.srcMu.Unlock()
		m.mu.Unlock()
		return false
	}
	m.source = text
	m.srcMu.Unlock()
	m.touch()
	m.resetLocked()
	m.mu.Unlock()

	m.emit(EventSourceChanged)
	return true
}

// LoadSource reads the module source from l. It reports whether the source
// changed.
func (m *ScriptModule) LoadSource(ctx context.Context, l source.Loader) (bool, error) {
	text, err := source.ReadAll(ctx, l)
	if err != nil {
		return false, fmt.Errorf("failed to load source for module %s: %w", m.name, err)
	}
	return m.SetSource(text), nil
}

// State returns the compile state. A module whose source or subtree changed
// since the last compile is Uncompiled.
func (m *ScriptModule) State() State {
	if m.compiling.Load() {
		return Compiling
	}
	if snap := m.snapshot.Load(); snap != nil && snap.fresh() {
		return Compiled
	}
	return Uncompiled
}

// IsCompiled reports whether the module can run.
func (m *ScriptModule) IsCompiled() bool {
	return m.State() == Compiled
}

// Environment returns the variable table the module compiles and runs
// against.
func (m *ScriptModule) Environment() engine.Environment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.env
}

// Clear drops the compiled state. An isolated module also gets a fresh
// environment.
func (m *ScriptModule) Clear() {
	m.mu.Lock()
	m.resetLocked()
	if m.isolated {
		m.env = m.eng.NewEnvironment()
	}
	m.mu.Unlock()

	m.emit(EventCleared)
}

// RegisterCode runs src once against the module environment. It is meant for
// one-time setup, not for code that runs on every invocation.
func (m *ScriptModule) RegisterCode(ctx context.Context, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.eng.RegisterOnce(ctx, src, m.env); err != nil {
		return &CompileError{Module: m.name, Err: err}
	}
	return nil
}

// CreateExpression compiles expr against the module environment.
func (m *ScriptModule) CreateExpression(expr string) (engine.Expression, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, err := m.eng.CompileExpression(expr, m.env)
	if err != nil {
		return nil, &CompileError{Module: m.name, Err: err}
	}
	return x, nil
}

// CreateConstExpression returns an expression that evaluates to constant.
func (m *ScriptModule) CreateConstExpression(expr string, constant any) (engine.Expression, error) {
	x, err := m.eng.CompileConstExpression(expr, constant)
	if err != nil {
		return nil, &CompileError{Module: m.name, Err: err}
	}
	return x, nil
}

// AddDiagnosticExpression compiles expr against the module environment and
// appends it to the diagnostic list, which runs after the module's own funcs
// on a full Run. The list is emptied by every compile.
func (m *ScriptModule) AddDiagnosticExpression(expr string) (*FuncNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.eng.Load(engine.Chunk{
		Source:       expr,
		FriendlyName: fmt.Sprintf("%s_diag_%d", m.friendlyName, len(m.diagnostics)),
		Module:       m.name,
		Kind:         engine.ExpressionChunk,
	}, m.env)
	if err != nil {
		return nil, &CompileError{Module: m.name, Err: err}
	}
	f, err := newFuncNode(c, m)
	if err != nil {
		return nil, err
	}
	m.diagnostics = append(m.diagnostics, f)
	return f, nil
}

// RemoveDiagnosticExpression removes f and reports whether it was present.
func (m *ScriptModule) RemoveDiagnosticExpression(f *FuncNode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.diagnostics {
		if d == f {
			m.diagnostics = append(m.diagnostics[:i:i], m.diagnostics[i+1:]...)
			return true
		}
	}
	return false
}

// LibraryFuncs returns the funcs contributed by the library, in run order.
func (m *ScriptModule) LibraryFuncs() []*FuncNode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*FuncNode(nil), m.libraryFuncs...)
}

// Funcs returns the funcs of the module's own subtree, in run order.
func (m *ScriptModule) Funcs() []*FuncNode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*FuncNode(nil), m.funcs...)
}

// DiagnosticFuncs returns the diagnostic expressions.
func (m *ScriptModule) DiagnosticFuncs() []*FuncNode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*FuncNode(nil), m.diagnostics...)
}

// LibraryFunc returns the first library func owned by the named module.
func (m *ScriptModule) LibraryFunc(name string) *FuncNode {
	return funcByModule(m.LibraryFuncs(), name)
}

// Func returns the first own func owned by the named module.
func (m *ScriptModule) Func(name string) *FuncNode {
	return funcByModule(m.Funcs(), name)
}

// MainFunc returns the func compiled from the module's own source, which is
// always last in Funcs.
func (m *ScriptModule) MainFunc() *FuncNode {
	fs := m.Funcs()
	if len(fs) == 0 {
		return nil
	}
	return fs[len(fs)-1]
}

// Write serializes the module through its flavor.
func (m *ScriptModule) Write(w *persist.Writer, elementName string, opts persist.SaveOptions) error {
	return m.flavor.Write(w, m, elementName, opts)
}

// resetLocked drops compiled state. mu must be held.
func (m *ScriptModule) resetLocked() {
	m.snapshot.Store(nil)
	m.libraryFuncs = nil
	m.funcs = nil
	m.diagnostics = nil
}

func funcByModule(fs []*FuncNode, name string) *FuncNode {
	for _, f := range fs {
		if strings.EqualFold(f.ModuleName(), name) {
			return f
		}
	}
	return nil
}

// FindByCallable returns the node in the module's subtree that defines c.
func (m *ScriptModule) FindByCallable(c engine.Callable) Node {
	if isNil(c) {
		return nil
	}
	return m.Find(c.Module())
}
