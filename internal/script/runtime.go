// internal/script/runtime.go
package script

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"go-gameframe/internal/event"
	"go-gameframe/internal/state"
)

// Имена хуков, которые скрипт может задать в возвращаемой таблице.
const (
	HookInit        = "init"
	HookEnter       = "enter"
	HookExit        = "exit"
	HookUpdate      = "update"
	HookLateUpdate  = "late_update"
	HookFixedUpdate = "fixed_update"
)

var hooks = []string{HookInit, HookEnter, HookExit, HookUpdate, HookLateUpdate, HookFixedUpdate}

// Command - функция Go, доступная скриптам под глобальным именем. Выполняется
// с владельцем состояния, чей хук сейчас идет, и читает аргументы из L, как
// любая lua.LGFunction.
type Command[O any] func(owner *O, L *lua.LState) int

// Runtime компилирует скрипты состояний и держит их в одном изолированном
// состоянии Lua. Его делят все скриптовые состояния всех машин из его
// каталога, поэтому Runtime, как и машины, обслуживается из одной горутины.
type Runtime[O any] struct {
	L *lua.LState

	logger     *slog.Logger
	events     *event.Registry
	ownerTable func(*O) map[string]lua.LValue
	commands   map[string]Command[O]

	defs  map[state.Kind]*lua.LTable
	order []state.Kind

	// active - состояние, чей хук сейчас выполняется. API Lua действует на него.
	active *Scripted[O]
	closed bool
}

// Option настраивает Runtime.
type Option[O any] func(*Runtime[O])

// WithLogger задает логгер для ошибок скриптов и функции log.
func WithLogger[O any](logger *slog.Logger) Option[O] {
	return func(r *Runtime[O]) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistry подключает emit к реестру событий.
func WithRegistry[O any](events *event.Registry) Option[O] {
	return func(r *Runtime[O]) { r.events = events }
}

// WithOwnerTable задает функцию, которая строит таблицу owner только для
// чтения перед каждым хуком.
func WithOwnerTable[O any](fn func(*O) map[string]lua.LValue) Option[O] {
	return func(r *Runtime[O]) { r.ownerTable = fn }
}

// WithCommand открывает cmd скриптам как глобальную функцию name.
func WithCommand[O any](name string, cmd Command[O]) Option[O] {
	return func(r *Runtime[O]) {
		if name != "" && cmd != nil {
			r.commands[name] = cmd
		}
	}
}

// NewRuntime создает рантайм с библиотеками base, table, string и math и
// установленным API состояний.
func NewRuntime[O any](opts ...Option[O]) *Runtime[O] {
	r := &Runtime[O]{
		logger:   slog.Default(),
		commands: make(map[string]Command[O]),
		defs:     make(map[state.Kind]*lua.LTable),
	}
	for _, opt := range opts {
		opt(r)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	r.L = L
	r.installAPI()
	for name, cmd := range r.commands {
		r.installCommand(name, cmd)
	}
	return r
}

// openSafeLibraries открывает только нужные скриптам библиотеки. io, os,
// debug и package закрыты.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Close освобождает состояние Lua. Скриптовые состояния, созданные позже,
// работают как пустые, их хуки пропускаются.
func (r *Runtime[O]) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}

// Load компилирует source и регистрирует его как kind. Чанк должен вернуть
// таблицу, поля хуков которой, если есть, - функции. Повторная загрузка вида
// заменяет определение для экземпляров, созданных после нее.
func (r *Runtime[O]) Load(kind state.Kind, source string) error {
	if r.closed {
		return ErrClosed
	}
	if kind == "" {
		return ErrEmptyKind
	}
	def, err := r.compile(string(kind), source)
	if err != nil {
		return err
	}
	if _, ok := r.defs[kind]; !ok {
		r.order = append(r.order, kind)
	}
	r.defs[kind] = def
	return nil
}

func (r *Runtime[O]) compile(name, source string) (def *lua.LTable, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: lua panic: %v", ErrCompile, name, rec)
		}
	}()

	fn, err := r.L.Load(strings.NewReader(source), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}
	top := r.L.GetTop()
	r.L.Push(fn)
	if err := r.L.PCall(0, 1, nil); err != nil {
		r.L.SetTop(top)
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}
	ret := r.L.Get(-1)
	r.L.SetTop(top)

	def, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %s", ErrNoDefinition, name, ret.Type())
	}
	for _, hook := range hooks {
		v := def.RawGetString(hook)
		if v == lua.LNil {
			continue
		}
		if _, ok := v.(*lua.LFunction); !ok {
			return nil, fmt.Errorf("%w: %s.%s is a %s", ErrBadHook, name, hook, v.Type())
		}
	}
	return def, nil
}

// LoadFile загружает path как вид с именем файла без расширения.
func (r *Runtime[O]) LoadFile(filename string) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return r.Load(kindFromName(filename), string(src))
}

// LoadFS загружает все *.lua из dir в fsys по порядку имен.
func (r *Runtime[O]) LoadFS(fsys fs.FS, dir string) error {
	names, err := fs.Glob(fsys, path.Join(dir, "*.lua"))
	if err != nil {
		return fmt.Errorf("list scripts: %w", err)
	}
	sort.Strings(names)
	var errs []error
	for _, name := range names {
		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("read script: %w", err))
			continue
		}
		if err := r.Load(kindFromName(name), string(src)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadDir загружает все *.lua из dir.
func (r *Runtime[O]) LoadDir(dir string) error {
	return r.LoadFS(os.DirFS(dir), ".")
}

func kindFromName(name string) state.Kind {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return state.Kind(strings.TrimSuffix(base, path.Ext(base)))
}

// Kinds возвращает загруженные виды в порядке загрузки.
func (r *Runtime[O]) Kinds() []state.Kind {
	return append([]state.Kind(nil), r.order...)
}

// Register добавляет в catalog фабрику для каждого загруженного вида.
func (r *Runtime[O]) Register(catalog *state.Catalog[O]) error {
	var errs []error
	for _, kind := range r.order {
		err := catalog.Register(kind, func() state.State[O] {
			return r.newScripted(kind)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("register %s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runtime[O]) newScripted(kind state.Kind) *Scripted[O] {
	s := &Scripted[O]{rt: r, def: r.defs[kind]}
	if !r.closed {
		s.self = r.L.NewTable()
		s.self.RawSetString("kind", lua.LString(kind))
	}
	return s
}

func (r *Runtime[O]) publishOwner(owner *O) {
	if r.ownerTable == nil {
		return
	}
	t := r.L.NewTable()
	if owner != nil {
		for k, v := range r.ownerTable(owner) {
			t.RawSetString(k, v)
		}
	}
	r.L.SetGlobal("owner", t)
}

func (r *Runtime[O]) protect(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return fn()
}
