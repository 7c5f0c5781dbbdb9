package script

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"testing/fstest"

	lua "github.com/yuin/gopher-lua"

	"go-gameframe/internal/event"
	"go-gameframe/internal/state"
)

type bot struct {
	name  string
	x     float64
	marks []string
}

const patrol = `
return {
  enter = function(self)
    self.visits = (self.visits or 0) + 1
    shared_set("patrol_visits", self.visits)
    mark("enter patrol")
  end,
  update = function(self, dt)
    if owner.x > 10 then
      change_state("Chase")
    end
  end,
  exit = function(self)
    mark("exit patrol")
  end,
}
`

const chase = `
return {
  enter = function(self)
    mark("enter chase")
    emit("Bot.Spotted", owner.name, owner.x)
  end,
  update = function(self, dt)
    if owner.x <= 10 then
      change_state("Patrol")
    end
  end,
}
`

type spotter struct {
	who  []string
	dist []float64
}

func (s *spotter) onSpotted(who string, x float64) {
	s.who = append(s.who, who)
	s.dist = append(s.dist, x)
}

func newRuntime(t *testing.T, logger *slog.Logger, events *event.Registry) *Runtime[bot] {
	t.Helper()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	rt := NewRuntime(
		WithLogger[bot](logger),
		WithRegistry[bot](events),
		WithOwnerTable(func(b *bot) map[string]lua.LValue {
			return map[string]lua.LValue{
				"name": lua.LString(b.name),
				"x":    lua.LNumber(b.x),
			}
		}),
		WithCommand("mark", func(b *bot, L *lua.LState) int {
			b.marks = append(b.marks, L.CheckString(1))
			return 0
		}),
	)
	t.Cleanup(rt.Close)
	return rt
}

func newMachine(t *testing.T, rt *Runtime[bot]) *state.Machine[bot] {
	t.Helper()
	catalog := state.NewCatalog[bot]()
	if err := rt.Register(catalog); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return state.NewMachine(catalog, state.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestScriptedTransitions(t *testing.T) {
	for _, sharing := range []bool{true, false} {
		events := event.NewRegistry(event.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		var sp spotter
		if err := event.Register2(events, "Bot.Spotted", &sp, sp.onSpotted); err != nil {
			t.Fatal(err)
		}
		rt := newRuntime(t, nil, events)
		if err := rt.Load("Patrol", patrol); err != nil {
			t.Fatalf("Load Patrol: %v", err)
		}
		if err := rt.Load("Chase", chase); err != nil {
			t.Fatalf("Load Chase: %v", err)
		}
		m := newMachine(t, rt)

		b := &bot{name: "b1"}
		if !m.InitializeWithState("Patrol", b, sharing) {
			t.Fatal("InitializeWithState failed")
		}
		m.Update(0.1)
		if m.CurrentKind() != "Patrol" {
			t.Fatalf("state = %s, want Patrol", m.CurrentKind())
		}

		b.x = 20
		m.Update(0.1)
		if m.CurrentKind() != "Chase" {
			t.Fatalf("state = %s, want Chase", m.CurrentKind())
		}
		if len(sp.who) != 1 || sp.who[0] != "b1" || sp.dist[0] != 20 {
			t.Fatalf("spotted = %v %v, want [b1] [20]", sp.who, sp.dist)
		}

		b.x = 0
		m.Update(0.1)
		if m.CurrentKind() != "Patrol" {
			t.Fatalf("state = %s, want Patrol", m.CurrentKind())
		}

		// self сохраняется между активациями, только если экземпляры общие.
		visits, _ := state.SharedAs[float64](m, "patrol_visits")
		want := 1.0
		if sharing {
			want = 2
		}
		if visits != want {
			t.Fatalf("sharing=%v: visits = %v, want %v", sharing, visits, want)
		}

		wantMarks := []string{"enter patrol", "exit patrol", "enter chase", "enter patrol"}
		if strings.Join(b.marks, ",") != strings.Join(wantMarks, ",") {
			t.Fatalf("marks = %v, want %v", b.marks, wantMarks)
		}
		runtime.KeepAlive(b)
	}
}

func TestLoadRejects(t *testing.T) {
	rt := newRuntime(t, nil, nil)
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"syntax", `return {`, ErrCompile},
		{"runtime", `error("boom")`, ErrCompile},
		{"number", `return 42`, ErrNoDefinition},
		{"nothing", ``, ErrNoDefinition},
		{"hook", `return { update = 3 }`, ErrBadHook},
	}
	for _, c := range cases {
		err := rt.Load("Bad", c.src)
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}
	if err := rt.Load("", `return {}`); !errors.Is(err, ErrEmptyKind) {
		t.Fatalf("empty kind: err = %v", err)
	}
	if len(rt.Kinds()) != 0 {
		t.Fatalf("Kinds = %v, want none after failed loads", rt.Kinds())
	}
}

func TestHookErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rt := newRuntime(t, logger, nil)
	if err := rt.Load("Broken", `return { update = function(self, dt) error("kaput") end }`); err != nil {
		t.Fatal(err)
	}
	m := newMachine(t, rt)
	b := &bot{}
	if !m.InitializeWithState("Broken", b, true) {
		t.Fatal("InitializeWithState failed")
	}

	m.Update(0.1)
	m.Update(0.1)
	if m.CurrentKind() != "Broken" {
		t.Fatalf("state = %s, want Broken", m.CurrentKind())
	}
	if got := strings.Count(buf.String(), "script hook failed"); got != 2 {
		t.Fatalf("logged %d hook failures, want 2:\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), "kaput") {
		t.Fatalf("log does not carry the Lua error:\n%s", buf.String())
	}
	runtime.KeepAlive(b)
}

func TestSandbox(t *testing.T) {
	rt := newRuntime(t, nil, nil)
	for _, name := range []string{"os", "io", "debug", "dofile", "loadfile", "require"} {
		if v := rt.L.GetGlobal(name); v != lua.LNil {
			t.Fatalf("%s = %s, want nil", name, v.Type())
		}
	}
	for _, name := range []string{"math", "string", "table", "pairs"} {
		if v := rt.L.GetGlobal(name); v == lua.LNil {
			t.Fatalf("%s missing", name)
		}
	}
}

func TestSharedDataRoundTrip(t *testing.T) {
	rt := newRuntime(t, nil, nil)
	src := `
return {
  enter = function(self)
    shared_set("label", "ready")
    shared_set("gone", nil)
    local n = shared_get("count") or 0
    shared_set("count", n + 1)
    shared_set("seen_flag", shared_get("flag") == true)
    shared_set("missing_is_nil", shared_get("nope") == nil)
  end,
}
`
	if err := rt.Load("Init", src); err != nil {
		t.Fatal(err)
	}
	m := newMachine(t, rt)
	m.SetSharedData("count", 4)
	m.SetSharedData("flag", true)
	m.SetSharedData("gone", "x")

	b := &bot{}
	if !m.InitializeWithState("Init", b, true) {
		t.Fatal("InitializeWithState failed")
	}
	if v, _ := state.SharedAs[string](m, "label"); v != "ready" {
		t.Fatalf("label = %q", v)
	}
	if v, _ := state.SharedAs[float64](m, "count"); v != 5 {
		t.Fatalf("count = %v, want 5", v)
	}
	if v, _ := state.SharedAs[bool](m, "seen_flag"); !v {
		t.Fatal("flag not visible to script")
	}
	if v, _ := state.SharedAs[bool](m, "missing_is_nil"); !v {
		t.Fatal("missing key should read as nil")
	}
	if _, ok := m.SharedData("gone"); ok {
		t.Fatal("shared_set(key, nil) should remove the key")
	}
	runtime.KeepAlive(b)
}

func TestLoadFSAndDir(t *testing.T) {
	rt := newRuntime(t, nil, nil)
	fsys := fstest.MapFS{
		"scripts/Hover.lua":  {Data: []byte(`return { enter = function(self) end }`)},
		"scripts/Follow.lua": {Data: []byte(`return {}`)},
		"scripts/notes.txt":  {Data: []byte(`ignored`)},
	}
	if err := rt.LoadFS(fsys, "scripts"); err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if got := rt.Kinds(); len(got) != 2 || got[0] != "Follow" || got[1] != "Hover" {
		t.Fatalf("Kinds = %v, want [Follow Hover]", got)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Hover.lua"), []byte(`return { exit = function(self) end }`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := rt.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if got := rt.Kinds(); len(got) != 2 {
		t.Fatalf("reloading a kind must not duplicate it: %v", got)
	}
	if rt.defs["Hover"].RawGetString(HookExit) == lua.LNil {
		t.Fatal("directory script should replace the embedded one")
	}
}

func TestEmitSignatures(t *testing.T) {
	events := event.NewRegistry(event.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	var got []string
	_ = event.Register0(events, "e0", nil, func() { got = append(got, "e0") })
	_ = event.Register1(events, "e1", nil, func(v float64) { got = append(got, "e1") })
	_ = event.Register2(events, "e2", nil, func(a string, b bool) { got = append(got, "e2") })

	for _, c := range []struct {
		name string
		args []any
		ok   bool
	}{
		{"e0", nil, true},
		{"e1", []any{1.5}, true},
		{"e1", []any{"wrong"}, false},
		{"e2", []any{"a", true}, true},
		{"e2", []any{"a", nil}, false},
		{"e2", []any{1.0, 2.0, 3.0}, false},
	} {
		err := emit(events, c.name, c.args)
		if (err == nil) != c.ok {
			t.Fatalf("emit(%s, %v) err = %v, want ok=%v", c.name, c.args, err, c.ok)
		}
	}
	if strings.Join(got, ",") != "e0,e1,e2" {
		t.Fatalf("delivered = %v", got)
	}
}
