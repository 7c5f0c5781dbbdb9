// internal/script/api.go
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"go-gameframe/internal/event"
	"go-gameframe/internal/state"
)

// installAPI публикует функции, через которые скрипты говорят со своей машиной:
//
//	change_state(kind [, reenter]) -> bool
//	shared_get(key) -> value или nil
//	shared_set(key, value)          -- nil удаляет ключ
//	emit(name, ...) -> bool         -- до двух аргументов string/number/boolean
//	log(msg)
func (r *Runtime[O]) installAPI() {
	r.L.SetGlobal("change_state", r.L.NewFunction(r.luaChangeState))
	r.L.SetGlobal("shared_get", r.L.NewFunction(r.luaSharedGet))
	r.L.SetGlobal("shared_set", r.L.NewFunction(r.luaSharedSet))
	r.L.SetGlobal("emit", r.L.NewFunction(r.luaEmit))
	r.L.SetGlobal("log", r.L.NewFunction(r.luaLog))
}

func (r *Runtime[O]) installCommand(name string, cmd Command[O]) {
	r.L.SetGlobal(name, r.L.NewFunction(func(L *lua.LState) int {
		s := r.active
		if s == nil {
			L.RaiseError("%s called outside a state hook", name)
			return 0
		}
		owner := s.Owner()
		if owner == nil {
			return 0
		}
		return cmd(owner, L)
	}))
}

func (r *Runtime[O]) luaChangeState(L *lua.LState) int {
	kind := L.CheckString(1)
	reenter := L.OptBool(2, false)
	ok := false
	if s := r.active; s != nil {
		ok = s.CheckTransition(state.Kind(kind), reenter)
	}
	L.Push(lua.LBool(ok))
	return 1
}

func (r *Runtime[O]) luaSharedGet(L *lua.LState) int {
	key := L.CheckString(1)
	s := r.active
	if s == nil || s.Blackboard() == nil {
		L.Push(lua.LNil)
		return 1
	}
	v, _ := s.Blackboard().Get(key)
	L.Push(ToLua(v))
	return 1
}

func (r *Runtime[O]) luaSharedSet(L *lua.LState) int {
	key := L.CheckString(1)
	s := r.active
	if s == nil || s.Blackboard() == nil {
		return 0
	}
	lv := L.Get(2)
	if lv == lua.LNil {
		s.Blackboard().Remove(key)
		return 0
	}
	v, err := FromLua(lv)
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}
	s.Blackboard().Set(key, v)
	return 0
}

func (r *Runtime[O]) luaEmit(L *lua.LState) int {
	name := L.CheckString(1)
	args := make([]any, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		v, err := FromLua(L.Get(i))
		if err != nil {
			L.ArgError(i, err.Error())
			return 0
		}
		args = append(args, v)
	}
	if r.events == nil {
		L.Push(lua.LFalse)
		return 1
	}
	if err := emit(r.events, name, args); err != nil {
		r.logger.Warn("script emit failed", "event", name, "error", err)
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}

func (r *Runtime[O]) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	kind := ""
	if s := r.active; s != nil {
		kind = string(s.Kind())
	}
	r.logger.Info(msg, "source", "script", "kind", kind)
	return 0
}

// ToLua переводит простое значение Go в Lua. Числа становятся LNumber, все без
// пары в Lua становится nil.
func ToLua(v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case string:
		return lua.LString(v)
	case float64:
		return lua.LNumber(v)
	case float32:
		return lua.LNumber(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case int32:
		return lua.LNumber(v)
	case uint:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case state.Kind:
		return lua.LString(v)
	}
	return lua.LNil
}

// FromLua переводит скаляр Lua в Go: числа в float64, строки, булевы и nil.
func FromLua(lv lua.LValue) (any, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LNumber:
		return float64(v), nil
	case lua.LString:
		return string(v), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, lv.Type())
}

// emit раскладывает нестрого типизированные аргументы скрипта по
// типизированным функциям Trigger. Тип Go каждого аргумента (string, float64
// или bool) выбирает сигнатуру, так что подписчик Register2[string, float64]
// получает emit("name", "who", 3).
func emit(r *event.Registry, name string, args []any) error {
	switch len(args) {
	case 0:
		return event.Trigger0(r, name)
	case 1:
		switch a := args[0].(type) {
		case string:
			return event.Trigger1(r, name, a)
		case float64:
			return event.Trigger1(r, name, a)
		case bool:
			return event.Trigger1(r, name, a)
		}
	case 2:
		switch a := args[0].(type) {
		case string:
			return emit2(r, name, a, args[1])
		case float64:
			return emit2(r, name, a, args[1])
		case bool:
			return emit2(r, name, a, args[1])
		}
	default:
		return fmt.Errorf("%w: emit takes at most 2 arguments, got %d", ErrUnsupportedValue, len(args))
	}
	return fmt.Errorf("%w: nil argument to emit", ErrUnsupportedValue)
}

func emit2[A any](r *event.Registry, name string, a A, b any) error {
	switch b := b.(type) {
	case string:
		return event.Trigger2(r, name, a, b)
	case float64:
		return event.Trigger2(r, name, a, b)
	case bool:
		return event.Trigger2(r, name, a, b)
	}
	return fmt.Errorf("%w: nil argument to emit", ErrUnsupportedValue)
}
