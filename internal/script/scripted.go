// internal/script/scripted.go
package script

import (
	lua "github.com/yuin/gopher-lua"

	"go-gameframe/internal/state"
)

// Scripted - состояние, чьи хуки являются функциями Lua. Каждый хук первым
// получает таблицу self экземпляра, хуки обновления еще и dt. self живет
// столько же, сколько экземпляр, поэтому при общем использовании состояний
// поля сохраняются между активациями.
type Scripted[O any] struct {
	state.Base[O]
	rt   *Runtime[O]
	def  *lua.LTable
	self *lua.LTable
}

// Self возвращает таблицу Lua экземпляра.
func (s *Scripted[O]) Self() *lua.LTable { return s.self }

func (s *Scripted[O]) Initialize(owner *O)    { s.call(HookInit) }
func (s *Scripted[O]) Enter()                 { s.call(HookEnter) }
func (s *Scripted[O]) Exit()                  { s.call(HookExit) }
func (s *Scripted[O]) Update(dt float64)      { s.call(HookUpdate, lua.LNumber(dt)) }
func (s *Scripted[O]) LateUpdate(dt float64)  { s.call(HookLateUpdate, lua.LNumber(dt)) }
func (s *Scripted[O]) FixedUpdate(dt float64) { s.call(HookFixedUpdate, lua.LNumber(dt)) }

func (s *Scripted[O]) call(hook string, args ...lua.LValue) {
	rt := s.rt
	if rt.closed || s.def == nil {
		return
	}
	fn, ok := s.def.RawGetString(hook).(*lua.LFunction)
	if !ok {
		return
	}

	prev := rt.active
	rt.active = s
	defer func() { rt.active = prev }()

	rt.publishOwner(s.Owner())
	err := rt.protect(func() error {
		return rt.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, append([]lua.LValue{s.self}, args...)...)
	})
	if err != nil {
		rt.logger.Error("script hook failed", "kind", string(s.Kind()), "hook", hook, "error", err)
	}
}
