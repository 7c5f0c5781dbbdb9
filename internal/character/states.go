// internal/character/states.go
package character

import (
	"go-gameframe/internal/event"
	"go-gameframe/internal/state"
	"go-gameframe/internal/timer"
)

// Состояния передвижения.
const (
	KindIdle          state.Kind = "Idle"
	KindWalking       state.Kind = "Walking"
	KindRunning       state.Kind = "Running"
	KindJumping       state.Kind = "Jumping"
	KindDoubleJumping state.Kind = "DoubleJumping"
	KindFalling       state.Kind = "Falling"
	KindLanding       state.Kind = "Landing"
	KindAttacking     state.Kind = "Attacking"
	KindDead          state.Kind = "Dead"
)

// Ключи доски, которые пишут состояния.
const (
	KeyEnteredAt    = "entered_at"
	KeyJumps        = "jumps"
	KeyLastImpact   = "last_impact"
	KeyDoubleJumped = "double_jumped"
	KeyAttacks      = "attacks"
	// KeyRestoring лежит на доске только на время Character.Restore.
	KeyRestoring = "restoring"
)

// Catalog возвращает каталог со всеми состояниями передвижения.
func Catalog() *state.Catalog[Character] {
	return state.NewCatalog[Character]().
		MustRegister(KindIdle, func() state.State[Character] { return &Idle{} }).
		MustRegister(KindWalking, func() state.State[Character] { return &Walking{} }).
		MustRegister(KindRunning, func() state.State[Character] { return &Running{} }).
		MustRegister(KindJumping, func() state.State[Character] { return &Jumping{} }).
		MustRegister(KindDoubleJumping, func() state.State[Character] { return &DoubleJumping{} }).
		MustRegister(KindFalling, func() state.State[Character] { return &Falling{} }).
		MustRegister(KindLanding, func() state.State[Character] { return &Landing{} }).
		MustRegister(KindAttacking, func() state.State[Character] { return &Attacking{} }).
		MustRegister(KindDead, func() state.State[Character] { return &Dead{} })
}

// locomotion встраивается во все состояния. Подписки состояния оформлены на
// значение locomotion, поэтому Dispose снимает их одним вызовом.
type locomotion struct {
	state.Base[Character]
	events *event.Registry
	timers *timer.Manager
}

func (l *locomotion) Initialize(c *Character) {
	l.events = c.Events
	l.timers = c.Timers
}

func (l *locomotion) Dispose() {
	if l.events != nil {
		l.events.RemoveAllForSubscriber(l)
	}
}

// announce отмечает время входа и публикует StateEntered.
func (l *locomotion) announce(c *Character) {
	if b := l.Blackboard(); b != nil {
		b.Set(KeyEnteredAt, c.Age)
	}
	if !l.events.HasSubscribers(event.StateEntered) {
		return
	}
	if err := event.Trigger2(l.events, event.StateEntered, c.Name, string(l.Kind())); err != nil {
		c.logger.Warn("state entered event", "kind", string(l.Kind()), "error", err)
	}
}

func (l *locomotion) check(c *Character, err error) {
	if err != nil {
		c.logger.Error("event binding failed", "kind", string(l.Kind()), "error", err)
	}
}

// restoring - вход происходит из Character.Restore.
func (l *locomotion) restoring() bool {
	v, _ := state.Value[bool](l.Blackboard(), KeyRestoring)
	return v
}

// died переводит в Dead, когда здоровье кончилось.
func (l *locomotion) died(c *Character) bool {
	if c.IsAlive() {
		return false
	}
	l.CheckTransition(KindDead, false)
	return true
}

func (l *locomotion) bump(key string) {
	if b := l.Blackboard(); b != nil {
		n, _ := state.Value[float64](b, key)
		b.Set(key, n+1)
	}
}

// grounded - общая часть Idle, Walking и Running: прыжок и атака по запросу,
// падение без опоры, иначе следование намерению.
type grounded struct {
	locomotion
}

func (g *grounded) enterGrounded(c *Character, speed float64) {
	c.TargetSpeed = speed
	if b := g.Blackboard(); b != nil {
		b.Set(KeyDoubleJumped, false)
	}
	g.announce(c)
	g.check(c, event.Register1(g.events, event.JumpRequested, &g.locomotion, g.onJumpRequested))
	g.check(c, event.Register1(g.events, event.AttackRequested, &g.locomotion, g.onAttackRequested))
}

func (g *grounded) Exit() {
	event.Unregister1(g.events, event.JumpRequested, &g.locomotion, g.onJumpRequested)
	event.Unregister1(g.events, event.AttackRequested, &g.locomotion, g.onAttackRequested)
}

func (g *grounded) Update(dt float64) {
	c := g.Owner()
	if c == nil || g.died(c) {
		return
	}
	if !c.Body.Grounded {
		g.CheckTransition(KindFalling, false)
		return
	}
	g.CheckTransition(c.groundedKind(), false)
}

func (g *grounded) onJumpRequested(who string) {
	c := g.Owner()
	if c == nil || who != c.Name || !c.Body.Grounded || !c.IsAlive() {
		return
	}
	g.CheckTransition(KindJumping, false)
}

func (g *grounded) onAttackRequested(who string) {
	c := g.Owner()
	if c == nil || who != c.Name || !c.CanAttack() {
		return
	}
	g.CheckTransition(KindAttacking, false)
}

type Idle struct{ grounded }

func (s *Idle) Enter() {
	if c := s.Owner(); c != nil {
		s.enterGrounded(c, 0)
	}
}

type Walking struct{ grounded }

func (s *Walking) Enter() {
	if c := s.Owner(); c != nil {
		s.enterGrounded(c, c.Tuning.WalkSpeed)
	}
}

type Running struct{ grounded }

func (s *Running) Enter() {
	if c := s.Owner(); c != nil {
		s.enterGrounded(c, c.Tuning.RunSpeed)
	}
}

// airborne - общая часть Jumping и DoubleJumping: импульс на входе и срез
// скорости при раннем отпускании.
type airborne struct {
	locomotion
}

// launch дает импульс вверх. При восстановлении скорость уже взята из
// сохранения, и счетчик прыжков не растет.
func (a *airborne) launch(c *Character, velocity float64) {
	c.TargetSpeed = c.airSpeed()
	if !a.restoring() {
		c.Vel.Y = -velocity
		c.Body.Grounded = false
		a.bump(KeyJumps)
	}
	a.announce(c)
	a.check(c, event.Register1(a.events, event.JumpReleased, &a.locomotion, a.onJumpReleased))
}

func (a *airborne) Exit() {
	event.Unregister1(a.events, event.JumpReleased, &a.locomotion, a.onJumpReleased)
}

func (a *airborne) Update(dt float64) {
	c := a.Owner()
	if c == nil || a.died(c) {
		return
	}
	c.TargetSpeed = c.airSpeed()
	switch {
	case c.Body.Grounded:
		a.CheckTransition(c.groundedKind(), false)
	case c.Vel.Y >= 0:
		a.CheckTransition(KindFalling, false)
	}
}

func (a *airborne) onJumpReleased(who string) {
	c := a.Owner()
	if c == nil || who != c.Name {
		return
	}
	if c.Vel.Y < 0 {
		c.Vel.Y *= c.Tuning.JumpCutFactor
	}
}

// Jumping - первый прыжок. Повторный запрос в воздухе дает DoubleJumping.
type Jumping struct{ airborne }

func (s *Jumping) Enter() {
	c := s.Owner()
	if c == nil {
		return
	}
	s.launch(c, c.Tuning.JumpVelocity)
	s.check(c, event.Register1(s.events, event.JumpRequested, &s.locomotion, s.onJumpRequested))
}

func (s *Jumping) Exit() {
	event.Unregister1(s.events, event.JumpRequested, &s.locomotion, s.onJumpRequested)
	s.airborne.Exit()
}

func (s *Jumping) onJumpRequested(who string) {
	c := s.Owner()
	if c == nil || who != c.Name || !c.CanDoubleJump() {
		return
	}
	s.CheckTransition(KindDoubleJumping, false)
}

// DoubleJumping - второй прыжок. До касания земли больше не прыгнуть.
type DoubleJumping struct{ airborne }

func (s *DoubleJumping) Enter() {
	c := s.Owner()
	if c == nil {
		return
	}
	if b := s.Blackboard(); b != nil {
		b.Set(KeyDoubleJumped, true)
	}
	s.launch(c, c.Tuning.DoubleJumpVelocity)
}

// Falling ждет Landed и выбирает Landing для жестких приземлений, снимая
// здоровье за скорость сверх порога. Прыжок, не потраченный в Jumping,
// доступен и здесь.
type Falling struct{ locomotion }

func (s *Falling) Enter() {
	c := s.Owner()
	if c == nil {
		return
	}
	c.TargetSpeed = c.airSpeed()
	s.announce(c)
	s.check(c, event.Register2(s.events, event.Landed, &s.locomotion, s.onLanded))
	s.check(c, event.Register1(s.events, event.JumpRequested, &s.locomotion, s.onJumpRequested))
}

func (s *Falling) Exit() {
	event.Unregister2(s.events, event.Landed, &s.locomotion, s.onLanded)
	event.Unregister1(s.events, event.JumpRequested, &s.locomotion, s.onJumpRequested)
}

func (s *Falling) Update(dt float64) {
	c := s.Owner()
	if c == nil || s.died(c) {
		return
	}
	c.TargetSpeed = c.airSpeed()
	// Landed пропущен, например тело поставили на землю напрямую
	if c.Body.Grounded {
		s.CheckTransition(c.groundedKind(), false)
	}
}

func (s *Falling) onLanded(who string, impact float64) {
	c := s.Owner()
	if c == nil || who != c.Name {
		return
	}
	if b := s.Blackboard(); b != nil {
		b.Set(KeyLastImpact, impact)
	}
	if impact >= c.Tuning.HardLandingSpeed {
		c.Damage((impact - c.Tuning.HardLandingSpeed) * c.Tuning.FallDamage)
		if !s.died(c) {
			s.CheckTransition(KindLanding, false)
		}
		return
	}
	s.CheckTransition(c.groundedKind(), false)
}

func (s *Falling) onJumpRequested(who string) {
	c := s.Owner()
	if c == nil || who != c.Name || !c.CanDoubleJump() {
		return
	}
	s.CheckTransition(KindDoubleJumping, false)
}

// Landing держит персонажа на месте, пока идет восстановление после жесткого
// приземления.
type Landing struct {
	locomotion
	recovery timer.Handle
}

func (s *Landing) Enter() {
	c := s.Owner()
	if c == nil {
		return
	}
	c.TargetSpeed = 0
	if b := s.Blackboard(); b != nil {
		b.Set(KeyDoubleJumped, false)
	}
	s.announce(c)
	s.recovery = s.timers.Set(c.Tuning.LandingRecovery, s.recover)
}

func (s *Landing) Exit() {
	s.timers.Clear(s.recovery)
	s.recovery = 0
}

func (s *Landing) Update(dt float64) {
	c := s.Owner()
	if c == nil || s.died(c) {
		return
	}
	if !c.Body.Grounded {
		s.CheckTransition(KindFalling, false)
	}
}

func (s *Landing) Dispose() {
	if s.timers != nil {
		s.timers.Clear(s.recovery)
	}
	s.locomotion.Dispose()
}

func (s *Landing) recover() {
	if c := s.Owner(); c != nil {
		s.CheckTransition(c.groundedKind(), false)
	}
}

// Attacking - удар на месте длительностью AttackDuration, после него
// наземное состояние по намерению.
type Attacking struct {
	locomotion
	swing timer.Handle
}

func (s *Attacking) Enter() {
	c := s.Owner()
	if c == nil {
		return
	}
	c.TargetSpeed = 0
	c.lastAttackAt = c.Age
	s.bump(KeyAttacks)
	s.announce(c)
	s.swing = s.timers.Set(c.Tuning.AttackDuration, s.finish)
	c.logger.Debug("attack", "attacks", s.attacks(), "facing", c.Facing)
}

func (s *Attacking) Exit() {
	s.timers.Clear(s.swing)
	s.swing = 0
}

func (s *Attacking) Update(dt float64) {
	c := s.Owner()
	if c == nil || s.died(c) {
		return
	}
	if !c.Body.Grounded {
		s.CheckTransition(KindFalling, false)
	}
}

func (s *Attacking) Dispose() {
	if s.timers != nil {
		s.timers.Clear(s.swing)
	}
	s.locomotion.Dispose()
}

func (s *Attacking) attacks() float64 {
	n, _ := state.Value[float64](s.Blackboard(), KeyAttacks)
	return n
}

func (s *Attacking) finish() {
	if c := s.Owner(); c != nil {
		s.CheckTransition(c.groundedKind(), false)
	}
}

// Dead - конечное состояние. Подписок нет, нулевая TargetSpeed гасит ввод.
// PlayerDied публикуется один раз на входе, но не при восстановлении.
type Dead struct{ locomotion }

func (s *Dead) Enter() {
	c := s.Owner()
	if c == nil {
		return
	}
	c.TargetSpeed = 0
	c.Vel.X = 0
	s.announce(c)
	if s.restoring() || !s.events.HasSubscribers(event.PlayerDied) {
		return
	}
	if err := event.Trigger1(s.events, event.PlayerDied, c.Name); err != nil {
		c.logger.Warn("player died event", "error", err)
	}
}
