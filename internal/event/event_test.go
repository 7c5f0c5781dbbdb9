package event

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func quietRegistry(opts ...Option) *Registry {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewRegistry(opts...)
}

type listener struct {
	name  string
	calls []string
	jumps int
	log   *[]string
}

func (l *listener) onJump(who string) {
	l.jumps++
	l.calls = append(l.calls, who)
	if l.log != nil {
		*l.log = append(*l.log, l.name)
	}
}

func (l *listener) onLanded(who string, impact float64) {
	l.calls = append(l.calls, who)
}

func (l *listener) onPing() {
	l.calls = append(l.calls, "ping")
}

func TestTriggerDeliversInRegistrationOrder(t *testing.T) {
	r := quietRegistry()
	var order []string
	a := &listener{name: "a", log: &order}
	b := &listener{name: "b", log: &order}
	c := &listener{name: "c", log: &order}
	for _, l := range []*listener{b, a, c} {
		if err := Register1(r, JumpRequested, l, l.onJump); err != nil {
			t.Fatalf("register %s: %v", l.name, err)
		}
	}

	if err := Trigger1(r, JumpRequested, "player"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	want := []string{"b", "a", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRegisterSamePairIsIdempotent(t *testing.T) {
	r := quietRegistry()
	l := &listener{}
	for i := 0; i < 3; i++ {
		if err := Register1(r, JumpRequested, l, l.onJump); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	if got := r.SubscriberCount(JumpRequested); got != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", got)
	}
	if err := Trigger1(r, JumpRequested, "player"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if l.jumps != 1 {
		t.Fatalf("jumps = %d, want 1", l.jumps)
	}
}

func TestSameMethodOnTwoObjectsIsTwoBindings(t *testing.T) {
	r := quietRegistry()
	a, b := &listener{}, &listener{}
	_ = Register1(r, JumpRequested, a, a.onJump)
	_ = Register1(r, JumpRequested, b, b.onJump)
	if got := r.SubscriberCount(JumpRequested); got != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", got)
	}

	Unregister1(r, JumpRequested, a, a.onJump)
	_ = Trigger1(r, JumpRequested, "player")
	if a.jumps != 0 || b.jumps != 1 {
		t.Fatalf("jumps a=%d b=%d, want 0 and 1", a.jumps, b.jumps)
	}
}

func TestTriggerWithOtherSignatureIsNotFound(t *testing.T) {
	r := quietRegistry()
	l := &listener{}
	if err := Register1(r, "X", l, l.onJump); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name    string
		trigger func() error
	}{
		{"two arguments", func() error { return Trigger2(r, "X", "player", 1.5) }},
		{"other type", func() error { return Trigger1(r, "X", 42) }},
		{"no arguments", func() error { return Trigger0(r, "X") }},
		{"named string type", func() error {
			type who string
			return Trigger1(r, "X", who("player"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trigger()
			if !errors.Is(err, ErrEventNotFound) {
				t.Fatalf("err = %v, want %v", err, ErrEventNotFound)
			}
			if !errors.Is(err, ErrSignatureMismatch) {
				t.Fatalf("err = %v, want %v", err, ErrSignatureMismatch)
			}
		})
	}
	if l.jumps != 0 {
		t.Fatalf("jumps = %d, want 0", l.jumps)
	}
}

func TestSameNameSeparateSignaturesAreIndependent(t *testing.T) {
	r := quietRegistry()
	l := &listener{}
	_ = Register1(r, "X", l, l.onJump)
	_ = Register2(r, "X", l, l.onLanded)

	if got := len(r.Signatures("X")); got != 2 {
		t.Fatalf("signatures = %d, want 2", got)
	}
	if err := Trigger2(r, "X", "player", 3.0); err != nil {
		t.Fatalf("trigger2: %v", err)
	}
	if l.jumps != 0 || len(l.calls) != 1 {
		t.Fatalf("jumps=%d calls=%v, want only the two-argument callback", l.jumps, l.calls)
	}
}

func TestTriggerUnknownName(t *testing.T) {
	r := quietRegistry()
	err := Trigger0(r, "nothing")
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrEventNotFound)
	}
	if errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("err = %v, should not report a signature mismatch", err)
	}
}

func TestUnregister(t *testing.T) {
	r := quietRegistry()
	l := &listener{}
	_ = Register1(r, JumpRequested, l, l.onJump)

	// Не подписан: ничего не происходит.
	other := &listener{}
	Unregister1(r, JumpRequested, other, other.onJump)
	Unregister0(r, "unknown", l, l.onPing)
	if got := r.SubscriberCount(JumpRequested); got != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", got)
	}

	Unregister1(r, JumpRequested, l, l.onJump)
	if r.HasSubscribers(JumpRequested) {
		t.Fatal("entry should be pruned once its last binding is gone")
	}
	if err := Trigger1(r, JumpRequested, "player"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrEventNotFound)
	}
	if l.jumps != 0 {
		t.Fatalf("jumps = %d, want 0", l.jumps)
	}
}

func TestFreeFunctionBinding(t *testing.T) {
	r := quietRegistry()
	calls := 0
	fn := func() { calls++ }
	if err := Register0(r, GamePaused, nil, fn); err != nil {
		t.Fatalf("register: %v", err)
	}
	_ = Trigger0(r, GamePaused)
	Unregister0(r, GamePaused, nil, fn)
	_ = Trigger0(r, GamePaused)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := quietRegistry()
	l := &listener{}

	if err := Register1(r, "", l, l.onJump); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("empty name err = %v, want %v", err, ErrEmptyName)
	}
	if err := Register1(r, "X", *l, l.onJump); !errors.Is(err, ErrInvalidSubscriber) {
		t.Fatalf("value subscriber err = %v, want %v", err, ErrInvalidSubscriber)
	}
	var nilListener *listener
	if err := Register0(r, "X", nilListener, func() {}); !errors.Is(err, ErrInvalidSubscriber) {
		t.Fatalf("nil pointer subscriber err = %v, want %v", err, ErrInvalidSubscriber)
	}
	if err := Register1[string](r, "X", l, nil); !errors.Is(err, ErrNilCallback) {
		t.Fatalf("nil callback err = %v, want %v", err, ErrNilCallback)
	}
	if names := r.Names(); len(names) != 0 {
		t.Fatalf("names = %v, want none", names)
	}
}

func TestRemoveAll(t *testing.T) {
	r := quietRegistry()
	a, b := &listener{}, &listener{}
	_ = Register1(r, JumpRequested, a, a.onJump)
	_ = Register2(r, Landed, a, a.onLanded)
	_ = Register1(r, JumpRequested, b, b.onJump)
	_ = Register0(r, GamePaused, b, b.onPing)

	r.RemoveAllForSubscriber(a)
	if got := r.SubscriberCount(JumpRequested); got != 1 {
		t.Fatalf("JumpRequested count = %d, want 1", got)
	}
	if r.HasSubscribers(Landed) {
		t.Fatal("Landed should have no subscribers")
	}

	r.RemoveAllForName(JumpRequested)
	if r.HasSubscribers(JumpRequested) {
		t.Fatal("JumpRequested should have no subscribers")
	}
	if !r.HasSubscribers(GamePaused) {
		t.Fatal("GamePaused should still be registered")
	}

	r.RemoveAll()
	if names := r.Names(); len(names) != 0 {
		t.Fatalf("names = %v, want none", names)
	}
}

func TestPanicIsolationContinuesDelivery(t *testing.T) {
	r := quietRegistry()
	after := &listener{}
	_ = Register1(r, JumpRequested, nil, func(string) { panic("boom") })
	_ = Register1(r, JumpRequested, after, after.onJump)

	err := Trigger1(r, JumpRequested, "player")
	if !errors.Is(err, ErrSubscriberPanic) {
		t.Fatalf("err = %v, want %v", err, ErrSubscriberPanic)
	}
	if after.jumps != 1 {
		t.Fatalf("jumps = %d, want 1", after.jumps)
	}
}

func TestWithoutPanicIsolationFanOutAborts(t *testing.T) {
	r := quietRegistry(WithPanicIsolation(false))
	after := &listener{}
	_ = Register1(r, JumpRequested, nil, func(string) { panic("boom") })
	_ = Register1(r, JumpRequested, after, after.onJump)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the subscriber panic to reach the caller")
			}
		}()
		_ = Trigger1(r, JumpRequested, "player")
	}()
	if after.jumps != 0 {
		t.Fatalf("jumps = %d, want 0", after.jumps)
	}
}

type reentrant struct {
	r      *Registry
	victim *listener
	late   *listener
	hits   int
}

func (x *reentrant) onJump(who string) {
	x.hits++
	Unregister1(x.r, JumpRequested, x.victim, x.victim.onJump)
	_ = Register1(x.r, JumpRequested, x.late, x.late.onJump)
}

func TestReentrantRegistrationDuringTrigger(t *testing.T) {
	r := quietRegistry()
	x := &reentrant{r: r, victim: &listener{}, late: &listener{}}
	_ = Register1(r, JumpRequested, x, x.onJump)
	_ = Register1(r, JumpRequested, x.victim, x.victim.onJump)

	if err := Trigger1(r, JumpRequested, "player"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if x.victim.jumps != 0 {
		t.Fatalf("victim jumps = %d, want 0 (unregistered mid fan-out)", x.victim.jumps)
	}
	if x.late.jumps != 0 {
		t.Fatalf("late jumps = %d, want 0 (registered mid fan-out)", x.late.jumps)
	}

	_ = Trigger1(r, JumpRequested, "player")
	if x.late.jumps != 1 {
		t.Fatalf("late jumps = %d, want 1", x.late.jumps)
	}
}

func TestClose(t *testing.T) {
	r := quietRegistry()
	l := &listener{}
	_ = Register1(r, JumpRequested, l, l.onJump)
	r.Close()

	if err := Register1(r, JumpRequested, l, l.onJump); !errors.Is(err, ErrClosed) {
		t.Fatalf("register err = %v, want %v", err, ErrClosed)
	}
	if err := Trigger1(r, JumpRequested, "player"); !errors.Is(err, ErrClosed) {
		t.Fatalf("trigger err = %v, want %v", err, ErrClosed)
	}
	if l.jumps != 0 {
		t.Fatalf("jumps = %d, want 0", l.jumps)
	}
}

func TestSignatureString(t *testing.T) {
	tests := []struct {
		sig  Signature
		want string
	}{
		{SignatureOf0(), "()"},
		{SignatureOf1[string](), "(string)"},
		{SignatureOf2[string, float64](), "(string, float64)"},
		{SignatureOf4[int, bool, []byte, error](), "(int, bool, []uint8, error)"},
	}
	for _, tt := range tests {
		if got := tt.sig.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if SignatureOf1[string]() != SignatureOf1[string]() {
		t.Fatal("equal type lists must produce equal signatures")
	}
	if SignatureOf1[string]() == SignatureOf1[int]() {
		t.Fatal("different type lists must produce different signatures")
	}
}

func TestDistinctClosuresAreDistinctBindings(t *testing.T) {
	r := quietRegistry()
	owner := &listener{}
	got := map[string]int{}
	for _, tag := range []string{"a", "b", "c"} {
		if err := Register0(r, "Tick", owner, func() { got[tag]++ }); err != nil {
			t.Fatalf("register %s: %v", tag, err)
		}
	}
	for _, tag := range []string{"x", "y"} {
		if err := Register0(r, "Tick", nil, func() { got[tag]++ }); err != nil {
			t.Fatalf("register %s: %v", tag, err)
		}
	}
	if n := r.SubscriberCount("Tick"); n != 5 {
		t.Fatalf("SubscriberCount = %d, want 5", n)
	}
	if err := Trigger0(r, "Tick"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	for _, tag := range []string{"a", "b", "c", "x", "y"} {
		if got[tag] != 1 {
			t.Fatalf("delivered = %v, want each tag once", got)
		}
	}
}

func TestUnregisterRemovesOnlyThatClosure(t *testing.T) {
	r := quietRegistry()
	owner := &listener{}
	var got []string
	first := func() { got = append(got, "first") }
	second := func() { got = append(got, "second") }
	_ = Register0(r, "Tick", owner, first)
	_ = Register0(r, "Tick", owner, second)
	// Тот же самый func-объект повторно не добавляется
	_ = Register0(r, "Tick", owner, first)
	if n := r.SubscriberCount("Tick"); n != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", n)
	}

	Unregister0(r, "Tick", owner, first)
	_ = Trigger0(r, "Tick")
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("delivered = %v, want [second]", got)
	}
}

func TestFreshMethodValueMatchesEarlierBinding(t *testing.T) {
	r := quietRegistry()
	l := &listener{}
	register := func() error { return Register1(r, JumpRequested, l, l.onJump) }
	if err := register(); err != nil {
		t.Fatal(err)
	}
	if err := register(); err != nil {
		t.Fatal(err)
	}
	if n := r.SubscriberCount(JumpRequested); n != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", n)
	}
	Unregister1(r, JumpRequested, l, l.onJump)
	if r.HasSubscribers(JumpRequested) {
		t.Fatal("a new method value should remove the earlier binding")
	}
}
