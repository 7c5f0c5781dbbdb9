// internal/timer/timer.go
package timer

// Handle - идентификатор таймера. Нулевой Handle никогда не выдается.
type Handle uint64

type entry struct {
	id       Handle
	due      float64
	interval float64
	loop     bool
	fn       func()
}

// Manager планирует колбэки по игровому времени. Горутин нет: время идет,
// только когда владелец вызывает Advance из своего тика, поэтому колбэки
// выполняются в игровом цикле, как и хуки состояний.
type Manager struct {
	now    float64
	next   Handle
	timers map[Handle]*entry
}

// NewManager создает менеджер на нулевом времени.
func NewManager() *Manager {
	return &Manager{timers: make(map[Handle]*entry)}
}

// Now возвращает накопленное игровое время в секундах.
func (m *Manager) Now() float64 { return m.now }

// Set вызывает fn один раз через delay секунд. Неположительная задержка
// срабатывает на следующем Advance.
func (m *Manager) Set(delay float64, fn func()) Handle {
	if fn == nil {
		return 0
	}
	if delay < 0 {
		delay = 0
	}
	return m.add(&entry{due: m.now + delay, fn: fn})
}

// SetLoop вызывает fn каждые interval секунд до отмены. interval должен быть
// положительным.
func (m *Manager) SetLoop(interval float64, fn func()) Handle {
	if fn == nil || interval <= 0 {
		return 0
	}
	return m.add(&entry{due: m.now + interval, interval: interval, loop: true, fn: fn})
}

func (m *Manager) add(e *entry) Handle {
	m.next++
	e.id = m.next
	m.timers[e.id] = e
	return e.id
}

// Clear отменяет h. Неизвестные и отработавшие хэндлы игнорируются.
func (m *Manager) Clear(h Handle) {
	delete(m.timers, h)
}

// ClearAll отменяет все таймеры.
func (m *Manager) ClearAll() {
	clear(m.timers)
}

// Active - запланирован ли еще h.
func (m *Manager) Active(h Handle) bool {
	_, ok := m.timers[h]
	return ok
}

// Remaining - секунд до срабатывания h, 0 для неактивного.
func (m *Manager) Remaining(h Handle) float64 {
	e, ok := m.timers[h]
	if !ok {
		return 0
	}
	if r := e.due - m.now; r > 0 {
		return r
	}
	return 0
}

// Len возвращает число запланированных таймеров.
func (m *Manager) Len() int { return len(m.timers) }

// Advance сдвигает время на dt и вызывает все подошедшие колбэки, раньшие
// первыми (при равенстве - в порядке планирования). Колбэки могут ставить и
// снимать таймеры, циклический таймер срабатывает раз на каждый прошедший
// интервал.
func (m *Manager) Advance(dt float64) {
	if dt > 0 {
		m.now += dt
	}
	for {
		e := m.nextDue()
		if e == nil {
			return
		}
		if e.loop {
			e.due += e.interval
		} else {
			delete(m.timers, e.id)
		}
		e.fn()
	}
}

func (m *Manager) nextDue() *entry {
	var best *entry
	for _, e := range m.timers {
		if e.due > m.now {
			continue
		}
		if best == nil || e.due < best.due || (e.due == best.due && e.id < best.id) {
			best = e
		}
	}
	return best
}
