// internal/state/snapshot.go
package state

// Snapshot - данные машины для сохранений: текущее состояние и копия доски.
type Snapshot struct {
	Kind Kind
	Data map[string]any
}

// Snapshot снимает текущее состояние и доску.
func (m *Machine[O]) Snapshot() Snapshot {
	return Snapshot{Kind: m.kind, Data: m.board.Copy()}
}

// Restore заменяет доску на s.Data и входит в s.Kind заново, так что
// состояние видит восстановленные данные. Пустой Kind восстанавливает только
// доску. Если переход будет отклонен (машина остановлена, идет Exit или вид
// неизвестен), доска не трогается и возвращается false.
func (m *Machine[O]) Restore(s Snapshot) bool {
	switch {
	case m.destroyed || !m.initialized:
		return false
	case !m.running || m.exiting:
		m.logger.Debug("restore refused", "machine", m.name, "kind", string(s.Kind))
		return false
	case s.Kind != "" && !m.resolvable(s.Kind):
		m.logger.Error("restore to unknown state kind", "machine", m.name, "kind", string(s.Kind))
		return false
	}
	m.board.Replace(s.Data)
	if s.Kind == "" {
		return true
	}
	return m.ChangeState(s.Kind, true)
}
