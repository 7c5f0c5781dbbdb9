// internal/state/blackboard.go
package state

import (
	"maps"
	"sort"
	"sync"
)

// Blackboard - хранилище ключ/значение, общее для всех состояний машины.
// Побеждает последняя запись. Переживает переходы и очищается только при
// разрушении машины, после чего записи игнорируются.
type Blackboard struct {
	mu     sync.RWMutex
	data   map[string]any
	sealed bool
}

// NewBlackboard создает пустую доску.
func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]any)}
}

// Set кладет value под key.
func (b *Blackboard) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return
	}
	b.data[key] = value
}

// Get возвращает значение под key.
func (b *Blackboard) Get(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok
}

// Remove удаляет key. Отсутствующие ключи игнорируются.
func (b *Blackboard) Remove(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
}

// Len возвращает число ключей.
func (b *Blackboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Keys возвращает ключи по порядку.
func (b *Blackboard) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy возвращает поверхностную копию содержимого.
func (b *Blackboard) Copy() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.data)
}

// Replace заменяет содержимое копией data.
func (b *Blackboard) Replace(data map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return
	}
	b.data = make(map[string]any, len(data))
	maps.Copy(b.data, data)
}

func (b *Blackboard) seal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.data)
	b.sealed = true
}

// Value возвращает значение под key как T. ok = false, если ключа нет или
// там другой тип.
func Value[T any](b *Blackboard, key string) (T, bool) {
	var zero T
	if b == nil {
		return zero, false
	}
	v, ok := b.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
