// internal/state/catalog.go
package state

import (
	"fmt"
	"sort"
	"sync"
)

// Factory строит новый State без настроек.
type Factory[O any] func() State[O]

// Catalog сопоставляет видам фабрики. Обычно один каталог на все машины
// одного типа владельца.
type Catalog[O any] struct {
	mu        sync.RWMutex
	factories map[Kind]Factory[O]
}

// NewCatalog создает пустой каталог.
func NewCatalog[O any]() *Catalog[O] {
	return &Catalog[O]{factories: make(map[Kind]Factory[O])}
}

// Register добавляет фабрику для kind.
func (c *Catalog[O]) Register(kind Kind, factory Factory[O]) error {
	if kind == "" {
		return ErrEmptyKind
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, kind)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.factories[kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}
	c.factories[kind] = factory
	return nil
}

// MustRegister - Register для настройки на уровне пакета, паникует при ошибке.
func (c *Catalog[O]) MustRegister(kind Kind, factory Factory[O]) *Catalog[O] {
	if err := c.Register(kind, factory); err != nil {
		panic(err)
	}
	return c
}

// Has - есть ли фабрика для kind.
func (c *Catalog[O]) Has(kind Kind) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[kind]
	return ok
}

// Kinds возвращает зарегистрированные виды по порядку.
func (c *Catalog[O]) Kinds() []Kind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kinds := make([]Kind, 0, len(c.factories))
	for k := range c.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// New строит экземпляр kind или возвращает nil для неизвестного вида.
func (c *Catalog[O]) New(kind Kind) State[O] {
	c.mu.RLock()
	factory, ok := c.factories[kind]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}
