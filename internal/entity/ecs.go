// internal/entity/ecs.go
package entity

import (
	"sort"

	"go-gameframe/internal/component"
)

// EntityID - идентификатор сущности в ECS. Ноль никогда не выдается.
type EntityID uint64

type ECS struct {
	GameTime   float64
	NextID     EntityID
	Names      map[EntityID]string
	Positions  map[EntityID]*component.Position
	Velocities map[EntityID]*component.Velocity
	Bodies     map[EntityID]*component.Body
}

func NewECS() *ECS {
	return &ECS{
		NextID:     1,
		Names:      make(map[EntityID]string),
		Positions:  make(map[EntityID]*component.Position),
		Velocities: make(map[EntityID]*component.Velocity),
		Bodies:     make(map[EntityID]*component.Body),
	}
}

func (ecs *ECS) NewEntity() EntityID {
	id := ecs.NextID
	ecs.NextID++
	return id
}

// Spawn создает именованную сущность с позицией, скоростью и телом.
func (ecs *ECS) Spawn(name string, pos component.Position, body component.Body) EntityID {
	id := ecs.NewEntity()
	ecs.Names[id] = name
	ecs.Positions[id] = &pos
	ecs.Velocities[id] = &component.Velocity{}
	ecs.Bodies[id] = &body
	return id
}

// Remove удаляет все компоненты id.
func (ecs *ECS) Remove(id EntityID) {
	delete(ecs.Names, id)
	delete(ecs.Positions, id)
	delete(ecs.Velocities, id)
	delete(ecs.Bodies, id)
}

// Find возвращает сущность с именем name.
func (ecs *ECS) Find(name string) (EntityID, bool) {
	for id, n := range ecs.Names {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// BodyIDs возвращает id всех сущностей с телом в порядке создания.
func (ecs *ECS) BodyIDs() []EntityID {
	ids := make([]EntityID, 0, len(ecs.Bodies))
	for id := range ecs.Bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
