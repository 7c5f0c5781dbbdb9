// internal/system/physics.go
package system

import (
	"log/slog"
	"math"

	"go-gameframe/internal/entity"
	"go-gameframe/internal/event"
)

// PhysicsSystem интегрирует тела над плоской землей и сообщает о касаниях
// событием Landed.
type PhysicsSystem struct {
	ecs     *entity.ECS
	events  *event.Registry
	logger  *slog.Logger
	GroundY float64
}

func NewPhysicsSystem(ecs *entity.ECS, events *event.Registry, groundY float64, logger *slog.Logger) *PhysicsSystem {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhysicsSystem{ecs: ecs, events: events, logger: logger, GroundY: groundY}
}

func (s *PhysicsSystem) Update(deltaTime float64) {
	if deltaTime <= 0 {
		return
	}
	s.ecs.GameTime += deltaTime
	for _, id := range s.ecs.BodyIDs() {
		body := s.ecs.Bodies[id]
		pos, hasPos := s.ecs.Positions[id]
		vel, hasVel := s.ecs.Velocities[id]
		if !hasPos || !hasVel {
			continue
		}

		// Отрыв от земли: кто-то задал скорость вверх
		if body.Grounded && vel.Y < 0 {
			body.Grounded = false
		}
		if !body.Grounded {
			vel.Y += body.Gravity * deltaTime
			if body.MaxFallSpeed > 0 {
				vel.Y = math.Min(vel.Y, body.MaxFallSpeed)
			}
		}

		pos.X += vel.X * deltaTime
		pos.Y += vel.Y * deltaTime

		if !body.Grounded && vel.Y >= 0 && pos.Y >= s.GroundY {
			impact := vel.Y
			pos.Y = s.GroundY
			vel.Y = 0
			body.Grounded = true
			s.land(id, impact)
		}
	}
}

func (s *PhysicsSystem) land(id entity.EntityID, impact float64) {
	name := s.ecs.Names[id]
	if name == "" || s.events == nil || !s.events.HasSubscribers(event.Landed) {
		return
	}
	if err := event.Trigger2(s.events, event.Landed, name, impact); err != nil {
		s.logger.Debug("landed event", "entity", name, "error", err)
	}
}
