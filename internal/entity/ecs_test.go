package entity

import (
	"testing"

	"go-gameframe/internal/component"
)

func TestSpawnAndRemove(t *testing.T) {
	ecs := NewECS()
	a := ecs.Spawn("player", component.Position{X: 1, Y: 2}, component.Body{Width: 10})
	b := ecs.Spawn("crate", component.Position{}, component.Body{})

	if a == 0 || b != a+1 {
		t.Fatalf("ids = %d, %d, want consecutive non-zero", a, b)
	}
	if got, ok := ecs.Find("player"); !ok || got != a {
		t.Fatalf("Find(player) = %d, %v", got, ok)
	}
	if ecs.Positions[a].Y != 2 || ecs.Bodies[a].Width != 10 || ecs.Velocities[a] == nil {
		t.Fatal("components not stored")
	}

	ecs.Remove(a)
	if _, ok := ecs.Find("player"); ok {
		t.Fatal("removed entity still found")
	}
	if ids := ecs.BodyIDs(); len(ids) != 1 || ids[0] != b {
		t.Fatalf("BodyIDs = %v, want [%d]", ids, b)
	}
}
