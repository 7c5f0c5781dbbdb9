// internal/app/save.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-gameframe/internal/config"
	"go-gameframe/internal/savegame"
)

// Ключи, которые quicksave добавляет в снимок игрока. Перед восстановлением
// они снова убираются.
const (
	keyPosX   = "save.pos_x"
	keyPosY   = "save.pos_y"
	keyVelX   = "save.vel_x"
	keyVelY   = "save.vel_y"
	keyHealth = "save.health"
)

var bodyKeys = []string{keyPosX, keyPosY, keyVelX, keyVelY, keyHealth}

// Quicksave сохраняет снимок машины игрока, тело и здоровье в слот из конфига.
func (g *Game) Quicksave(ctx context.Context) error {
	if g.store == nil {
		return ErrNoStore
	}
	snap := g.Player.Machine.Snapshot()
	snap.Data[keyPosX] = g.Player.Pos.X
	snap.Data[keyPosY] = g.Player.Pos.Y
	snap.Data[keyVelX] = g.Player.Vel.X
	snap.Data[keyVelY] = g.Player.Vel.Y
	snap.Data[keyHealth] = g.Player.Health

	rec := savegame.FromSnapshot(g.cfg.SaveSlot, g.Player.Name, snap, time.Now())
	if err := g.store.Save(ctx, rec); err != nil {
		return err
	}
	g.Status = "saved to " + g.cfg.SaveSlot
	g.logger.Info("quicksave", "slot", g.cfg.SaveSlot, "kind", string(snap.Kind))
	return nil
}

// Quickload восстанавливает игрока из слота. На паузе машина игрока
// остановлена, поэтому загрузка отклоняется.
func (g *Game) Quickload(ctx context.Context) error {
	if g.store == nil {
		return ErrNoStore
	}
	if g.Paused() {
		return errors.New("app: cannot quickload while paused")
	}
	rec, err := g.store.Load(ctx, g.cfg.SaveSlot)
	if err != nil {
		return err
	}
	snap := rec.Snapshot()
	num := func(key string) (float64, bool) {
		v, ok := snap.Data[key].(float64)
		return v, ok
	}
	x, okX := num(keyPosX)
	y, okY := num(keyPosY)
	vx, _ := num(keyVelX)
	vy, _ := num(keyVelY)
	health, okHealth := num(keyHealth)
	for _, k := range bodyKeys {
		delete(snap.Data, k)
	}

	if okX && okY {
		g.Player.Pos.X, g.Player.Pos.Y = x, y
		g.Player.Vel.X, g.Player.Vel.Y = vx, vy
		g.Player.Body.Grounded = y >= config.GroundY
	}
	if okHealth {
		g.Player.Health = health
	}
	// Restore не повторяет импульс прыжка: скорость уже взята из сохранения
	if !g.Player.Restore(snap) {
		return fmt.Errorf("app: restore %s into player machine failed", snap.Kind)
	}
	g.Camera.Snap()
	g.Status = "loaded " + g.cfg.SaveSlot
	g.logger.Info("quickload", "slot", g.cfg.SaveSlot, "kind", string(snap.Kind))
	return nil
}
