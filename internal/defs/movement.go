// internal/defs/movement.go
package defs

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// ErrInvalidTuning - файл настроек не является JSON-объектом или задает
// значения, с которыми персонаж не может двигаться.
var ErrInvalidTuning = errors.New("defs: invalid movement tuning")

// Movement - настройки передвижения персонажа. Скорости в пикселях в секунду,
// ускорения в пикселях в секунду за секунду. Ось Y направлена вниз.
type Movement struct {
	WalkSpeed    float64 `json:"walk_speed"`
	RunSpeed     float64 `json:"run_speed"`
	Acceleration float64 `json:"acceleration"`
	// AirControl - доля Acceleration в воздухе, 0..1.
	AirControl float64 `json:"air_control"`

	JumpVelocity float64 `json:"jump_velocity"`
	// DoubleJumpVelocity - импульс второго прыжка в воздухе.
	DoubleJumpVelocity float64 `json:"double_jump_velocity"`
	// JumpCutFactor - множитель скорости вверх при раннем отпускании прыжка.
	JumpCutFactor float64 `json:"jump_cut_factor"`
	Gravity       float64 `json:"gravity"`
	MaxFallSpeed  float64 `json:"max_fall_speed"`

	// HardLandingSpeed - скорость удара, начиная с которой приземление
	// переводит в Landing, а не сразу в наземное состояние.
	HardLandingSpeed float64 `json:"hard_landing_speed"`
	LandingRecovery  float64 `json:"landing_recovery"`
	// FallDamage - урон за каждый пиксель в секунду сверх HardLandingSpeed.
	FallDamage float64 `json:"fall_damage"`
	// MoveDeadzone - порог намерения, ниже которого персонаж стоит.
	MoveDeadzone float64 `json:"move_deadzone"`

	// --- Бой ---
	AttackDuration float64 `json:"attack_duration"`
	// AttackCooldown отсчитывается от начала предыдущей атаки.
	AttackCooldown float64 `json:"attack_cooldown"`
	MaxHealth      float64 `json:"max_health"`
}

// DefaultMovement возвращает встроенные настройки.
func DefaultMovement() Movement {
	return Movement{
		WalkSpeed:          180,
		RunSpeed:           320,
		Acceleration:       1800,
		AirControl:         0.5,
		JumpVelocity:       620,
		DoubleJumpVelocity: 520,
		JumpCutFactor:      0.45,
		Gravity:            1800,
		MaxFallSpeed:       1100,
		HardLandingSpeed:   800,
		LandingRecovery:    0.25,
		FallDamage:         0.2,
		MoveDeadzone:       0.1,
		AttackDuration:     0.5,
		AttackCooldown:     1.0,
		MaxHealth:          100,
	}
}

// LoadMovement читает JSON-файл настроек поверх значений по умолчанию.
// Пустой путь возвращает значения по умолчанию.
func LoadMovement(path string) (Movement, error) {
	base := DefaultMovement()
	if path == "" {
		return base, nil
	}
	file, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read movement tuning file: %w", err)
	}
	return ParseMovement(file, base)
}

// ParseMovement переопределяет поля base числами из data. Неизвестные ключи
// игнорируются, отсутствующие сохраняют базовое значение: в файле
// перечисляется только то, что меняется.
func ParseMovement(data []byte, base Movement) (Movement, error) {
	if !gjson.ValidBytes(data) {
		return base, fmt.Errorf("%w: malformed JSON", ErrInvalidTuning)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return base, fmt.Errorf("%w: want a JSON object", ErrInvalidTuning)
	}

	m := base
	fields := map[string]*float64{
		"walk_speed":           &m.WalkSpeed,
		"run_speed":            &m.RunSpeed,
		"acceleration":         &m.Acceleration,
		"air_control":          &m.AirControl,
		"jump_velocity":        &m.JumpVelocity,
		"double_jump_velocity": &m.DoubleJumpVelocity,
		"jump_cut_factor":      &m.JumpCutFactor,
		"gravity":              &m.Gravity,
		"max_fall_speed":       &m.MaxFallSpeed,
		"hard_landing_speed":   &m.HardLandingSpeed,
		"landing_recovery":     &m.LandingRecovery,
		"fall_damage":          &m.FallDamage,
		"move_deadzone":        &m.MoveDeadzone,
		"attack_duration":      &m.AttackDuration,
		"attack_cooldown":      &m.AttackCooldown,
		"max_health":           &m.MaxHealth,
	}
	for name, dst := range fields {
		v := doc.Get(name)
		if !v.Exists() {
			continue
		}
		if v.Type != gjson.Number {
			return base, fmt.Errorf("%w: %s must be a number, got %s", ErrInvalidTuning, name, v.Type)
		}
		*dst = v.Float()
	}
	if err := m.Validate(); err != nil {
		return base, err
	}
	return m, nil
}

// Validate проверяет, что с настройками можно играть.
func (m Movement) Validate() error {
	var errs []error
	positive := map[string]float64{
		"walk_speed":           m.WalkSpeed,
		"run_speed":            m.RunSpeed,
		"acceleration":         m.Acceleration,
		"jump_velocity":        m.JumpVelocity,
		"gravity":              m.Gravity,
		"max_fall_speed":       m.MaxFallSpeed,
		"double_jump_velocity": m.DoubleJumpVelocity,
		"attack_duration":      m.AttackDuration,
		"max_health":           m.MaxHealth,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s = %v, want > 0", name, v))
		}
	}
	if m.RunSpeed < m.WalkSpeed {
		errs = append(errs, fmt.Errorf("run_speed %v below walk_speed %v", m.RunSpeed, m.WalkSpeed))
	}
	for name, v := range map[string]float64{
		"air_control":     m.AirControl,
		"jump_cut_factor": m.JumpCutFactor,
		"move_deadzone":   m.MoveDeadzone,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s = %v, want 0..1", name, v))
		}
	}
	if m.LandingRecovery < 0 || m.HardLandingSpeed < 0 || m.FallDamage < 0 {
		errs = append(errs, errors.New("landing values must not be negative"))
	}
	if m.AttackCooldown < 0 {
		errs = append(errs, fmt.Errorf("attack_cooldown = %v, want >= 0", m.AttackCooldown))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTuning, errors.Join(errs...))
	}
	return nil
}
