// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix - префикс всех настроек из окружения.
const EnvPrefix = "GAMEFRAME_"

// Config хранит настройки хоста игры.
type Config struct {
	ScreenWidth  int    `env:"SCREEN_WIDTH" envDefault:"1200"`
	ScreenHeight int    `env:"SCREEN_HEIGHT" envDefault:"900"`
	TPS          int    `env:"TPS" envDefault:"60"`
	WindowTitle  string `env:"WINDOW_TITLE" envDefault:"gameframe"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// StateSharing держит по экземпляру на вид состояния все время жизни
	// игровой машины.
	StateSharing bool `env:"STATE_SHARING" envDefault:"true"`
	// PanicIsolation продолжает рассылку события после паники подписчика.
	PanicIsolation bool `env:"PANIC_ISOLATION" envDefault:"true"`

	SavePath string `env:"SAVE_PATH" envDefault:"gameframe.db"`
	SaveSlot string `env:"SAVE_SLOT" envDefault:"quicksave"`

	ScriptsDir string `env:"SCRIPTS_DIR"`
	TuningFile string `env:"TUNING_FILE"`
	Seed       int64  `env:"SEED" envDefault:"0"`

	OTELEndpoint string `env:"OTEL_ENDPOINT"`
	PprofAddr    string `env:"PPROF_ADDR"`
}

// Load читает Config из окружения и проверяет его.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate сообщает о настройках, с которыми игра не запустится.
func (c Config) Validate() error {
	var errs []error
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		errs = append(errs, fmt.Errorf("screen size %dx%d must be positive", c.ScreenWidth, c.ScreenHeight))
	}
	if c.TPS <= 0 {
		errs = append(errs, fmt.Errorf("tps %d must be positive", c.TPS))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q: want text or json", c.LogFormat))
	}
	if c.SaveSlot == "" {
		errs = append(errs, errors.New("save slot must not be empty"))
	}
	return errors.Join(errs...)
}

// Игровые константы.
const (
	MaxDeltaTime  = 0.06
	FixedStep     = 1.0 / 50
	MaxFixedSteps = 5

	GroundY = 700.0

	PlayerSpawnX = 300.0
	PlayerWidth  = 28.0
	PlayerHeight = 48.0

	DroneRadius  = 10.0
	DroneOffsetX = -60.0
	DroneOffsetY = -90.0

	CameraDamping    = 6.0
	CameraLookAhead  = 0.35
	CameraOffsetY    = -120.0
	ShakeImpactScale = 120.0
	MaxShake         = 14.0
	ShakeDuration    = 0.35

	IndicatorOffsetX = 30
	IndicatorRadius  = 10.0
	TextCharWidth    = 7
	TextOffsetY      = 4
	HUDHistory       = 6
)

var (
	BackgroundColor = color.RGBA{20, 20, 30, 255}
	GroundColor     = color.RGBA{70, 100, 120, 220}
	PlayerColor     = color.RGBA{240, 240, 240, 255}
	DroneColor      = color.RGBA{255, 215, 0, 255}
	TextLightColor  = color.RGBA{240, 240, 240, 255}
	IndicatorStroke = color.RGBA{240, 240, 240, 255}
	PausedColor     = color.RGBA{220, 60, 60, 220}
	StrokeWidth     = 2.0

	// StateColors - цвет индикатора по состоянию передвижения.
	StateColors = map[string]color.RGBA{
		"Idle":    {70, 130, 180, 220},
		"Walking": {50, 205, 50, 220},
		"Running": {255, 215, 0, 220},
		"Jumping": {180, 50, 230, 220},
		"Falling": {220, 60, 60, 220},
		"Landing": {194, 178, 128, 255},

		"DoubleJumping": {230, 120, 255, 220},
		"Attacking":     {255, 140, 0, 230},
		"Dead":          {90, 90, 90, 255},
	}
)
