// internal/ui/hud.go
package ui

import (
	"fmt"
	"log/slog"

	"go-gameframe/internal/config"
	"go-gameframe/internal/event"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
)

const (
	lineHeight = 16
	hudMargin  = 12
)

// HUD показывает состояние отслеживаемого персонажа, короткий журнал
// последних игровых событий и оверлей паузы. Все узнает из реестра событий и
// никогда не опрашивает игру.
type HUD struct {
	Indicator *StateIndicator

	events *event.Registry
	face   font.Face
	watch  string

	kind   string
	lines  []string
	paused bool
	now    float64
}

// NewHUD подписывает HUD на персонажа watch. screenWidth ставит индикатор
// состояния в правый верхний угол.
func NewHUD(events *event.Registry, face font.Face, watch string, screenWidth int, logger *slog.Logger) *HUD {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HUD{
		Indicator: NewStateIndicator(
			float32(screenWidth-config.IndicatorOffsetX),
			float32(config.IndicatorOffsetX),
			float32(config.IndicatorRadius),
		),
		events: events,
		face:   face,
		watch:  watch,
	}
	err := event.Register2(events, event.StateEntered, h, h.onStateEntered)
	if err == nil {
		err = event.Register2(events, event.DroneAlerted, h, h.onDroneAlerted)
	}
	if err == nil {
		err = event.Register1(events, event.PlayerDied, h, h.onPlayerDied)
	}
	if err == nil {
		err = event.Register0(events, event.GamePaused, h, h.onPaused)
	}
	if err == nil {
		err = event.Register0(events, event.GameResumed, h, h.onResumed)
	}
	if err != nil {
		logger.Error("hud: subscribe", "error", err)
	}
	return h
}

// Update запоминает игровое время для пульсации индикатора.
func (h *HUD) Update(now float64) { h.now = now }

// SetKind задает состояние индикатора без события, для персонажей, вошедших в
// первое состояние до подписки HUD.
func (h *HUD) SetKind(kind string) { h.kind = kind }

// Kind возвращает последнее состояние отслеживаемого персонажа.
func (h *HUD) Kind() string { return h.kind }

// Paused - показан ли оверлей паузы.
func (h *HUD) Paused() bool { return h.paused }

// Lines возвращает журнал событий, старые первыми.
func (h *HUD) Lines() []string {
	return append([]string(nil), h.lines...)
}

// Close отписывает HUD.
func (h *HUD) Close() {
	h.events.RemoveAllForSubscriber(h)
}

func (h *HUD) onStateEntered(who, kind string) {
	if who == h.watch {
		h.kind = kind
		h.Indicator.Pulse(h.now)
	}
	h.push(who + ": " + kind)
}

func (h *HUD) onDroneAlerted(who string, distance float64) {
	h.push(fmt.Sprintf("%s: alert at %.0f px", who, distance))
}

func (h *HUD) onPlayerDied(who string) {
	h.push(who + ": died")
}

func (h *HUD) onPaused()  { h.paused = true }
func (h *HUD) onResumed() { h.paused = false }

func (h *HUD) push(line string) {
	h.lines = append(h.lines, line)
	if over := len(h.lines) - config.HUDHistory; over > 0 {
		h.lines = append(h.lines[:0], h.lines[over:]...)
	}
}

// Draw рисует HUD поверх мира. status - необязательная строка внизу экрана.
func (h *HUD) Draw(screen *ebiten.Image, status string) {
	stateColor, ok := config.StateColors[h.kind]
	if !ok {
		stateColor = config.TextLightColor
	}
	h.Indicator.Draw(screen, stateColor, h.now)

	if h.face == nil {
		return
	}
	labelX := int(h.Indicator.X) - config.IndicatorOffsetX - len(h.kind)*config.TextCharWidth
	text.Draw(screen, h.kind, h.face, labelX, int(h.Indicator.Y)+config.TextOffsetY, config.TextLightColor)

	for i, line := range h.lines {
		text.Draw(screen, line, h.face, hudMargin, hudMargin+(i+1)*lineHeight, config.TextLightColor)
	}
	width, height := screen.Bounds().Dx(), screen.Bounds().Dy()
	if status != "" {
		text.Draw(screen, status, h.face, hudMargin, height-hudMargin, config.TextLightColor)
	}

	if h.paused {
		vector.DrawFilledRect(screen, 0, float32(height)/2-30, float32(width), 60, config.PausedColor, false)
		msg := "PAUSED"
		x := width/2 - len(msg)*config.TextCharWidth/2
		text.Draw(screen, msg, h.face, x, height/2+config.TextOffsetY, config.TextLightColor)
	}
}
