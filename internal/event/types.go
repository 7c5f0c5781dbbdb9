// internal/event/types.go
package event

// Имена игровых событий. Комментарий после имени - типы аргументов, о которых
// должны договориться подписчики и издатели.
const (
	JumpRequested   = "Character.JumpRequested"   // (who string)
	JumpReleased    = "Character.JumpReleased"    // (who string)
	AttackRequested = "Character.AttackRequested" // (who string)
	Landed          = "Character.Landed"          // (who string, impact float64)
	PlayerDied      = "Character.Died"            // (who string)
	StateEntered    = "State.Entered"             // (who string, kind string)
	GamePaused      = "Game.Paused"               // ()
	GameResumed     = "Game.Resumed"              // ()
	DroneAlerted    = "Drone.Alerted"             // (who string, distance float64)
)
