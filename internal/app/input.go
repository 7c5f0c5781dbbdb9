// internal/app/input.go
package app

// Input - ввод одного кадра, уже переведенный хостом из клавиш. Флаги
// нажатия и отпускания - фронты, true ровно один кадр.
type Input struct {
	MoveX  float64
	Sprint bool

	JumpPressed  bool
	JumpReleased bool
	Attack       bool

	Pause     bool
	Quicksave bool
	Quickload bool
}
