// internal/component/intent.go
package component

// Intent - то, что игрок попросил в этом кадре, уже из клавиш. MoveX в -1..1.
type Intent struct {
	MoveX  float64
	Sprint bool
}
