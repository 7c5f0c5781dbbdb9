// internal/component/movement.go
package component

// Position хранит позицию. Y растёт вниз, точка стоит у ног тела.
type Position struct {
	X, Y float64
}

// Velocity хранит скорость, пикселей в секунду
type Velocity struct {
	X, Y float64
}

// Body описывает физическое тело для PhysicsSystem
type Body struct {
	Width, Height float64
	Gravity       float64
	MaxFallSpeed  float64
	Grounded      bool
}
