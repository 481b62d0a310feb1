package world

// Direction is a cardinal movement direction in wire form.
type Direction string

const (
	North Direction = "n"
	South Direction = "s"
	East  Direction = "e"
	West  Direction = "w"
)

// Directions lists all cardinal directions in a stable order.
var Directions = [4]Direction{North, South, East, West}

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// Delta returns the grid step for d. North decreases Y.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// DirectionBetween returns the direction from one cell to an orthogonally
// adjacent cell.
func DirectionBetween(from, to GridCoord) (Direction, bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	for _, d := range Directions {
		if ddx, ddy := d.Delta(); ddx == dx && ddy == dy {
			return d, true
		}
	}
	return "", false
}

// Adjacent reports whether a and b share an edge.
func Adjacent(a, b GridCoord) bool {
	_, ok := DirectionBetween(a, b)
	return ok
}
