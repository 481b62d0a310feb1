package world

import "fmt"

// IntentKind is the kind of movement request.
type IntentKind int

const (
	// IntentDirection asks to step one cell in a direction.
	IntentDirection IntentKind = iota
	// IntentTarget asks to move to a specific grid cell.
	IntentTarget
)

// Intent is a movement request produced by pointer input. It carries no
// rule validation; the server decides.
type Intent struct {
	Kind      IntentKind
	Direction Direction
	Target    GridCoord
	// From is the player cell when the intent was made.
	From GridCoord
}

// DirectionIntent creates a step request.
func DirectionIntent(from GridCoord, d Direction) Intent {
	return Intent{Kind: IntentDirection, Direction: d, From: from, Target: from.Step(d)}
}

// TargetIntent creates a move-to-cell request.
func TargetIntent(from, target GridCoord) Intent {
	return Intent{Kind: IntentTarget, Target: target, From: from}
}

// Step returns the single cardinal step that realizes the intent, if any.
// The game protocol only accepts cardinal steps.
func (i Intent) Step() (Direction, bool) {
	switch i.Kind {
	case IntentDirection:
		return i.Direction, i.Direction.Valid()
	case IntentTarget:
		return DirectionBetween(i.From, i.Target)
	}
	return "", false
}

func (i Intent) String() string {
	if i.Kind == IntentDirection {
		return fmt.Sprintf("move %s", i.Direction)
	}
	return fmt.Sprintf("move to %v", i.Target)
}
