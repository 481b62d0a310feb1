// Package input defines platform-independent pointer and window events.
//
// The window package translates SDL events into this form; the view drains
// the queue once per frame.
package input

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventPointerDown
	EventPointerMove
	EventPointerUp
	// EventClick follows a left-button EventPointerUp that had a matching down.
	EventClick
	EventWheel
)

func (t EventType) String() string {
	switch t {
	case EventQuit:
		return "quit"
	case EventWindowResize:
		return "resize"
	case EventKeyDown:
		return "key_down"
	case EventPointerDown:
		return "pointer_down"
	case EventPointerMove:
		return "pointer_move"
	case EventPointerUp:
		return "pointer_up"
	case EventClick:
		return "click"
	case EventWheel:
		return "wheel"
	default:
		return "none"
	}
}

// Button is a pointer button.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// Key is a logical key name such as "up", "w" or "escape".
type Key string

// Event represents a processed input event.
type Event struct {
	Type EventType
	// Pointer position in window pixels.
	X, Y float32
	// Motion since the previous pointer event.
	DX, DY float32
	Button Button
	// Wheel is positive when scrolling away from the user.
	Wheel  float32
	Key    Key
	Width  int
	Height int
}

// Queue collects events between frames.
type Queue struct {
	events  []Event
	pressed [4]bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{events: make([]Event, 0, 16)}
}

// Push appends an event. A left button release that follows a press also
// appends an EventClick at the release position.
func (q *Queue) Push(ev Event) {
	q.events = append(q.events, ev)

	switch ev.Type {
	case EventPointerDown:
		if int(ev.Button) < len(q.pressed) {
			q.pressed[ev.Button] = true
		}
	case EventPointerUp:
		if int(ev.Button) >= len(q.pressed) {
			return
		}
		wasPressed := q.pressed[ev.Button]
		q.pressed[ev.Button] = false
		if ev.Button == ButtonLeft && wasPressed {
			q.events = append(q.events, Event{Type: EventClick, X: ev.X, Y: ev.Y, Button: ButtonLeft})
		}
	}
}

// Pressed reports whether a button is currently held.
func (q *Queue) Pressed(b Button) bool {
	return int(b) < len(q.pressed) && q.pressed[b]
}

// Drain returns queued events and empties the queue.
func (q *Queue) Drain() []Event {
	out := q.events
	q.events = make([]Event, 0, max(16, len(out)))
	return out
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}
