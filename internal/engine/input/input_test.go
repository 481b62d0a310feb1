package input

import "testing"

func TestQueueSynthesizesClick(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Type: EventPointerDown, X: 10, Y: 20, Button: ButtonLeft})
	if !q.Pressed(ButtonLeft) {
		t.Error("expected left button pressed")
	}
	q.Push(Event{Type: EventPointerMove, X: 12, Y: 21, DX: 2, DY: 1})
	q.Push(Event{Type: EventPointerUp, X: 12, Y: 21, Button: ButtonLeft})

	events := q.Drain()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	last := events[3]
	if last.Type != EventClick || last.X != 12 || last.Y != 21 {
		t.Errorf("expected click at release position, got %+v", last)
	}
	if q.Pressed(ButtonLeft) {
		t.Error("left button should be released")
	}
	if q.Len() != 0 {
		t.Errorf("queue should be empty after drain, got %d", q.Len())
	}
}

func TestQueueNoClickWithoutPress(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Type: EventPointerUp, Button: ButtonLeft})
	q.Push(Event{Type: EventPointerDown, Button: ButtonRight})
	q.Push(Event{Type: EventPointerUp, Button: ButtonRight})

	for _, ev := range q.Drain() {
		if ev.Type == EventClick {
			t.Errorf("unexpected click %+v", ev)
		}
	}
}

func TestDrainedSliceSurvivesPush(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Type: EventWheel, Wheel: 1})
	events := q.Drain()
	q.Push(Event{Type: EventQuit})

	if events[0].Type != EventWheel {
		t.Errorf("drained events were overwritten: %+v", events[0])
	}
}

func TestEventTypeString(t *testing.T) {
	if EventClick.String() != "click" || EventNone.String() != "none" {
		t.Errorf("unexpected names %q %q", EventClick, EventNone)
	}
}
