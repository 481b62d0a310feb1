package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Faultbox/dungeonview/internal/game/world"
)

type sink struct {
	mu   sync.Mutex
	got  []*world.Snapshot
	recv chan struct{}
}

func newSink() *sink { return &sink{recv: make(chan struct{}, 8)} }

func (s *sink) Submit(snap *world.Snapshot) {
	s.mu.Lock()
	s.got = append(s.got, snap)
	s.mu.Unlock()
	s.recv <- struct{}{}
}

const update = `{"type":"update","description":"You enter the cave.","state":{
	"cell_types":[[{"id":"floor","name":"Floor","map_color":"#444444"},{"id":"floor","name":"Floor","map_color":"#444444"}]],
	"explored":[[true,false]],
	"player_pos":[0,0],
	"enemies":[],
	"item_placements":[],
	"in_combat":false}}`

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// server sends messages to each client and forwards what it reads.
func server(t *testing.T, messages []string, commands chan<- MoveCommand) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/game", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		for {
			var cmd MoveCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			commands <- cmd
		}
	})
	return httptest.NewServer(mux)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/game"
}

func TestFeedDeliversSnapshots(t *testing.T) {
	commands := make(chan MoveCommand, 4)
	srv := server(t, []string{`{"type":"error","message":"busy"}`, `not json`, update}, commands)
	defer srv.Close()

	c := New(wsURL(srv), 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	s := newSink()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, s) }()

	select {
	case <-s.recv:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
	}
	s.mu.Lock()
	snap := s.got[0]
	s.mu.Unlock()
	if snap.Width != 2 || snap.Height != 1 || !snap.Explored[0][0] {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestSendMove(t *testing.T) {
	commands := make(chan MoveCommand, 4)
	srv := server(t, nil, commands)
	defer srv.Close()

	c := New(wsURL(srv), 5*time.Second)
	if err := c.Send(world.DirectionIntent(world.GridCoord{}, world.East)); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Disconnect()

	intents := make(chan world.Intent, 2)
	intents <- world.DirectionIntent(world.GridCoord{X: 1, Y: 1}, world.East)
	intents <- world.TargetIntent(world.GridCoord{X: 1, Y: 1}, world.GridCoord{X: 1, Y: 0})
	close(intents)
	c.Pump(context.Background(), intents)

	for _, want := range []world.Direction{world.East, world.North} {
		select {
		case cmd := <-commands:
			if cmd.Action != "move" || cmd.Direction != want {
				t.Errorf("got %+v, want move %s", cmd, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no command for %s", want)
		}
	}

	diagonal := world.TargetIntent(world.GridCoord{X: 1, Y: 1}, world.GridCoord{X: 2, Y: 2})
	if err := c.Send(diagonal); err == nil {
		t.Error("diagonal target should not be sent")
	}
}

func TestConnectFails(t *testing.T) {
	c := New("ws://127.0.0.1:1/ws/game", time.Second)
	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
	if c.IsConnected() {
		t.Error("should not be connected")
	}
}
