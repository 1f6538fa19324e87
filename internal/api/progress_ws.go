package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Websocket progress feed: clients subscribe to run ids and receive the
// same RunEvents the SSE stream carries, multiplexed over one socket.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type  string          `json:"type"` // subscribe, unsubscribe, event, error
	RunID string          `json:"runId,omitempty"`
	Event json.RawMessage `json:"event,omitempty"`
	Error string          `json:"error,omitempty"`
}

// RunsWSHandler handles /v1/runs/ws.
func (s *Server) RunsWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	type sub struct {
		ch   chan RunEvent
		done chan struct{}
	}
	subs := map[string]sub{}
	writes := make(chan wsMessage, 32)

	defer func() {
		for runID, s2 := range subs {
			close(s2.done)
			s.Broker.Unsubscribe(runID, s2.ch)
		}
	}()

	// single writer goroutine; gorilla conns do not allow concurrent
	// writes. It exits when the ping fails after the conn closes.
	go func() {
		ping := time.NewTicker(25 * time.Second)
		defer ping.Stop()
		for {
			select {
			case msg := <-writes:
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			if msg.RunID == "" || subs[msg.RunID].ch != nil {
				continue
			}
			ch := s.Broker.Subscribe(msg.RunID)
			done := make(chan struct{})
			subs[msg.RunID] = sub{ch: ch, done: done}
			go func(runID string) {
				for {
					select {
					case <-done:
						return
					case evt, ok := <-ch:
						if !ok {
							return
						}
						data, _ := json.Marshal(evt)
						select {
						case writes <- wsMessage{Type: "event", RunID: runID, Event: data}:
						default:
						}
					}
				}
			}(msg.RunID)
		case "unsubscribe":
			if s2, ok := subs[msg.RunID]; ok {
				close(s2.done)
				s.Broker.Unsubscribe(msg.RunID, s2.ch)
				delete(subs, msg.RunID)
			}
		}
	}
}
