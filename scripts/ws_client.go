// Package main runs a demo WebSocket client for solver run progress.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type  string          `json:"type"`
	RunID string          `json:"runId,omitempty"`
	Event json.RawMessage `json:"event,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Submit a small demo run
	points := [][2]float64{{0, 0}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	times := make([][]float64, len(points))
	for i := range times {
		times[i] = make([]float64, len(points))
		for j := range times[i] {
			times[i][j] = math.Hypot(points[i][0]-points[j][0], points[i][1]-points[j][1])
		}
	}
	body, _ := json.Marshal(map[string]any{
		"instance": map[string]any{
			"name": "ws-demo", "nVehicles": 2,
			"demand": []float64{10, 10, 10, 10}, "serviceTimes": []float64{1, 1, 1, 1},
			"startWindow": []float64{0, 0, 0, 0}, "endWindow": []float64{100, 100, 100, 100},
			"distance": times, "timeTensor": [][][]float64{times}, "vehicleCapacity": 25,
		},
		"maxIterations": 20000,
		"maxTimeSec":    30,
	})
	resp, err := http.Post(base+"/v1/solve", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var run struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		log.Fatal(err)
	}
	if run.ID == "" {
		log.Fatal("no run id returned")
	}
	log.Printf("submitted run %s", run.ID)

	// Subscribe to its progress over the websocket
	u := url.URL{Scheme: "ws", Host: fmt.Sprintf("localhost:%s", port), Path: "/v1/runs/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(wsMessage{Type: "subscribe", RunID: run.ID}); err != nil {
		log.Fatal(err)
	}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Fatalf("read: %v", err)
		}
		log.Printf("%s %s", msg.RunID, string(msg.Event))

		var evt struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(msg.Event, &evt)
		if evt.Type == "done" || evt.Type == "failed" {
			return
		}
	}
}
