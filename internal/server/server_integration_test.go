package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/signcoach/internal/gesture"
	"github.com/ayusman/signcoach/internal/landmark"
)

func dialPractice(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/practice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, msg any) serverMessage {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var reply serverMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return reply
}

func sendFrames(t *testing.T, conn *websocket.Conn, seq landmark.Sequence) {
	t.Helper()
	for _, f := range seq {
		if err := conn.WriteJSON(map[string]any{"type": "frame", "landmarks": f[:]}); err != nil {
			t.Fatalf("WriteJSON() error = %v", err)
		}
	}
}

func TestPractice_WebSocketAttempt(t *testing.T) {
	cfg := newTestConfig(t, newTestLibrary(t), nil)
	if err := cfg.Practice.Prefetch(context.Background(), "A", "B"); err != nil {
		t.Fatalf("Prefetch() error = %v", err)
	}

	ts := httptest.NewServer(New(cfg))
	defer ts.Close()
	conn := dialPractice(t, ts)

	// 1. Start an attempt
	started := exchange(t, conn, map[string]string{"type": "start", "symbol": "A"})
	if started.Type != msgStarted || started.Session == "" || started.Symbol != "A" {
		t.Fatalf("unexpected start reply %+v", started)
	}

	// 2. Stream the held pose and stop
	sendFrames(t, conn, landmark.Repeat(landmark.ThumbsUp(), 25))
	result := exchange(t, conn, map[string]string{"type": "stop"})

	if result.Type != msgResult {
		t.Fatalf("expected result message, got %+v", result)
	}
	if result.Session != started.Session {
		t.Errorf("result session = %s, want %s", result.Session, started.Session)
	}
	if result.Result == nil || result.Result.Decision != gesture.DecisionAccepted {
		t.Fatalf("expected accepted result, got %+v", result.Result)
	}

	// 3. A second stop has nothing to evaluate
	again := exchange(t, conn, map[string]string{"type": "stop"})
	if again.Type != msgError {
		t.Errorf("expected error for repeated stop, got %+v", again)
	}

	// 4. Retry with the wrong hand shape, then abandon it
	restarted := exchange(t, conn, map[string]string{"type": "start", "symbol": "A"})
	if restarted.Session == started.Session {
		t.Error("expected a new session for a new attempt")
	}
	sendFrames(t, conn, landmark.Repeat(landmark.OpenPalm(), 5))
	if reply := exchange(t, conn, map[string]string{"type": "abandon"}); reply.Type != msgAbandoned {
		t.Errorf("expected abandoned, got %+v", reply)
	}
	if cfg.Practice.Len() != 1 {
		t.Errorf("expected 1 live session, got %d", cfg.Practice.Len())
	}
}

func TestPractice_WebSocketErrors(t *testing.T) {
	cfg := newTestConfig(t, newTestLibrary(t), nil)
	ts := httptest.NewServer(New(cfg))
	defer ts.Close()
	conn := dialPractice(t, ts)

	tests := []struct {
		name string
		msg  any
	}{
		{"frame before start", map[string]any{"type": "frame", "landmarks": landmark.ThumbsUp()}},
		{"stop before start", map[string]string{"type": "stop"}},
		{"unknown symbol", map[string]string{"type": "start", "symbol": "Ñ"}},
		{"unknown type", map[string]string{"type": "dance"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := exchange(t, conn, tt.msg)
			if reply.Type != msgError || reply.Message == "" {
				t.Errorf("expected error message, got %+v", reply)
			}
		})
	}

	if reply := exchange(t, conn, map[string]string{"type": "start", "symbol": "B"}); reply.Type != msgStarted {
		t.Fatalf("expected started, got %+v", reply)
	}
	bad := map[string]any{"type": "frame", "landmarks": []map[string]float64{{"x": 0, "y": 0}}}
	if reply := exchange(t, conn, bad); reply.Type != msgError {
		t.Errorf("expected error for short frame, got %+v", reply)
	}
}

func TestPractice_SessionRemovedOnDisconnect(t *testing.T) {
	cfg := newTestConfig(t, newTestLibrary(t), nil)
	ts := httptest.NewServer(New(cfg))
	defer ts.Close()

	conn := dialPractice(t, ts)
	exchange(t, conn, map[string]string{"type": "start", "symbol": "B"})
	if cfg.Practice.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", cfg.Practice.Len())
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for cfg.Practice.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected sessions to be removed, got %d", cfg.Practice.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAPI_MatchWorkflow(t *testing.T) {
	ts := httptest.NewServer(New(newTestConfig(t, newTestLibrary(t), nil)))
	defer ts.Close()
	client := ts.Client()

	// 1. List symbols
	resp, err := client.Get(ts.URL + "/api/symbols")
	if err != nil {
		t.Fatalf("GET /api/symbols error = %v", err)
	}
	var listed struct {
		Symbols []struct {
			Symbol string `json:"symbol"`
			Type   string `json:"type"`
		} `json:"symbols"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Symbols) != 28 {
		t.Fatalf("expected 28 symbols, got %d", len(listed.Symbols))
	}

	// 2. Match a one-shot attempt
	frames := make([][]landmark.Point3D, 25)
	for i := range frames {
		f := landmark.OpenPalm()
		frames[i] = f[:]
	}
	body, _ := json.Marshal(map[string]any{"symbol": "B", "frames": frames})

	resp, err = client.Post(ts.URL+"/api/match", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/match error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result struct {
		Decision          string   `json:"decision"`
		MatchedTemplateID string   `json:"matchedTemplateId"`
		Distance          *float64 `json:"distance"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	if result.Decision != "accepted" {
		t.Errorf("decision = %s, want accepted", result.Decision)
	}
	if result.MatchedTemplateID != "B_1" {
		t.Errorf("matched template = %s, want B_1", result.MatchedTemplateID)
	}
	if result.Distance == nil {
		t.Error("expected a finite distance")
	}
}
