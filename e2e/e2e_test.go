package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ayusman/signcoach/internal/gesture"
	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/metrics"
	"github.com/ayusman/signcoach/internal/practice"
	"github.com/ayusman/signcoach/internal/server"
	"github.com/ayusman/signcoach/internal/store"
	"github.com/ayusman/signcoach/internal/templates"
)

const libraryDir = "../testdata/landmarks"

func framesJSON(seq landmark.Sequence) string {
	raw := make([][]landmark.Point3D, len(seq))
	for i := range seq {
		raw[i] = seq[i][:]
	}
	data, _ := json.Marshal(raw)
	return string(data)
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	ctx := context.Background()

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	t.Run("ImportLibrary", func(t *testing.T) {
		report, err := templates.Import(ctx, templates.NewDirSource(os.DirFS(libraryDir)), s, templates.DefaultVocabulary(), 0, nil)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if report.Imported != 3 || report.Symbols != 3 || report.Skipped != 0 {
			t.Errorf("unexpected import report %+v", report)
		}
	})

	m := metrics.New(prometheus.NewRegistry())
	repo := templates.New(templates.NewStoreSource(s), templates.WithRecorder(m))
	matcher, err := gesture.NewMatcher(gesture.DefaultConfig(), gesture.WithRecorder(m))
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}
	coord := practice.NewCoordinator(repo, matcher)
	defer coord.Wait()

	if err := coord.Prefetch(ctx, "A", "B"); err != nil {
		t.Fatalf("Prefetch() error = %v", err)
	}

	srv := server.New(server.Config{
		Templates: repo,
		Practice:  coord,
		Store:     s,
		Metrics:   m,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	t.Run("ListTemplates", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/symbols/J/templates")
		if err != nil {
			t.Fatalf("GET templates error = %v", err)
		}
		defer resp.Body.Close()

		var listed struct {
			Type      string `json:"type"`
			Templates []struct {
				ID     string `json:"id"`
				Frames int    `json:"frames"`
			} `json:"templates"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)

		if listed.Type != "dynamic" || len(listed.Templates) != 1 {
			t.Fatalf("unexpected listing %+v", listed)
		}
		if listed.Templates[0].ID != "j-open" || listed.Templates[0].Frames != 12 {
			t.Errorf("unexpected template %+v", listed.Templates[0])
		}
	})

	t.Run("MatchAttempt", func(t *testing.T) {
		body := `{"symbol": "A", "frames": ` + framesJSON(landmark.Repeat(landmark.ThumbsUp(), 30)) + `}`
		resp, err := client.Post(ts.URL+"/api/match", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("match error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var result struct {
			Decision          string `json:"decision"`
			MatchedTemplateID string `json:"matchedTemplateId"`
		}
		json.NewDecoder(resp.Body).Decode(&result)

		if result.Decision != "accepted" || result.MatchedTemplateID != "a-thumbs" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("PracticeSession", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/practice", nil)
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		defer conn.Close()

		conn.WriteJSON(map[string]string{"type": "start", "symbol": "B"})
		var started map[string]any
		if err := conn.ReadJSON(&started); err != nil || started["type"] != "started" {
			t.Fatalf("start reply = %v, err = %v", started, err)
		}

		for _, f := range landmark.Repeat(landmark.OpenPalm(), 25) {
			conn.WriteJSON(map[string]any{"type": "frame", "landmarks": f})
		}
		conn.WriteJSON(map[string]string{"type": "stop"})

		var reply struct {
			Type   string `json:"type"`
			Result struct {
				Decision          string `json:"decision"`
				MatchedTemplateID string `json:"matchedTemplateId"`
			} `json:"result"`
		}
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if reply.Type != "result" || reply.Result.Decision != "accepted" || reply.Result.MatchedTemplateID != "b-palm" {
			t.Errorf("unexpected reply %+v", reply)
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/metrics")
		if err != nil {
			t.Fatalf("GET /metrics error = %v", err)
		}
		defer resp.Body.Close()

		var sb strings.Builder
		buf := make([]byte, 4096)
		for {
			n, err := resp.Body.Read(buf)
			sb.Write(buf[:n])
			if err != nil {
				break
			}
		}

		for _, want := range []string{
			`signcoach_match_decisions_total{decision="accepted",sign_type="static"} 2`,
			`signcoach_template_loads_total{result="miss"}`,
		} {
			if !strings.Contains(sb.String(), want) {
				t.Errorf("metrics output missing %q", want)
			}
		}
	})
}

func TestE2E_SourcesAgree(t *testing.T) {
	ctx := context.Background()
	vocab := templates.DefaultVocabulary()

	fromDir, err := templates.LoadAll(ctx, templates.NewDirSource(os.DirFS(libraryDir)), vocab, 0, nil)
	if err != nil {
		t.Fatalf("LoadAll(dir) error = %v", err)
	}

	ts := httptest.NewServer(http.FileServer(http.Dir(libraryDir)))
	defer ts.Close()

	src, err := templates.NewHTTPSource(ts.URL, ts.Client())
	if err != nil {
		t.Fatalf("NewHTTPSource() error = %v", err)
	}
	fromHTTP, err := templates.LoadAll(ctx, src, vocab, 0, nil)
	if err != nil {
		t.Fatalf("LoadAll(http) error = %v", err)
	}

	if diff := cmp.Diff(fromDir, fromHTTP); diff != "" {
		t.Errorf("sources disagree (-dir +http):\n%s", diff)
	}
	if fromDir.Count() != 3 {
		t.Errorf("expected 3 templates, got %d", fromDir.Count())
	}
}
