package understat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pitchside/prediction-engine/internal/platform/logging"
	"github.com/pitchside/prediction-engine/internal/usecase"
)

const datesJSON = `[
  {"isResult": true, "h": {"title": "Arsenal"}, "a": {"title": "Chelsea"},
   "xG": {"h": "2.31", "a": "0.47"}, "datetime": "2025-08-16 14:00:00"},
  {"isResult": false, "h": {"title": "Liverpool"}, "a": {"title": "Everton"},
   "xG": {"h": null, "a": null}, "datetime": "2025-08-23 14:00:00"}
]`

const teamsJSON = `{
  "83": {"title": "Arsenal", "history": [
    {"h_a": "h", "date": "2025-08-16 14:00:00", "ppda": {"att": 180, "def": 20}, "deep": 11}
  ]},
  "80": {"title": "Chelsea", "history": [
    {"h_a": "a", "date": "2025-08-16 14:00:00", "ppda": {"att": 150, "def": 0}, "deep": 4}
  ]}
}`

// understat embeds the blobs with every quote hex-escaped.
func escapeBlob(jsonText string) string {
	return strings.ReplaceAll(jsonText, `"`, `\x22`)
}

func leaguePageBody() string {
	return "<html><script>\n" +
		"var datesData = JSON.parse('" + escapeBlob(datesJSON) + "');\n" +
		"var teamsData = JSON.parse('" + escapeBlob(teamsJSON) + "');\n" +
		"</script></html>"
}

func newTestClient(t *testing.T) (*Client, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/league/EPL/2025" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(leaguePageBody()))
	}))
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL: server.URL,
		Logger:  logging.NewNop(),
	}), &calls
}

func TestMatchStats(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	stats, err := client.MatchStats(context.Background(), "EPL", "2025")
	if err != nil {
		t.Fatalf("MatchStats() error = %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats = %d, want 1 (unfinished match excluded)", len(stats))
	}

	stat := stats[0]
	if stat.HomeName != "Arsenal" || stat.AwayName != "Chelsea" {
		t.Fatalf("stat = %+v", stat)
	}
	if stat.HomeXG == nil || *stat.HomeXG != 2.31 {
		t.Fatalf("home xG = %v, want 2.31", stat.HomeXG)
	}
	if stat.Date.Format("2006-01-02") != "2025-08-16" {
		t.Fatalf("date = %v", stat.Date)
	}
}

func TestTactics(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	tactics, err := client.Tactics(context.Background(), "EPL", "2025")
	if err != nil {
		t.Fatalf("Tactics() error = %v", err)
	}
	if len(tactics) != 2 {
		t.Fatalf("tactics = %d, want 2", len(tactics))
	}

	byTeam := make(map[string]usecase.ExternalTactic, len(tactics))
	for _, tactic := range tactics {
		byTeam[tactic.TeamName] = tactic
	}

	arsenal := byTeam["Arsenal"]
	if arsenal.Side != "home" {
		t.Fatalf("arsenal side = %q", arsenal.Side)
	}
	if arsenal.PPDA == nil || *arsenal.PPDA != 9.0 {
		t.Fatalf("arsenal PPDA = %v, want 9.0", arsenal.PPDA)
	}
	if arsenal.Deep == nil || *arsenal.Deep != 11 {
		t.Fatalf("arsenal deep = %v", arsenal.Deep)
	}

	chelsea := byTeam["Chelsea"]
	if chelsea.Side != "away" {
		t.Fatalf("chelsea side = %q", chelsea.Side)
	}
	if chelsea.PPDA != nil {
		t.Fatalf("chelsea PPDA = %v, want nil with zero defensive actions", *chelsea.PPDA)
	}
}

func TestLeaguePageCache(t *testing.T) {
	t.Parallel()

	client, calls := newTestClient(t)
	if _, err := client.MatchStats(context.Background(), "EPL", "2025"); err != nil {
		t.Fatalf("MatchStats() error = %v", err)
	}
	if _, err := client.Tactics(context.Background(), "EPL", "2025"); err != nil {
		t.Fatalf("Tactics() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("page fetches = %d, want 1 for both blob reads", calls.Load())
	}
}

func TestUnknownCompetition(t *testing.T) {
	t.Parallel()

	client, calls := newTestClient(t)
	_, err := client.MatchStats(context.Background(), "MLS", "2025")
	if !errors.Is(err, usecase.ErrConnectorUnavailable) {
		t.Fatalf("error = %v, want ErrConnectorUnavailable", err)
	}
	if calls.Load() != 0 {
		t.Fatal("no request expected for an unmapped competition")
	}
}

func TestExtractScriptBlob(t *testing.T) {
	t.Parallel()

	t.Run("missing variable", func(t *testing.T) {
		_, err := extractScriptBlob([]byte("<html></html>"), "datesData")
		if err == nil {
			t.Fatal("expected error for missing variable")
		}
	})

	t.Run("unterminated blob", func(t *testing.T) {
		_, err := extractScriptBlob([]byte("datesData = JSON.parse('[1,2"), "datesData")
		if err == nil {
			t.Fatal("expected error for unterminated blob")
		}
	})

	t.Run("hex escapes decode", func(t *testing.T) {
		blob, err := extractScriptBlob([]byte(`datesData = JSON.parse('{\x22a\x22:1}');`), "datesData")
		if err != nil {
			t.Fatalf("extractScriptBlob() error = %v", err)
		}
		if string(blob) != `{"a":1}` {
			t.Fatalf("blob = %q", blob)
		}
	})
}
