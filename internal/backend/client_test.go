package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultServer {
		t.Fatalf("host = %q, want %q", u.Host, defaultServer)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchPlayersAndStartup(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/players":
			_ = json.NewEncoder(w).Encode(PlayersResponse{
				Players:  map[string]Player{"den": {Name: "den", Volume: 55}},
				Statuses: map[string]bool{"den": true},
			})
		case "/api/startup":
			_ = json.NewEncoder(w).Encode(StartupProgress{
				Phases:   []StartupPhase{{ID: "config", Label: "Load config", Status: PhaseCompleted}},
				Complete: false,
			})
		case "/api/build-info":
			_ = json.NewEncoder(w).Encode(BuildInfo{BuildHash: "1234567890abcdef"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	players, err := c.FetchPlayers(ctx)
	if err != nil {
		t.Fatalf("FetchPlayers returned error: %v", err)
	}
	if len(players) != 1 || players[0].Name != "den" || !players[0].Running {
		t.Fatalf("FetchPlayers = %#v, want running den", players)
	}

	progress, err := c.FetchStartupProgress(ctx)
	if err != nil {
		t.Fatalf("FetchStartupProgress returned error: %v", err)
	}
	if progress.Complete || len(progress.Phases) != 1 {
		t.Fatalf("FetchStartupProgress = %#v, want one incomplete phase", progress)
	}

	info, err := c.FetchBuildInfo(ctx)
	if err != nil {
		t.Fatalf("FetchBuildInfo returned error: %v", err)
	}
	if info.Identity() != "sha-1234567" {
		t.Fatalf("Identity = %q, want sha-1234567", info.Identity())
	}
}

func TestClient_StartupEndpointAbsentMeansComplete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	progress, err := c.FetchStartupProgress(context.Background())
	if err != nil {
		t.Fatalf("FetchStartupProgress returned error: %v", err)
	}
	if !progress.Complete {
		t.Fatalf("absent endpoint should be treated as complete")
	}
}

func TestClient_CommandErrorEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(CommandResult{Success: false, Error: "Volume must be between 0 and 100"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	err = c.SetVolume(context.Background(), "den", 120)
	if err == nil {
		t.Fatalf("SetVolume should surface the backend error")
	}
	if !strings.Contains(err.Error(), "between 0 and 100") {
		t.Fatalf("SetVolume error = %q, want backend message", err)
	}
}

func TestClient_SetOffsetValidatesRange(t *testing.T) {
	c, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.SetOffset(context.Background(), "den", 1500); err == nil {
		t.Fatalf("SetOffset should reject out-of-range delay")
	}
}

func TestClient_WebSocketURL(t *testing.T) {
	c, err := NewClient("example.com:9000")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.WebSocketURL(); got != "ws://example.com:9000/ws" {
		t.Fatalf("WebSocketURL = %q", got)
	}
}
