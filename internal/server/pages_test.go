package server

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/royaleserver/internal/account"
	"github.com/Seednode/royaleserver/internal/config"
	"github.com/Seednode/royaleserver/internal/levels"
	"github.com/Seednode/royaleserver/internal/logging"
	"github.com/Seednode/royaleserver/internal/match"
	"github.com/Seednode/royaleserver/internal/matchmaker"
)

func newTestServer(t *testing.T, mcode string) *Server {
	t.Helper()
	cat := levels.NewCatalog(t.TempDir())
	log := logging.New(false)
	mm := matchmaker.New(20, match.Config{PlayerMin: 2, PlayerCap: 20}, cat, nil, nil, log)

	return &Server{
		cfg:     &config.Config{MCode: mcode},
		log:     log,
		matches: mm,
		levels:  cat,
	}
}

func TestServeStatusHidesDrainStateWithoutCode(t *testing.T) {
	s := newTestServer(t, "s3cret")
	s.draining = true

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/status", nil)
	s.serveStatus(w, r, httprouter.Params{})

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if _, present := body["draining"]; present {
		t.Fatal("draining should be withheld without the correct mcode")
	}
}

func TestServeStatusRevealsDrainStateWithCode(t *testing.T) {
	s := newTestServer(t, "s3cret")
	s.draining = true

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/status?code=s3cret", nil)
	s.serveStatus(w, r, httprouter.Params{})

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	draining, ok := body["draining"].(bool)
	if !ok || !draining {
		t.Fatalf("body = %+v, want draining=true", body)
	}
}

func TestLeaderboardCacheServesLastRefresh(t *testing.T) {
	s := newTestServer(t, "")
	s.leaderboard.set([]account.Account{{Username: "alice", Coins: 500}})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/leaderboard", nil)
	s.serveLeaderboard(w, r, httprouter.Params{})

	var got []account.Account
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("got %+v", got)
	}
}

func TestServeAssetsMetadataReadsConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.json")
	if err := os.WriteFile(path, []byte(`{"skins":3}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s := newTestServer(t, "")
	s.cfg.AssetsMetadataPath = path

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/assets-metadata", nil)
	s.serveAssetsMetadata(w, r, httprouter.Params{})

	if w.Body.String() != `{"skins":3}` {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestServeAssetsMetadataMissingFileIs404(t *testing.T) {
	s := newTestServer(t, "")
	s.cfg.AssetsMetadataPath = filepath.Join(t.TempDir(), "missing.json")

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/assets-metadata", nil)
	s.serveAssetsMetadata(w, r, httprouter.Params{})

	if w.Code != 404 {
		t.Fatalf("code = %d, want 404", w.Code)
	}
}
