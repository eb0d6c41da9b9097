package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"runegrid.ai/internal/persistence/indexdb"
	"runegrid.ai/internal/protocol"
	"runegrid.ai/internal/sim/actions"
	"runegrid.ai/internal/sim/world"
)

type fakeIndex struct{}

func (fakeIndex) RecentGames(ctx context.Context, limit int) ([]indexdb.GameRow, error) {
	return []indexdb.GameRow{{GameID: "g1", Status: "FINISHED", Winner: "red"}}, nil
}

func (fakeIndex) TeamRecords(ctx context.Context) ([]indexdb.TeamRecord, error) {
	return []indexdb.TeamRecord{{TeamID: "red", Games: 1, Wins: 1}}, nil
}

func newTestServer(t *testing.T, index GameIndex) *httptest.Server {
	t.Helper()
	w, err := world.New(world.WorldConfig{Seed: 12}, nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()
	srv := httptest.NewServer(NewServer(w, index, log.New(io.Discard, "", 0)).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

type stateResp struct {
	Type  string `json:"type"`
	State struct {
		GameID string `json:"game_id"`
		Turn   int    `json:"turn"`
		Phase  string `json:"phase"`
		Teams  []struct {
			ID string `json:"id"`
		} `json:"teams"`
		Digest string `json:"digest"`
	} `json:"state"`
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func decodeState(t *testing.T, b []byte) stateResp {
	t.Helper()
	var s stateResp
	if err := json.Unmarshal(b, &s); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return s
}

func errorCode(t *testing.T, b []byte) string {
	t.Helper()
	var e protocol.ErrorMsg
	if err := json.Unmarshal(b, &e); err != nil {
		t.Fatalf("decode error %s: %v", b, err)
	}
	if !protocol.IsKnownCode(e.Code) {
		t.Fatalf("unknown error code %q", e.Code)
	}
	return e.Code
}

const startBody = `{"grid_size":16,"max_turns":30,"teams":[{"id":"red","trait":"Aggressive"},{"id":"blue"}]}`

func TestAPI_GameFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, b := do(t, http.MethodPost, srv.URL+"/api/game/next", "")
	if resp.StatusCode != http.StatusConflict || errorCode(t, b) != protocol.ErrNotRunning {
		t.Fatalf("next before start: status=%d body=%s", resp.StatusCode, b)
	}

	resp, b = do(t, http.MethodPost, srv.URL+"/api/game/start", startBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status=%d body=%s", resp.StatusCode, b)
	}
	st := decodeState(t, b)
	if st.Type != protocol.TypeState || st.State.Phase != "RUNNING" || st.State.Turn != 0 || len(st.State.Teams) != 2 {
		t.Fatalf("unexpected start state: %+v", st)
	}

	resp, b = do(t, http.MethodPost, srv.URL+"/api/game/next?turns=3", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("next: status=%d body=%s", resp.StatusCode, b)
	}
	after := decodeState(t, b)
	if after.State.Turn != 3 || after.State.GameID != st.State.GameID {
		t.Fatalf("expected turn 3 of the same game, got %+v", after.State)
	}

	resp, b = do(t, http.MethodGet, srv.URL+"/api/game/state", "")
	if resp.StatusCode != http.StatusOK || decodeState(t, b).State.Digest != after.State.Digest {
		t.Fatalf("state should match last next: status=%d", resp.StatusCode)
	}

	resp, b = do(t, http.MethodPost, srv.URL+"/api/game/reset", "")
	if resp.StatusCode != http.StatusOK || decodeState(t, b).State.Phase != "SETUP" {
		t.Fatalf("reset: status=%d body=%s", resp.StatusCode, b)
	}
}

func TestAPI_StartValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	cases := map[string]string{
		"schema":    `{"grid_size":5,"max_turns":30,"teams":[{"id":"red"}]}`,
		"not json":  `{`,
		"semantic":  `{"grid_size":12,"max_turns":30,"teams":[{"id":"red","points":[[3,3]]},{"id":"blue","points":[[3,3]]}]}`,
		"dup teams": `{"grid_size":12,"max_turns":30,"teams":[{"id":"red"},{"id":"red"}]}`,
	}
	for name, body := range cases {
		resp, b := do(t, http.MethodPost, srv.URL+"/api/game/start", body)
		if resp.StatusCode != http.StatusBadRequest || errorCode(t, b) != protocol.ErrBadRequest {
			t.Fatalf("%s: status=%d body=%s", name, resp.StatusCode, b)
		}
	}

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/game/start", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET start: status=%d", resp.StatusCode)
	}
	resp, b := do(t, http.MethodPost, srv.URL+"/api/game/next?turns=0", "")
	if resp.StatusCode != http.StatusBadRequest || errorCode(t, b) != protocol.ErrBadRequest {
		t.Fatalf("turns=0: status=%d body=%s", resp.StatusCode, b)
	}
}

func TestAPI_FinishedGame(t *testing.T) {
	srv := newTestServer(t, nil)
	if resp, b := do(t, http.MethodPost, srv.URL+"/api/game/start", `{"grid_size":12,"max_turns":2,"teams":[{"id":"red"},{"id":"blue"}]}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("start: %s", b)
	}
	resp, b := do(t, http.MethodPost, srv.URL+"/api/game/next?turns=10", "")
	if resp.StatusCode != http.StatusOK || decodeState(t, b).State.Phase != "FINISHED" {
		t.Fatalf("expected finished game: status=%d body=%s", resp.StatusCode, b)
	}
	resp, b = do(t, http.MethodPost, srv.URL+"/api/game/next", "")
	if resp.StatusCode != http.StatusConflict || errorCode(t, b) != protocol.ErrGameFinished {
		t.Fatalf("next after finish: status=%d body=%s", resp.StatusCode, b)
	}
}

func TestAPI_ActionsCatalogue(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, b := do(t, http.MethodGet, srv.URL+"/api/actions", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("actions: status=%d", resp.StatusCode)
	}
	var msg protocol.CatalogueMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msg.Actions) != len(actions.All()) || msg.Digest == "" {
		t.Fatalf("catalogue has %d actions digest=%q", len(msg.Actions), msg.Digest)
	}
}

func TestAPI_Games(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, b := do(t, http.MethodGet, srv.URL+"/api/games", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("no index: status=%d body=%s", resp.StatusCode, b)
	}

	srv = newTestServer(t, fakeIndex{})
	resp, b = do(t, http.MethodGet, srv.URL+"/api/games?limit=5", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("games: status=%d body=%s", resp.StatusCode, b)
	}
	var msg struct {
		Type  string `json:"type"`
		Games struct {
			Recent []indexdb.GameRow    `json:"recent"`
			Teams  []indexdb.TeamRecord `json:"teams"`
		} `json:"games"`
	}
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != protocol.TypeGames || len(msg.Games.Recent) != 1 || msg.Games.Teams[0].Wins != 1 {
		t.Fatalf("unexpected games payload: %s", b)
	}
}

func TestAPI_Autoplay(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, b := do(t, http.MethodPost, srv.URL+"/api/game/autoplay?on=maybe", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad flag: status=%d body=%s", resp.StatusCode, b)
	}
	resp, b = do(t, http.MethodPost, srv.URL+"/api/game/autoplay?on=true", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("autoplay: status=%d body=%s", resp.StatusCode, b)
	}
}
