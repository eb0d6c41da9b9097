// Package api serves the game over plain HTTP/JSON. Every call is
// forwarded to the world loop goroutine through the world's Request*
// methods.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"runegrid.ai/internal/persistence/indexdb"
	"runegrid.ai/internal/protocol"
	"runegrid.ai/internal/sim/world"
)

const (
	maxBodyBytes = 1 << 20
	maxNextTurns = 1000
	callTimeout  = 30 * time.Second
)

// GameIndex is the read side of the game index; *indexdb.SQLiteIndex
// satisfies it.
type GameIndex interface {
	RecentGames(ctx context.Context, limit int) ([]indexdb.GameRow, error)
	TeamRecords(ctx context.Context) ([]indexdb.TeamRecord, error)
}

type Server struct {
	world *world.World
	index GameIndex
	log   *log.Logger
}

// NewServer wires the handlers. index may be nil, in which case
// /api/games answers 503.
func NewServer(w *world.World, index GameIndex, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{world: w, index: index, log: logger}
}

// Register adds the API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/game/start", s.handleStart)
	mux.HandleFunc("/api/game/state", s.handleState)
	mux.HandleFunc("/api/game/next", s.handleNext)
	mux.HandleFunc("/api/game/reset", s.handleReset)
	mux.HandleFunc("/api/game/autoplay", s.handleAutoplay)
	mux.HandleFunc("/api/actions", s.handleActions)
	mux.HandleFunc("/api/games", s.handleGames)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, code, msg string) {
	writeJSON(rw, status, protocol.NewError(code, msg))
}

func allow(rw http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		rw.Header().Set("Allow", method)
		writeError(rw, http.StatusMethodNotAllowed, protocol.ErrProtoBadRequest, "method not allowed")
		return false
	}
	return true
}

// worldError maps world sentinel errors to a wire code and its HTTP status.
func (s *Server) worldError(rw http.ResponseWriter, err error) {
	code := protocol.ErrInternal
	switch {
	case errors.Is(err, world.ErrInvalidParams):
		code = protocol.ErrBadRequest
	case errors.Is(err, world.ErrNotRunning):
		code = protocol.ErrNotRunning
	case errors.Is(err, world.ErrGameFinished):
		code = protocol.ErrGameFinished
	case errors.Is(err, world.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		code = protocol.ErrBusy
	default:
		s.log.Printf("internal error: %v", err)
	}
	writeError(rw, protocol.HTTPStatus(code), code, err.Error())
}

func (s *Server) handleStart(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodPost) {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrProtoBadRequest, err.Error())
		return
	}
	if len(body) > maxBodyBytes {
		writeError(rw, http.StatusRequestEntityTooLarge, protocol.ErrProtoBadRequest, "body too large")
		return
	}
	req, err := protocol.ValidateStart(body)
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), callTimeout)
	defer cancel()
	view, err := s.world.RequestStart(ctx, StartParams(req))
	if err != nil {
		s.worldError(rw, err)
		return
	}
	s.log.Printf("started game %s (%d teams, grid %d)", view.GameID, len(view.Teams), view.GridSize)
	writeJSON(rw, http.StatusOK, protocol.NewState(view))
}

// StartParams converts a validated START payload into world parameters.
func StartParams(req protocol.StartRequest) world.StartParams {
	p := world.StartParams{GridSize: req.GridSize, MaxTurns: req.MaxTurns, Seed: req.Seed}
	for _, t := range req.Teams {
		p.Teams = append(p.Teams, world.TeamSpec{ID: t.ID, Name: t.Name, Color: t.Color, Trait: t.Trait, Points: t.Points})
	}
	return p
}

func (s *Server) handleState(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodGet) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), callTimeout)
	defer cancel()
	view, err := s.world.RequestSnapshot(ctx)
	if err != nil {
		s.worldError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, protocol.NewState(view))
}

// handleNext advances ?turns=N turns (default 1) and returns the state
// after the last one. It stops early when the game finishes.
func (s *Server) handleNext(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodPost) {
		return
	}
	n := 1
	if v := r.URL.Query().Get("turns"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > maxNextTurns {
			writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "turns must be in [1,1000]")
			return
		}
		n = parsed
	}
	ctx, cancel := context.WithTimeout(r.Context(), callTimeout)
	defer cancel()
	for i := 0; i < n; i++ {
		rep, err := s.world.RequestAdvance(ctx)
		if err != nil {
			s.worldError(rw, err)
			return
		}
		if rep.Victory != nil {
			break
		}
	}
	view, err := s.world.RequestSnapshot(ctx)
	if err != nil {
		s.worldError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, protocol.NewState(view))
}

func (s *Server) handleReset(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodPost) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), callTimeout)
	defer cancel()
	if err := s.world.RequestReset(ctx); err != nil {
		s.worldError(rw, err)
		return
	}
	view, err := s.world.RequestSnapshot(ctx)
	if err != nil {
		s.worldError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, protocol.NewState(view))
}

func (s *Server) handleAutoplay(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodPost) {
		return
	}
	on, err := strconv.ParseBool(r.URL.Query().Get("on"))
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "on must be a boolean")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), callTimeout)
	defer cancel()
	if err := s.world.RequestAutoplay(ctx, on); err != nil {
		s.worldError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "autoplay": on})
}

func (s *Server) handleActions(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodGet) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), callTimeout)
	defer cancel()
	defs, err := s.world.RequestCatalogue(ctx)
	if err != nil {
		s.worldError(rw, err)
		return
	}
	msg := protocol.CatalogueMsg{
		Type:            protocol.TypeCatalogue,
		ProtocolVersion: protocol.Version,
		Digest:          s.world.CatalogueDigest(),
		Actions:         make([]protocol.CatalogueEntry, 0, len(defs)),
	}
	for _, d := range defs {
		msg.Actions = append(msg.Actions, protocol.CatalogueEntry{ID: d.ID, Name: d.Name, Group: d.Group, Description: d.Description})
	}
	writeJSON(rw, http.StatusOK, msg)
}

func (s *Server) handleGames(rw http.ResponseWriter, r *http.Request) {
	if !allow(rw, r, http.MethodGet) {
		return
	}
	if s.index == nil {
		writeError(rw, http.StatusServiceUnavailable, protocol.ErrNotFound, "game index disabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 500 {
			writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "limit must be in [1,500]")
			return
		}
		limit = parsed
	}
	games, err := s.index.RecentGames(r.Context(), limit)
	if err != nil {
		s.worldError(rw, err)
		return
	}
	teams, err := s.index.TeamRecords(r.Context())
	if err != nil {
		s.worldError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, protocol.GamesMsg{
		Type:            protocol.TypeGames,
		ProtocolVersion: protocol.Version,
		Games:           map[string]any{"recent": games, "teams": teams},
	})
}
