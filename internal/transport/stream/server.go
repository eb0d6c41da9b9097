// Package stream runs a number of turns on request and pushes each turn
// report to the client over a websocket as it happens.
package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"runegrid.ai/internal/protocol"
	"runegrid.ai/internal/sim/world"
)

const (
	defaultTurns = 1
	maxTurns     = 5000
	maxInterval  = 10 * time.Second
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Handler serves GET /api/stream?turns=N[&interval_ms=M]. It sends one TURN
// message per advanced turn, then a final STATE message, then closes. A
// world error is reported as an ERROR message before closing.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		turns, interval, err := parseParams(r)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader goroutine: only used to notice the client going away.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		send := func(v any) bool {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, protocol.Marshal(v)); err != nil {
				cancel()
				return false
			}
			return true
		}

		start, err := s.world.RequestSnapshot(ctx)
		if err != nil {
			return
		}
		gameID := start.GameID

		for i := 0; i < turns; i++ {
			if i > 0 && interval > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(interval):
				}
			}
			rep, err := s.world.RequestAdvance(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Printf("stream: %v", err)
				send(protocol.NewError(errorCode(err), err.Error()))
				s.close(conn)
				return
			}
			if !send(protocol.NewTurn(gameID, rep, rep.Victory != nil)) {
				return
			}
			if rep.Victory != nil {
				break
			}
		}
		view, err := s.world.RequestSnapshot(ctx)
		if err == nil {
			send(protocol.NewState(view))
		}
		s.close(conn)
	}
}

func (s *Server) close(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

func parseParams(r *http.Request) (int, time.Duration, error) {
	q := r.URL.Query()
	turns := defaultTurns
	if v := q.Get("turns"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTurns {
			return 0, 0, errors.New("turns must be in [1,5000]")
		}
		turns = n
	}
	var interval time.Duration
	if v := q.Get("interval_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 || time.Duration(ms)*time.Millisecond > maxInterval {
			return 0, 0, errors.New("interval_ms must be in [0,10000]")
		}
		interval = time.Duration(ms) * time.Millisecond
	}
	return turns, interval, nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, world.ErrNotRunning):
		return protocol.ErrNotRunning
	case errors.Is(err, world.ErrGameFinished):
		return protocol.ErrGameFinished
	case errors.Is(err, world.ErrStopped):
		return protocol.ErrBusy
	default:
		return protocol.ErrInternal
	}
}
