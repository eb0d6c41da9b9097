package world

import (
	"context"
	"errors"
	"time"

	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/catalogs"
	"runegrid.ai/internal/sim/state"
)

var ErrStopped = errors.New("world loop stopped")

// request runs fn on the loop goroutine and closes done afterwards.
type request struct {
	fn   func()
	done chan struct{}
}

// Run owns the world until ctx is cancelled or Stop is called. Every
// Request* method is served here, one at a time. When TurnIntervalMs is
// positive and autoplay is on, a running game also advances on the ticker.
func (w *World) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if w.cfg.TurnIntervalMs > 0 {
		ticker := time.NewTicker(time.Duration(w.cfg.TurnIntervalMs) * time.Millisecond)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.reqs:
			req.fn()
			close(req.done)
		case <-tick:
			if !w.autoplay || w.state.Phase != state.PhaseRunning {
				continue
			}
			if _, err := w.AdvanceTurn(); err != nil {
				w.logger.Printf("autoplay: %v", err)
			}
		}
	}
}

func (w *World) Stop() { close(w.stop) }

func (w *World) call(ctx context.Context, fn func()) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case w.reqs <- req:
	case <-w.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-w.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestStart asks the world loop goroutine to start a new game.
// It is safe to call from other goroutines (e.g. HTTP handlers).
func (w *World) RequestStart(ctx context.Context, p StartParams) (GameView, error) {
	var (
		v   GameView
		err error
	)
	if cerr := w.call(ctx, func() { v, err = w.StartGame(p) }); cerr != nil {
		return GameView{}, cerr
	}
	return v, err
}

func (w *World) RequestSnapshot(ctx context.Context) (GameView, error) {
	var v GameView
	if err := w.call(ctx, func() { v = w.Snapshot() }); err != nil {
		return GameView{}, err
	}
	return v, nil
}

func (w *World) RequestAdvance(ctx context.Context) (TurnReport, error) {
	var (
		r   TurnReport
		err error
	)
	if cerr := w.call(ctx, func() { r, err = w.AdvanceTurn() }); cerr != nil {
		return TurnReport{}, cerr
	}
	return r, err
}

// RequestReset archives the running game to the snapshot sink, if any, and
// returns the world to the setup phase.
func (w *World) RequestReset(ctx context.Context) error {
	return w.call(ctx, func() {
		if w.snapshotSink != nil && w.gameID != "" {
			select {
			case w.snapshotSink <- w.ExportSnapshot():
			default:
				w.logger.Printf("reset: snapshot sink backpressure")
			}
		}
		w.Reset()
	})
}

func (w *World) RequestAutoplay(ctx context.Context, on bool) error {
	return w.call(ctx, func() { w.autoplay = on })
}

func (w *World) RequestCatalogue(ctx context.Context) ([]catalogs.ActionDef, error) {
	var defs []catalogs.ActionDef
	if err := w.call(ctx, func() { defs = w.ActionCatalogue() }); err != nil {
		return nil, err
	}
	return defs, nil
}

// RequestExport captures a full snapshot of the current game on the loop
// goroutine. It fails with ErrNotRunning when no game was ever started.
func (w *World) RequestExport(ctx context.Context) (snapshot.SnapshotV1, error) {
	var (
		snap snapshot.SnapshotV1
		err  error
	)
	cerr := w.call(ctx, func() {
		if w.gameID == "" {
			err = ErrNotRunning
			return
		}
		snap = w.ExportSnapshot()
	})
	if cerr != nil {
		return snapshot.SnapshotV1{}, cerr
	}
	return snap, err
}
