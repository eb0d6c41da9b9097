package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"runegrid.ai/internal/persistence/archive"
	persistlog "runegrid.ai/internal/persistence/log"
	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/catalogs"
	"runegrid.ai/internal/sim/tuning"
	"runegrid.ai/internal/sim/world"
	"runegrid.ai/internal/transport/api"
	"runegrid.ai/internal/transport/stream"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "arena", "world id (used in logs and metrics labels)")
		seed       = flag.Uint64("seed", 0, "default game seed when a start request carries none (0 = random)")
		configDir  = flag.String("configs", "./configs", "config directory (actions.json override)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the SQLite game index")
		autoplay   = flag.Bool("autoplay", false, "advance running games on the turn ticker")

		snapPath   = flag.String("snapshot", "", "path to snapshot to resume (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", false, "resume the newest snapshot in the data dir (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	// Optional: read-model index backend (does not affect sim determinism).
	idx, sqliteIdx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	w, err := world.New(world.WorldConfig{
		ID:                 *worldID,
		Seed:               *seed,
		Tuning:             tune,
		SnapshotEveryTurns: tune.SnapshotEveryTurns,
		TurnIntervalMs:     tune.TurnIntervalMs,
	}, cats, log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds))
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(*dataDir)
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if err := w.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed game %s from snapshot=%s turn=%d", snap.Header.GameID, filepath.Base(snapshotToLoad), snap.Header.Turn)
	}

	ctx, cancel := signalContext()
	defer cancel()

	turnLog := persistlog.NewTurnLogger(*dataDir)
	eventLog := persistlog.NewEventLogger(*dataDir)
	defer turnLog.Close()
	defer eventLog.Close()
	w.SetTurnLogger(multiTurnLogger{a: turnLog, b: idx})
	w.SetEventLogger(multiEventLogger{a: eventLog, b: idx})

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 4)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := snapshotPath(*dataDir, snap.Header)
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
				if dst, ok, err := archive.ArchiveFinishedGame(*dataDir, path, snap); err != nil {
					logger.Printf("archive game %s: %v", snap.Header.GameID, err)
				} else if ok {
					logger.Printf("archived game %s -> %s", snap.Header.GameID, dst)
				}
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()
	if *autoplay {
		if err := w.RequestAutoplay(ctx, true); err != nil {
			logger.Printf("autoplay: %v", err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(w, *worldID, idx))

	var gameIndex api.GameIndex
	if sqliteIdx != nil {
		gameIndex = sqliteIdx
	}
	apiLogger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmicroseconds)
	api.NewServer(w, gameIndex, apiLogger).Register(mux)
	mux.HandleFunc("/api/stream", stream.NewServer(w, log.New(os.Stdout, "[stream] ", log.LstdFlags|log.Lmicroseconds)).Handler())

	if envBool("RG_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID string                 `json:"world_id"`
				Metrics world.WorldMetrics     `json:"metrics"`
				TurnLog persistlog.WriterStats `json:"turn_log"`
				Index   any                    `json:"index,omitempty"`
			}{
				WorldID: *worldID,
				Metrics: w.Metrics(),
				TurnLog: turnLog.Stats(),
			}
			if idx != nil {
				resp.Index = idx.Stats()
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			if r.Method != http.MethodPost {
				http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
			defer cancel()
			snap, err := w.RequestExport(ctx)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusConflict)
				return
			}
			path := snapshotPath(*dataDir, snap.Header)
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			if idx != nil {
				idx.RecordSnapshot(path, snap)
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "game_id": snap.Header.GameID, "turn": snap.Header.Turn, "path": path})
		})
	} else {
		logger.Printf("admin endpoints disabled (RG_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("RG_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func metricsHandler(w *world.World, worldID string, idx runtimeIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := w.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP runegrid_game_turn Current turn of the running game.\n")
		fmt.Fprintf(rw, "# TYPE runegrid_game_turn gauge\n")
		fmt.Fprintf(rw, "runegrid_game_turn{world=%q} %d\n", worldID, m.Turn)

		fmt.Fprintf(rw, "# HELP runegrid_game_running Whether a game is running.\n")
		fmt.Fprintf(rw, "# TYPE runegrid_game_running gauge\n")
		running := 0
		if m.Phase == "RUNNING" {
			running = 1
		}
		fmt.Fprintf(rw, "runegrid_game_running{world=%q} %d\n", worldID, running)

		fmt.Fprintf(rw, "# HELP runegrid_game_entities Current entity counts.\n")
		fmt.Fprintf(rw, "# TYPE runegrid_game_entities gauge\n")
		fmt.Fprintf(rw, "runegrid_game_entities{world=%q,kind=%q} %d\n", worldID, "active_teams", m.ActiveTeams)
		fmt.Fprintf(rw, "runegrid_game_entities{world=%q,kind=%q} %d\n", worldID, "points", m.Points)
		fmt.Fprintf(rw, "runegrid_game_entities{world=%q,kind=%q} %d\n", worldID, "lines", m.Lines)
		fmt.Fprintf(rw, "runegrid_game_entities{world=%q,kind=%q} %d\n", worldID, "structures", m.Structures)

		fmt.Fprintf(rw, "# HELP runegrid_world_queue_depth Request channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE runegrid_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "runegrid_world_queue_depth{world=%q} %d\n", worldID, m.QueueDepth)

		fmt.Fprintf(rw, "# HELP runegrid_world_step_ms Last turn step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE runegrid_world_step_ms gauge\n")
		fmt.Fprintf(rw, "runegrid_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

		fmt.Fprintf(rw, "# HELP runegrid_stats_window Rolling window stats.\n")
		fmt.Fprintf(rw, "# TYPE runegrid_stats_window gauge\n")
		fmt.Fprintf(rw, "runegrid_stats_window{world=%q,metric=%q} %d\n", worldID, "turns", m.StatsWindow.Turns)
		fmt.Fprintf(rw, "runegrid_stats_window{world=%q,metric=%q} %d\n", worldID, "actions", m.StatsWindow.Actions)
		fmt.Fprintf(rw, "runegrid_stats_window{world=%q,metric=%q} %d\n", worldID, "fallbacks", m.StatsWindow.Fallbacks)
		fmt.Fprintf(rw, "runegrid_stats_window{world=%q,metric=%q} %d\n", worldID, "defects", m.StatsWindow.Defects)
		fmt.Fprintf(rw, "runegrid_stats_window{world=%q,metric=%q} %d\n", worldID, "idle", m.StatsWindow.Idle)
		fmt.Fprintf(rw, "runegrid_stats_window{world=%q,metric=%q} %d\n", worldID, "upkeep", m.StatsWindow.Upkeep)

		fmt.Fprintf(rw, "# HELP runegrid_stats_window_turns Rolling window size in turns.\n")
		fmt.Fprintf(rw, "# TYPE runegrid_stats_window_turns gauge\n")
		fmt.Fprintf(rw, "runegrid_stats_window_turns{world=%q} %d\n", worldID, m.StatsWindowTurns)

		if idx != nil {
			st := idx.Stats()
			fmt.Fprintf(rw, "# HELP runegrid_index_queue_depth Index writer queue depth.\n")
			fmt.Fprintf(rw, "# TYPE runegrid_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "runegrid_index_queue_depth %d\n", st.QueueDepth)
			fmt.Fprintf(rw, "# HELP runegrid_index_dropped_total Index writes dropped under backpressure.\n")
			fmt.Fprintf(rw, "# TYPE runegrid_index_dropped_total counter\n")
			fmt.Fprintf(rw, "runegrid_index_dropped_total{kind=%q} %d\n", "turn", st.DropTurnTotal)
			fmt.Fprintf(rw, "runegrid_index_dropped_total{kind=%q} %d\n", "event", st.DropEventTotal)
			fmt.Fprintf(rw, "runegrid_index_dropped_total{kind=%q} %d\n", "snapshot", st.DropSnapshotTotal)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func snapshotPath(dataDir string, h snapshot.Header) string {
	game := h.GameID
	if game == "" {
		game = "unstarted"
	}
	return filepath.Join(dataDir, "snapshots", game, fmt.Sprintf("%06d.snap.zst", h.Turn))
}

// latestSnapshot returns the most recently written snapshot under
// <data>/snapshots, or "" when there is none.
func latestSnapshot(dataDir string) string {
	root := filepath.Join(dataDir, "snapshots")
	var (
		best     string
		bestTime time.Time
	)
	games, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	for _, g := range games {
		if !g.IsDir() {
			continue
		}
		ents, err := os.ReadDir(filepath.Join(root, g.Name()))
		if err != nil {
			continue
		}
		for _, e := range ents {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".snap.zst") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			path := filepath.Join(root, g.Name(), e.Name())
			if best == "" || info.ModTime().After(bestTime) || (info.ModTime().Equal(bestTime) && path > best) {
				best, bestTime = path, info.ModTime()
			}
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
