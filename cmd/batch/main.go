// Command batch plays a series of headless games and prints aggregate
// outcome statistics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"runegrid.ai/internal/sim/catalogs"
	"runegrid.ai/internal/sim/tuning"
	"runegrid.ai/internal/sim/world"
)

type batchConfig struct {
	Games    int
	BaseSeed uint64
	Workers  int
	Start    world.StartParams
}

type gameResult struct {
	Seed      uint64
	Turns     int
	Kind      string
	Winner    string
	Actions   int
	Fallbacks int
	Defects   int
	Idle      int
}

type summary struct {
	Games     int
	Turns     int
	Actions   int
	Fallbacks int
	Defects   int
	Idle      int
	Draws     int
	Kinds     map[string]int
	Wins      map[string]int
	Elapsed   time.Duration
	Results   []gameResult
}

func main() {
	var (
		games      = flag.Int("games", 20, "number of games to play")
		seed       = flag.Uint64("seed", 1, "seed of the first game; game i uses seed+i")
		workers    = flag.Int("workers", 4, "games played concurrently")
		grid       = flag.Int("grid", 30, "grid size")
		maxTurns   = flag.Int("max_turns", 200, "turn limit per game")
		teams      = flag.String("teams", "red:Aggressive,blue:Defensive,gold:Expansive,green:Mystic", "comma separated id[:trait] list")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		perGame    = flag.Bool("v", false, "print one line per game")
	)
	flag.Parse()

	specs, err := parseTeams(*teams)
	if err != nil {
		fmt.Fprintln(os.Stderr, "teams:", err)
		os.Exit(2)
	}
	cfg := batchConfig{
		Games:    *games,
		BaseSeed: *seed,
		Workers:  *workers,
		Start:    world.StartParams{GridSize: *grid, MaxTurns: *maxTurns, Teams: specs},
	}
	if err := world.ValidateStart(cfg.Start); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}

	sum, err := runBatch(context.Background(), cfg, cats, tune)
	if err != nil {
		fmt.Fprintln(os.Stderr, "batch:", err)
		os.Exit(1)
	}
	if *perGame {
		for _, r := range sum.Results {
			winner := r.Winner
			if winner == "" {
				winner = "-"
			}
			fmt.Printf("seed=%d turns=%d victory=%s winner=%s actions=%d fallbacks=%d defects=%d\n",
				r.Seed, r.Turns, r.Kind, winner, r.Actions, r.Fallbacks, r.Defects)
		}
	}
	fmt.Print(sum.Format())
	if sum.Defects > 0 {
		os.Exit(1)
	}
}

func parseTeams(s string) ([]world.TeamSpec, error) {
	var out []world.TeamSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, trait, _ := strings.Cut(part, ":")
		if id == "" {
			return nil, fmt.Errorf("empty team id in %q", part)
		}
		out = append(out, world.TeamSpec{ID: id, Trait: trait})
	}
	if len(out) == 0 {
		return nil, errors.New("no teams")
	}
	return out, nil
}

// runBatch plays cfg.Games games on a bounded worker pool. Results are
// stored by game index so the summary does not depend on scheduling.
func runBatch(ctx context.Context, cfg batchConfig, cats *catalogs.Catalogs, tune tuning.Tuning) (summary, error) {
	if cfg.Games <= 0 {
		return summary{}, errors.New("games must be > 0")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	started := time.Now()
	results := make([]gameResult, cfg.Games)
	errs := make([]error, cfg.Games)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx], errs[idx] = playGame(cfg.BaseSeed+uint64(idx), cfg.Start, cats, tune)
			}
		}()
	}
feed:
	for i := 0; i < cfg.Games; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return summary{}, err
	}
	if err := errors.Join(errs...); err != nil {
		return summary{}, err
	}

	sum := summary{Kinds: map[string]int{}, Wins: map[string]int{}, Results: results}
	for _, r := range results {
		sum.Games++
		sum.Turns += r.Turns
		sum.Actions += r.Actions
		sum.Fallbacks += r.Fallbacks
		sum.Defects += r.Defects
		sum.Idle += r.Idle
		sum.Kinds[r.Kind]++
		if r.Winner == "" {
			sum.Draws++
		} else {
			sum.Wins[r.Winner]++
		}
	}
	sum.Elapsed = time.Since(started)
	return sum, nil
}

func playGame(seed uint64, p world.StartParams, cats *catalogs.Catalogs, tune tuning.Tuning) (gameResult, error) {
	w, err := world.New(world.WorldConfig{Seed: seed, Tuning: tune}, cats, log.New(io.Discard, "", 0))
	if err != nil {
		return gameResult{}, err
	}
	p.Seed = seed
	if _, err := w.StartGame(p); err != nil {
		return gameResult{}, fmt.Errorf("seed %d: %w", seed, err)
	}
	res := gameResult{Seed: seed}
	for {
		rep, err := w.AdvanceTurn()
		if err != nil {
			return res, fmt.Errorf("seed %d turn %d: %w", seed, res.Turns+1, err)
		}
		res.Turns = rep.Turn
		for _, a := range rep.Actions {
			if a.ActionID == "" {
				res.Idle++
				continue
			}
			res.Actions++
			if a.Fallback {
				res.Fallbacks++
			}
			if a.Defect {
				res.Defects++
			}
		}
		if v := rep.Victory; v != nil {
			res.Kind = string(v.Kind)
			res.Winner = v.TeamID
			return res, nil
		}
	}
}

func (s summary) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "games=%s turns=%s actions=%s elapsed=%s",
		humanize.Comma(int64(s.Games)), humanize.Comma(int64(s.Turns)), humanize.Comma(int64(s.Actions)), s.Elapsed.Round(time.Millisecond))
	if secs := s.Elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(&b, " (%s)", humanize.SIWithDigits(float64(s.Turns)/secs, 1, "turns/s"))
	}
	b.WriteString("\n")
	if s.Actions > 0 {
		fmt.Fprintf(&b, "fallbacks=%s (%s%%) defects=%s idle=%s\n",
			humanize.Comma(int64(s.Fallbacks)),
			humanize.FtoaWithDigits(100*float64(s.Fallbacks)/float64(s.Actions), 1),
			humanize.Comma(int64(s.Defects)), humanize.Comma(int64(s.Idle)))
	}
	b.WriteString("victories:\n")
	for _, k := range sortedKeys(s.Kinds) {
		fmt.Fprintf(&b, "  %-10s %s\n", k, humanize.Comma(int64(s.Kinds[k])))
	}
	b.WriteString("wins:\n")
	for _, id := range sortedKeys(s.Wins) {
		fmt.Fprintf(&b, "  %-10s %s\n", id, humanize.Comma(int64(s.Wins[id])))
	}
	if s.Draws > 0 {
		fmt.Fprintf(&b, "  %-10s %s\n", "(draw)", humanize.Comma(int64(s.Draws)))
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
