// Package log writes append-only, hourly rotated, zstd-compressed JSONL
// streams of turn records and game lifecycle events.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"runegrid.ai/internal/sim/world"
)

// SegmentFunc names the file segment a record written at t belongs to.
type SegmentFunc func(t time.Time) string

// Hourly is the default segmentation: one file per UTC hour.
func Hourly(t time.Time) string { return t.UTC().Format("2006-01-02-15") }

// RotatingWriter appends JSON records, one per line, to
// `<dir>/<prefix>-<segment>.jsonl.zst`, starting a new file whenever the
// segment changes. Reopening an existing segment appends a new zstd frame.
type RotatingWriter struct {
	dir     string
	prefix  string
	segment SegmentFunc
	now     func() time.Time

	mu      sync.Mutex
	current string
	file    *os.File
	zw      *zstd.Encoder
	buf     *bufio.Writer

	records  uint64
	segments uint64
}

// WriterStats counts what a writer has produced since it was created.
type WriterStats struct {
	Records  uint64 `json:"records"`
	Segments uint64 `json:"segments"`
	Current  string `json:"current,omitempty"`
}

func NewRotatingWriter(dir, prefix string, segment SegmentFunc) *RotatingWriter {
	if segment == nil {
		segment = Hourly
	}
	return &RotatingWriter{dir: dir, prefix: prefix, segment: segment, now: time.Now}
}

func (w *RotatingWriter) Write(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: encode record: %w", w.prefix, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if seg := w.segment(w.now()); seg != w.current || w.buf == nil {
		if err := w.openLocked(seg); err != nil {
			return err
		}
	}
	line = append(line, '\n')
	if _, err := w.buf.Write(line); err != nil {
		return err
	}
	w.records++
	return w.buf.Flush()
}

func (w *RotatingWriter) Stats() WriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := WriterStats{Records: w.records, Segments: w.segments}
	if w.file != nil {
		st.Current = w.path(w.current)
	}
	return st
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *RotatingWriter) openLocked(seg string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path(seg), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.file, w.zw, w.buf = f, zw, bufio.NewWriterSize(zw, 64*1024)
	w.current = seg
	w.segments++
	return nil
}

// closeLocked flushes and ends the zstd frame; the frame is only complete,
// and readable to the end, after this runs.
func (w *RotatingWriter) closeLocked() error {
	if w.file == nil {
		return nil
	}
	var err error
	if ferr := w.buf.Flush(); ferr != nil {
		err = ferr
	}
	if cerr := w.zw.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := w.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	w.file, w.zw, w.buf = nil, nil, nil
	return err
}

func (w *RotatingWriter) path(seg string) string {
	return filepath.Join(w.dir, w.prefix+"-"+seg+".jsonl.zst")
}

// TurnLogger writes one JSONL entry per resolved turn to
// `<data>/turns/turns-<hour>.jsonl.zst`.
type TurnLogger struct{ w *RotatingWriter }

func NewTurnLogger(dataDir string) *TurnLogger {
	return &TurnLogger{w: NewRotatingWriter(filepath.Join(dataDir, "turns"), "turns", Hourly)}
}

func (l *TurnLogger) WriteTurn(v world.TurnLogEntry) error { return l.w.Write(v) }
func (l *TurnLogger) Stats() WriterStats                   { return l.w.Stats() }
func (l *TurnLogger) Close() error                         { return l.w.Close() }

// EventLogger writes game lifecycle events (start, finish, reset).
type EventLogger struct{ w *RotatingWriter }

func NewEventLogger(dataDir string) *EventLogger {
	return &EventLogger{w: NewRotatingWriter(filepath.Join(dataDir, "games"), "games", Hourly)}
}

func (l *EventLogger) WriteEvent(v world.GameEvent) error { return l.w.Write(v) }
func (l *EventLogger) Close() error                       { return l.w.Close() }

// ReadJSONL streams the decompressed lines of one rotated file.
func ReadJSONL(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}
