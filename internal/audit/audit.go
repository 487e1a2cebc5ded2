package audit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const timeLayout = "2006-01-02 15:04:05"

// Log appends one timestamped line per teleport event. Paths ending in .zst
// are written as zstd frames; each open starts a new frame so restarts keep
// appending to a readable stream.
type Log struct {
	path string
	now  func() time.Time

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

type LogOpt func(*Log)

// WithClock replaces the clock used to stamp lines.
func WithClock(now func() time.Time) LogOpt {
	return func(l *Log) {
		l.now = now
	}
}

// Open creates the log file if needed and positions it for appending.
func Open(path string, opts ...LogOpt) (*Log, error) {
	l := &Log{
		path: path,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log %q: %w", path, err)
	}
	l.f = f

	var out io.Writer = f
	if Compressed(path) {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		l.enc = enc
		out = enc
	}
	l.w = bufio.NewWriter(out)

	return l, nil
}

// Compressed reports whether path selects the zstd format.
func Compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// Record writes msg as "YYYY-MM-DD HH:MM:SS - msg". Write failures are logged
// and otherwise ignored.
func (l *Log) Record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return
	}
	if err := l.writeLocked(msg); err != nil {
		slog.Warn("writing audit line", "path", l.path, "error", err)
	}
}

func (l *Log) writeLocked(msg string) error {
	line := fmt.Sprintf("%s - %s\n", l.now().Format(timeLayout), msg)
	if _, err := l.w.WriteString(line); err != nil {
		return err
	}
	if err := l.w.Flush(); err != nil {
		return err
	}
	if l.enc != nil {
		return l.enc.Flush()
	}
	return nil
}

// Start keeps the log open until ctx is done.
func (l *Log) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "audit log open", "path", l.path, "compressed", l.enc != nil)
	<-ctx.Done()
	return l.Close()
}

// Close flushes and closes the file. Later records are dropped.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}

	var err error
	if l.w != nil {
		err = l.w.Flush()
		l.w = nil
	}
	if l.enc != nil {
		if cerr := l.enc.Close(); err == nil {
			err = cerr
		}
		l.enc = nil
	}
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}

// ReadAll returns the lines of an audit log in either format.
func ReadAll(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if Compressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
