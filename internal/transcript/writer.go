// Package transcript keeps a compressed JSONL record of companion sessions.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"dfcode.dev/internal/codeclient"
)

const hourLayout = "2006-01-02-15"

// Writer appends JSON values, one per line, to zstd files that rotate
// every UTC hour: <dir>/<prefix>-YYYY-MM-DD-HH.jsonl.zst.
type Writer struct {
	dir    string
	prefix string
	now    func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(dir, prefix string) *Writer {
	return &Writer{dir: dir, prefix: prefix, now: time.Now}
}

// Write appends v and flushes it through the encoder so the block reaches
// the file before Write returns.
func (w *Writer) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	hour := now.UTC().Format(hourLayout)
	if hour != w.curHour || w.w == nil {
		if err := w.rotateLocked(hour, w.Path(now)); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Path returns the file that entries written at t go to.
func (w *Writer) Path(t time.Time) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, t.UTC().Format(hourLayout)))
}

func (w *Writer) rotateLocked(hour, path string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		err = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	return err
}

// SessionLog records session traffic. It satisfies codeclient.Recorder.
type SessionLog struct {
	w  *Writer
	id string
}

type sessionEntry struct {
	Session string `json:"session"`
	codeclient.Entry
}

// NewSessionLog writes under dir/sessions. id tags every entry so several
// runs in one hour can be told apart.
func NewSessionLog(dir, id string) *SessionLog {
	return &SessionLog{w: NewWriter(filepath.Join(dir, "sessions"), "session"), id: id}
}

func (l *SessionLog) Record(e codeclient.Entry) error {
	return l.w.Write(sessionEntry{Session: l.id, Entry: e})
}

func (l *SessionLog) Close() error { return l.w.Close() }

// Record is one line of a session file.
type Record struct {
	Session string
	codeclient.Entry
}

// ReadFile decodes every record in a session file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) ([]Record, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Record
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e sessionEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("transcript line %d: %w", len(out)+1, err)
		}
		out = append(out, Record{Session: e.Session, Entry: e.Entry})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
