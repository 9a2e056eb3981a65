package transcript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dfcode.dev/internal/codeclient"
)

func TestSessionLog_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewSessionLog(dir, "run-1")
	at := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)
	l.w.now = func() time.Time { return at }

	entries := []codeclient.Entry{
		{Time: at, Dir: "send", Line: "size"},
		{Time: at.Add(time.Millisecond), Dir: "recv", Line: "basic"},
	}
	for _, e := range entries {
		if err := l.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	recs, err := ReadFile(l.w.Path(at))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	for i, r := range recs {
		if r.Session != "run-1" || r.Dir != entries[i].Dir || r.Line != entries[i].Line || !r.Time.Equal(entries[i].Time) {
			t.Fatalf("record %d = %+v", i, r)
		}
	}
}

func TestWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "session")
	at := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return at }

	if err := w.Write(map[string]string{"line": "a"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	at = at.Add(2 * time.Minute)
	if err := w.Write(map[string]string{"line": "b"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{"session-2026-03-01-10.jsonl.zst", "session-2026-03-01-11.jsonl.zst"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	// Path names the file rotation opened, whatever the caller's zone.
	local := at.In(time.FixedZone("UTC+5", 5*3600))
	if got, want := w.Path(local), filepath.Join(dir, "session-2026-03-01-11.jsonl.zst"); got != want {
		t.Fatalf("Path = %s want %s", got, want)
	}
}

func TestWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, id := range []string{"first", "second"} {
		l := NewSessionLog(dir, id)
		l.w.now = func() time.Time { return at }
		if err := l.Record(codeclient.Entry{Time: at, Dir: "send", Line: "scopes"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	recs, err := ReadFile(NewSessionLog(dir, "").w.Path(at))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(recs) != 2 || recs[0].Session != "first" || recs[1].Session != "second" {
		t.Fatalf("records = %+v", recs)
	}
}
