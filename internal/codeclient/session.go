package codeclient

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout is how long a command waits for its reply.
const DefaultTimeout = 100 * time.Millisecond

// Entry is one line that crossed the connection.
type Entry struct {
	Time time.Time `json:"time"`
	Dir  string    `json:"dir"` // "send" or "recv"
	Line string    `json:"line"`
}

// Recorder receives every sent and received line.
type Recorder interface {
	Record(Entry) error
}

type Config struct {
	URL      string
	Timeout  time.Duration
	Logger   *log.Logger
	Recorder Recorder
}

// Session is a client of the companion process over one persistent
// connection. It tracks the authorized scopes and gates every command on
// them before anything is written.
type Session struct {
	cfg Config
	log *log.Logger

	mu     sync.Mutex
	conn   Transport
	scopes Scope
	batch  placement
	closed bool
}

// Dial opens a websocket connection to the companion.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	conn, err := DialWebSocket(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	s := NewSession(conn, cfg)
	s.log.Printf("connected url=%s timeout=%s", cfg.URL, s.cfg.Timeout)
	return s, nil
}

// NewSession wraps an already open transport.
func NewSession(conn Transport, cfg Config) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		cfg:    cfg,
		log:    logger,
		conn:   conn,
		scopes: ScopeDefault,
	}
}

// Authorized returns the scopes the session currently holds.
func (s *Session) Authorized() Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scopes
}

// Timeout returns the per-command reply timeout.
func (s *Session) Timeout() time.Duration { return s.cfg.Timeout }

// Close releases the connection. Calling it again is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.batch = placement{}
	return s.conn.Close()
}

func (s *Session) requireLocked(scope Scope) error {
	if !s.scopes.Has(scope) {
		return &ScopeError{Required: scope}
	}
	return nil
}

func (s *Session) record(dir, line string) {
	if s.cfg.Recorder == nil {
		return
	}
	if err := s.cfg.Recorder.Record(Entry{Time: time.Now().UTC(), Dir: dir, Line: line}); err != nil {
		s.log.Printf("transcript: %v", err)
	}
}

// sendLocked writes line. Replies still queued from earlier commands that
// timed out are dropped first so they cannot answer this one.
func (s *Session) sendLocked(line string) error {
	if s.closed {
		return ErrClosed
	}
	for _, stale := range s.conn.Drain() {
		s.record("recv", stale)
		s.log.Printf("dropped stale reply %q before %q", stale, commandName(line))
	}
	if err := s.conn.Send(line); err != nil {
		return err
	}
	s.record("send", line)
	return nil
}

// commandName is the first word of line; envelopes and items are not logged.
func commandName(line string) string {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i]
	}
	return line
}

func (s *Session) recvLocked(ctx context.Context, timeout time.Duration) (string, error) {
	if s.closed {
		return "", ErrClosed
	}
	msg, err := s.conn.Receive(ctx, timeout)
	if err != nil {
		return "", err
	}
	s.record("recv", msg)
	return msg, nil
}

// callLocked sends line and waits for exactly one reply. A timeout is an error.
func (s *Session) callLocked(ctx context.Context, line string, timeout time.Duration) (string, error) {
	if err := s.sendLocked(line); err != nil {
		return "", err
	}
	return s.recvLocked(ctx, timeout)
}

// notifyLocked sends line and waits for a possible refusal. Silence until
// the timeout counts as success.
func (s *Session) notifyLocked(ctx context.Context, line string) error {
	if err := s.sendLocked(line); err != nil {
		return err
	}
	msg, err := s.recvLocked(ctx, s.cfg.Timeout)
	if errors.Is(err, ErrTimeout) {
		return nil
	}
	if err != nil {
		return err
	}
	if msg == "not creative mode" {
		return ErrNotCreative
	}
	return nil
}
