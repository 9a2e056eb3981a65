// Package codeclient talks to the CodeClient companion mod over a websocket.
// Commands run one at a time; the only goroutine is the transport's reader,
// which exists so a timed-out read does not break the connection.
package codeclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultURL is where the companion listens.
const DefaultURL = "ws://localhost:31375"

// Transport carries one command line per message in each direction.
type Transport interface {
	Send(line string) error
	// Receive waits for the next message. A timeout <= 0 waits until ctx is
	// done. It returns ErrTimeout when the timeout elapses first.
	Receive(ctx context.Context, timeout time.Duration) (string, error)
	// Drain removes and returns every message already received, without
	// waiting.
	Drain() []string
	Close() error
}

// WSTransport is a Transport over a websocket. A single reader goroutine
// queues inbound frames, so a receive timeout leaves the connection usable
// and a late reply stays queued until the next Receive or Drain.
type WSTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	inbox   chan string
	done    chan struct{}
	closing chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	readErr   error
	closed    bool
}

func DialWebSocket(ctx context.Context, url string) (*WSTransport, error) {
	if url == "" {
		url = DefaultURL
	}
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := d.DialContext(ctx, url, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return newWSTransport(conn), nil
}

func newWSTransport(conn *websocket.Conn) *WSTransport {
	t := &WSTransport{
		conn:    conn,
		inbox:   make(chan string, 64),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *WSTransport) readLoop() {
	defer close(t.done)
	for {
		// Text and binary frames are both treated as text replies.
		_, msg, err := t.conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			t.readErr = err
			t.mu.Unlock()
			return
		}
		select {
		case t.inbox <- string(msg):
		case <-t.closing:
			return
		}
	}
}

func (t *WSTransport) Send(line string) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := t.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func (t *WSTransport) Receive(ctx context.Context, timeout time.Duration) (string, error) {
	select {
	case msg := <-t.inbox:
		return msg, nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case msg := <-t.inbox:
		return msg, nil
	case <-t.done:
		select {
		case msg := <-t.inbox:
			return msg, nil
		default:
		}
		return "", t.lostErr()
	case <-expired:
		return "", ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *WSTransport) Drain() []string {
	var out []string
	for {
		select {
		case msg := <-t.inbox:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func (t *WSTransport) lostErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.readErr == nil {
		return ErrClosed
	}
	return fmt.Errorf("%w: %v", ErrClosed, t.readErr)
}

// Close is safe to call more than once.
func (t *WSTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		close(t.closing)

		t.writeMu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		t.writeMu.Unlock()
		err = t.conn.Close()
		<-t.done
	})
	return err
}
