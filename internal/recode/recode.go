// Package recode delivers items through the older Recode mod, which listens
// on a plain TCP socket and answers each request with one JSON status.
package recode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

const DefaultAddr = "localhost:31372"

// DefaultSource is shown in the game's toast when no source is given.
const DefaultSource = "dfcode"

var ErrRejected = errors.New("recode rejected item")

type request struct {
	Type   string `json:"type"`
	Data   string `json:"data"`
	Source string `json:"source"`
}

type status struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Send gives the player item (SNBT). ctx bounds the whole exchange; without
// a deadline it is capped at five seconds.
func Send(ctx context.Context, addr, item, source string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	if source == "" {
		source = DefaultSource
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("recode dial %s: %w", addr, err)
	}
	defer conn.Close()
	if _, ok := ctx.Deadline(); !ok {
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	}
	// Cancellation unblocks the read; ctx.Err is set by then.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	b, err := json.Marshal(request{Type: "nbt", Data: item, Source: source})
	if err != nil {
		return err
	}
	if _, err := conn.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("recode send: %w", err)
	}

	var st status
	if err := json.NewDecoder(conn).Decode(&st); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("recode status: %w", err)
	}
	if st.Status == "error" {
		return fmt.Errorf("%w: %s", ErrRejected, st.Error)
	}
	return nil
}
