package recode

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"
)

// listen serves one connection: it reads a request line and writes reply.
func listen(t *testing.T, reply string) (string, <-chan request) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan request, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, err := bufio.NewReader(conn).ReadBytes('\n')
		if err != nil {
			return
		}
		var req request
		if err := json.Unmarshal(line, &req); err == nil {
			got <- req
		}
		if reply != "" {
			_, _ = conn.Write([]byte(reply))
		} else {
			time.Sleep(time.Second)
		}
	}()
	return ln.Addr().String(), got
}

func TestSend_Success(t *testing.T) {
	addr, got := listen(t, `{"status":"success"}`)
	if err := Send(context.Background(), addr, `{Count:1b,id:"stone"}`, ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	req := <-got
	if req.Type != "nbt" || req.Data != `{Count:1b,id:"stone"}` || req.Source != DefaultSource {
		t.Fatalf("request = %+v", req)
	}
}

func TestSend_Rejected(t *testing.T) {
	addr, _ := listen(t, `{"status":"error","error":"not in dev mode"}`+"\n")
	err := Send(context.Background(), addr, `{id:"stone"}`, "tool")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if err.Error() != "recode rejected item: not in dev mode" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestSend_ContextDeadline(t *testing.T) {
	addr, _ := listen(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := Send(ctx, addr, `{id:"stone"}`, ""); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestSend_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	if err := Send(context.Background(), addr, `{id:"stone"}`, ""); err == nil {
		t.Fatalf("expected dial error")
	}
}
