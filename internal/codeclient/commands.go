package codeclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dfcode.dev/internal/itemnbt"
	"dfcode.dev/internal/template"
)

// Mode is the player's current plot mode.
type Mode string

const (
	ModeSpawn Mode = "spawn"
	ModePlay  Mode = "play"
	ModeDev   Mode = "dev"
	ModeBuild Mode = "build"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.TrimSpace(s)); m {
	case ModeSpawn, ModePlay, ModeDev, ModeBuild:
		return m, nil
	}
	return "", fmt.Errorf("%w: mode %q", ErrUnexpectedResponse, s)
}

// PlotSize is the size class of the current plot.
type PlotSize string

const (
	PlotBasic   PlotSize = "basic"
	PlotLarge   PlotSize = "large"
	PlotMassive PlotSize = "massive"
	PlotMega    PlotSize = "mega"
)

func ParsePlotSize(s string) (PlotSize, error) {
	switch p := PlotSize(strings.TrimSpace(s)); p {
	case PlotBasic, PlotLarge, PlotMassive, PlotMega:
		return p, nil
	}
	return "", fmt.Errorf("%w: plot size %q", ErrUnexpectedResponse, s)
}

// Give puts an item (SNBT) into the player's inventory.
func (s *Session) Give(ctx context.Context, item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifyLocked(ctx, "give "+item)
}

// GiveTemplate gives the player a template item holding t.
func (s *Session) GiveTemplate(ctx context.Context, t template.Template, author string) error {
	item, err := itemnbt.TemplateItem(t, author)
	if err != nil {
		return err
	}
	return s.Give(ctx, item)
}

// QueryScopes asks the companion which scopes are authorized and adopts
// the answer.
func (s *Session) QueryScopes(ctx context.Context) (Scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryScopesLocked(ctx)
}

func (s *Session) queryScopesLocked(ctx context.Context) (Scope, error) {
	msg, err := s.callLocked(ctx, "scopes", s.cfg.Timeout)
	if err != nil {
		return 0, fmt.Errorf("scopes: %w", err)
	}
	s.scopes = ParseScopes(msg)
	s.log.Printf("scopes=%q", s.scopes.String())
	return s.scopes, nil
}

// RequestScopes asks the player to grant scopes. Approval happens in game,
// so timeout should leave the player time to answer; <= 0 waits until ctx
// is done. It reports whether the grant was acknowledged. A refusal or a
// timeout leaves the current scopes unchanged and is not an error.
func (s *Session) RequestScopes(ctx context.Context, want Scope, timeout time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sendLocked("scopes " + strings.Join(want.Names(), " ")); err != nil {
		return false, err
	}
	msg, err := s.recvLocked(ctx, timeout)
	if errors.Is(err, ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !strings.Contains(msg, "auth") {
		return false, nil
	}
	s.scopes = want | ScopeDefault
	s.log.Printf("scopes granted=%q", s.scopes.String())
	return true, nil
}

// Token returns an opaque token for the currently authorized scopes.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, err := s.callLocked(ctx, "token", s.cfg.Timeout)
	if err != nil {
		return "", fmt.Errorf("token: %w", err)
	}
	return msg, nil
}

// Authenticate presents a token from an earlier session and, when accepted,
// refreshes the authorized scopes.
func (s *Session) Authenticate(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, err := s.callLocked(ctx, "token "+token, s.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	switch {
	case msg == "invalid token":
		return ErrInvalidToken
	case strings.Contains(msg, "auth"):
		_, err := s.queryScopesLocked(ctx)
		return err
	}
	return fmt.Errorf("%w: token reply %q", ErrUnexpectedResponse, msg)
}

// Inventory returns the player's items as SNBT compounds.
func (s *Session) Inventory(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(ScopeInventory); err != nil {
		return nil, err
	}
	msg, err := s.callLocked(ctx, "inv", s.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("inv: %w", err)
	}
	return itemnbt.SplitList(msg)
}

// SetInventory replaces the player's inventory with items (SNBT compounds).
func (s *Session) SetInventory(ctx context.Context, items []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(ScopeInventory); err != nil {
		return err
	}
	return s.notifyLocked(ctx, "setinv ["+strings.Join(items, ",")+"]")
}

// Spawn moves the player to the codespace spawn.
func (s *Session) Spawn(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(ScopeMovement); err != nil {
		return err
	}
	return s.sendLocked("spawn")
}

func (s *Session) Mode(ctx context.Context) (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(ScopeMovement); err != nil {
		return "", err
	}
	msg, err := s.callLocked(ctx, "mode", s.cfg.Timeout)
	if err != nil {
		return "", fmt.Errorf("mode: %w", err)
	}
	return ParseMode(msg)
}

// SetMode switches the player's mode. The companion does not confirm; call
// Mode to check.
func (s *Session) SetMode(ctx context.Context, m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(ScopeMovement); err != nil {
		return err
	}
	if _, err := ParseMode(string(m)); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	return s.sendLocked("mode " + string(m))
}

// PlotTemplates scans the plot and returns every template on it. The
// companion answers only after scanning, so pass a generous timeout
// (<= 0 waits until ctx is done).
func (s *Session) PlotTemplates(ctx context.Context, timeout time.Duration) ([]template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(ScopeReadPlot); err != nil {
		return nil, err
	}
	msg, err := s.callLocked(ctx, "scan", timeout)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	var out []template.Template
	for i, seg := range strings.Split(msg, "\n") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		t, err := template.Decompress(seg)
		if err != nil {
			return nil, fmt.Errorf("scan: template %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Session) PlotSize(ctx context.Context) (PlotSize, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(ScopeReadPlot); err != nil {
		return "", err
	}
	msg, err := s.callLocked(ctx, "size", s.cfg.Timeout)
	if err != nil {
		return "", fmt.Errorf("size: %w", err)
	}
	return ParsePlotSize(msg)
}

// Clear removes all code from the plot.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(ScopeClearPlot); err != nil {
		return err
	}
	return s.sendLocked("clear")
}
