package codeclient

import (
	"context"
	"fmt"

	"dfcode.dev/internal/template"
)

// PlaceMode decides how a placement batch lays templates out.
type PlaceMode string

const (
	// PlaceCompact places templates one after another with no gap.
	PlaceCompact PlaceMode = "compact"
	// PlaceSwap replaces templates that already exist and places the rest.
	PlaceSwap PlaceMode = "swap"
)

// placement is the open batch. The companion buffers queued templates and
// places them all on "place go".
type placement struct {
	mode   PlaceMode
	queued int
}

func (p placement) open() bool { return p.queued > 0 }

// QueuePlacement adds t to the current batch, starting one in mode if none
// is open. Every template in a batch shares the batch's mode.
func (s *Session) QueuePlacement(ctx context.Context, mode PlaceMode, t template.Template) error {
	if mode != PlaceCompact && mode != PlaceSwap {
		return fmt.Errorf("place: unknown mode %q", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(ScopeWriteCode); err != nil {
		return err
	}
	if s.batch.open() && s.batch.mode != mode {
		return fmt.Errorf("%w: batch is %s, got %s", ErrPlacementMode, s.batch.mode, mode)
	}
	env, err := t.Compress()
	if err != nil {
		return fmt.Errorf("place: %w", err)
	}
	if !s.batch.open() {
		if err := s.sendLocked("place " + string(mode)); err != nil {
			return err
		}
		s.batch.mode = mode
	}
	if err := s.sendLocked("place " + env); err != nil {
		return err
	}
	s.batch.queued++
	return nil
}

// ExecutePlacements places every queued template and closes the batch. The
// companion does not report per-template failures.
func (s *Session) ExecutePlacements(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(ScopeWriteCode); err != nil {
		return err
	}
	if err := s.sendLocked("place go"); err != nil {
		return err
	}
	if s.batch.queued > 0 {
		s.log.Printf("placed batch mode=%s templates=%d", s.batch.mode, s.batch.queued)
	}
	s.batch = placement{}
	return nil
}

// PlaceAll queues every template in one batch and executes it. Envelopes
// are checked before anything is sent, so an oversized template aborts the
// batch without partial output.
func (s *Session) PlaceAll(ctx context.Context, mode PlaceMode, templates ...template.Template) error {
	for i, t := range templates {
		if _, err := t.Compress(); err != nil {
			return fmt.Errorf("place: template %d: %w", i, err)
		}
	}
	for i, t := range templates {
		if err := s.QueuePlacement(ctx, mode, t); err != nil {
			return fmt.Errorf("place: template %d: %w", i, err)
		}
	}
	return s.ExecutePlacements(ctx)
}

// PendingPlacements reports the open batch's mode and size.
func (s *Session) PendingPlacements() (PlaceMode, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch.mode, s.batch.queued
}
