package services

import (
	"context"
	"fmt"
	"time"

	"costume-vote-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// PhaseService is the phase controller: it owns reads and transitions of
// the single global phase record.
type PhaseService struct {
	phases  PhaseStore
	entries EntryStore
	blobs   BlobStore
}

// NewPhaseService creates a new phase service.
func NewPhaseService(phases PhaseStore, entries EntryStore, blobs BlobStore) *PhaseService {
	return &PhaseService{
		phases:  phases,
		entries: entries,
		blobs:   blobs,
	}
}

// GetPhase returns the current phase state. Side-effect free.
func (s *PhaseService) GetPhase(ctx context.Context) (*models.PhaseState, error) {
	return s.phases.Get(ctx)
}

// SetPhase forces the contest into the given phase, stamping the
// timestamp of the phase being entered. No transition validation: the
// operator may skip or rewind phases as an escape hatch.
func (s *PhaseService) SetPhase(ctx context.Context, phase models.Phase) (*models.PhaseState, error) {
	if err := s.phases.SetPhase(ctx, phase); err != nil {
		return nil, err
	}
	log.Info().Str("phase", string(phase)).Msg("Phase changed")
	return s.phases.Get(ctx)
}

// ScheduleVotingOpen stores the advisory countdown target for clients.
// Voting still opens only on an explicit SetPhase call.
func (s *PhaseService) ScheduleVotingOpen(ctx context.Context, t *time.Time) (*models.PhaseState, error) {
	if err := s.phases.SetVotingOpensAt(ctx, t); err != nil {
		return nil, err
	}
	return s.phases.Get(ctx)
}

// TriggerFinals promotes the current top scorers to finalists and flips
// the phase to finals as one operation. The ranking snapshot is a
// point-in-time editorial decision; a vote landing mid-call may or may
// not be reflected.
func (s *PhaseService) TriggerFinals(ctx context.Context) ([]*models.Entry, error) {
	all, err := s.entries.ListByRank(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	if len(all) < models.FinalistCount {
		return nil, ErrNotEnoughEntries
	}

	finalists, err := s.phases.PromoteFinalists(ctx, models.FinalistCount)
	if err != nil {
		return nil, fmt.Errorf("failed to promote finalists: %w", err)
	}

	log.Info().Int("finalists", len(finalists)).Msg("Finals triggered")
	return finalists, nil
}

// ResetAll wipes every vote, entry and voter record and returns the phase
// machine to the initial upload phase. Image blobs are deleted best-effort
// before the rows go; a blob failure is logged and never blocks the reset.
func (s *PhaseService) ResetAll(ctx context.Context) error {
	entries, err := s.entries.ListByRank(ctx)
	if err != nil {
		return fmt.Errorf("failed to list entries for reset: %w", err)
	}
	for _, entry := range entries {
		if entry.ImageKey == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, entry.ImageKey); err != nil {
			log.Warn().Err(err).
				Str("entry_id", entry.ID).
				Str("image_key", entry.ImageKey).
				Msg("Failed to delete image during reset, orphaning blob")
		}
	}

	if err := s.phases.Reset(ctx); err != nil {
		return err
	}
	log.Info().Int("entries_removed", len(entries)).Msg("Contest reset")
	return nil
}
