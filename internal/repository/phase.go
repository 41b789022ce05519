package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"costume-vote-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PhaseRepository handles the single global phase-state row and the
// cross-table transitions that hang off it (finals promotion, full reset).
type PhaseRepository struct {
	db *pgxpool.Pool
}

// NewPhaseRepository creates a new phase repository.
func NewPhaseRepository(db *pgxpool.Pool) *PhaseRepository {
	return &PhaseRepository{db: db}
}

// Get retrieves the current phase state.
func (r *PhaseRepository) Get(ctx context.Context) (*models.PhaseState, error) {
	query := `
		SELECT phase, voting_opens_at, voting_started_at, finals_started_at, ended_at, updated_at
		FROM phase_state
		WHERE id = 1
	`
	var s models.PhaseState
	err := r.db.QueryRow(ctx, query).Scan(
		&s.Phase, &s.VotingOpensAt, &s.VotingStartedAt, &s.FinalsStartedAt, &s.EndedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get phase state: %w", err)
	}
	return &s, nil
}

// SetPhase sets the current phase and stamps the timestamp field of the
// phase being entered. No transition validation: the admin console may
// force any phase at any time.
func (r *PhaseRepository) SetPhase(ctx context.Context, phase models.Phase) error {
	now := time.Now()
	query := `
		UPDATE phase_state
		SET phase = $1,
		    voting_started_at = CASE WHEN $1 = 'voting' THEN $2 ELSE voting_started_at END,
		    finals_started_at = CASE WHEN $1 = 'finals' THEN $2 ELSE finals_started_at END,
		    ended_at = CASE WHEN $1 = 'ended' THEN $2 ELSE ended_at END,
		    updated_at = $2
		WHERE id = 1
	`
	if _, err := r.db.Exec(ctx, query, string(phase), now); err != nil {
		return fmt.Errorf("failed to set phase: %w", err)
	}
	return nil
}

// SetVotingOpensAt stores the advisory scheduled voting-open time used by
// client countdowns. It does not flip the phase by itself.
func (r *PhaseRepository) SetVotingOpensAt(ctx context.Context, t *time.Time) error {
	query := `UPDATE phase_state SET voting_opens_at = $1, updated_at = $2 WHERE id = 1`
	if _, err := r.db.Exec(ctx, query, t, time.Now()); err != nil {
		return fmt.Errorf("failed to set voting open time: %w", err)
	}
	return nil
}

// PromoteFinalists clears all finalist flags, flags the top-n entries by
// score and transitions the phase to finals, in one transaction. The
// ranking snapshot and the phase flip commit together; a vote landing
// mid-transition sees either the old or the new world, never a half flip.
// Returns the promoted entries in rank order.
func (r *PhaseRepository) PromoteFinalists(ctx context.Context, n int) ([]*models.Entry, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	if _, err := tx.Exec(ctx, `UPDATE entries SET finalist = FALSE, updated_at = $1 WHERE finalist`, now); err != nil {
		return nil, fmt.Errorf("failed to clear finalist flags: %w", err)
	}

	rows, err := tx.Query(ctx, `
		UPDATE entries SET finalist = TRUE, updated_at = $2
		WHERE id IN (
			SELECT id FROM entries ORDER BY score DESC, created_at ASC LIMIT $1
		)
		RETURNING `+entryColumns+`
	`, n, now)
	if err != nil {
		return nil, fmt.Errorf("failed to flag finalists: %w", err)
	}
	var finalists []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan finalist: %w", err)
		}
		finalists = append(finalists, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating finalists: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE phase_state SET phase = 'finals', finals_started_at = $1, updated_at = $1 WHERE id = 1
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to set finals phase: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit finals promotion: %w", err)
	}

	sort.Slice(finalists, func(i, j int) bool {
		if finalists[i].Score != finalists[j].Score {
			return finalists[i].Score > finalists[j].Score
		}
		return finalists[i].CreatedAt.Before(finalists[j].CreatedAt)
	})
	return finalists, nil
}

// Reset wipes all vote, entry and voter rows and returns the phase record
// to the initial upload phase with every timestamp cleared.
func (r *PhaseRepository) Reset(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range []string{
		`DELETE FROM votes`,
		`DELETE FROM entries`,
		`DELETE FROM voters`,
	} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE phase_state
		SET phase = 'upload', voting_opens_at = NULL, voting_started_at = NULL,
		    finals_started_at = NULL, ended_at = NULL, updated_at = $1
		WHERE id = 1
	`, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reset phase state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}
