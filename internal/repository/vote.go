package repository

import (
	"context"
	"fmt"
	"time"

	"costume-vote-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// VoteRepository handles database operations for vote rows.
type VoteRepository struct {
	db *pgxpool.Pool
}

// NewVoteRepository creates a new vote repository.
func NewVoteRepository(db *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{db: db}
}

// CommitBallot inserts all vote rows of one ballot, increments the score
// of each targeted entry by the allotted points and upserts the voter's
// participation flag for the round, all in a single transaction. Either
// the whole ballot commits or none of it does.
//
// A unique violation on (voter_phone, round, points) maps to
// ErrDuplicateVote; this is the race backstop when two submissions from
// the same voter pass the pre-check concurrently.
func (r *VoteRepository) CommitBallot(ctx context.Context, votes []*models.Vote) error {
	if len(votes) == 0 {
		return fmt.Errorf("empty ballot")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, v := range votes {
		_, err := tx.Exec(ctx, `
			INSERT INTO votes (id, voter_phone, entry_id, round, points, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, v.ID, v.VoterPhone, v.EntryID, v.Round, v.Points, v.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateVote
			}
			return fmt.Errorf("failed to insert vote: %w", err)
		}

		_, err = tx.Exec(ctx, `UPDATE entries SET score = score + $1, updated_at = $2 WHERE id = $3`,
			v.Points, v.CreatedAt, v.EntryID)
		if err != nil {
			return fmt.Errorf("failed to update entry score: %w", err)
		}
	}

	if err := upsertVoterFlag(ctx, tx, votes[0].VoterPhone, votes[0].Round, votes[0].CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateVote
		}
		return fmt.Errorf("failed to commit ballot: %w", err)
	}
	return nil
}

// MoveVote replaces the voter's existing vote for a given point value with
// a new target entry, keeping at most one vote per (voter, round, points)
// at all times. The old target's score is decremented and the new target's
// incremented in the same transaction.
func (r *VoteRepository) MoveVote(ctx context.Context, vote *models.Vote) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var prevEntryID string
	err = tx.QueryRow(ctx, `
		DELETE FROM votes
		WHERE voter_phone = $1 AND round = $2 AND points = $3
		RETURNING entry_id
	`, vote.VoterPhone, vote.Round, vote.Points).Scan(&prevEntryID)
	switch {
	case err == nil:
		_, err = tx.Exec(ctx, `UPDATE entries SET score = score - $1, updated_at = $2 WHERE id = $3`,
			vote.Points, vote.CreatedAt, prevEntryID)
		if err != nil {
			return fmt.Errorf("failed to revert entry score: %w", err)
		}
	case isNoRows(err):
		// first vote for this point value
	default:
		return fmt.Errorf("failed to clear prior vote: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO votes (id, voter_phone, entry_id, round, points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, vote.ID, vote.VoterPhone, vote.EntryID, vote.Round, vote.Points, vote.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateVote
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE entries SET score = score + $1, updated_at = $2 WHERE id = $3`,
		vote.Points, vote.CreatedAt, vote.EntryID)
	if err != nil {
		return fmt.Errorf("failed to update entry score: %w", err)
	}

	if err := upsertVoterFlag(ctx, tx, vote.VoterPhone, vote.Round, vote.CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateVote
		}
		return fmt.Errorf("failed to commit vote move: %w", err)
	}
	return nil
}

// HasVoted checks whether the voter already has any vote row for the round.
func (r *VoteRepository) HasVoted(ctx context.Context, voterPhone string, round int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM votes WHERE voter_phone = $1 AND round = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, voterPhone, round).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check prior vote: %w", err)
	}
	return exists, nil
}

func upsertVoterFlag(ctx context.Context, tx execer, voterPhone string, round int, now time.Time) error {
	column := "voted_round1"
	if round == models.RoundFinal {
		column = "voted_final"
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO voters (phone, `+column+`, updated_at)
		VALUES ($1, TRUE, $2)
		ON CONFLICT (phone) DO UPDATE SET `+column+` = TRUE, updated_at = $2
	`, voterPhone, now)
	if err != nil {
		return fmt.Errorf("failed to upsert voter flag: %w", err)
	}
	return nil
}
