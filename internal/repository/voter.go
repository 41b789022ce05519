package repository

import (
	"context"
	"fmt"

	"costume-vote-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// VoterRepository handles database operations for voter eligibility records.
type VoterRepository struct {
	db *pgxpool.Pool
}

// NewVoterRepository creates a new voter repository.
func NewVoterRepository(db *pgxpool.Pool) *VoterRepository {
	return &VoterRepository{db: db}
}

// GetByPhone retrieves the eligibility record for a phone number. A phone
// that never voted has no record and maps to ErrNotFound.
func (r *VoterRepository) GetByPhone(ctx context.Context, phone string) (*models.Voter, error) {
	query := `
		SELECT phone, voted_round1, voted_final, updated_at
		FROM voters
		WHERE phone = $1
	`
	var v models.Voter
	err := r.db.QueryRow(ctx, query, phone).Scan(&v.Phone, &v.VotedRound1, &v.VotedFinal, &v.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get voter: %w", err)
	}
	return &v, nil
}

// VotedInRound reports whether the phone has the participation flag set
// for the given round. Unknown phones have voted in nothing.
func (r *VoterRepository) VotedInRound(ctx context.Context, phone string, round int) (bool, error) {
	column := "voted_round1"
	if round == models.RoundFinal {
		column = "voted_final"
	}
	query := `SELECT COALESCE((SELECT ` + column + ` FROM voters WHERE phone = $1), FALSE)`
	var voted bool
	if err := r.db.QueryRow(ctx, query, phone).Scan(&voted); err != nil {
		return false, fmt.Errorf("failed to check voter round flag: %w", err)
	}
	return voted, nil
}
