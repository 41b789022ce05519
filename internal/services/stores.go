package services

import (
	"context"
	"io"
	"time"

	"costume-vote-backend/internal/models"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them in production; tests use in-memory fakes that emulate the same
// uniqueness constraints.

// EntryStore is the transactional store of costume entries.
type EntryStore interface {
	Create(ctx context.Context, entry *models.Entry) error
	GetByID(ctx context.Context, id string) (*models.Entry, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Entry, error)
	ListByRank(ctx context.Context) ([]*models.Entry, error)
	Update(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, id string) error
	PhoneExists(ctx context.Context, ownerPhone string) (bool, error)
}

// VoteStore is the transactional store of vote rows. CommitBallot and
// MoveVote are atomic: vote rows, score adjustments and the voter
// participation flag commit together or not at all.
type VoteStore interface {
	CommitBallot(ctx context.Context, votes []*models.Vote) error
	MoveVote(ctx context.Context, vote *models.Vote) error
	HasVoted(ctx context.Context, voterPhone string, round int) (bool, error)
}

// VoterStore reads voter eligibility records.
type VoterStore interface {
	GetByPhone(ctx context.Context, phone string) (*models.Voter, error)
	VotedInRound(ctx context.Context, phone string, round int) (bool, error)
}

// BlobStore stores costume images under generated keys and serves them
// back through publicly resolvable URLs.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// PhaseStore holds the single global phase record and the transitions
// that touch it.
type PhaseStore interface {
	Get(ctx context.Context) (*models.PhaseState, error)
	SetPhase(ctx context.Context, phase models.Phase) error
	SetVotingOpensAt(ctx context.Context, t *time.Time) error
	PromoteFinalists(ctx context.Context, n int) ([]*models.Entry, error)
	Reset(ctx context.Context) error
}
