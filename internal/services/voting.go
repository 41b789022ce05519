package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"costume-vote-backend/internal/models"
	"costume-vote-backend/internal/phone"
	"costume-vote-backend/internal/repository"

	"github.com/google/uuid"
)

// VotingService is the voting rule engine: it validates a submission
// against the current phase, prior votes and entry ownership, then commits
// it atomically through the vote store.
type VotingService struct {
	entries EntryStore
	votes   VoteStore
	voters  VoterStore
	phases  PhaseStore
}

// NewVotingService creates a new voting service.
func NewVotingService(entries EntryStore, votes VoteStore, voters VoterStore, phases PhaseStore) *VotingService {
	return &VotingService{
		entries: entries,
		votes:   votes,
		voters:  voters,
		phases:  phases,
	}
}

// VoteSubmission is one point allocation within a ballot.
type VoteSubmission struct {
	EntryID string `json:"entry_id"`
	Points  int    `json:"points"`
}

// SubmitBallot validates and commits a complete ballot for the given
// round. Checks run fail-fast in a fixed order, each failure returning a
// distinct Rejection; nothing is written unless every check passes, and
// the commit itself is all-or-nothing.
//
// The pre-check for a prior ballot and the insert are not one store
// transaction; the unique (voter, round, points) constraint is the
// authoritative backstop, surfaced here as ErrAlreadyVoted.
func (s *VotingService) SubmitBallot(ctx context.Context, voterPhone string, round int, subs []VoteSubmission) ([]*models.Vote, error) {
	normalized, err := phone.Normalize(voterPhone)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	if err := s.checkRoundOpen(ctx, normalized, round); err != nil {
		return nil, err
	}

	for _, sub := range subs {
		if !legalPoints(sub.Points) {
			return nil, ErrInvalidPoints
		}
	}

	if _, err := s.resolveTargets(ctx, normalized, round, subs); err != nil {
		return nil, err
	}

	voted, err := s.votes.HasVoted(ctx, normalized, round)
	if err != nil {
		return nil, fmt.Errorf("failed to check prior ballot: %w", err)
	}
	if voted {
		return nil, ErrAlreadyVoted
	}

	if err := checkBallotShape(round, subs); err != nil {
		return nil, err
	}

	now := time.Now()
	votes := make([]*models.Vote, 0, len(subs))
	for _, sub := range subs {
		votes = append(votes, &models.Vote{
			ID:         uuid.New().String(),
			VoterPhone: normalized,
			EntryID:    sub.EntryID,
			Round:      round,
			Points:     sub.Points,
			CreatedAt:  now,
		})
	}

	if err := s.votes.CommitBallot(ctx, votes); err != nil {
		if errors.Is(err, repository.ErrDuplicateVote) {
			return nil, ErrAlreadyVoted
		}
		return nil, fmt.Errorf("failed to commit ballot: %w", err)
	}
	return votes, nil
}

// CastSingleVote is the one-at-a-time submission mode: the voter places
// a single point value on one entry, and may later move that value to a
// different entry while the round is open. At most one vote per point
// value per voter exists at any time.
func (s *VotingService) CastSingleVote(ctx context.Context, voterPhone string, round int, entryID string, points int) (*models.Vote, error) {
	normalized, err := phone.Normalize(voterPhone)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	if err := s.checkRoundOpen(ctx, normalized, round); err != nil {
		return nil, err
	}

	if !legalPoints(points) {
		return nil, ErrInvalidPoints
	}
	switch round {
	case models.RoundFirst:
		if !contains(models.FirstRoundPoints, points) {
			return nil, ErrBallotPoints
		}
	case models.RoundFinal:
		if points != 1 {
			return nil, ErrFinalPoints
		}
	}

	if _, err := s.resolveTargets(ctx, normalized, round, []VoteSubmission{{EntryID: entryID, Points: points}}); err != nil {
		return nil, err
	}

	vote := &models.Vote{
		ID:         uuid.New().String(),
		VoterPhone: normalized,
		EntryID:    entryID,
		Round:      round,
		Points:     points,
		CreatedAt:  time.Now(),
	}
	if err := s.votes.MoveVote(ctx, vote); err != nil {
		if errors.Is(err, repository.ErrDuplicateVote) {
			return nil, ErrAlreadyVoted
		}
		return nil, fmt.Errorf("failed to cast vote: %w", err)
	}
	return vote, nil
}

// VoterStatus reports which rounds a phone number has participated in.
// A phone that never voted gets a zero record, not an error; clients use
// this to show whether the finals ballot is open to them.
func (s *VotingService) VoterStatus(ctx context.Context, voterPhone string) (*models.Voter, error) {
	normalized, err := phone.Normalize(voterPhone)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	voter, err := s.voters.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.Voter{Phone: normalized}, nil
		}
		return nil, fmt.Errorf("failed to get voter: %w", err)
	}
	return voter, nil
}

// checkRoundOpen enforces the phase gate and, for the final round, the
// earlier-round participation requirement.
func (s *VotingService) checkRoundOpen(ctx context.Context, voterPhone string, round int) error {
	state, err := s.phases.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get phase state: %w", err)
	}

	switch round {
	case models.RoundFirst:
		if state.Phase != models.PhaseVoting {
			return ErrVotingClosed
		}
	case models.RoundFinal:
		if state.Phase != models.PhaseFinals {
			return ErrVotingClosed
		}
		voted, err := s.voters.VotedInRound(ctx, voterPhone, models.RoundFirst)
		if err != nil {
			return fmt.Errorf("failed to check voter eligibility: %w", err)
		}
		if !voted {
			return ErrNotEligible
		}
	default:
		return ErrUnknownRound
	}
	return nil
}

// resolveTargets loads the targeted entries and checks existence,
// distinctness, self-vote and (for the final round) finalist status.
func (s *VotingService) resolveTargets(ctx context.Context, voterPhone string, round int, subs []VoteSubmission) ([]*models.Entry, error) {
	ids := make([]string, 0, len(subs))
	seen := make(map[string]bool, len(subs))
	for _, sub := range subs {
		if !seen[sub.EntryID] {
			seen[sub.EntryID] = true
			ids = append(ids, sub.EntryID)
		}
	}

	entries, err := s.entries.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entries: %w", err)
	}
	// Duplicate targets and missing targets both fail the count match.
	if len(entries) != len(subs) {
		return nil, ErrEntriesNotFound
	}

	for _, entry := range entries {
		if entry.OwnerPhone == voterPhone {
			return nil, ErrSelfVote
		}
		if round == models.RoundFinal && !entry.Finalist {
			return nil, ErrNotFinalist
		}
	}
	return entries, nil
}

func checkBallotShape(round int, subs []VoteSubmission) error {
	switch round {
	case models.RoundFirst:
		if len(subs) != 3 {
			return ErrBallotSize
		}
		points := []int{subs[0].Points, subs[1].Points, subs[2].Points}
		sort.Sort(sort.Reverse(sort.IntSlice(points)))
		for i, p := range models.FirstRoundPoints {
			if points[i] != p {
				return ErrBallotPoints
			}
		}
	case models.RoundFinal:
		if len(subs) != 1 {
			return ErrFinalBallotSize
		}
		if subs[0].Points != 1 {
			return ErrFinalPoints
		}
	}
	return nil
}

func legalPoints(p int) bool {
	return contains(models.AllowedPoints, p)
}

func contains(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
