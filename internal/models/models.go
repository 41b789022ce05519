package models

import (
	"fmt"
	"strings"
	"time"
)

// Phase is the canonical contest lifecycle stage.
type Phase string

const (
	PhaseUpload Phase = "upload"
	PhaseVoting Phase = "voting"
	PhaseFinals Phase = "finals"
	PhaseEnded  Phase = "ended"
)

// Ballot round identifiers stored on vote rows.
const (
	RoundFirst = 1
	RoundFinal = 2
)

// FinalistCount is how many top-scoring entries advance to the finals.
const FinalistCount = 3

// AllowedPoints is the legal point set across all rounds.
var AllowedPoints = []int{1, 8, 10, 12}

// FirstRoundPoints is the exact multiset a first-round ballot must carry,
// in rank order (Eurovision-style 12/10/8).
var FirstRoundPoints = []int{12, 10, 8}

// ParsePhase maps an external phase name to the canonical enumeration.
// Legacy spellings from older clients ("registration", "winners", upper-case
// forms) are accepted here and nowhere else.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upload", "registration":
		return PhaseUpload, nil
	case "voting":
		return PhaseVoting, nil
	case "finals":
		return PhaseFinals, nil
	case "ended", "winners":
		return PhaseEnded, nil
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// Entry represents a costume entry submitted by a participant.
type Entry struct {
	ID          string    `json:"id"`
	OwnerPhone  string    `json:"owner_phone"`
	DisplayName string    `json:"display_name"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url"`
	ImageKey    string    `json:"-"`
	Score       int       `json:"score"`
	Finalist    bool      `json:"finalist"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Vote is a single committed point allocation. Rows are immutable once
// inserted; only a full reset removes them.
type Vote struct {
	ID         string    `json:"id"`
	VoterPhone string    `json:"voter_phone"`
	EntryID    string    `json:"entry_id"`
	Round      int       `json:"round"`
	Points     int       `json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}

// Voter tracks which rounds a phone number has participated in; the
// first-round flag gates final-round eligibility.
type Voter struct {
	Phone       string    `json:"phone"`
	VotedRound1 bool      `json:"voted_round1"`
	VotedFinal  bool      `json:"voted_final"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PhaseState is the single global phase record.
type PhaseState struct {
	Phase           Phase      `json:"phase"`
	VotingOpensAt   *time.Time `json:"voting_opens_at,omitempty"`
	VotingStartedAt *time.Time `json:"voting_started_at,omitempty"`
	FinalsStartedAt *time.Time `json:"finals_started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
