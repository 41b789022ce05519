package handlers

import (
	"net/http"

	"costume-vote-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// VotingHandler handles vote submission HTTP requests.
type VotingHandler struct {
	votingService *services.VotingService
	hub           *services.LiveHub
}

// NewVotingHandler creates a new voting handler.
func NewVotingHandler(votingService *services.VotingService, hub *services.LiveHub) *VotingHandler {
	return &VotingHandler{
		votingService: votingService,
		hub:           hub,
	}
}

// BallotRequest is a complete ballot submission.
type BallotRequest struct {
	Phone string                    `json:"phone"`
	Round int                       `json:"round"`
	Votes []services.VoteSubmission `json:"votes"`
}

// SingleVoteRequest places (or moves) one point value onto one entry.
type SingleVoteRequest struct {
	Phone   string `json:"phone"`
	Round   int    `json:"round"`
	EntryID string `json:"entry_id"`
	Points  int    `json:"points"`
}

// VoterStatus handles GET /api/v1/voters/{phone}.
func (h *VotingHandler) VoterStatus(w http.ResponseWriter, r *http.Request) {
	voter, err := h.votingService.VoterStatus(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, voter, http.StatusOK)
}

// SubmitBallot handles POST /api/v1/votes.
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	var req BallotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Phone == "" || len(req.Votes) == 0 {
		respondError(w, "phone and votes are required", http.StatusBadRequest)
		return
	}

	votes, err := h.votingService.SubmitBallot(r.Context(), req.Phone, req.Round, req.Votes)
	if err != nil {
		log.Warn().Err(err).
			Str("phone", req.Phone).
			Int("round", req.Round).
			Msg("Ballot rejected")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("voter", votes[0].VoterPhone).
		Int("round", req.Round).
		Int("votes", len(votes)).
		Msg("Ballot committed")
	h.hub.Broadcast(services.EventScoreUpdate, votes)

	respondJSON(w, map[string]interface{}{"votes": votes}, http.StatusCreated)
}

// CastSingleVote handles POST /api/v1/votes/single.
func (h *VotingHandler) CastSingleVote(w http.ResponseWriter, r *http.Request) {
	var req SingleVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Phone == "" || req.EntryID == "" {
		respondError(w, "phone and entry_id are required", http.StatusBadRequest)
		return
	}

	vote, err := h.votingService.CastSingleVote(r.Context(), req.Phone, req.Round, req.EntryID, req.Points)
	if err != nil {
		log.Warn().Err(err).
			Str("phone", req.Phone).
			Str("entry_id", req.EntryID).
			Int("points", req.Points).
			Msg("Vote rejected")
		respondServiceError(w, err)
		return
	}

	h.hub.Broadcast(services.EventScoreUpdate, []interface{}{vote})
	respondJSON(w, vote, http.StatusCreated)
}
