package handlers

import (
	"errors"
	"net/http"
	"time"

	"costume-vote-backend/internal/models"
	"costume-vote-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PhaseHandler handles phase reads and the administrative contest
// transitions.
type PhaseHandler struct {
	phaseService *services.PhaseService
	adminService *services.AdminService
	hub          *services.LiveHub
}

// NewPhaseHandler creates a new phase handler.
func NewPhaseHandler(phaseService *services.PhaseService, adminService *services.AdminService, hub *services.LiveHub) *PhaseHandler {
	return &PhaseHandler{
		phaseService: phaseService,
		adminService: adminService,
		hub:          hub,
	}
}

// GetPhase handles GET /api/v1/phase.
func (h *PhaseHandler) GetPhase(w http.ResponseWriter, r *http.Request) {
	state, err := h.phaseService.GetPhase(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get phase state")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, state, http.StatusOK)
}

// LoginRequest exchanges the shared admin secret for a session token.
type LoginRequest struct {
	Secret string `json:"secret"`
}

// Login handles POST /api/v1/admin/login.
func (h *PhaseHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.adminService.IssueToken(req.Secret)
	if err != nil {
		if errors.Is(err, services.ErrSecretNotConfigured) {
			log.Error().Msg("Admin login attempted but no secret is configured")
			respondError(w, "admin secret not configured on server", http.StatusServiceUnavailable)
			return
		}
		respondError(w, "invalid admin credentials", http.StatusUnauthorized)
		return
	}

	respondJSON(w, map[string]string{"token": token}, http.StatusOK)
}

// SetPhaseRequest carries a phase transition. Legacy phase names are
// accepted and collapsed to the canonical enumeration.
type SetPhaseRequest struct {
	Phase         string     `json:"phase"`
	VotingOpensAt *time.Time `json:"voting_opens_at,omitempty"`
}

// SetPhase handles PUT /api/v1/admin/phase.
func (h *PhaseHandler) SetPhase(w http.ResponseWriter, r *http.Request) {
	var req SetPhaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.VotingOpensAt != nil {
		if _, err := h.phaseService.ScheduleVotingOpen(r.Context(), req.VotingOpensAt); err != nil {
			log.Error().Err(err).Msg("Failed to schedule voting open time")
			respondServiceError(w, err)
			return
		}
	}

	if req.Phase == "" {
		state, err := h.phaseService.GetPhase(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, state, http.StatusOK)
		return
	}

	phase, err := models.ParsePhase(req.Phase)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := h.phaseService.SetPhase(r.Context(), phase)
	if err != nil {
		log.Error().Err(err).Str("phase", string(phase)).Msg("Failed to set phase")
		respondServiceError(w, err)
		return
	}

	h.hub.Broadcast(services.EventPhaseChange, state)
	respondJSON(w, state, http.StatusOK)
}

// TriggerFinals handles POST /api/v1/admin/finals.
func (h *PhaseHandler) TriggerFinals(w http.ResponseWriter, r *http.Request) {
	finalists, err := h.phaseService.TriggerFinals(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to trigger finals")
		respondServiceError(w, err)
		return
	}

	h.hub.Broadcast(services.EventFinalists, finalists)

	state, err := h.phaseService.GetPhase(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.hub.Broadcast(services.EventPhaseChange, state)

	respondJSON(w, map[string]interface{}{
		"finalists": finalists,
		"phase":     state,
	}, http.StatusOK)
}

// ResetAll handles POST /api/v1/admin/reset. Destructive; the admin
// console confirms with the operator before calling.
func (h *PhaseHandler) ResetAll(w http.ResponseWriter, r *http.Request) {
	if err := h.phaseService.ResetAll(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to reset contest")
		respondServiceError(w, err)
		return
	}

	h.hub.Broadcast(services.EventReset, nil)
	w.WriteHeader(http.StatusNoContent)
}
