package handlers

import (
	"net/http"

	"costume-vote-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 10 << 20 // 10 MB

// EntryHandler handles costume entry HTTP requests.
type EntryHandler struct {
	entryService *services.EntryService
	hub          *services.LiveHub
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(entryService *services.EntryService, hub *services.LiveHub) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		hub:          hub,
	}
}

// Submit handles POST /api/v1/entries (multipart form).
func (h *EntryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	req := services.SubmitRequest{
		Phone:       r.FormValue("phone"),
		DisplayName: r.FormValue("display_name"),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Filename:    header.Filename,
		Image:       file,
	}
	if req.Phone == "" || req.DisplayName == "" || req.Title == "" {
		respondError(w, "phone, display_name and title are required", http.StatusBadRequest)
		return
	}

	entry, err := h.entryService.Submit(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("phone", req.Phone).Msg("Failed to submit entry")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("entry_id", entry.ID).
		Str("title", entry.Title).
		Msg("Entry submitted")
	h.hub.Broadcast(services.EventEntryCreated, entry)

	respondJSON(w, entry, http.StatusCreated)
}

// Leaderboard handles GET /api/v1/entries.
func (h *EntryHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entryService.Leaderboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list entries")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	}, http.StatusOK)
}

// Get handles GET /api/v1/entries/{id}.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.entryService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, entry, http.StatusOK)
}

// AdminUpdate handles PATCH /api/v1/admin/entries/{id}.
func (h *EntryHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fields services.UpdateFields
	if err := decodeJSON(r, &fields); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.entryService.AdminUpdate(r.Context(), id, fields)
	if err != nil {
		log.Error().Err(err).Str("entry_id", id).Msg("Failed to update entry")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, entry, http.StatusOK)
}

// AdminDelete handles DELETE /api/v1/admin/entries/{id}.
func (h *EntryHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.entryService.AdminDelete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("entry_id", id).Msg("Failed to delete entry")
		respondServiceError(w, err)
		return
	}

	h.hub.Broadcast(services.EventEntryDeleted, map[string]string{"entry_id": id})
	w.WriteHeader(http.StatusNoContent)
}
