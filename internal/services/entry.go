package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"costume-vote-backend/internal/models"
	"costume-vote-backend/internal/phone"
	"costume-vote-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EntryService handles costume entry submission, the public leaderboard
// and admin moderation.
type EntryService struct {
	entries EntryStore
	phases  PhaseStore
	blobs   BlobStore
}

// NewEntryService creates a new entry service.
func NewEntryService(entries EntryStore, phases PhaseStore, blobs BlobStore) *EntryService {
	return &EntryService{
		entries: entries,
		phases:  phases,
		blobs:   blobs,
	}
}

// SubmitRequest carries the multipart fields of an entry submission.
type SubmitRequest struct {
	Phone       string
	DisplayName string
	Title       string
	Description string
	Filename    string
	Image       io.Reader
}

// Submit registers a new costume entry. One entry per phone: the
// duplicate check runs before any blob work, so the common rejection
// uploads nothing; the store's unique constraint backstops the race, and
// losing the race deletes the just-uploaded blob best-effort.
func (s *EntryService) Submit(ctx context.Context, req SubmitRequest) (*models.Entry, error) {
	state, err := s.phases.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get phase state: %w", err)
	}
	if state.Phase != models.PhaseUpload {
		return nil, ErrUploadsClosed
	}

	normalized, err := phone.Normalize(req.Phone)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	exists, err := s.entries.PhoneExists(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if exists {
		return nil, ErrPhoneRegistered
	}

	now := time.Now()
	key := imageKey(normalized, req.Filename, now)
	url, err := s.blobs.Upload(ctx, key, contentTypeFor(req.Filename), req.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	entry := &models.Entry{
		ID:          uuid.New().String(),
		OwnerPhone:  normalized,
		DisplayName: req.DisplayName,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    url,
		ImageKey:    key,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrPhoneRegistered) {
			// Lost the race to a concurrent submission from the same
			// phone; clean up the blob we just uploaded.
			if delErr := s.blobs.Delete(ctx, key); delErr != nil {
				log.Warn().Err(delErr).Str("image_key", key).Msg("Failed to delete orphaned image")
			}
			return nil, ErrPhoneRegistered
		}
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return entry, nil
}

// Leaderboard returns all entries ranked by score.
func (s *EntryService) Leaderboard(ctx context.Context) ([]*models.Entry, error) {
	return s.entries.ListByRank(ctx)
}

// Get returns a single entry.
func (s *EntryService) Get(ctx context.Context, id string) (*models.Entry, error) {
	return s.entries.GetByID(ctx, id)
}

// UpdateFields are the entry attributes an admin may edit. Nil means
// leave unchanged.
type UpdateFields struct {
	DisplayName *string `json:"display_name"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// AdminUpdate edits an entry's display fields.
func (s *EntryService) AdminUpdate(ctx context.Context, id string, fields UpdateFields) (*models.Entry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fields.DisplayName != nil {
		entry.DisplayName = *fields.DisplayName
	}
	if fields.Title != nil {
		entry.Title = *fields.Title
	}
	if fields.Description != nil {
		entry.Description = *fields.Description
	}
	entry.UpdatedAt = time.Now()

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AdminDelete removes an entry. The row delete is the authoritative
// action; the image blob delete is best-effort and an orphaned blob is
// logged, never fatal.
func (s *EntryService) AdminDelete(ctx context.Context, id string) error {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.entries.Delete(ctx, id); err != nil {
		return err
	}

	if entry.ImageKey != "" {
		if err := s.blobs.Delete(ctx, entry.ImageKey); err != nil {
			log.Warn().Err(err).
				Str("entry_id", id).
				Str("image_key", entry.ImageKey).
				Msg("Failed to delete entry image, orphaning blob")
		}
	}

	log.Info().Str("entry_id", id).Str("owner_phone", entry.OwnerPhone).Msg("Entry deleted")
	return nil
}

// imageKey derives the blob key from the owner phone and submission time,
// preserving the original file extension.
func imageKey(ownerPhone, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("entries/%s/%d%s", strings.TrimPrefix(ownerPhone, "+"), now.UnixNano(), ext)
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "image/jpeg"
}
