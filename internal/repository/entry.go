package repository

import (
	"context"
	"errors"
	"fmt"

	"costume-vote-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EntryRepository handles database operations for costume entries.
type EntryRepository struct {
	db *pgxpool.Pool
}

// NewEntryRepository creates a new entry repository.
func NewEntryRepository(db *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{db: db}
}

const entryColumns = `id, owner_phone, display_name, title, description, image_url, image_key, score, finalist, created_at, updated_at`

func scanEntry(row pgx.Row) (*models.Entry, error) {
	var e models.Entry
	err := row.Scan(
		&e.ID, &e.OwnerPhone, &e.DisplayName, &e.Title, &e.Description,
		&e.ImageURL, &e.ImageKey, &e.Score, &e.Finalist, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new entry. The owner_phone unique constraint is the
// backstop against two concurrent submissions from the same phone; a
// violation maps to ErrPhoneRegistered.
func (r *EntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.OwnerPhone, entry.DisplayName, entry.Title, entry.Description,
		entry.ImageURL, entry.ImageKey, entry.Score, entry.Finalist, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPhoneRegistered
		}
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`
	entry, err := scanEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// GetByIDs retrieves the entries matching the given ids. Missing ids are
// simply absent from the result; the caller compares counts.
func (r *EntryRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// ListByRank retrieves all entries ordered by score descending, oldest
// first among ties.
func (r *EntryRepository) ListByRank(ctx context.Context) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries ORDER BY score DESC, created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// Update modifies the editable fields of an entry.
func (r *EntryRepository) Update(ctx context.Context, entry *models.Entry) error {
	query := `
		UPDATE entries
		SET display_name = $1, title = $2, description = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query,
		entry.DisplayName, entry.Title, entry.Description, entry.UpdatedAt, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an entry; vote rows cascade at the store level.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PhoneExists checks whether a phone number already owns an entry.
func (r *EntryRepository) PhoneExists(ctx context.Context, ownerPhone string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM entries WHERE owner_phone = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, ownerPhone).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check phone existence: %w", err)
	}
	return exists, nil
}
