package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateSchema creates all tables needed by the application and seeds the
// single phase-state row. Safe to call on every startup.
func CreateSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
-- Costume entries, one per phone
CREATE TABLE IF NOT EXISTS entries (
    id UUID PRIMARY KEY,
    owner_phone TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL,
    image_key TEXT NOT NULL,
    score INTEGER NOT NULL DEFAULT 0 CHECK (score >= 0),
    finalist BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_score ON entries (score DESC, created_at ASC);

-- Committed point allocations. The unique index is the hard concurrency
-- guarantee: any two valid ballots from the same voter in the same round
-- collide on at least one point value.
CREATE TABLE IF NOT EXISTS votes (
    id UUID PRIMARY KEY,
    voter_phone TEXT NOT NULL,
    entry_id UUID NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    round INTEGER NOT NULL,
    points INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    UNIQUE (voter_phone, round, points)
);

CREATE INDEX IF NOT EXISTS idx_votes_entry_id ON votes (entry_id);

-- Per-phone participation flags, used to gate the final round
CREATE TABLE IF NOT EXISTS voters (
    phone TEXT PRIMARY KEY,
    voted_round1 BOOLEAN NOT NULL DEFAULT FALSE,
    voted_final BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMPTZ NOT NULL
);

-- Single global phase record
CREATE TABLE IF NOT EXISTS phase_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    phase TEXT NOT NULL,
    voting_opens_at TIMESTAMPTZ,
    voting_started_at TIMESTAMPTZ,
    finals_started_at TIMESTAMPTZ,
    ended_at TIMESTAMPTZ,
    updated_at TIMESTAMPTZ NOT NULL
);

INSERT INTO phase_state (id, phase, updated_at)
VALUES (1, 'upload', NOW())
ON CONFLICT (id) DO NOTHING;
`
