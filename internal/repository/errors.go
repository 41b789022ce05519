package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// execer is the slice of pgx.Tx the repositories need for statements that
// run inside someone else's transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Sentinel errors mapped from store-level conditions. Services match on
// these to turn constraint violations into business rejections.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateVote   = errors.New("duplicate vote")
	ErrPhoneRegistered = errors.New("phone already registered")
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. The unique indexes are the authoritative backstop against
// check-then-insert races, so callers rely on this classification being
// exact rather than string-matched.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
