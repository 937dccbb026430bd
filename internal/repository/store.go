package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the catalog reacts to.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var (
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// DBTX is the subset of the pgx API the repositories use. *pgxpool.Pool,
// *pgx.Conn and pgx.Tx all satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// translate maps constraint violations onto the package sentinels while
// keeping the original *pgconn.PgError in the chain.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case uniqueViolation:
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	case foreignKeyViolation:
		return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
	default:
		return err
	}
}

// setClause accumulates "column = $n" assignments for partial updates.
type setClause struct {
	assignments []string
	args        []any
}

func (s *setClause) add(column string, value any) {
	s.args = append(s.args, value)
	s.assignments = append(s.assignments, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setClause) empty() bool {
	return len(s.assignments) == 0
}

// build returns the SET list and the placeholder index for the WHERE key.
func (s *setClause) build(key any) (string, []any, int) {
	args := append(s.args, key)
	return strings.Join(s.assignments, ", "), args, len(args)
}

// escapeLike makes a user search term literal inside an ILIKE pattern.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
