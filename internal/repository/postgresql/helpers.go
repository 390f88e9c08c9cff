package postgresql

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique violation, optionally on
// the named constraint or index.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// appendScope adds the visibility predicate of filter to whereClause and
// returns the updated clause, args and next placeholder index.
func appendScope(whereClause string, args []interface{}, argIndex int, filter scope.Filter, columns map[scope.Field]string) (string, []interface{}, int, error) {
	predicate, scopeArgs, err := filter.SQL(columns, argIndex)
	if err != nil {
		return "", nil, 0, fmt.Errorf("render scope filter: %w", err)
	}
	whereClause += " AND " + predicate
	args = append(args, scopeArgs...)
	return whereClause, args, argIndex + len(scopeArgs), nil
}
