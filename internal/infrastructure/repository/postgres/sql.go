package postgres

import (
	"database/sql"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports a unique constraint failure. An empty constraint matches any.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func encodeJSON(value any) (string, error) {
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "", errors.Wrap(err, "encode jsonb")
	}
	return string(encoded), nil
}

func decodeJSON(raw string, target any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	if err := sonic.Unmarshal([]byte(raw), target); err != nil {
		return errors.Wrap(err, "decode jsonb")
	}
	return nil
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
