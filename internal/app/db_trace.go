package app

import (
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	_ "github.com/lib/pq"
)

const maxTracedQueryLength = 512

var queryWhitespaceRegex = regexp.MustCompile(`\s+`)

// openTracedDB opens Postgres through otelsqlx so every repository query becomes a span.
func openTracedDB(dsn string) (*sqlx.DB, error) {
	opts := []otelsql.Option{
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	}
	if name := dbNameFromURL(dsn); name != "" {
		opts = append(opts, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Open("postgres", dsn, opts...)
	if err != nil {
		return nil, err
	}
	otelsql.ReportDBStatsMetrics(db.DB, opts...)
	return db, nil
}

// formatDBQueryForTrace collapses whitespace in the multi-line querybuilder output and
// caps the length stored on the span.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}
