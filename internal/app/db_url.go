package app

import (
	"net/url"
	"strings"

	"github.com/lib/pq"
)

const preparedBinaryParam = "disable_prepared_binary_result"

// NormalizeDBURL adds disable_prepared_binary_result=yes unless the URL already sets it.
// Key/value DSNs are returned as given.
func NormalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	q := u.Query()
	if q.Has(preparedBinaryParam) {
		return raw
	}
	q.Set(preparedBinaryParam, "yes")
	u.RawQuery = q.Encode()
	return u.String()
}

// dbNameFromURL extracts the database name for span attributes. URLs are converted to the
// key/value form by lib/pq first so both DSN styles share one parser.
func dbNameFromURL(raw string) string {
	dsn := strings.TrimSpace(raw)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		converted, err := pq.ParseURL(dsn)
		if err != nil {
			return ""
		}
		dsn = converted
	}
	for _, field := range strings.Fields(dsn) {
		key, value, ok := strings.Cut(field, "=")
		if ok && key == "dbname" {
			return strings.Trim(value, `"'`)
		}
	}
	return ""
}
