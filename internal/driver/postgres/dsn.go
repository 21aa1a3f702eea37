package postgres

import (
	"fmt"
	"net/url"
	"strings"
)

// dsnFromURL validates a postgres:// connection URL and extracts the
// database name. Unlike MySQL's URL form, lib/pq accepts the URL directly as
// a DSN, so no reshaping is required beyond defaulting sslmode for local
// development connections that omit it.
func dsnFromURL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("postgres: invalid connection URL: %w", err)
	}

	dbName := strings.TrimPrefix(u.Path, "/")

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()

	return u.String(), dbName, nil
}
