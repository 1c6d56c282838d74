package app

import (
	"net/url"
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	sqlWhitespace   = regexp.MustCompile(`\s+`)
	sqlLineComments = regexp.MustCompile(`--[^\n]*`)
)

// postgresDSN accepts both URL and key=value connection strings.
type postgresDSN struct {
	raw string
	url *url.URL
}

func parsePostgresDSN(raw string) postgresDSN {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return postgresDSN{raw: raw}
	}
	return postgresDSN{raw: raw, url: parsed}
}

// normalizeDBURL returns the connection string lib/pq is given. Poolers in
// transaction mode need binary prepared results disabled.
func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	dsn := parsePostgresDSN(raw)
	if !disablePreparedBinaryResult {
		return dsn.raw
	}

	if dsn.url == nil {
		if strings.Contains(dsn.raw, "disable_prepared_binary_result=") {
			return dsn.raw
		}
		return strings.TrimSpace(dsn.raw + " disable_prepared_binary_result=yes")
	}

	query := dsn.url.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		dsn.url.RawQuery = query.Encode()
	}
	return dsn.url.String()
}

func dbNameFromURL(raw string) string {
	dsn := parsePostgresDSN(raw)
	if dsn.url != nil {
		if name := strings.TrimSpace(strings.TrimPrefix(dsn.url.Path, "/")); name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(dsn.raw) {
		name, ok := strings.CutPrefix(token, "dbname=")
		if !ok {
			continue
		}
		if name = strings.Trim(strings.TrimSpace(name), `"'`); name != "" {
			return name
		}
	}

	return ""
}

// formatDBQueryForTrace collapses a statement onto one line for span
// attributes, dropping line comments and capping the length.
func formatDBQueryForTrace(query string) string {
	query = sqlLineComments.ReplaceAllString(query, " ")
	query = strings.TrimSpace(sqlWhitespace.ReplaceAllString(query, " "))
	if len(query) <= maxTracedQueryLength {
		return query
	}
	return query[:maxTracedQueryLength] + "..."
}
