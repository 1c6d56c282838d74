package anubis

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// isCircuitFailure counts only upstream outages against the breaker; a
// rejected token is a healthy response.
func isCircuitFailure(err error) bool {
	return err != nil && crerr.Is(err, errAnubisTransient)
}

// hashToken keys the principal cache; raw tokens are never stored.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// buildURL resolves the introspection endpoint. An absolute path wins over
// the base URL.
func buildURL(baseURL, path string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return baseURL + "/" + strings.TrimLeft(path, "/")
}
