// Package keys builds cache keys for API responses.
//
// Keys keep a readable prefix in front of a hashed parameter part, so a whole
// family can be dropped with TTLCache.Invalidate("prefix*").
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Sep joins the readable parts of a key.
const Sep = ":"

// hashLen is how many hex digits of the digest are kept.
const hashLen = 16

/*
Generate returns prefix + ":" + a short digest of parts.

Parts are JSON encoded first, so maps hash the same regardless of insertion
order. Values that cannot be encoded fall back to their Go syntax representation.
With no parts the key is just the prefix.
*/
func Generate(prefix string, parts ...any) string {
	if len(parts) == 0 {
		return prefix
	}

	b, err := json.Marshal(parts)
	if err != nil {
		b = []byte(fmt.Sprintf("%#v", parts))
	}
	sum := sha256.Sum256(b)
	return prefix + Sep + hex.EncodeToString(sum[:])[:hashLen]
}

// User keys user-specific data. Everything for one user shares the "user:<id>" prefix.
func User(userID string, parts ...any) string {
	return Generate("user"+Sep+userID, parts...)
}

// Content keys the content library listing for an optional category and type.
func Content(category, typ string) string {
	return Generate("content", map[string]string{
		"category": category,
		"type":     typ,
	})
}

// Stats keys a statistics resource for a user over a number of days.
func Stats(resource, userID string, days int) string {
	return Generate("stats"+Sep+resource+Sep+userID, map[string]int{"days": days})
}

/*
Request keys an HTTP request as "METHOD path?query".
The query is encoded with sorted keys. The path is kept verbatim so
Invalidate("GET /users/42*") catches every cached variant of that resource.
*/
func Request(method, path string, query url.Values) string {
	k := strings.ToUpper(method) + " " + path
	if q := query.Encode(); q != "" {
		k += "?" + q
	}
	return k
}

// RequestPrefix is the Invalidate pattern matching every cached GET under path.
func RequestPrefix(path string) string {
	return Request("GET", path, nil) + "*"
}
