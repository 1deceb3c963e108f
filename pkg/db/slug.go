package db

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

const maxSlugBody = 80

// Slug derives the stable file name used for a URL's page and record.
// Query strings and fragments are ignored so tracking parameters map to the
// same record; the hash suffix keeps truncated paths distinct.
func Slug(rawURL string) string {
	host, path := rawURL, ""
	if u, err := url.Parse(strings.TrimSpace(rawURL)); err == nil && u.Host != "" {
		host, path = strings.ToLower(u.Hostname()), u.EscapedPath()
	}
	path = strings.TrimSuffix(path, "/")

	body := strings.ReplaceAll(host, ".", "_") + strings.ReplaceAll(path, "/", "_")
	body = sanitize(body)
	if len(body) > maxSlugBody {
		body = body[:maxSlugBody]
	}

	sum := sha256.Sum256([]byte(host + path))
	return body + "-" + hex.EncodeToString(sum[:])[:8]
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
