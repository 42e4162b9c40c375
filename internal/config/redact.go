package config

import (
	"regexp"
	"strings"
)

const redacted = "***"

// keywordPassword matches the password setting of a keyword/value
// connection string, quoted or not.
var keywordPassword = regexp.MustCompile(`(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)

// RedactURL hides the password in a PostgreSQL connection string. Both
// the URL and the keyword/value forms are understood. URLs are handled
// textually, so a password is hidden even when the URL does not parse.
func RedactURL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return keywordPassword.ReplaceAllString(raw, "${1}"+redacted)
	}

	end := strings.IndexAny(rest, "/?#")
	if end < 0 {
		end = len(rest)
	}

	at := strings.LastIndex(rest[:end], "@")
	if at < 0 {
		return raw
	}

	user, _, hasPassword := strings.Cut(rest[:at], ":")
	if !hasPassword {
		return raw
	}

	return scheme + "://" + user + ":" + redacted + rest[at:]
}
