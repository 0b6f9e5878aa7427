package logger

import "strings"

// RedactEmail masks an email address for safe logging: the local part
// keeps at most its first two characters, so "john.doe@example.com"
// becomes "jo***@example.com". Values that don't look like an email
// are masked entirely.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:2] + "***@" + domain
}
