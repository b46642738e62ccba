// Package security holds small input-hardening helpers for values that cross
// from configuration into the filesystem.
package security

import "strings"

// SanitizeFilename makes a safe file-name fragment from an execution
// identifier. Execution IDs come from run configs and flags, so they may
// carry separators or shell metacharacters; anything outside ASCII letters,
// digits, dot, underscore and dash becomes a single dash, runs of rejected
// characters collapse, and the result is capped so joined paths stay short.
func SanitizeFilename(id string) string {
	const maxLen = 96

	var b strings.Builder
	pendingDash := false
	for _, r := range id {
		if b.Len() >= maxLen {
			break
		}
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-'
		if !ok {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}

	out := strings.Trim(b.String(), "._-")
	if out == "" {
		return "run"
	}
	return out
}
