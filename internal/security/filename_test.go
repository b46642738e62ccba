package security

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"senegal-2003-2015":    "senegal-2003-2015",
		"run 42 (retry)":       "run-42-retry",
		"../../etc/passwd":     "etc-passwd",
		"exec:id/with\\slash":  "exec-id-with-slash",
		"__trimmed__":          "trimmed",
		"":                     "run",
		"///":                  "run",
		"Üni¢ode":              "ni-ode",
		"a.b_c-d":              "a.b_c-d",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("x", 500))
	if len(got) > 96 {
		t.Fatalf("sanitized name is %d bytes, want <= 96", len(got))
	}
}
