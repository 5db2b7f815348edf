package payments

import (
	"regexp"
	"testing"
)

func TestNewReferenceFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^NRDC-\d+-[A-Z0-9]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewReference()
		if !pattern.MatchString(ref) {
			t.Fatalf("reference %q does not match expected pattern", ref)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference generated: %q", ref)
		}
		seen[ref] = true
	}
}
