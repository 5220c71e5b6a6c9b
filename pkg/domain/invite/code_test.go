package invite

import (
	"regexp"
	"strings"
	"testing"
)

var codePattern = regexp.MustCompile(`^[A-HJKMNP-Z2-9]{4}-[A-HJKMNP-Z2-9]{4}$`)

func TestGenerateCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if !codePattern.MatchString(code) {
			t.Fatalf("code %q does not match XXXX-XXXX over the unambiguous alphabet", code)
		}
		// No visually ambiguous characters.
		if strings.ContainsAny(code, "01OIL") {
			t.Fatalf("code %q contains ambiguous characters", code)
		}
		seen[code] = true
	}
	if len(seen) < 199 {
		t.Errorf("200 generated codes produced only %d distinct values", len(seen))
	}
}
