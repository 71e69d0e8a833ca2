// Package lawtext cleans retrieved law citation text for display.
package lawtext

import "strings"

// metadataTags are the bracketed field markers that open a citation chunk:
// jurisdiction, law title, and owning department.
var metadataTags = []string{"[지역]", "[법령제목]", "[담당부서]"}

// Clean removes the leading run of metadata lines from raw citation text and
// returns the substantive body. A metadata line is one that, after trimming,
// starts with one of the bracketed tags; blank lines interleaved in the
// leading run are dropped with it. The first line that is neither blank nor
// tagged ends the skip permanently, so later lines are kept verbatim even if
// they are blank or happen to start with a tag. The result is trimmed of
// surrounding whitespace; empty input yields "".
func Clean(raw string) string {
	if raw == "" {
		return ""
	}

	lines := strings.Split(raw, "\n")
	skipping := true
	var kept []string
	for _, line := range lines {
		if skipping {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || isMetadataLine(trimmed) {
				continue
			}
			skipping = false
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isMetadataLine(trimmed string) bool {
	for _, tag := range metadataTags {
		if strings.HasPrefix(trimmed, tag) {
			return true
		}
	}
	return false
}
