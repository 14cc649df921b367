package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	spaceRe = regexp.MustCompile(`\s+`)
	chunkRe = regexp.MustCompile(`\d+|\D+`)
)

// maxLabelLen matches the width of bunks.bunk_label.
const maxLabelLen = 32

// NormalizeLabel trims a bunk label, treats '#' as a separator and collapses
// runs of whitespace. Empty or over-long labels are rejected.
func NormalizeLabel(raw string) (string, error) {
	s := strings.ReplaceAll(raw, "#", " ")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	if s == "" {
		return "", fmt.Errorf("bunk label cannot be empty")
	}
	if len(s) > maxLabelLen {
		return "", fmt.Errorf("bunk label %q is longer than %d characters", s, maxLabelLen)
	}
	return s, nil
}

// LessLabel orders labels naturally so that "2" sorts before "10" and
// "B2 Upper" before "B10 Lower". Text chunks compare case-insensitively.
func LessLabel(a, b string) bool {
	ca := chunkRe.FindAllString(strings.ToLower(a), -1)
	cb := chunkRe.FindAllString(strings.ToLower(b), -1)

	for i := 0; i < len(ca) && i < len(cb); i++ {
		if ca[i] == cb[i] {
			continue
		}
		na, errA := strconv.Atoi(ca[i])
		nb, errB := strconv.Atoi(cb[i])
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				return na < nb
			}
			// Same value, different zero padding.
			return len(ca[i]) < len(cb[i])
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ca[i] < cb[i]
		}
	}
	return len(ca) < len(cb)
}
