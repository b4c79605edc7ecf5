package export

import (
	"strconv"
	"strings"
	"unicode"
)

const maxSheetName = 31

// SanitizeSheetName keeps letters, digits, '_' and spaces and truncates the
// result to the 31 characters a worksheet name may hold.
func SanitizeSheetName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ' ' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(truncateRunes(b.String(), maxSheetName))
	if out == "" {
		return "Sheet"
	}
	return out
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// sheetNamer hands out sanitized names that are unique ignoring case.
type sheetNamer struct {
	taken map[string]struct{}
}

func newSheetNamer(reserved ...string) *sheetNamer {
	n := &sheetNamer{taken: make(map[string]struct{}, len(reserved))}
	for _, name := range reserved {
		n.taken[strings.ToLower(name)] = struct{}{}
	}
	return n
}

func (n *sheetNamer) next(raw string) string {
	base := SanitizeSheetName(raw)
	name := base
	for i := 2; ; i++ {
		if _, dup := n.taken[strings.ToLower(name)]; !dup {
			break
		}
		suffix := "_" + strconv.Itoa(i)
		name = strings.TrimSpace(truncateRunes(base, maxSheetName-len(suffix))) + suffix
	}
	n.taken[strings.ToLower(name)] = struct{}{}
	return name
}
