package relay

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// clip normalises s to NFC and cuts it to at most limit characters.
func clip(s string, limit int) string {
	s = norm.NFC.String(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func cleanNickname(nickname string, limit int) string {
	return strings.TrimSpace(clip(strings.TrimSpace(nickname), limit))
}
