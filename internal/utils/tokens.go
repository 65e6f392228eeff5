package utils

// Token estimation for prompt budgeting. One token is taken as roughly four
// characters, which is close enough for sizing against a context window.

// CountTokens estimates the number of tokens in text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit cuts text to roughly limit tokens. The marker is
// appended when anything was dropped and counts against the limit.
func TruncateToTokenLimit(text string, limit int, marker string) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	m := []rune(marker)
	if len(m) >= charLimit {
		return string(runes[:charLimit])
	}
	return string(runes[:charLimit-len(m)]) + marker
}
