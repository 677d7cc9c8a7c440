// Package markdown validates and repairs outbound text against the
// constrained Markdown dialect the Telegram transport accepts. The transport
// rejects whole messages over unbalanced markers, broken links or oversized
// text, so every string headed outward goes through Sanitize first.
package markdown

import (
	"regexp"
	"strings"
)

// MaxMessageLength is the hard ceiling Telegram enforces per message.
const MaxMessageLength = 4096

var linkRE = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)

// Sanitize returns a variant of text that satisfies the transport's
// structural rules: length within MaxMessageLength, balanced ** / * / `
// markers, and well-formed [label](url) links. Valid input is returned
// unchanged. Repairable input gets minimally-invasive fixes (closing
// markers appended, bad links flattened to "label: url"). Anything else
// degrades to a fully escaped plain-text rendering. The function is total
// and idempotent.
func Sanitize(text string) string {
	if text == "" {
		return text
	}

	if runeLen(text) > MaxMessageLength {
		text = truncate(text)
	}

	repaired := fixInvalidLinks(fixUnclosedTags(text))

	// Do not alter markup that was already valid.
	if repaired == text && valid(text) {
		return text
	}
	if valid(repaired) {
		return repaired
	}
	return clamp(Escape(text))
}

// Escape backslash-escapes every markup character, producing the plain-text
// fallback rendering.
func Escape(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch r {
		case '*', '_', '~', '`', '[', ']', '(', ')':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// valid reports whether text already satisfies the transport's rules.
func valid(text string) bool {
	if runeLen(text) > MaxMessageLength {
		return false
	}
	if strings.Count(text, "**")%2 != 0 {
		return false
	}
	if countSingleStars(text)%2 != 0 {
		return false
	}
	if countBackticks(text)%2 != 0 {
		return false
	}
	return validLinks(text)
}

// fixUnclosedTags appends closing markers for any odd marker count. Bold is
// balanced first; the italic count is then recomputed with bold pairs
// stripped so that ** never masquerades as two italics.
func fixUnclosedTags(text string) string {
	result := text

	if strings.Count(result, "**")%2 != 0 {
		result += "**"
	}
	if countBackticks(result)%2 != 0 {
		result += "`"
	}
	withoutBold := strings.ReplaceAll(result, "**", "")
	if countSingleStars(withoutBold)%2 != 0 {
		result += "*"
	}
	return result
}

// fixInvalidLinks flattens [label](url) pairs whose URL is not http(s) or
// site-relative into the plain "label: url" form.
func fixInvalidLinks(text string) string {
	return linkRE.ReplaceAllStringFunc(text, func(match string) string {
		parts := linkRE.FindStringSubmatch(match)
		label, url := parts[1], strings.TrimSpace(parts[2])
		if validURL(url) {
			return match
		}
		return label + ": " + url
	})
}

func validLinks(text string) bool {
	for _, link := range linkRE.FindAllStringSubmatch(text, -1) {
		label, url := link[1], strings.TrimSpace(link[2])
		if label == "" || !validURL(url) {
			return false
		}
	}
	return true
}

func validURL(url string) bool {
	if strings.HasPrefix(url, "http://") {
		return len(url) > len("http://")
	}
	if strings.HasPrefix(url, "https://") {
		return len(url) > len("https://")
	}
	return strings.HasPrefix(url, "/") && len(url) > 1
}

// truncate cuts the text to fit MaxMessageLength, closing markers the cut
// may have split, and marks the cut with an ellipsis.
func truncate(text string) string {
	cut := firstRunes(text, MaxMessageLength-3)
	repaired := fixUnclosedTags(cut) + "..."
	if runeLen(repaired) > MaxMessageLength {
		return firstRunes(repaired, MaxMessageLength-3) + "..."
	}
	return repaired
}

func clamp(text string) string {
	if runeLen(text) <= MaxMessageLength {
		return text
	}
	return firstRunes(text, MaxMessageLength-3) + "..."
}

// countSingleStars counts '*' runes that are neither half of a '**' pair nor
// escaped. Escaped markers are invisible to the transport's parser and must
// not influence balance.
func countSingleStars(text string) int {
	count := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '*' {
			continue
		}
		if i > 0 && (text[i-1] == '*' || text[i-1] == '\\') {
			continue
		}
		if i+1 < len(text) && text[i+1] == '*' {
			continue
		}
		count++
	}
	return count
}

// countBackticks counts unescaped backticks.
func countBackticks(text string) int {
	count := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '`' && (i == 0 || text[i-1] != '\\') {
			count++
		}
	}
	return count
}

func runeLen(text string) int {
	return len([]rune(text))
}

func firstRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
