package recovery

import (
	"regexp"
	"strings"
)

// Strategy is a pure text transformation applied to a candidate before a strict parse.
type Strategy func(string) string

var (
	leadingFence            = regexp.MustCompile("(?i)^```[a-z0-9_+-]*\\s*")
	trailingFence           = regexp.MustCompile("\\s*```$")
	trailingSeparator       = regexp.MustCompile(`,\s*([\]}])`)
	duplicateSeparator      = regexp.MustCompile(`,\s*,`)
	adjacentObjects         = regexp.MustCompile(`}\s*{`)
	typographicQuoteReplace = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)
)

// NormalizationStrategies run in order on the extracted candidate.
var NormalizationStrategies = []Strategy{
	RemoveTrailingSeparators,
	StraightenQuotes,
	CollapseDuplicateSeparators,
}

// RepairStrategies run in order on the normalized candidate.
var RepairStrategies = []Strategy{
	InsertObjectSeparators,
	InsertStringSeparators,
}

// StripFence removes a leading ```lang line and a trailing ``` from the trimmed text.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	return trailingFence.ReplaceAllString(text, "")
}

// ExtractBraceSpan returns the text from the first '{' through the last '}'.
// Without such a span it returns the trimmed input.
func ExtractBraceSpan(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(text)
	}
	return text[start : end+1]
}

// RemoveTrailingSeparators drops a comma placed right before a closing bracket or brace.
func RemoveTrailingSeparators(text string) string {
	return trailingSeparator.ReplaceAllString(text, "$1")
}

func StraightenQuotes(text string) string {
	return typographicQuoteReplace.Replace(text)
}

func CollapseDuplicateSeparators(text string) string {
	return duplicateSeparator.ReplaceAllString(text, ",")
}

// InsertObjectSeparators restores the comma between two objects of an array.
func InsertObjectSeparators(text string) string {
	return adjacentObjects.ReplaceAllString(text, "},{")
}

// InsertStringSeparators restores the comma between two adjacent string literals. Only a
// quote that closes a literal can start the gap, so "" and escaped quotes stay as they are.
func InsertStringSeparators(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		b.WriteByte(c)

		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
			if inString {
				continue
			}
			j := i + 1
			for j < len(text) && isSpace(text[j]) {
				j++
			}
			if j < len(text) && text[j] == '"' {
				b.WriteString(", ")
				i = j - 1
			}
		}
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func apply(text string, strategies []Strategy) string {
	for _, s := range strategies {
		text = s(text)
	}
	return text
}
