package translate

import (
	"net/url"
	"regexp"
	"strings"
)

// EchoThreshold is the share of input tokens that may reappear in a
// translation before it is rejected as an echo of the input.
const EchoThreshold = 0.7

var (
	percentEncoded  = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	spaceBeforePunc = regexp.MustCompile(`\s+([.,;:!?»)\]])`)
	quoteReplacer   = strings.NewReplacer(
		"‘", "'", "’", "'", "‛", "'", "′", "'", "`", "'",
		"“", "\"", "”", "\"", "„", "\"",
	)
)

// Clean normalizes provider output: percent-decodes strings that look
// URL-encoded, straightens smart quotes, collapses whitespace and removes
// spaces before punctuation.
func Clean(s string) string {
	if percentEncoded.MatchString(s) {
		if dec, err := url.PathUnescape(s); err == nil {
			s = dec
		}
	}
	s = quoteReplacer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = spaceBeforePunc.ReplaceAllString(s, "$1")
	return s
}

// IsEcho reports whether output repeats at least threshold of the
// whitespace-separated input tokens, compared case-insensitively.
func IsEcho(input, output string, threshold float64) bool {
	in := strings.Fields(strings.ToLower(input))
	if len(in) == 0 {
		return false
	}

	outSet := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(output)) {
		outSet[tok] = struct{}{}
	}

	hits := 0
	for _, tok := range in {
		if _, ok := outSet[tok]; ok {
			hits++
		}
	}
	return float64(hits)/float64(len(in)) >= threshold
}
