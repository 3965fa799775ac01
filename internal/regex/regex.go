// Package regex is logview's pattern compiler: the predicate engine
// shared by the foreseeing filter (§4.F) and the regex searcher (§4.G).
// Grounded on dtail's internal/regex literal-vs-regex optimization (skip
// the regexp engine entirely when the pattern has no metacharacters),
// extended here with span-finding methods the filter needs to publish
// match highlights and the searcher needs to report occurrences.
package regex

import (
	"regexp"
	"strings"
)

// Matcher compiles a pattern once and matches it against lines,
// transparently using a plain substring search when the pattern has no
// regex metacharacters.
type Matcher struct {
	pattern string
	literal bool
	re      *regexp.Regexp
}

// Compile builds a Matcher for pattern.
func Compile(pattern string) (Matcher, error) {
	if isLiteral(pattern) {
		return Matcher{pattern: pattern, literal: true}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{pattern: pattern, re: re}, nil
}

// isLiteral reports whether pattern contains no regex metacharacters, in
// which case it can be matched with strings.Contains/Index instead of
// compiling a regexp.
func isLiteral(pattern string) bool {
	const metaChars = `.+*?^$[]{}()|\`
	return !strings.ContainsAny(pattern, metaChars)
}

// Pattern returns the original pattern string.
func (m Matcher) Pattern() string { return m.pattern }

// IsLiteral reports whether m is using the substring-search fast path.
func (m Matcher) IsLiteral() bool { return m.literal }

// MatchString reports whether s contains an occurrence of the pattern.
func (m Matcher) MatchString(s string) bool {
	if m.pattern == "" {
		return false
	}
	if m.literal {
		return strings.Contains(s, m.pattern)
	}
	return m.re.MatchString(s)
}

// FindAllStringIndex returns every non-overlapping [start,end) byte span
// in s that matches the pattern, or nil if there is none.
func (m Matcher) FindAllStringIndex(s string) [][2]int {
	if m.pattern == "" {
		return nil
	}
	if m.literal {
		var spans [][2]int
		from := 0
		for {
			i := strings.Index(s[from:], m.pattern)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(m.pattern)
			spans = append(spans, [2]int{start, end})
			from = end
		}
		return spans
	}
	idx := m.re.FindAllStringIndex(s, -1)
	if idx == nil {
		return nil
	}
	spans := make([][2]int, len(idx))
	for i, p := range idx {
		spans[i] = [2]int{p[0], p[1]}
	}
	return spans
}

// FindStringIndex returns the first match in s, or nil if there is none.
func (m Matcher) FindStringIndex(s string) []int {
	if m.pattern == "" {
		return nil
	}
	if m.literal {
		i := strings.Index(s, m.pattern)
		if i < 0 {
			return nil
		}
		return []int{i, i + len(m.pattern)}
	}
	return m.re.FindStringIndex(s)
}

// LastStringIndex returns the last match in s that ends at or before
// byte offset upto, or nil if there is none. Used by backward regex
// search (§4.G: "scan the current line... and take the last match").
func (m Matcher) LastStringIndex(s string, upto int) []int {
	var last []int
	for _, sp := range m.FindAllStringIndex(s) {
		if sp[1] > upto {
			break
		}
		last = []int{sp[0], sp[1]}
	}
	return last
}
