// Package skills extracts taxonomy keywords from free text and turns them
// into per-domain distributions.
package skills

import (
	"regexp"
	"sort"
	"strings"

	"github.com/spigell/resume-fit/internal/taxonomy"
)

// Skills maps a domain to the sorted keywords matched for it. Domains without
// matches are never present.
type Skills map[string][]string

// Domains returns the domain names in lexicographic order.
func (s Skills) Domains() []string {
	names := make([]string, 0, len(s))
	for domain := range s {
		names = append(names, domain)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of matched keywords across all domains.
func (s Skills) Count() int {
	total := 0
	for _, list := range s {
		total += len(list)
	}
	return total
}

// Extractor matches text against a single taxonomy. Patterns are compiled
// once in NewExtractor; an Extractor is safe for concurrent use.
type Extractor struct {
	taxonomy *taxonomy.Taxonomy
	domains  []domainPatterns
}

type domainPatterns struct {
	name     string
	keywords []keywordPattern
}

type keywordPattern struct {
	keyword string
	re      *regexp.Regexp
}

// NewExtractor compiles the keyword patterns of a taxonomy.
func NewExtractor(tax *taxonomy.Taxonomy) *Extractor {
	e := &Extractor{taxonomy: tax}

	for _, d := range tax.Domains() {
		dp := domainPatterns{name: d.Name, keywords: make([]keywordPattern, 0, len(d.Keywords))}
		for _, kw := range d.Keywords {
			dp.keywords = append(dp.keywords, keywordPattern{keyword: kw, re: keywordRegexp(kw)})
		}
		e.domains = append(e.domains, dp)
	}

	return e
}

// nonWord is any character that is not a Unicode letter, digit or underscore.
const nonWord = `[^\p{L}\p{N}_]`

// keywordRegexp matches kw as a whole token: the characters around it must be
// non-word characters or the edges of the text. Keywords starting or ending
// with punctuation ("c#", ".net") follow the same rule.
func keywordRegexp(kw string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|` + nonWord + `)` + regexp.QuoteMeta(kw) + `(?:` + nonWord + `|$)`)
}

// Taxonomy returns the taxonomy the extractor was built from.
func (e *Extractor) Taxonomy() *taxonomy.Taxonomy {
	return e.taxonomy
}

// Extract returns the taxonomy keywords found in text, grouped by domain.
func (e *Extractor) Extract(text string) Skills {
	found := make(Skills)

	normalized := Normalize(text)
	if normalized == "" {
		return found
	}

	for _, d := range e.domains {
		var matched []string
		for _, kp := range d.keywords {
			if kp.re.MatchString(normalized) {
				matched = append(matched, kp.keyword)
			}
		}

		if len(matched) == 0 {
			continue
		}

		sort.Strings(matched)
		found[d.name] = matched
	}

	return found
}

// Extract is a shortcut for NewExtractor(tax).Extract(text).
func Extract(text string, tax *taxonomy.Taxonomy) Skills {
	return NewExtractor(tax).Extract(text)
}

// Normalize lowercases text and collapses whitespace runs into single spaces.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
