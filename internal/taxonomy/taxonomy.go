// Package taxonomy holds the domain → keyword tables skills are matched against.
package taxonomy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

var validate = validator.New()

// Domain is a named skill category with its canonical keywords.
type Domain struct {
	Name     string   `mapstructure:"name" json:"name" validate:"required"`
	Keywords []string `mapstructure:"keywords" json:"keywords" validate:"min=1,dive,required"`
}

// Taxonomy is an immutable ordered set of domains.
type Taxonomy struct {
	name    string
	domains []Domain
	index   map[string]int
}

// New builds a taxonomy. Keywords are lowercased, whitespace inside a keyword
// is collapsed, blank and repeated keywords are dropped. A domain repeated by
// name is merged into its first occurrence.
func New(name string, domains ...Domain) *Taxonomy {
	t := &Taxonomy{
		name:  name,
		index: make(map[string]int, len(domains)),
	}

	for _, d := range domains {
		domainName := strings.TrimSpace(d.Name)
		if domainName == "" {
			continue
		}

		pos, ok := t.index[domainName]
		if !ok {
			pos = len(t.domains)
			t.index[domainName] = pos
			t.domains = append(t.domains, Domain{Name: domainName})
		}

		t.domains[pos].Keywords = appendKeywords(t.domains[pos].Keywords, d.Keywords)
	}

	return t
}

func appendKeywords(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, kw := range dst {
		seen[kw] = struct{}{}
	}

	for _, kw := range src {
		kw = NormalizeKeyword(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		dst = append(dst, kw)
	}

	return dst
}

// NormalizeKeyword lowercases a keyword and collapses inner whitespace.
func NormalizeKeyword(kw string) string {
	return strings.Join(strings.Fields(strings.ToLower(kw)), " ")
}

// Name returns the label the taxonomy was built with, e.g. "resume".
func (t *Taxonomy) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Len returns the number of domains.
func (t *Taxonomy) Len() int {
	if t == nil {
		return 0
	}
	return len(t.domains)
}

// Domains returns a copy of the domains in declaration order.
func (t *Taxonomy) Domains() []Domain {
	if t == nil {
		return nil
	}

	out := make([]Domain, 0, len(t.domains))
	for _, d := range t.domains {
		out = append(out, Domain{Name: d.Name, Keywords: append([]string(nil), d.Keywords...)})
	}
	return out
}

// DomainNames returns the domain names in declaration order.
func (t *Taxonomy) DomainNames() []string {
	if t == nil {
		return nil
	}

	names := make([]string, 0, len(t.domains))
	for _, d := range t.domains {
		names = append(names, d.Name)
	}
	return names
}

// Keywords returns a copy of the keywords of a domain, or nil when the domain is unknown.
func (t *Taxonomy) Keywords(domain string) []string {
	if t == nil {
		return nil
	}

	pos, ok := t.index[domain]
	if !ok {
		return nil
	}
	return append([]string(nil), t.domains[pos].Keywords...)
}

// Map returns the taxonomy as a plain domain → keywords map.
func (t *Taxonomy) Map() map[string][]string {
	out := make(map[string][]string, t.Len())
	for _, d := range t.Domains() {
		out[d.Name] = d.Keywords
	}
	return out
}

// Decode builds a taxonomy from loosely typed configuration data. Two shapes
// are accepted: a list of {name, keywords} objects, which keeps declaration
// order, or a domain → keywords map, whose domains are ordered by name.
func Decode(name string, raw any) (*Taxonomy, error) {
	if raw == nil {
		return nil, errors.New("taxonomy data is empty")
	}

	var domains []Domain
	if list, ok := raw.([]any); ok {
		if err := mapstructure.Decode(list, &domains); err != nil {
			return nil, fmt.Errorf("decode %s taxonomy: %w", name, err)
		}
		for i := range domains {
			if err := validate.Struct(domains[i]); err != nil {
				return nil, fmt.Errorf("%s taxonomy domain #%d: %w", name, i+1, err)
			}
		}
	} else {
		var byName map[string][]string
		if err := mapstructure.Decode(raw, &byName); err != nil {
			return nil, fmt.Errorf("decode %s taxonomy: %w", name, err)
		}

		names := make([]string, 0, len(byName))
		for domain := range byName {
			names = append(names, domain)
		}
		sort.Strings(names)

		for _, domain := range names {
			domains = append(domains, Domain{Name: domain, Keywords: byName[domain]})
		}
	}

	t := New(name, domains...)
	if t.Len() == 0 {
		return nil, fmt.Errorf("%s taxonomy has no domains", name)
	}

	return t, nil
}
