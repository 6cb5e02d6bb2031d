package skills

// DomainMatch tells how many of the keywords a job asks for in one domain
// also appear in the resume.
type DomainMatch struct {
	Domain   string   `json:"domain"`
	Matched  []string `json:"matched"`
	Missing  []string `json:"missing"`
	Required int      `json:"required"`
}

// Compare builds one DomainMatch per job domain, ordered by domain name.
// Keywords are compared literally, so a keyword only present in one of the
// two taxonomies never counts as matched.
func Compare(resume, job Skills) []DomainMatch {
	matches := make([]DomainMatch, 0, len(job))

	for _, domain := range job.Domains() {
		have := make(map[string]struct{}, len(resume[domain]))
		for _, kw := range resume[domain] {
			have[kw] = struct{}{}
		}

		m := DomainMatch{
			Domain:   domain,
			Matched:  []string{},
			Missing:  []string{},
			Required: len(job[domain]),
		}
		for _, kw := range job[domain] {
			if _, ok := have[kw]; ok {
				m.Matched = append(m.Matched, kw)
				continue
			}
			m.Missing = append(m.Missing, kw)
		}

		matches = append(matches, m)
	}

	return matches
}
