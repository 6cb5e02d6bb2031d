package skills

import (
	"math"
	"sort"
)

// Distribution maps a domain to its share of matched keywords, in percent
// with one decimal.
type Distribution map[string]float64

// AnalyzeDistribution converts matched keywords into per-domain percentages.
// Every input domain is present in the result. When nothing matched at all,
// every input domain maps to 0.
//
// Values are rounded half away from zero; the rounded values may sum to
// slightly more or less than 100.
func AnalyzeDistribution(s Skills) Distribution {
	dist := make(Distribution, len(s))

	total := s.Count()
	if total == 0 {
		for domain := range s {
			dist[domain] = 0
		}
		return dist
	}

	for domain, list := range s {
		dist[domain] = roundTenth(float64(len(list)) / float64(total) * 100)
	}

	return dist
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// Sum returns the total of all percentages.
func (d Distribution) Sum() float64 {
	sum := 0.0
	for _, pct := range d {
		sum += pct
	}
	return sum
}

// Domains returns the domain names ordered by descending share, ties by name.
func (d Distribution) Domains() []string {
	names := make([]string, 0, len(d))
	for domain := range d {
		names = append(names, domain)
	}

	sort.Slice(names, func(i, j int) bool {
		if d[names[i]] != d[names[j]] {
			return d[names[i]] > d[names[j]]
		}
		return names[i] < names[j]
	})

	return names
}
