package document

import (
	"strings"

	"github.com/spigell/resume-fit/internal/fit"
	"github.com/spigell/resume-fit/internal/skills"
)

// DefaultCategory is the job category used when no skill was recognized.
const DefaultCategory = "General"

// Job is a parsed job description.
type Job struct {
	RawText  string        `json:"-"`
	Skills   skills.Skills `json:"skills"`
	Category string        `json:"category"`
}

// ParseJob extracts the skills of a job description and infers its category.
func ParseJob(text string, extractor *skills.Extractor) *Job {
	raw := strings.TrimSpace(text)
	found := extractor.Extract(raw)

	return &Job{
		RawText:  raw,
		Skills:   found,
		Category: InferCategory(found),
	}
}

// InferCategory returns the domain with the most matched keywords, ties
// going to the lexicographically smallest name, or DefaultCategory when
// nothing matched.
func InferCategory(found skills.Skills) string {
	counts := make(skills.Distribution, len(found))
	for domain, list := range found {
		if len(list) > 0 {
			counts[domain] = float64(len(list))
		}
	}

	if category := fit.Dominant(counts); category != "" {
		return category
	}
	return DefaultCategory
}
