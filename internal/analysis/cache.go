package analysis

import (
	"sync"

	"github.com/spigell/resume-fit/internal/skills"
	"github.com/spigell/resume-fit/internal/taxonomy"
)

// extractorCache keeps compiled extractors for the taxonomies currently held
// by a registry.
type extractorCache struct {
	mu     sync.Mutex
	resume *skills.Extractor
	job    *skills.Extractor
}

func (c *extractorCache) get(r *taxonomy.Registry) (*skills.Extractor, *skills.Extractor) {
	resumeTax, jobTax := r.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resume == nil || c.resume.Taxonomy() != resumeTax {
		c.resume = skills.NewExtractor(resumeTax)
	}
	if c.job == nil || c.job.Taxonomy() != jobTax {
		c.job = skills.NewExtractor(jobTax)
	}

	return c.resume, c.job
}
