// Package analysis runs the resume/job comparison pipeline.
package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-fit/internal/document"
	"github.com/spigell/resume-fit/internal/fit"
	"github.com/spigell/resume-fit/internal/logger"
	"github.com/spigell/resume-fit/internal/skills"
	"github.com/spigell/resume-fit/internal/taxonomy"
)

// Analyzer compares resumes with job descriptions using the taxonomies of a
// registry. Extractors are rebuilt whenever the registry swaps a taxonomy.
type Analyzer struct {
	registry *taxonomy.Registry
	logger   *zap.Logger

	cache extractorCache
}

// New creates an Analyzer. A nil registry uses the built-in taxonomies.
func New(registry *taxonomy.Registry, log *zap.Logger) *Analyzer {
	if registry == nil {
		registry = taxonomy.NewRegistry(nil, nil)
	}

	return &Analyzer{
		registry: registry,
		logger:   logger.WithFields(log),
	}
}

// Run analyzes one resume against one job description. The only error it
// returns is the context's.
func (a *Analyzer) Run(ctx context.Context, resumeText, jobText string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	resumeExtractor, jobExtractor := a.cache.get(a.registry)

	resumeSkills := resumeExtractor.Extract(resumeText)
	job := document.ParseJob(jobText, jobExtractor)

	resumeDist := skills.AnalyzeDistribution(resumeSkills)
	jobDist := skills.AnalyzeDistribution(job.Skills)

	result := fit.Analyze(resumeDist, jobDist, job.Category)

	report := &Report{
		Resume: Side{
			Text:         resumeText,
			Skills:       resumeSkills,
			Distribution: resumeDist,
		},
		Job: Side{
			Text:         job.RawText,
			Skills:       job.Skills,
			Distribution: jobDist,
		},
		JobCategory: job.Category,
		Fit:         result,
		Matches:     skills.Compare(resumeSkills, job.Skills),
	}

	a.logger.Debug("analysis completed",
		zap.String(logger.FieldClassification, string(result.Classification)),
		zap.String("job_category", job.Category),
		zap.Int("resume_skills", resumeSkills.Count()),
		zap.Int("job_skills", job.Skills.Count()),
		zap.Duration("took", time.Since(start)),
	)

	return report, nil
}
