// Package fit classifies how well a resume's skill emphasis matches a job's.
package fit

import (
	"fmt"

	"github.com/spigell/resume-fit/internal/skills"
)

// Classification is the verdict of a fit analysis.
type Classification string

const (
	InsufficientData Classification = "INSUFFICIENT DATA"
	Aligned          Classification = "ALIGNED"
	PartiallyAligned Classification = "PARTIALLY ALIGNED"
	Misaligned       Classification = "MISALIGNED"
)

// PartialThreshold is the minimum share, in percent, the resume must hold in
// the job's dominant domain to count as partially aligned.
const PartialThreshold = 30.0

// Result is the verdict together with its explanation.
type Result struct {
	Classification Classification `json:"classification"`
	Reasoning      string         `json:"reasoning"`
}

// Analyze compares a resume distribution with a job distribution.
//
// jobCategory is accepted for callers that track the job's inferred category;
// the verdict depends on the two distributions only.
func Analyze(resume, job skills.Distribution, jobCategory string) Result {
	if len(job) == 0 {
		return Result{
			Classification: InsufficientData,
			Reasoning: "The job description is too short or vague to extract meaningful skills. " +
				"Provide a more detailed job description for an accurate fit analysis.",
		}
	}

	if len(resume) == 0 {
		return Result{
			Classification: InsufficientData,
			Reasoning:      "The resume does not contain enough recognizable skills for comparison.",
		}
	}

	jobDomain := Dominant(job)
	resumeDomain := Dominant(resume)

	switch {
	case jobDomain == resumeDomain:
		return Result{
			Classification: Aligned,
			Reasoning: fmt.Sprintf(
				"Both the resume and the job emphasize %s, indicating strong role alignment.", jobDomain),
		}
	case resume[jobDomain] >= PartialThreshold:
		return Result{
			Classification: PartiallyAligned,
			Reasoning: fmt.Sprintf(
				"The job focuses on %s and the resume shows relevant experience there, but its primary focus differs.", jobDomain),
		}
	default:
		return Result{
			Classification: Misaligned,
			Reasoning: fmt.Sprintf(
				"The job requires strong %s expertise, while the resume primarily emphasizes %s.", jobDomain, resumeDomain),
		}
	}
}

// Dominant returns the domain with the highest share. Ties go to the
// lexicographically smallest domain name. An empty distribution yields "".
func Dominant(d skills.Distribution) string {
	var (
		best    string
		bestPct float64
		found   bool
	)

	for domain, pct := range d {
		if !found || pct > bestPct || (pct == bestPct && domain < best) {
			best = domain
			bestPct = pct
			found = true
		}
	}

	return best
}
