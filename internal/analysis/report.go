package analysis

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spigell/resume-fit/internal/fit"
	"github.com/spigell/resume-fit/internal/skills"
)

// Side is the extraction result for one of the two documents.
type Side struct {
	Text         string              `json:"-"`
	Skills       skills.Skills       `json:"skills"`
	Distribution skills.Distribution `json:"distribution"`
}

// Report is the outcome of one analysis.
type Report struct {
	Resume      Side                 `json:"resume"`
	Job         Side                 `json:"job"`
	JobCategory string               `json:"job_category"`
	Fit         fit.Result           `json:"fit"`
	Matches     []skills.DomainMatch `json:"matches"`
}

// WriteText renders the report for a terminal.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Resume–Job Fit:\t%s\n", r.Fit.Classification)
	fmt.Fprintf(tw, "Reasoning:\t%s\n", r.Fit.Reasoning)
	fmt.Fprintf(tw, "Job category:\t%s\n", r.JobCategory)

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Skill Match Summary")
	if len(r.Matches) == 0 {
		fmt.Fprintln(tw, "  no skills recognized in the job description")
	}
	for _, m := range r.Matches {
		fmt.Fprintf(tw, "  %s\t→ %d/%d matched", m.Domain, len(m.Matched), m.Required)
		if len(m.Missing) > 0 {
			fmt.Fprintf(tw, "\tmissing: %s", strings.Join(m.Missing, ", "))
		}
		fmt.Fprintln(tw)
	}

	writeDistribution(tw, "Resume distribution", r.Resume)
	writeDistribution(tw, "Job distribution", r.Job)

	return tw.Flush()
}

func writeDistribution(w io.Writer, title string, side Side) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	if len(side.Distribution) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, domain := range side.Distribution.Domains() {
		fmt.Fprintf(w, "  %s\t%.1f%%\t%s\n", domain, side.Distribution[domain], strings.Join(side.Skills[domain], ", "))
	}
}
