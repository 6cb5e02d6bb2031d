package document

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/resume-fit/internal/skills"
	"github.com/spigell/resume-fit/internal/taxonomy"
)

func TestParseJob(t *testing.T) {
	ex := skills.NewExtractor(taxonomy.Job())

	job := ParseJob("  We need a SOC analyst: SIEM, incident response,\n threat detection. Some Python.  ", ex)

	assert.Equal(t, "We need a SOC analyst: SIEM, incident response,\n threat detection. Some Python.", job.RawText)
	assert.Equal(t, "Security", job.Category)
	assert.Equal(t, []string{"incident response", "siem", "soc", "threat detection"}, job.Skills["Security"])
	assert.Equal(t, []string{"python"}, job.Skills["Backend"])
}

func TestParseJobWithoutSkills(t *testing.T) {
	job := ParseJob("Friendly team, great coffee.", skills.NewExtractor(taxonomy.Job()))

	assert.Empty(t, job.Skills)
	assert.Equal(t, DefaultCategory, job.Category)
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		name   string
		skills skills.Skills
		want   string
	}{
		{name: "none", skills: skills.Skills{}, want: DefaultCategory},
		{name: "only empty lists", skills: skills.Skills{"Data": {}}, want: DefaultCategory},
		{name: "most keywords", skills: skills.Skills{"Data": {"sql", "etl"}, "Cloud": {"aws"}}, want: "Data"},
		{name: "tie", skills: skills.Skills{"Data": {"sql"}, "Cloud": {"aws"}}, want: "Cloud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferCategory(tt.skills))
		})
	}
}
