package gemini

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/resume-fit/internal/ai"
	"github.com/spigell/resume-fit/internal/logger"
)

const defaultMaxLogLength = 200

// contentGenerator is implemented by *Generator.
type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Scorer produces ATS scores with Gemini.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Scorer = (*Scorer)(nil)

type scorePayload struct {
	OverallScore float64 `mapstructure:"overall_score"`
	Breakdown    struct {
		SkillMatch          float64 `mapstructure:"skill_match"`
		ExperienceRelevance float64 `mapstructure:"experience_relevance"`
		Formatting          float64 `mapstructure:"formatting"`
	} `mapstructure:"breakdown"`
	MissingSkills []string `mapstructure:"missing_skills"`
	Summary       string   `mapstructure:"summary"`
}

func NewScorer(generator contentGenerator, maxLogLength int, log *zap.Logger) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Scorer{
		generator: generator,
		logger:    logger.WithFields(log),
		maxLogLen: maxLogLength,
	}
}

// Score asks Gemini for an ATS score of the resume against the job.
func (s *Scorer) Score(ctx context.Context, resumeText, jobText string) (*ai.Score, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.New("resume text is required")
	}
	if strings.TrimSpace(jobText) == "" {
		return nil, errors.New("job description is required")
	}

	prompt, err := renderPrompt("ats", map[string]string{
		"ResumeText": resumeText,
		"JobText":    jobText,
	})
	if err != nil {
		return nil, err
	}

	raw, err := s.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini ats score response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		logger.ResponsePreview(raw, s.maxLogLen),
	)

	score, err := parseScore(raw)
	if err != nil {
		return nil, err
	}

	return score, nil
}

func parseScore(raw string) (*ai.Score, error) {
	var payload scorePayload
	if err := decodeResponse(raw, atsScoreSchema, &payload); err != nil {
		return nil, err
	}

	missing := make([]string, 0, len(payload.MissingSkills))
	for _, skill := range payload.MissingSkills {
		if skill = strings.TrimSpace(skill); skill != "" {
			missing = append(missing, skill)
		}
	}

	return &ai.Score{
		Overall: clampPercent(payload.OverallScore),
		Breakdown: ai.Breakdown{
			SkillMatch:          clampPercent(payload.Breakdown.SkillMatch),
			ExperienceRelevance: clampPercent(payload.Breakdown.ExperienceRelevance),
			Formatting:          clampPercent(payload.Breakdown.Formatting),
		},
		MissingSkills: missing,
		Summary:       strings.TrimSpace(payload.Summary),
		Raw:           raw,
	}, nil
}
