// Package ai declares the language-model collaborators used around the
// deterministic analysis, together with the values callers fall back to
// when a collaborator fails.
package ai

import (
	"context"
	"fmt"
)

// Generator is a plain text completion capability.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Breakdown splits an ATS score into its components, each 0-100.
type Breakdown struct {
	SkillMatch          float64 `json:"skill_match"`
	ExperienceRelevance float64 `json:"experience_relevance"`
	Formatting          float64 `json:"formatting"`
}

// Score is an ATS-style assessment of a resume against a job description.
type Score struct {
	Overall       float64   `json:"overall_score"`
	Breakdown     Breakdown `json:"breakdown"`
	MissingSkills []string  `json:"missing_skills"`
	Summary       string    `json:"summary"`
	Fallback      bool      `json:"fallback,omitempty"`
	Raw           string    `json:"-"`
}

// Scorer rates a resume against a job description.
type Scorer interface {
	Score(ctx context.Context, resumeText, jobText string) (*Score, error)
}

// Tone is the voice of a generated cover letter.
type Tone string

const (
	ToneProfessional Tone = "Professional"
	ToneEnthusiastic Tone = "Enthusiastic"
	ToneConfident    Tone = "Confident"
	ToneHumble       Tone = "Humble"
)

// Tones lists the supported cover letter tones.
func Tones() []Tone {
	return []Tone{ToneProfessional, ToneEnthusiastic, ToneConfident, ToneHumble}
}

// ChatContext grounds a career question on a finished analysis.
type ChatContext struct {
	ResumeText   string
	JobText      string
	ATSScore     float64
	FitReasoning string
}

// Improvement is one rewrite suggestion for a resume section.
type Improvement struct {
	Original    string `json:"original"`
	Rewrite     string `json:"rewrite"`
	Explanation string `json:"explanation"`
}

// Turn is a single message of an interview or chat history.
type Turn struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Feedback string `json:"feedback,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Advisor covers the conversational collaborators: career chat, cover
// letters, resume refinement and mock interviews.
type Advisor interface {
	Ask(ctx context.Context, question string, c ChatContext) (string, error)
	CoverLetter(ctx context.Context, resumeText, jobText string, tone Tone) (string, error)
	Refine(ctx context.Context, section, jobText string) ([]Improvement, error)
	NextQuestion(ctx context.Context, jobText string, history []Turn) (string, error)
	EvaluateAnswer(ctx context.Context, question, answer string) (string, error)
}

const (
	// FallbackQuestion is asked when the next interview question cannot be generated.
	FallbackQuestion = "Could you tell me more about your experience relevant to this role?"
	// FallbackFeedback is given when an interview answer cannot be evaluated.
	FallbackFeedback = "Good answer, let's move on."
)

// FallbackScore is the score reported when scoring failed.
func FallbackScore(err error) *Score {
	summary := "Score is unavailable."
	if err != nil {
		summary = fmt.Sprintf("Could not compute score: %v", err)
	}

	return &Score{
		MissingSkills: []string{},
		Summary:       summary,
		Fallback:      true,
	}
}

// FallbackAnswer is the chat reply used when the advisor failed.
func FallbackAnswer(err error) string {
	return fmt.Sprintf("I encountered an error: %v", err)
}

// ScoreOrFallback scores with s, returning FallbackScore on any failure or
// when s is nil.
func ScoreOrFallback(ctx context.Context, s Scorer, resumeText, jobText string) *Score {
	if s == nil {
		return FallbackScore(fmt.Errorf("ai scoring is disabled"))
	}

	score, err := s.Score(ctx, resumeText, jobText)
	if err != nil || score == nil {
		if err == nil {
			err = fmt.Errorf("scorer returned no result")
		}
		return FallbackScore(err)
	}

	return score
}
