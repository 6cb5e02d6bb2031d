package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-fit/internal/ai"
	"github.com/spigell/resume-fit/internal/logger"
)

// maxHistoryTurns bounds the interview history sent with each question.
const maxHistoryTurns = 20

// Advisor implements ai.Advisor with Gemini.
type Advisor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Advisor = (*Advisor)(nil)

func NewAdvisor(generator contentGenerator, maxLogLength int, log *zap.Logger) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Advisor{
		generator: generator,
		logger:    logger.WithFields(log),
		maxLogLen: maxLogLength,
	}
}

// Ask answers a career question grounded on an analysis.
func (a *Advisor) Ask(ctx context.Context, question string, c ai.ChatContext) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("question must not be empty")
	}

	resumeText := strings.TrimSpace(c.ResumeText)
	if resumeText == "" {
		resumeText = "No resume text available."
	}
	jobText := strings.TrimSpace(c.JobText)
	if jobText == "" {
		jobText = "No job description available."
	}

	return a.complete(ctx, "chat", map[string]any{
		"Question":     question,
		"ResumeText":   resumeText,
		"JobText":      jobText,
		"ATSScore":     c.ATSScore,
		"FitReasoning": c.FitReasoning,
	})
}

// CoverLetter drafts a cover letter in the requested tone.
func (a *Advisor) CoverLetter(ctx context.Context, resumeText, jobText string, tone ai.Tone) (string, error) {
	if tone == "" {
		tone = ai.ToneProfessional
	}

	return a.complete(ctx, "cover_letter", map[string]any{
		"ResumeText": resumeText,
		"JobText":    jobText,
		"Tone":       string(tone),
	})
}

type refinementPayload struct {
	Improvements []ai.Improvement `mapstructure:"improvements"`
}

// Refine suggests rewrites of a resume section for the job.
func (a *Advisor) Refine(ctx context.Context, section, jobText string) ([]ai.Improvement, error) {
	section = strings.TrimSpace(section)
	if section == "" {
		return nil, errors.New("resume section must not be empty")
	}

	prompt, err := renderPrompt("refine", map[string]any{
		"Section": section,
		"JobText": jobText,
	})
	if err != nil {
		return nil, err
	}

	raw, err := a.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}
	a.logResponse("refine", raw)

	var payload refinementPayload
	if err := decodeResponse(raw, refinementSchema, &payload); err != nil {
		return nil, err
	}

	return payload.Improvements, nil
}

// NextQuestion generates the next mock interview question.
func (a *Advisor) NextQuestion(ctx context.Context, jobText string, history []ai.Turn) (string, error) {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	return a.complete(ctx, "interview_question", map[string]any{
		"JobText": jobText,
		"History": history,
	})
}

// EvaluateAnswer gives feedback on an interview answer.
func (a *Advisor) EvaluateAnswer(ctx context.Context, question, answer string) (string, error) {
	if strings.TrimSpace(answer) == "" {
		return "", errors.New("answer must not be empty")
	}

	return a.complete(ctx, "interview_feedback", map[string]any{
		"Question": question,
		"Answer":   answer,
	})
}

func (a *Advisor) complete(ctx context.Context, name string, data map[string]any) (string, error) {
	prompt, err := renderPrompt(name, data)
	if err != nil {
		return "", err
	}

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.ReplaceAll(name, "_", " "), err)
	}
	a.logResponse(name, raw)

	return strings.TrimSpace(raw), nil
}

func (a *Advisor) logResponse(name, raw string) {
	a.logger.Debug("gemini advisor response",
		zap.String("prompt", name),
		logger.ResponsePreview(raw, a.maxLogLen),
	)
}
