package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/resume-fit/internal/ai"
	"github.com/spigell/resume-fit/internal/analysis"
	"github.com/spigell/resume-fit/internal/export"
	"github.com/spigell/resume-fit/internal/logger"
	"github.com/spigell/resume-fit/internal/session"
)

const (
	PromptSummary     = "Show summary"
	PromptExport      = "Export to Excel"
	PromptAsk         = "Ask a question"
	PromptCoverLetter = "Generate cover letter"
	PromptRefine      = "Refine a resume section"
	PromptInterview   = "Mock interview"
	PromptExit        = "Exit"

	defaultExportFile = "resume-fit.xlsx"
)

var errExit = errors.New("exit requested")

// menu is the interactive loop of the analyze command.
type menu struct {
	out     io.Writer
	in      inputs
	session *session.Session
	advisor ai.Advisor
	logger  *zap.Logger
}

func newMenu(out io.Writer, in inputs, report *analysis.Report, score *ai.Score, advisor ai.Advisor, log *zap.Logger) *menu {
	sess := session.NewStore().Create()
	sess.Reset(report, score)

	return &menu{
		out:     out,
		in:      in,
		session: sess,
		advisor: advisor,
		logger:  logger.WithSession(log, sess.ID),
	}
}

func (m *menu) items() []string {
	items := []string{PromptSummary, PromptExport}
	if m.advisor != nil {
		items = append(items, PromptAsk, PromptCoverLetter, PromptRefine, PromptInterview)
	}
	return append(items, PromptExit)
}

func (m *menu) run(ctx context.Context) error {
	prompt := promptui.Select{
		Label: "What next?",
		Items: m.items(),
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		if err := m.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

func (m *menu) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptSummary:
		report, score := m.session.Analysis()
		return writeReport(m.out, formatText, report, score)
	case PromptExport:
		return m.export()
	case PromptAsk:
		return m.ask(ctx)
	case PromptCoverLetter:
		return m.coverLetter(ctx)
	case PromptRefine:
		return m.refine(ctx)
	case PromptInterview:
		return m.interview(ctx)
	case PromptExit:
		m.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (m *menu) export() error {
	path, err := (&promptui.Prompt{Label: "File name", Default: defaultExportFile, AllowEdit: true}).Run()
	if err != nil {
		return nil
	}

	report, score := m.session.Analysis()
	written, err := export.ToExcel(report, score, path)
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	m.logger.Info("report exported", zap.String("filename", written))
	return nil
}

func (m *menu) ask(ctx context.Context) error {
	question, err := readLine("Your question")
	if err != nil || question == "" {
		return nil
	}

	answer, err := m.advisor.Ask(ctx, question, m.session.ChatContext())
	if err != nil {
		m.logger.Warn("chat failed", zap.Error(err))
		answer = ai.FallbackAnswer(err)
	}

	m.session.AppendChat(
		ai.Turn{Role: ai.RoleUser, Content: question},
		ai.Turn{Role: ai.RoleAssistant, Content: answer},
	)

	fmt.Fprintf(m.out, "\n%s\n\n", answer)
	return nil
}

func (m *menu) coverLetter(ctx context.Context) error {
	tones := ai.Tones()
	idx, _, err := (&promptui.Select{Label: "Tone", Items: tones}).Run()
	if err != nil {
		return nil
	}

	letter, err := m.advisor.CoverLetter(ctx, m.in.resume, m.in.job, tones[idx])
	if err != nil {
		m.logger.Warn("cover letter generation failed", zap.Error(err))
		return nil
	}

	fmt.Fprintf(m.out, "\n%s\n\n", letter)
	return nil
}

func (m *menu) refine(ctx context.Context) error {
	section, err := readLine("Section text (or @file)")
	if err != nil || section == "" {
		return nil
	}

	if path, ok := strings.CutPrefix(section, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			m.logger.Warn("reading section file", zap.String("filename", path), zap.Error(err))
			return nil
		}
		section = string(data)
	}

	improvements, err := m.advisor.Refine(ctx, section, m.in.job)
	if err != nil {
		m.logger.Warn("refinement failed", zap.Error(err))
		return nil
	}

	if len(improvements) == 0 {
		fmt.Fprintln(m.out, "No improvements suggested.")
		return nil
	}
	for i, imp := range improvements {
		fmt.Fprintf(m.out, "\n%d. %s\n   → %s\n", i+1, imp.Original, imp.Rewrite)
		if imp.Explanation != "" {
			fmt.Fprintf(m.out, "   %s\n", imp.Explanation)
		}
	}
	fmt.Fprintln(m.out)
	return nil
}

// interview runs question/answer rounds until an empty answer.
func (m *menu) interview(ctx context.Context) error {
	fmt.Fprintln(m.out, "Mock interview started. Submit an empty answer to stop.")

	for {
		question, err := m.advisor.NextQuestion(ctx, m.in.job, m.session.Interview())
		if err != nil {
			m.logger.Warn("interview question failed", zap.Error(err))
			question = ai.FallbackQuestion
		}
		m.session.AppendInterview(ai.Turn{Role: ai.RoleAssistant, Content: question})

		fmt.Fprintf(m.out, "\nInterviewer: %s\n", question)

		answer, err := readLine("Answer")
		if err != nil || answer == "" {
			return nil
		}
		feedback, err := m.session.AnswerInterview(answer, func(asked string) string {
			feedback, err := m.advisor.EvaluateAnswer(ctx, asked, answer)
			if err != nil {
				m.logger.Warn("answer evaluation failed", zap.Error(err))
				return ai.FallbackFeedback
			}
			return feedback
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(m.out, "Feedback: %s\n", feedback)
	}
}

func readLine(label string) (string, error) {
	value, err := (&promptui.Prompt{Label: label}).Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
