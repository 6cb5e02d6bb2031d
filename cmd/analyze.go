package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-fit/internal/ai"
	"github.com/spigell/resume-fit/internal/analysis"
	"github.com/spigell/resume-fit/internal/document"
	"github.com/spigell/resume-fit/internal/export"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare a resume with a job description",
	Example: `  resume-fit analyze --resume cv.pdf --job posting.txt
  resume-fit analyze -r cv.md --job-url https://example.com/jobs/42 --format json
  resume-fit analyze -r cv.pdf --job-text "Python, AWS, microservices" -i`,
	Run: func(cmd *cobra.Command, _ []string) {
		runAnalyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "resume file (.pdf, .txt or .md)")
	analyzeCmd.Flags().String("job", "", "file with the job description")
	analyzeCmd.Flags().String("job-url", "", "URL of the job posting")
	analyzeCmd.Flags().String("job-text", "", "job description text")
	analyzeCmd.Flags().StringP("format", "f", formatText, "output format: text or json")
	analyzeCmd.Flags().StringP("export", "o", "", "write the report to an Excel file")
	analyzeCmd.Flags().BoolP("interactive", "i", false, "open the interactive menu after the analysis")
	analyzeCmd.Flags().Bool("no-ai", false, "skip the AI collaborators even if enabled in config")

	analyzeCmd.MarkFlagRequired("resume")
	analyzeCmd.MarkFlagsOneRequired("job", "job-url", "job-text")
	analyzeCmd.MarkFlagsMutuallyExclusive("job", "job-url", "job-text")

	viper.BindPFlag("analyze.no-ai", analyzeCmd.Flags().Lookup("no-ai"))
}

// inputs is what the analyze command works on.
type inputs struct {
	resume string
	job    string
}

type analyzeOutput struct {
	Report *analysis.Report `json:"report"`
	Score  *ai.Score        `json:"score,omitempty"`
}

func runAnalyze(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logs go to stderr so the report can be piped.
	logger, err := newLogger("stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting the analysis", zap.String("version", version))

	format, _ := cmd.Flags().GetString("format")
	if format != formatText && format != formatJSON {
		logger.Fatal("unsupported output format", zap.String("format", format))
	}

	registry, err := buildRegistry(config, logger)
	if err != nil {
		logger.Fatal("loading taxonomies", zap.Error(err))
	}

	in, err := loadInputs(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading inputs", zap.Error(err))
	}

	report, err := analysis.New(registry, logger).Run(ctx, in.resume, in.job)
	if err != nil {
		logger.Fatal("analysis aborted", zap.Error(err))
	}

	var (
		scorer  ai.Scorer
		advisor ai.Advisor
	)
	if !viper.GetBool("analyze.no-ai") {
		scorer, advisor, err = newAI(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("ai features are disabled", zap.Error(err))
		}
	}

	var score *ai.Score
	if scorer != nil {
		score = ai.ScoreOrFallback(ctx, scorer, in.resume, in.job)
		if score.Fallback {
			logger.Warn("ats scoring failed", zap.String("summary", score.Summary))
		}
	}

	out := cmd.OutOrStdout()
	if err := writeReport(out, format, report, score); err != nil {
		logger.Fatal("writing report", zap.Error(err))
	}

	if path, _ := cmd.Flags().GetString("export"); path != "" {
		written, err := export.ToExcel(report, score, path)
		if err != nil {
			logger.Fatal("exporting report", zap.Error(err))
		}
		logger.Info("report exported", zap.String("filename", written))
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		menu := newMenu(out, in, report, score, advisor, logger)
		if err := menu.run(ctx); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// loadInputs reads the resume and the job description concurrently.
func loadInputs(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (inputs, error) {
	var in inputs

	resumePath, _ := cmd.Flags().GetString("resume")
	jobPath, _ := cmd.Flags().GetString("job")
	jobURL, _ := cmd.Flags().GetString("job-url")
	jobText, _ := cmd.Flags().GetString("job-text")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		text, err := document.ResumeText(gctx, resumePath, logger)
		if err != nil {
			return err
		}
		if text == "" {
			logger.Warn("no text extracted from the resume", zap.String("filename", resumePath))
		}
		in.resume = text
		return nil
	})

	g.Go(func() error {
		switch {
		case jobText != "":
			in.job = strings.TrimSpace(jobText)
		case jobPath != "":
			data, err := os.ReadFile(jobPath)
			if err != nil {
				return fmt.Errorf("read job description: %w", err)
			}
			in.job = strings.TrimSpace(string(data))
		case jobURL != "":
			text, err := document.FetchJob(gctx, jobURL, document.FetchOptions{
				Timeout:   config.Fetch.Timeout,
				UserAgent: config.Fetch.UserAgent,
			})
			if err != nil {
				return err
			}
			logger.Info("job description fetched", zap.String("url", jobURL), zap.Int("length", len(text)))
			in.job = text
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return inputs{}, err
	}
	return in, nil
}

func writeReport(w io.Writer, format string, report *analysis.Report, score *ai.Score) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(analyzeOutput{Report: report, Score: score})
	}

	if err := report.WriteText(w); err != nil {
		return err
	}
	if score != nil {
		writeScore(w, score)
	}
	return nil
}

func writeScore(w io.Writer, score *ai.Score) {
	fmt.Fprintln(w)
	if score.Fallback {
		fmt.Fprintf(w, "ATS score unavailable: %s\n", score.Summary)
		return
	}

	fmt.Fprintf(w, "ATS score: %.0f/100\n", score.Overall)
	fmt.Fprintf(w, "  skill match %.0f, experience relevance %.0f, formatting %.0f\n",
		score.Breakdown.SkillMatch, score.Breakdown.ExperienceRelevance, score.Breakdown.Formatting)
	if len(score.MissingSkills) > 0 {
		fmt.Fprintf(w, "  missing: %s\n", strings.Join(score.MissingSkills, ", "))
	}
	if score.Summary != "" {
		fmt.Fprintf(w, "  %s\n", score.Summary)
	}
}
