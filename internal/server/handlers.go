package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/resume-fit/internal/ai"
	"github.com/spigell/resume-fit/internal/analysis"
	"github.com/spigell/resume-fit/internal/export"
	"github.com/spigell/resume-fit/internal/logger"
	"github.com/spigell/resume-fit/internal/session"
	"github.com/spigell/resume-fit/internal/taxonomy"
)

type analyzeRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	SessionID      string `json:"session_id"`
}

type analyzeResponse struct {
	SessionID string           `json:"session_id"`
	Report    *analysis.Report `json:"report"`
	Score     *ai.Score        `json:"score,omitempty"`
}

type chatRequest struct {
	Question string `json:"question" binding:"required"`
}

type coverLetterRequest struct {
	Tone ai.Tone `json:"tone"`
}

type refineRequest struct {
	Section string `json:"section" binding:"required"`
}

type answerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) taxonomies(c *gin.Context) {
	resume, job := s.registry.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		taxonomy.ResumeName: resume.Domains(),
		taxonomy.JobName:    job.Domains(),
	})
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("invalid analyze request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sess, err := s.sessions.Resolve(req.SessionID)
	if err != nil {
		s.sessionError(c, err)
		return
	}
	log := logger.WithSession(s.logger, sess.ID)

	ctx := c.Request.Context()
	report, err := s.analyzer.Run(ctx, req.ResumeText, req.JobDescription)
	if err != nil {
		log.Warn("analysis aborted", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis aborted"})
		return
	}

	var score *ai.Score
	if s.scorer != nil {
		score = ai.ScoreOrFallback(ctx, s.scorer, req.ResumeText, req.JobDescription)
		if score.Fallback {
			log.Warn("ats scoring failed", zap.String("summary", score.Summary))
		}
	}

	sess.Reset(report, score)

	log.Info("analysis stored",
		zap.String(logger.FieldClassification, string(report.Fit.Classification)),
		zap.String("job_category", report.JobCategory),
	)

	c.JSON(http.StatusOK, analyzeResponse{
		SessionID: sess.ID,
		Report:    report,
		Score:     score,
	})
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		s.sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) exportSession(c *gin.Context) {
	sess, ok := s.analyzed(c)
	if !ok {
		return
	}

	report, score := sess.Analysis()

	var buf bytes.Buffer
	if err := export.Write(&buf, report, score); err != nil {
		logger.WithSession(s.logger, sess.ID).Error("export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="resume-fit-%s.xlsx"`, sess.ID))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (s *Server) chat(c *gin.Context) {
	if !s.requireAdvisor(c) {
		return
	}
	sess, ok := s.analyzed(c)
	if !ok {
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	answer, err := s.advisor.Ask(c.Request.Context(), req.Question, sess.ChatContext())
	if err != nil {
		logger.WithSession(s.logger, sess.ID).Warn("chat failed", zap.Error(err))
		answer = ai.FallbackAnswer(err)
	}

	sess.AppendChat(
		ai.Turn{Role: ai.RoleUser, Content: req.Question},
		ai.Turn{Role: ai.RoleAssistant, Content: answer},
	)

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (s *Server) coverLetter(c *gin.Context) {
	if !s.requireAdvisor(c) {
		return
	}
	sess, ok := s.analyzed(c)
	if !ok {
		return
	}

	var req coverLetterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	if req.Tone != "" && !validTone(req.Tone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown tone %q", req.Tone), "tones": ai.Tones()})
		return
	}

	report, _ := sess.Analysis()
	letter, err := s.advisor.CoverLetter(c.Request.Context(), report.Resume.Text, report.Job.Text, req.Tone)
	if err != nil {
		s.upstreamError(c, sess.ID, "cover letter generation failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cover_letter": letter})
}

func (s *Server) refine(c *gin.Context) {
	if !s.requireAdvisor(c) {
		return
	}
	sess, ok := s.analyzed(c)
	if !ok {
		return
	}

	var req refineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "section is required"})
		return
	}

	report, _ := sess.Analysis()
	improvements, err := s.advisor.Refine(c.Request.Context(), req.Section, report.Job.Text)
	if err != nil {
		s.upstreamError(c, sess.ID, "refinement failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"improvements": improvements})
}

func (s *Server) interviewQuestion(c *gin.Context) {
	if !s.requireAdvisor(c) {
		return
	}
	sess, ok := s.analyzed(c)
	if !ok {
		return
	}

	report, _ := sess.Analysis()
	question, err := s.advisor.NextQuestion(c.Request.Context(), report.Job.Text, sess.Interview())
	if err != nil {
		logger.WithSession(s.logger, sess.ID).Warn("interview question failed", zap.Error(err))
		question = ai.FallbackQuestion
	}

	sess.AppendInterview(ai.Turn{Role: ai.RoleAssistant, Content: question})

	c.JSON(http.StatusOK, gin.H{"question": question})
}

func (s *Server) interviewAnswer(c *gin.Context) {
	if !s.requireAdvisor(c) {
		return
	}
	sess, ok := s.analyzed(c)
	if !ok {
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "answer is required"})
		return
	}

	ctx := c.Request.Context()
	feedback, err := sess.AnswerInterview(req.Answer, func(question string) string {
		feedback, err := s.advisor.EvaluateAnswer(ctx, question, req.Answer)
		if err != nil {
			logger.WithSession(s.logger, sess.ID).Warn("answer evaluation failed", zap.Error(err))
			return ai.FallbackFeedback
		}
		return feedback
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": feedback})
}

func (s *Server) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.sessionError(c, err)
		return nil, false
	}
	return sess, true
}

// analyzed looks the session up and requires it to hold an analysis.
func (s *Server) analyzed(c *gin.Context) (*session.Session, bool) {
	sess, ok := s.lookup(c)
	if !ok {
		return nil, false
	}
	if !sess.Analyzed() {
		c.JSON(http.StatusConflict, gin.H{"error": "run an analysis first"})
		return nil, false
	}
	return sess, true
}

func (s *Server) requireAdvisor(c *gin.Context) bool {
	if s.advisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ai features are disabled"})
		return false
	}
	return true
}

func (s *Server) sessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("session lookup failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (s *Server) upstreamError(c *gin.Context, sessionID, msg string, err error) {
	logger.WithSession(s.logger, sessionID).Warn(msg, zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": msg})
}

func validTone(tone ai.Tone) bool {
	for _, t := range ai.Tones() {
		if t == tone {
			return true
		}
	}
	return false
}
