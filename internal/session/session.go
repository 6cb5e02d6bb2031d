// Package session keeps the per-user state around an analysis: the last
// report, its score and the chat and interview histories.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/resume-fit/internal/ai"
	"github.com/spigell/resume-fit/internal/analysis"
)

var (
	// ErrNoQuestion is returned when an answer arrives before any interview
	// question.
	ErrNoQuestion = errors.New("no interview question has been asked")
	// ErrAnswered is returned when the pending question already has an answer.
	ErrAnswered = errors.New("the last interview question has already been answered")
)

// Session is safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	now func() time.Time

	mu         sync.RWMutex
	touchedAt  time.Time
	generation uint64
	report     *analysis.Report
	score      *ai.Score
	chat       []ai.Turn
	interview  []ai.Turn
}

// View is a point-in-time copy of a session.
type View struct {
	ID        string           `json:"session_id"`
	CreatedAt time.Time        `json:"created_at"`
	Report    *analysis.Report `json:"report,omitempty"`
	Score     *ai.Score        `json:"score,omitempty"`
	Chat      []ai.Turn        `json:"chat"`
	Interview []ai.Turn        `json:"interview"`
}

func newSession(now func() time.Time) *Session {
	created := now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: created,
		now:       now,
		touchedAt: created,
	}
}

// Reset stores a new analysis and clears both histories, since they were
// grounded on the previous one.
func (s *Session) Reset(report *analysis.Report, score *ai.Score) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.report = report
	s.score = score
	s.chat = nil
	s.interview = nil
	s.generation++
	s.touchedAt = s.now()
}

// Analysis returns the stored report and score. The report is nil until the
// first Reset.
func (s *Session) Analysis() (*analysis.Report, *ai.Score) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.report, s.score
}

// Analyzed reports whether the session holds an analysis.
func (s *Session) Analyzed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.report != nil
}

// ChatContext grounds a chat question on the stored analysis.
func (s *Session) ChatContext() ai.ChatContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c ai.ChatContext
	if s.report != nil {
		c.ResumeText = s.report.Resume.Text
		c.JobText = s.report.Job.Text
		c.FitReasoning = s.report.Fit.Reasoning
	}
	if s.score != nil {
		c.ATSScore = s.score.Overall
	}
	return c
}

// AppendChat records chat turns.
func (s *Session) AppendChat(turns ...ai.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat = append(s.chat, turns...)
	s.touchedAt = s.now()
}

// Chat returns a copy of the chat history.
func (s *Session) Chat() []ai.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyTurns(s.chat)
}

// AppendInterview records interview turns.
func (s *Session) AppendInterview(turns ...ai.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interview = append(s.interview, turns...)
	s.touchedAt = s.now()
}

// AnswerInterview records answer to the pending interview question, asks
// evaluate for feedback on it and attaches the feedback to that answer. A
// question accepts a single answer; later ones fail with ErrAnswered until a
// new question is appended. evaluate runs without the session lock held.
func (s *Session) AnswerInterview(answer string, evaluate func(question string) string) (string, error) {
	s.mu.Lock()
	n := len(s.interview)
	if n == 0 {
		s.mu.Unlock()
		return "", ErrNoQuestion
	}
	if s.interview[n-1].Role != ai.RoleAssistant {
		s.mu.Unlock()
		return "", ErrAnswered
	}
	question := s.interview[n-1].Content
	s.interview = append(s.interview, ai.Turn{Role: ai.RoleUser, Content: answer})
	generation := s.generation
	s.touchedAt = s.now()
	s.mu.Unlock()

	feedback := evaluate(question)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A Reset during evaluation discards the answer along with the history.
	if s.generation == generation {
		s.interview[n].Feedback = feedback
		s.touchedAt = s.now()
	}
	return feedback, nil
}

// Interview returns a copy of the interview history.
func (s *Session) Interview() []ai.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyTurns(s.interview)
}

// View returns a copy of the session suitable for rendering.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return View{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Report:    s.report,
		Score:     s.score,
		Chat:      copyTurns(s.chat),
		Interview: copyTurns(s.interview),
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.touchedAt = s.now()
	s.mu.Unlock()
}

func (s *Session) lastTouched() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.touchedAt
}

func copyTurns(turns []ai.Turn) []ai.Turn {
	out := make([]ai.Turn, len(turns))
	copy(out, turns)
	return out
}
