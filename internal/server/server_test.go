package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-fit/internal/ai"
	"github.com/spigell/resume-fit/internal/export"
	"github.com/spigell/resume-fit/internal/fit"
	"github.com/spigell/resume-fit/internal/session"
	"github.com/spigell/resume-fit/internal/taxonomy"
)

const (
	backendResume = "Python developer building REST APIs and microservices with Django and Flask."
	backendJob    = "We need a backend engineer: Python, Java, microservices, API design, AWS and Docker."
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubScorer struct {
	score *ai.Score
	err   error
}

func (s *stubScorer) Score(context.Context, string, string) (*ai.Score, error) {
	return s.score, s.err
}

type stubAdvisor struct {
	err          error
	lastQuestion string
	lastContext  ai.ChatContext
	lastTone     ai.Tone
	lastHistory  []ai.Turn
}

func (a *stubAdvisor) Ask(_ context.Context, question string, c ai.ChatContext) (string, error) {
	a.lastQuestion = question
	a.lastContext = c
	return "Focus on Java.", a.err
}

func (a *stubAdvisor) CoverLetter(_ context.Context, _, _ string, tone ai.Tone) (string, error) {
	a.lastTone = tone
	return "Dear team", a.err
}

func (a *stubAdvisor) Refine(context.Context, string, string) ([]ai.Improvement, error) {
	if a.err != nil {
		return nil, a.err
	}
	return []ai.Improvement{{Original: "did stuff", Rewrite: "built APIs"}}, nil
}

func (a *stubAdvisor) NextQuestion(_ context.Context, _ string, history []ai.Turn) (string, error) {
	a.lastHistory = history
	return "Why Python?", a.err
}

func (a *stubAdvisor) EvaluateAnswer(_ context.Context, question, _ string) (string, error) {
	a.lastQuestion = question
	return "Clear answer.", a.err
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()

	if opts.Registry == nil {
		opts.Registry = taxonomy.NewRegistry(nil, nil)
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

type analyzeResult struct {
	SessionID string `json:"session_id"`
	Report    struct {
		JobCategory string     `json:"job_category"`
		Fit         fit.Result `json:"fit"`
	} `json:"report"`
	Score *ai.Score `json:"score"`
}

func analyzeOK(t *testing.T, s *Server, body map[string]string) analyzeResult {
	t.Helper()

	rec := do(t, s, http.MethodPost, "/api/v1/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res analyzeResult
	decode(t, rec, &res)
	return res
}

func TestNewRequiresRegistry(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestHealthAndTaxonomies(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/v1/taxonomies", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tables map[string][]taxonomy.Domain
	decode(t, rec, &tables)
	assert.Equal(t, taxonomy.Resume().Domains(), tables[taxonomy.ResumeName])
	assert.Equal(t, taxonomy.Job().Domains(), tables[taxonomy.JobName])
}

func TestAnalyze(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	s := newTestServer(t, Options{
		Scorer: &stubScorer{score: &ai.Score{Overall: 80, Summary: "good"}},
		Logger: zap.New(core),
	})

	res := analyzeOK(t, s, map[string]string{"resume_text": backendResume, "job_description": backendJob})

	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, fit.Aligned, res.Report.Fit.Classification)
	assert.Equal(t, "Backend", res.Report.JobCategory)
	require.NotNil(t, res.Score)
	assert.Equal(t, 80.0, res.Score.Overall)

	stored := observed.FilterMessage("analysis stored").All()
	require.Len(t, stored, 1)
	assert.Equal(t, res.SessionID, stored[0].ContextMap()["session_id"])

	again := analyzeOK(t, s, map[string]string{"resume_text": backendResume, "job_description": "", "session_id": res.SessionID})
	assert.Equal(t, res.SessionID, again.SessionID)
	assert.Equal(t, fit.InsufficientData, again.Report.Fit.Classification)
}

func TestAnalyzeScoreFallbackAndDisabledAI(t *testing.T) {
	s := newTestServer(t, Options{Scorer: &stubScorer{err: errors.New("quota exceeded")}})
	res := analyzeOK(t, s, map[string]string{"resume_text": backendResume, "job_description": backendJob})
	require.NotNil(t, res.Score)
	assert.True(t, res.Score.Fallback)
	assert.Contains(t, res.Score.Summary, "quota exceeded")

	plain := newTestServer(t, Options{})
	rec := do(t, plain, http.MethodPost, "/api/v1/analyze", map[string]string{"resume_text": backendResume, "job_description": backendJob})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"score"`)
}

func TestAnalyzeErrors(t *testing.T) {
	s := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/analyze", map[string]string{"resume_text": "x", "session_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionEndpoints(t *testing.T) {
	sessions := session.NewStore()
	s := newTestServer(t, Options{Sessions: sessions})

	rec := do(t, s, http.MethodGet, "/api/v1/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	empty := sessions.Create()
	rec = do(t, s, http.MethodGet, "/api/v1/sessions/"+empty.ID+"/export", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	res := analyzeOK(t, s, map[string]string{"resume_text": backendResume, "job_description": backendJob})

	rec = do(t, s, http.MethodGet, "/api/v1/sessions/"+res.SessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view session.View
	decode(t, rec, &view)
	assert.Equal(t, res.SessionID, view.ID)
	require.NotNil(t, view.Report)
	assert.Equal(t, fit.Aligned, view.Report.Fit.Classification)

	rec = do(t, s, http.MethodGet, "/api/v1/sessions/"+res.SessionID+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, f.GetSheetList(), export.MatchesSheet)
	f.Close()

	rec = do(t, s, http.MethodDelete, "/api/v1/sessions/"+res.SessionID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/v1/sessions/"+res.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChat(t *testing.T) {
	sessions := session.NewStore()
	advisor := &stubAdvisor{}
	s := newTestServer(t, Options{
		Sessions: sessions,
		Scorer:   &stubScorer{score: &ai.Score{Overall: 64}},
		Advisor:  advisor,
	})

	fresh := sessions.Create()
	rec := do(t, s, http.MethodPost, "/api/v1/sessions/"+fresh.ID+"/chat", map[string]string{"question": "hi"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	res := analyzeOK(t, s, map[string]string{"resume_text": backendResume, "job_description": backendJob})
	path := "/api/v1/sessions/" + res.SessionID + "/chat"

	rec = do(t, s, http.MethodPost, path, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, path, map[string]string{"question": "How do I improve?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"Focus on Java."}`, rec.Body.String())
	assert.Equal(t, 64.0, advisor.lastContext.ATSScore)
	assert.Equal(t, backendJob, advisor.lastContext.JobText)
	assert.Contains(t, advisor.lastContext.FitReasoning, "Backend")

	advisor.err = errors.New("model overloaded")
	rec = do(t, s, http.MethodPost, path, map[string]string{"question": "And now?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "I encountered an error: model overloaded")

	sess, err := sessions.Get(res.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Chat(), 4)

	analyzeOK(t, s, map[string]string{"resume_text": backendResume, "job_description": backendJob, "session_id": res.SessionID})
	assert.Empty(t, sess.Chat())
}

func TestAdvisorDisabled(t *testing.T) {
	s := newTestServer(t, Options{})
	res := analyzeOK(t, s, map[string]string{"resume_text": backendResume, "job_description": backendJob})

	for _, suffix := range []string{"/chat", "/cover-letter", "/refine", "/interview/question", "/interview/answer"} {
		rec := do(t, s, http.MethodPost, "/api/v1/sessions/"+res.SessionID+suffix, map[string]string{"question": "q"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, suffix)
	}
}

func TestCoverLetterAndRefine(t *testing.T) {
	advisor := &stubAdvisor{}
	s := newTestServer(t, Options{Advisor: advisor})
	res := analyzeOK(t, s, map[string]string{"resume_text": backendResume, "job_description": backendJob})
	base := "/api/v1/sessions/" + res.SessionID

	rec := do(t, s, http.MethodPost, base+"/cover-letter", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"cover_letter":"Dear team"}`, rec.Body.String())
	assert.Equal(t, ai.Tone(""), advisor.lastTone)

	rec = do(t, s, http.MethodPost, base+"/cover-letter", map[string]string{"tone": "Humble"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ai.ToneHumble, advisor.lastTone)

	rec = do(t, s, http.MethodPost, base+"/cover-letter", map[string]string{"tone": "Sarcastic"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, base+"/refine", map[string]string{"section": "did stuff"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "built APIs")

	advisor.err = errors.New("bad gateway")
	rec = do(t, s, http.MethodPost, base+"/refine", map[string]string{"section": "did stuff"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestInterview(t *testing.T) {
	sessions := session.NewStore()
	advisor := &stubAdvisor{}
	s := newTestServer(t, Options{Sessions: sessions, Advisor: advisor})
	res := analyzeOK(t, s, map[string]string{"resume_text": backendResume, "job_description": backendJob})
	base := "/api/v1/sessions/" + res.SessionID + "/interview"

	rec := do(t, s, http.MethodPost, base+"/answer", map[string]string{"answer": "early"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, base+"/question", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"question":"Why Python?"}`, rec.Body.String())
	assert.Empty(t, advisor.lastHistory)

	rec = do(t, s, http.MethodPost, base+"/answer", map[string]string{"answer": "It is productive."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"feedback":"Clear answer."}`, rec.Body.String())
	assert.Equal(t, "Why Python?", advisor.lastQuestion)

	rec = do(t, s, http.MethodPost, base+"/answer", map[string]string{"answer": "Second try."})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already been answered")

	advisor.err = errors.New("timeout")
	rec = do(t, s, http.MethodPost, base+"/question", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ai.FallbackQuestion)
	assert.Len(t, advisor.lastHistory, 2)

	rec = do(t, s, http.MethodPost, base+"/answer", map[string]string{"answer": "More."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ai.FallbackFeedback)

	sess, err := sessions.Get(res.SessionID)
	require.NoError(t, err)
	interview := sess.Interview()
	require.Len(t, interview, 4)
	assert.Equal(t, "Clear answer.", interview[1].Feedback)
	assert.Equal(t, ai.FallbackFeedback, interview[3].Feedback)
}

func TestInterviewConcurrentAnswers(t *testing.T) {
	sessions := session.NewStore()
	s := newTestServer(t, Options{Sessions: sessions, Advisor: &stubAdvisor{}})
	res := analyzeOK(t, s, map[string]string{"resume_text": backendResume, "job_description": backendJob})
	base := "/api/v1/sessions/" + res.SessionID + "/interview"

	rec := do(t, s, http.MethodPost, base+"/question", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	codes := make([]int, 8)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = do(t, s, http.MethodPost, base+"/answer", map[string]string{"answer": "Because of Django."}).Code
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, code := range codes {
		if code == http.StatusOK {
			accepted++
			continue
		}
		assert.Equal(t, http.StatusConflict, code)
	}
	assert.Equal(t, 1, accepted)

	sess, err := sessions.Get(res.SessionID)
	require.NoError(t, err)
	interview := sess.Interview()
	require.Len(t, interview, 2)
	assert.Equal(t, "Clear answer.", interview[1].Feedback)
}
