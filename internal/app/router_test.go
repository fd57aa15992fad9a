package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"practice_exam_backend/internal/config"
	"practice_exam_backend/internal/model"
	"practice_exam_backend/internal/util"
	"practice_exam_backend/pkg/tablestore"

	"github.com/gin-gonic/gin"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		Storage:   config.StorageConfig{Driver: config.StorageMemory},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1},
		Exam: config.ExamConfig{
			DefaultQuestionCount: 20,
			MaxQuestionCount:     100,
			MaxUpdateRetries:     3,
		},
	}
}

func newTestApp(t *testing.T, store tablestore.Store) *App {
	t.Helper()
	a := New(testConfig(), store)
	t.Cleanup(a.Close)
	return a
}

func do(t *testing.T, a *App, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func seedQuestions(t *testing.T, a *App) {
	t.Helper()
	for i, q := range []model.Question{
		{ID: "q1", ExamType: "AZ-900", QuestionText: "IaaS?", Options: []string{"yes", "no"}, CorrectAnswer: 0, Explanation: "e1"},
		{ID: "q2", ExamType: "AZ-900", QuestionText: "PaaS?", Options: []string{"yes", "no"}, CorrectAnswer: 1, Explanation: "e2"},
	} {
		w := do(t, a, http.MethodPost, "/api/questions", q)
		if w.Code != http.StatusCreated {
			t.Fatalf("seed %d: status %d body %s", i, w.Code, w.Body.String())
		}
	}
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, tablestore.NewMemoryStore())
	w := do(t, a, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	health := decode[model.HealthStatus](t, w)
	if health.Status != "healthy" || health.Version != Version || health.Timestamp.IsZero() {
		t.Errorf("health = %+v", health)
	}
	if w.Header().Get(util.RequestIDKey) == "" {
		t.Error("response has no request id")
	}
}

type downStore struct{ tablestore.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthReportsStorageOutage(t *testing.T) {
	a := newTestApp(t, downStore{tablestore.NewMemoryStore()})
	w := do(t, a, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestQuestionRoutes(t *testing.T) {
	a := newTestApp(t, tablestore.NewMemoryStore())
	seedQuestions(t, a)

	w := do(t, a, http.MethodGet, "/api/questions/az-900", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if got := decode[[]model.Question](t, w); len(got) != 2 {
		t.Errorf("listed %d questions, want 2", len(got))
	}

	w = do(t, a, http.MethodGet, "/api/questions/AZ-900/random/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("random status = %d", w.Code)
	}
	if got := decode[[]model.Question](t, w); len(got) != 1 {
		t.Errorf("random returned %d questions, want 1", len(got))
	}

	w = do(t, a, http.MethodGet, "/api/questions/AZ-900/random/lots", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad count status = %d, want 400", w.Code)
	}

	w = do(t, a, http.MethodGet, "/api/questions/UNKNOWN", nil)
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Errorf("unknown exam type = %d %s, want 200 []", w.Code, w.Body.String())
	}
}

func TestAddQuestion(t *testing.T) {
	a := newTestApp(t, tablestore.NewMemoryStore())

	w := do(t, a, http.MethodPost, "/api/questions", map[string]any{
		"examType": "AZ-104", "question": "Which role?", "options": []string{"Owner", "Reader"}, "correctAnswer": 1,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	created := decode[model.Question](t, w)
	if created.ID == "" || created.ExamType != "AZ-104" {
		t.Errorf("created = %+v", created)
	}

	w = do(t, a, http.MethodPost, "/api/questions", created)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}

	cases := map[string]any{
		"no exam type":     map[string]any{"question": "x", "options": []string{"a"}},
		"answer off range": map[string]any{"examType": "AZ-104", "question": "x", "options": []string{"a"}, "correctAnswer": 3},
		"not json":         "{",
	}
	for name, body := range cases {
		w := do(t, a, http.MethodPost, "/api/questions", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
		resp := decode[util.Response](t, w)
		if resp.Code != http.StatusBadRequest || resp.Message == "" {
			t.Errorf("%s: body = %+v", name, resp)
		}
	}
}

func TestExamLifecycle(t *testing.T) {
	a := newTestApp(t, tablestore.NewMemoryStore())
	seedQuestions(t, a)

	w := do(t, a, http.MethodPost, "/api/exam/start", map[string]any{"examType": "AZ-900", "questionCount": 2})
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d body %s", w.Code, w.Body.String())
	}
	summary := decode[model.ExamSessionSummary](t, w)
	if summary.UserID != util.AnonymousUser || len(summary.Questions) != 2 || summary.IsCompleted {
		t.Fatalf("summary = %+v", summary)
	}

	w = do(t, a, http.MethodGet, "/api/exam/"+summary.SessionID+"/questions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("session questions status = %d", w.Code)
	}
	questions := decode[[]model.Question](t, w)
	if len(questions) != 2 {
		t.Fatalf("session questions = %+v", questions)
	}
	for _, q := range questions {
		if q.Explanation != "" {
			t.Errorf("explanation served before completion: %+v", q)
		}
	}

	correct := map[string]int{"q1": 0, "q2": 1}
	for i, id := range summary.Questions {
		w = do(t, a, http.MethodPost, "/api/exam/answer", map[string]any{
			"sessionId": summary.SessionID, "questionIndex": i, "selectedAnswer": correct[id],
		})
		if w.Code != http.StatusOK || w.Body.String() != "Answer submitted successfully" {
			t.Fatalf("answer %d = %d %q", i, w.Code, w.Body.String())
		}
	}

	w = do(t, a, http.MethodPost, "/api/exam/answer", map[string]any{
		"sessionId": summary.SessionID, "questionIndex": 7, "selectedAnswer": 0,
	})
	if w.Code != http.StatusOK {
		t.Errorf("out of range answer status = %d, want 200", w.Code)
	}

	w = do(t, a, http.MethodPost, "/api/exam/complete", map[string]any{"sessionId": summary.SessionID})
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d body %s", w.Code, w.Body.String())
	}
	result := decode[model.ExamResult](t, w)
	if result.Score != 100 || result.CorrectAnswers != 2 || result.TotalQuestions != 2 || result.SessionID != summary.SessionID {
		t.Errorf("result = %+v", result)
	}

	w = do(t, a, http.MethodGet, "/api/exam/"+summary.SessionID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get session status = %d", w.Code)
	}
	session := decode[model.ExamSession](t, w)
	if !session.IsCompleted || session.EndTime == nil {
		t.Errorf("session = %+v", session)
	}

	w = do(t, a, http.MethodPost, "/api/exam/answer", map[string]any{
		"sessionId": summary.SessionID, "questionIndex": 0, "selectedAnswer": 1,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("answer after completion status = %d, want 409", w.Code)
	}
}

func TestExamErrors(t *testing.T) {
	a := newTestApp(t, tablestore.NewMemoryStore())

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"start without exam type", http.MethodPost, "/api/exam/start", map[string]any{"userId": "u"}, http.StatusBadRequest},
		{"start with zero count", http.MethodPost, "/api/exam/start", map[string]any{"examType": "AZ-900", "questionCount": 0}, http.StatusBadRequest},
		{"answer without index", http.MethodPost, "/api/exam/answer", map[string]any{"sessionId": "s", "selectedAnswer": 1}, http.StatusBadRequest},
		{"answer unknown session", http.MethodPost, "/api/exam/answer", map[string]any{"sessionId": "s", "questionIndex": 0, "selectedAnswer": 1}, http.StatusNotFound},
		{"complete unknown session", http.MethodPost, "/api/exam/complete", map[string]any{"sessionId": "s"}, http.StatusNotFound},
		{"complete without session", http.MethodPost, "/api/exam/complete", map[string]any{}, http.StatusBadRequest},
		{"get unknown session", http.MethodGet, "/api/exam/nope", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, a, tc.method, tc.path, tc.body)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestConfigCallbackUpdatesDefaultCount(t *testing.T) {
	a := newTestApp(t, tablestore.NewMemoryStore())

	next := testConfig()
	next.Exam.DefaultQuestionCount = 7
	a.applyConfig(next)

	if got := a.services.exam.DefaultQuestionCount(); got != 7 {
		t.Errorf("default question count = %d, want 7", got)
	}
}
