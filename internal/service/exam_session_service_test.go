package service

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	"practice_exam_backend/internal/config"
	"practice_exam_backend/internal/model"
	"practice_exam_backend/internal/repository"
	"practice_exam_backend/internal/util"
	"practice_exam_backend/pkg/tablestore"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var examConfig = config.ExamConfig{
	DefaultQuestionCount: 20,
	MaxQuestionCount:     100,
	MaxUpdateRetries:     3,
}

// interferingStore lets a test run another writer just before an update
// reaches the underlying store.
type interferingStore struct {
	tablestore.Store

	mu          sync.Mutex
	beforeWrite func(ctx context.Context)
	updates     int
}

func (s *interferingStore) Update(ctx context.Context, table string, e *tablestore.Entity, etag string) error {
	s.mu.Lock()
	s.updates++
	hook := s.beforeWrite
	s.beforeWrite = nil
	s.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	return s.Store.Update(ctx, table, e, etag)
}

type fixture struct {
	store     *interferingStore
	questions *repository.QuestionRepository
	sessions  *repository.SessionRepository
	svc       *ExamSessionService
}

func newFixture(t *testing.T, pool map[string]int) *fixture {
	t.Helper()
	store := &interferingStore{Store: tablestore.NewMemoryStore()}
	questions := repository.NewQuestionRepository(store)
	questions.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(7)) }
	sessions := repository.NewSessionRepository(store)

	ctx := context.Background()
	for id, correct := range pool {
		q := &model.Question{
			ID:            id,
			ExamType:      "AZ-900",
			QuestionText:  "What is " + id + "?",
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: correct,
			Explanation:   "see docs",
		}
		if err := questions.Add(ctx, q); err != nil {
			t.Fatal(err)
		}
	}

	svc := NewExamSessionService(questions, sessions, examConfig)
	svc.Now = func() time.Time { return fixedNow }
	next := 0
	svc.NewID = func() string {
		next++
		return "session-" + strconv.Itoa(next)
	}
	return &fixture{store: store, questions: questions, sessions: sessions, svc: svc}
}

func TestStart(t *testing.T) {
	f := newFixture(t, map[string]int{"q1": 0, "q2": 1})
	ctx := context.Background()

	summary, err := f.svc.Start(ctx, "az-900", "", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if summary.UserID != util.AnonymousUser || summary.ExamType != "AZ-900" || summary.IsCompleted {
		t.Errorf("summary = %+v", summary)
	}
	if !summary.StartTime.Equal(fixedNow) {
		t.Errorf("StartTime = %v, want %v", summary.StartTime, fixedNow)
	}
	if len(summary.Questions) != 2 {
		t.Fatalf("questions = %v, want 2 ids", summary.Questions)
	}

	session, err := f.sessions.Get(ctx, util.AnonymousUser, summary.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(session.Answers) != 2 || session.Answers[0] != nil || session.Answers[1] != nil {
		t.Errorf("answers = %v, want two unanswered slots", session.Answers)
	}
	if session.EndTime != nil || session.Score != 0 {
		t.Errorf("fresh session carries completion fields: %+v", session)
	}
}

func TestStartDefaults(t *testing.T) {
	pool := map[string]int{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		pool[id] = 0
	}
	f := newFixture(t, pool)
	ctx := context.Background()

	f.svc.SetDefaultQuestionCount(3)
	summary, err := f.svc.Start(ctx, "AZ-900", "bob", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Questions) != 3 {
		t.Errorf("default count gave %d questions, want 3", len(summary.Questions))
	}

	summary, err = f.svc.Start(ctx, "AZ-900", "bob", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Questions) != 5 {
		t.Errorf("oversized request gave %d questions, want the whole pool of 5", len(summary.Questions))
	}

	if _, err := f.svc.Start(ctx, "  ", "bob", 1); !errors.Is(err, util.ErrValidation) {
		t.Errorf("blank exam type err = %v, want ErrValidation", err)
	}
	if _, err := f.svc.Start(ctx, "AZ-900", "bob", -1); !errors.Is(err, util.ErrValidation) {
		t.Errorf("negative count err = %v, want ErrValidation", err)
	}
}

func TestAnswer(t *testing.T) {
	f := newFixture(t, map[string]int{"q1": 0, "q2": 1})
	ctx := context.Background()
	summary, err := f.svc.Start(ctx, "AZ-900", "alice", 2)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Answer(ctx, summary.SessionID, "alice", 1, 3); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	once, _ := f.sessions.Get(ctx, "alice", summary.SessionID)

	if err := f.svc.Answer(ctx, summary.SessionID, "alice", 1, 3); err != nil {
		t.Fatalf("repeated Answer: %v", err)
	}
	twice, _ := f.sessions.Get(ctx, "alice", summary.SessionID)
	if !reflect.DeepEqual(once.Answers, twice.Answers) || once.ETag != twice.ETag {
		t.Errorf("repeating an answer changed the session: %v -> %v", once.Answers, twice.Answers)
	}
	if twice.Answers[1] == nil || *twice.Answers[1] != 3 || twice.Answers[0] != nil {
		t.Errorf("answers = %v, want [nil 3]", twice.Answers)
	}

	t.Run("index out of range is ignored", func(t *testing.T) {
		if err := f.svc.Answer(ctx, summary.SessionID, "alice", 5, 0); err != nil {
			t.Fatalf("err = %v, want nil", err)
		}
		after, _ := f.sessions.Get(ctx, "alice", summary.SessionID)
		if after.ETag != twice.ETag {
			t.Error("out of range answer wrote the session")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		err := f.svc.Answer(ctx, "nope", "alice", 0, 0)
		if !errors.Is(err, util.ErrSessionNotFound) {
			t.Errorf("err = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("wrong user", func(t *testing.T) {
		err := f.svc.Answer(ctx, summary.SessionID, "mallory", 0, 0)
		if !errors.Is(err, util.ErrSessionNotFound) {
			t.Errorf("err = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("completed session", func(t *testing.T) {
		if _, err := f.svc.Complete(ctx, summary.SessionID, "alice"); err != nil {
			t.Fatal(err)
		}
		err := f.svc.Answer(ctx, summary.SessionID, "alice", 0, 1)
		if !errors.Is(err, util.ErrSessionCompleted) {
			t.Errorf("err = %v, want ErrSessionCompleted", err)
		}
	})
}

func TestAnswerRetriesVersionConflict(t *testing.T) {
	f := newFixture(t, map[string]int{"q1": 0, "q2": 1})
	ctx := context.Background()
	summary, err := f.svc.Start(ctx, "AZ-900", "alice", 2)
	if err != nil {
		t.Fatal(err)
	}

	// another request answers slot 0 between our read and our write
	f.store.beforeWrite = func(ctx context.Context) {
		if err := f.svc.Answer(ctx, summary.SessionID, "alice", 0, 2); err != nil {
			t.Errorf("competing Answer: %v", err)
		}
	}
	if err := f.svc.Answer(ctx, summary.SessionID, "alice", 1, 1); err != nil {
		t.Fatalf("Answer after conflict: %v", err)
	}

	session, _ := f.sessions.Get(ctx, "alice", summary.SessionID)
	if session.Answers[0] == nil || *session.Answers[0] != 2 {
		t.Errorf("competing answer lost: %v", session.Answers)
	}
	if session.Answers[1] == nil || *session.Answers[1] != 1 {
		t.Errorf("retried answer lost: %v", session.Answers)
	}
	// ours, the competitor's, our retry
	if f.store.updates != 3 {
		t.Errorf("updates = %d, want 3", f.store.updates)
	}
}

func TestAnswerSurfacesPersistentConflict(t *testing.T) {
	f := newFixture(t, map[string]int{"q1": 0})
	ctx := context.Background()
	summary, err := f.svc.Start(ctx, "AZ-900", "alice", 1)
	if err != nil {
		t.Fatal(err)
	}

	conflicting := &alwaysConflicting{Store: f.store.Store}
	svc := NewExamSessionService(f.questions, repository.NewSessionRepository(conflicting), examConfig)
	err = svc.Answer(ctx, summary.SessionID, "alice", 0, 1)
	if !errors.Is(err, util.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
	if conflicting.attempts != examConfig.MaxUpdateRetries {
		t.Errorf("attempts = %d, want %d", conflicting.attempts, examConfig.MaxUpdateRetries)
	}
}

type alwaysConflicting struct {
	tablestore.Store
	attempts int
}

func (s *alwaysConflicting) Update(context.Context, string, *tablestore.Entity, string) error {
	s.attempts++
	return tablestore.ErrVersionConflict
}

func TestComplete(t *testing.T) {
	f := newFixture(t, map[string]int{"q1": 0, "q2": 1, "q3": 2})
	ctx := context.Background()
	summary, err := f.svc.Start(ctx, "AZ-900", "alice", 3)
	if err != nil {
		t.Fatal(err)
	}

	correctByID := map[string]int{"q1": 0, "q2": 1, "q3": 2}
	for i, id := range summary.Questions {
		if err := f.svc.Answer(ctx, summary.SessionID, "alice", i, correctByID[id]); err != nil {
			t.Fatal(err)
		}
	}

	result, err := f.svc.Complete(ctx, summary.SessionID, "alice")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result.Score != 100 || result.CorrectAnswers != 3 || result.TotalQuestions != 3 {
		t.Errorf("result = %+v, want 100%% with 3/3", result)
	}
	if !result.CompletionTime.Equal(fixedNow) {
		t.Errorf("CompletionTime = %v", result.CompletionTime)
	}

	stored, _ := f.sessions.Get(ctx, "alice", summary.SessionID)
	if !stored.IsCompleted || stored.EndTime == nil || stored.Score != 100 {
		t.Errorf("stored session = %+v", stored)
	}

	// a later change to the answer key must not regrade a completed session
	f.svc.Now = func() time.Time { return fixedNow.Add(time.Hour) }
	again, err := f.svc.Complete(ctx, summary.SessionID, "alice")
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if again.Score != result.Score || again.CorrectAnswers != result.CorrectAnswers ||
		!again.CompletionTime.Equal(result.CompletionTime) {
		t.Errorf("second Complete = %+v, want cached %+v", again, result)
	}
}

func TestCompleteScoring(t *testing.T) {
	f := newFixture(t, map[string]int{"q1": 0, "q2": 1, "q3": 2})
	ctx := context.Background()
	summary, err := f.svc.Start(ctx, "AZ-900", "alice", 3)
	if err != nil {
		t.Fatal(err)
	}

	// answer only the question whose key is 0 with 0; the other two stay unanswered
	for i, id := range summary.Questions {
		if id == "q1" {
			if err := f.svc.Answer(ctx, summary.SessionID, "alice", i, 0); err != nil {
				t.Fatal(err)
			}
		}
	}
	result, err := f.svc.Complete(ctx, summary.SessionID, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if result.CorrectAnswers != 1 || result.Score != 33 {
		t.Errorf("result = %+v, want 1 correct and 33%%", result)
	}
}

func TestCompleteEmptySession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	summary, err := f.svc.Start(ctx, "AZ-900", "alice", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Questions) != 0 {
		t.Fatalf("questions = %v, want none", summary.Questions)
	}

	result, err := f.svc.Complete(ctx, summary.SessionID, "alice")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result.Score != 0 || result.TotalQuestions != 0 {
		t.Errorf("result = %+v, want score 0 of 0", result)
	}
}

func TestCompleteMissingQuestionCountsIncorrect(t *testing.T) {
	f := newFixture(t, map[string]int{"q1": 1})
	ctx := context.Background()

	session := &model.ExamSession{
		SessionID: "legacy",
		UserID:    "alice",
		ExamType:  "AZ-900",
		Questions: []string{"q1", "deleted"},
		Answers:   []*int{intPtr(1), intPtr(0)},
		StartTime: fixedNow,
	}
	if err := f.sessions.Create(ctx, session); err != nil {
		t.Fatal(err)
	}

	result, err := f.svc.Complete(ctx, "legacy", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if result.CorrectAnswers != 1 || result.Score != 50 {
		t.Errorf("result = %+v, want 1 correct and 50%%", result)
	}

	if _, err := f.svc.Complete(ctx, "missing", "alice"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionQuestions(t *testing.T) {
	f := newFixture(t, map[string]int{"q1": 2, "q2": 3})
	ctx := context.Background()
	summary, err := f.svc.Start(ctx, "AZ-900", "", 2)
	if err != nil {
		t.Fatal(err)
	}

	questions, err := f.svc.SessionQuestions(ctx, summary.SessionID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions", len(questions))
	}
	for i, q := range questions {
		if q.ID != summary.Questions[i] {
			t.Errorf("question %d = %s, want %s", i, q.ID, summary.Questions[i])
		}
		if q.CorrectAnswer != 0 || q.Explanation != "" {
			t.Errorf("answer key leaked before completion: %+v", q)
		}
	}

	if _, err := f.svc.Complete(ctx, summary.SessionID, ""); err != nil {
		t.Fatal(err)
	}
	questions, err = f.svc.SessionQuestions(ctx, summary.SessionID, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range questions {
		if q.Explanation == "" {
			t.Errorf("explanation withheld after completion: %+v", q)
		}
	}
}

func TestScorePercent(t *testing.T) {
	cases := []struct{ correct, total, want int }{
		{0, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 12}, // 12.5 rounds to even
		{3, 8, 38}, // 37.5 rounds to even
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := scorePercent(tc.correct, tc.total); got != tc.want {
			t.Errorf("scorePercent(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func intPtr(v int) *int { return &v }
