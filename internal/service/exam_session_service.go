package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"practice_exam_backend/internal/config"
	"practice_exam_backend/internal/model"
	"practice_exam_backend/internal/repository"
	"practice_exam_backend/internal/util"
	"practice_exam_backend/pkg/logger"
	"practice_exam_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExamSessionService runs the start → answer → complete lifecycle.
// Sessions are never locked in process; concurrent writers are serialized by
// the store ETag and the loser re-reads and retries.
type ExamSessionService struct {
	QuestionRepo *repository.QuestionRepository
	SessionRepo  *repository.SessionRepository

	Now   func() time.Time
	NewID func() string

	defaultCount atomic.Int64
	maxCount     int
	maxRetries   int
}

func NewExamSessionService(
	questionRepo *repository.QuestionRepository,
	sessionRepo *repository.SessionRepository,
	cfg config.ExamConfig,
) *ExamSessionService {
	s := &ExamSessionService{
		QuestionRepo: questionRepo,
		SessionRepo:  sessionRepo,
		Now:          func() time.Time { return time.Now().UTC() },
		NewID:        uuid.NewString,
		maxCount:     cfg.MaxQuestionCount,
		maxRetries:   cfg.MaxUpdateRetries,
	}
	if s.maxRetries < 1 {
		s.maxRetries = 1
	}
	s.SetDefaultQuestionCount(cfg.DefaultQuestionCount)
	return s
}

// SetDefaultQuestionCount changes the count used when Start is called without
// one. Non-positive values are ignored.
func (s *ExamSessionService) SetDefaultQuestionCount(n int) {
	if n <= 0 {
		return
	}
	s.defaultCount.Store(int64(n))
}

func (s *ExamSessionService) DefaultQuestionCount() int {
	return int(s.defaultCount.Load())
}

// Start samples questions and persists a new session. A zero count means the
// configured default.
func (s *ExamSessionService) Start(ctx context.Context, examType, userID string, count int) (*model.ExamSessionSummary, error) {
	examType = strings.TrimSpace(examType)
	if examType == "" {
		return nil, util.NewValidationError("examType is required")
	}
	if count < 0 {
		return nil, util.NewValidationError("questionCount must not be negative")
	}
	if count == 0 {
		count = s.DefaultQuestionCount()
	}
	if s.maxCount > 0 && count > s.maxCount {
		count = s.maxCount
	}
	userID = util.UserOrAnonymous(userID)

	questions, err := s.QuestionRepo.SampleRandom(ctx, examType, count)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	session := &model.ExamSession{
		SessionID: s.NewID(),
		UserID:    userID,
		ExamType:  strings.ToUpper(examType),
		Questions: ids,
		Answers:   make([]*int, len(ids)),
		StartTime: s.Now(),
	}
	if err := s.SessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	monitoring.SessionsStarted.WithLabelValues(session.ExamType).Inc()
	logger.Log.Info("Exam session started",
		zap.String("session_id", session.SessionID),
		zap.String("user_id", userID),
		zap.String("exam_type", session.ExamType),
		zap.Int("requested", count),
		zap.Int("questions", len(ids)))

	summary := session.Summary()
	return &summary, nil
}

// Answer records selectedAnswer at questionIndex. An index outside the
// session's question list is accepted and ignored.
func (s *ExamSessionService) Answer(ctx context.Context, sessionID, userID string, questionIndex, selectedAnswer int) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return util.NewValidationError("sessionId is required")
	}
	if selectedAnswer < 0 {
		return util.NewValidationError("selectedAnswer must not be negative")
	}

	_, err := s.mutate(ctx, util.UserOrAnonymous(userID), sessionID, func(session *model.ExamSession) (bool, error) {
		if session.IsCompleted {
			return false, fmt.Errorf("%w: %s", util.ErrSessionCompleted, sessionID)
		}
		if questionIndex < 0 || questionIndex >= len(session.Answers) {
			logger.Log.Debug("Ignoring answer outside the session",
				zap.String("session_id", sessionID),
				zap.Int("question_index", questionIndex),
				zap.Int("questions", len(session.Answers)))
			return false, nil
		}
		if current := session.Answers[questionIndex]; current != nil && *current == selectedAnswer {
			return false, nil
		}
		answer := selectedAnswer
		session.Answers[questionIndex] = &answer
		return true, nil
	})
	return err
}

// Complete grades the session and marks it completed. Completing again returns
// the stored result without regrading.
func (s *ExamSessionService) Complete(ctx context.Context, sessionID, userID string) (*model.ExamResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, util.NewValidationError("sessionId is required")
	}

	var graded bool
	session, err := s.mutate(ctx, util.UserOrAnonymous(userID), sessionID, func(session *model.ExamSession) (bool, error) {
		if session.IsCompleted {
			graded = false
			return false, nil
		}
		correct, err := s.grade(ctx, session)
		if err != nil {
			return false, err
		}
		end := s.Now()
		session.CorrectAnswers = correct
		session.Score = scorePercent(correct, len(session.Questions))
		session.EndTime = &end
		session.IsCompleted = true
		graded = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if graded {
		monitoring.SessionsCompleted.WithLabelValues(session.ExamType).Inc()
		monitoring.ScorePercent.WithLabelValues(session.ExamType).Observe(float64(session.Score))
		logger.Log.Info("Exam session completed",
			zap.String("session_id", session.SessionID),
			zap.String("user_id", session.UserID),
			zap.Int("score", session.Score),
			zap.Int("correct", session.CorrectAnswers),
			zap.Int("total", len(session.Questions)))
	}

	result := session.Result()
	return &result, nil
}

// SessionQuestions returns the session's questions in session order. The
// answer key is withheld until the session is completed.
func (s *ExamSessionService) SessionQuestions(ctx context.Context, sessionID, userID string) ([]model.Question, error) {
	session, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.Question, 0, len(session.Questions))
	for _, id := range session.Questions {
		q, err := s.QuestionRepo.GetOne(ctx, session.ExamType, id)
		if errors.Is(err, util.ErrQuestionNotFound) {
			logger.Log.Warn("Session references a missing question",
				zap.String("session_id", session.SessionID),
				zap.String("question_id", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		if !session.IsCompleted {
			*q = q.StudentView()
		}
		out = append(out, *q)
	}
	return out, nil
}

func (s *ExamSessionService) GetSession(ctx context.Context, sessionID, userID string) (*model.ExamSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, util.NewValidationError("sessionId is required")
	}
	return s.SessionRepo.Get(ctx, util.UserOrAnonymous(userID), sessionID)
}

// mutate applies fn to a freshly read session and writes it back under the
// read ETag, re-reading on version conflicts up to maxRetries times. fn
// reports whether it changed the session; unchanged sessions are not written.
func (s *ExamSessionService) mutate(ctx context.Context, userID, sessionID string, fn func(*model.ExamSession) (bool, error)) (*model.ExamSession, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		session, err := s.SessionRepo.Get(ctx, userID, sessionID)
		if err != nil {
			return nil, err
		}

		changed, err := fn(session)
		if err != nil {
			return nil, err
		}
		if !changed {
			return session, nil
		}

		err = s.SessionRepo.Update(ctx, session, session.ETag)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, util.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		logger.Log.Debug("Session changed concurrently, retrying",
			zap.String("session_id", sessionID),
			zap.Int("attempt", attempt))

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// grade counts answers matching the stored correct answer. Unanswered slots
// and questions that no longer exist count as incorrect.
func (s *ExamSessionService) grade(ctx context.Context, session *model.ExamSession) (int, error) {
	correct := 0
	for i, id := range session.Questions {
		var answer *int
		if i < len(session.Answers) {
			answer = session.Answers[i]
		}

		q, err := s.QuestionRepo.GetOne(ctx, session.ExamType, id)
		if errors.Is(err, util.ErrQuestionNotFound) {
			logger.Log.Warn("Grading a missing question as incorrect",
				zap.String("session_id", session.SessionID),
				zap.String("question_id", id))
			continue
		}
		if err != nil {
			return 0, err
		}

		if answer != nil && *answer == q.CorrectAnswer {
			correct++
		}
	}
	return correct, nil
}

// scorePercent rounds half to even. An empty session scores 0.
func scorePercent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(correct) * 100 / float64(total)))
}
