package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"practice_exam_backend/internal/model"
	"practice_exam_backend/internal/util"
	"practice_exam_backend/pkg/logger"
	"practice_exam_backend/pkg/monitoring"
	"practice_exam_backend/pkg/tablestore"

	"go.uber.org/zap"
)

type SessionRepository struct {
	Store tablestore.Store
}

func NewSessionRepository(store tablestore.Store) *SessionRepository {
	return &SessionRepository{Store: store}
}

func (r *SessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	e, err := toSessionEntity(s)
	if err != nil {
		return err
	}
	err = r.Store.Insert(ctx, util.ExamSessionsTable, e)
	if errors.Is(err, tablestore.ErrEntityExists) {
		return fmt.Errorf("%w: %s/%s", util.ErrSessionExists, s.UserID, s.SessionID)
	}
	if err != nil {
		return storageError("create session", err)
	}
	s.ETag = e.ETag
	return nil
}

// Get returns the session with the ETag it was read at.
func (r *SessionRepository) Get(ctx context.Context, userID, sessionID string) (*model.ExamSession, error) {
	e, err := r.Store.Get(ctx, util.ExamSessionsTable, userID, sessionID)
	if errors.Is(err, tablestore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", util.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, storageError("get session", err)
	}
	return fromSessionEntity(e), nil
}

// Update writes s only if the stored version still equals expectedETag.
// On success s.ETag carries the new version.
func (r *SessionRepository) Update(ctx context.Context, s *model.ExamSession, expectedETag string) error {
	e, err := toSessionEntity(s)
	if err != nil {
		return err
	}
	err = r.Store.Update(ctx, util.ExamSessionsTable, e, expectedETag)
	switch {
	case errors.Is(err, tablestore.ErrVersionConflict):
		return fmt.Errorf("%w: %s", util.ErrVersionConflict, s.SessionID)
	case errors.Is(err, tablestore.ErrNotFound):
		return fmt.Errorf("%w: %s", util.ErrSessionNotFound, s.SessionID)
	case err != nil:
		return storageError("update session", err)
	}
	s.ETag = e.ETag
	return nil
}

func toSessionEntity(s *model.ExamSession) (*tablestore.Entity, error) {
	questions := s.Questions
	if questions == nil {
		questions = []string{}
	}
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}
	answers := s.Answers
	if answers == nil {
		answers = []*int{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	props := map[string]any{
		"SessionId":      s.SessionID,
		"UserId":         s.UserID,
		"ExamType":       s.ExamType,
		"QuestionsJson":  string(questionsJSON),
		"AnswersJson":    string(answersJSON),
		"StartTime":      formatTime(s.StartTime),
		"Score":          s.Score,
		"CorrectAnswers": s.CorrectAnswers,
		"IsCompleted":    s.IsCompleted,
	}
	if s.EndTime != nil {
		props["EndTime"] = formatTime(*s.EndTime)
	}

	return &tablestore.Entity{
		PartitionKey: s.UserID,
		RowKey:       s.SessionID,
		Properties:   props,
	}, nil
}

func fromSessionEntity(e *tablestore.Entity) *model.ExamSession {
	props := e.Properties
	s := &model.ExamSession{
		SessionID:   e.RowKey,
		UserID:      e.PartitionKey,
		ExamType:    propString(props, "ExamType"),
		IsCompleted: propBool(props, "IsCompleted"),
		ETag:        e.ETag,
	}
	s.Score, _ = propInt(props, "Score")
	s.CorrectAnswers, _ = propInt(props, "CorrectAnswers")
	if t, ok := propTime(props, "StartTime"); ok {
		s.StartTime = t
	}
	if t, ok := propTime(props, "EndTime"); ok {
		s.EndTime = &t
	}

	rawQuestions := propString(props, "QuestionsJson")
	questions, _, err := tryDecodeStringArray(rawQuestions)
	if err != nil {
		monitoring.DegradedRecords.WithLabelValues(util.ExamSessionsTable, "QuestionsJson").Inc()
		logger.Log.Error("Session question list unreadable",
			zap.String("session_id", s.SessionID),
			zap.String("raw", rawQuestions),
			zap.Error(err))
		questions = []string{}
	}
	s.Questions = questions

	rawAnswers := propString(props, "AnswersJson")
	answers, err := decodeAnswers(rawAnswers)
	if err != nil {
		monitoring.DegradedRecords.WithLabelValues(util.ExamSessionsTable, "AnswersJson").Inc()
		logger.Log.Warn("Session answers unreadable, treating all as unanswered",
			zap.String("session_id", s.SessionID),
			zap.String("raw", rawAnswers),
			zap.Error(err))
		answers = nil
	}
	s.Answers = fitAnswers(answers, len(questions))
	return s
}

// decodeAnswers reads a JSON array whose items are ints, nulls or numeric
// strings. Older rows hold plain ints, which read as answered.
func decodeAnswers(raw string) ([]*int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var items []any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}
	out := make([]*int, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		n, ok := toInt(item)
		if !ok {
			return nil, fmt.Errorf("answer %d: unexpected value %v", i, item)
		}
		out[i] = &n
	}
	return out, nil
}

// fitAnswers pads with unanswered slots or truncates so there is exactly one
// slot per question.
func fitAnswers(answers []*int, n int) []*int {
	out := make([]*int, n)
	copy(out, answers)
	return out
}
