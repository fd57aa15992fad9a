package service

import (
	"context"
	"strings"

	"practice_exam_backend/internal/model"
	"practice_exam_backend/internal/repository"
	"practice_exam_backend/internal/util"

	"github.com/google/uuid"
)

type QuestionService struct {
	QuestionRepo     *repository.QuestionRepository
	MaxQuestionCount int
}

func NewQuestionService(questionRepo *repository.QuestionRepository, maxQuestionCount int) *QuestionService {
	return &QuestionService{
		QuestionRepo:     questionRepo,
		MaxQuestionCount: maxQuestionCount,
	}
}

// AddQuestion stores q, assigning a fresh id when the caller sent none.
func (s *QuestionService) AddQuestion(ctx context.Context, q *model.Question) (*model.Question, error) {
	if strings.TrimSpace(q.ID) == "" {
		q.ID = uuid.NewString()
	}
	if err := s.QuestionRepo.Add(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) ListQuestions(ctx context.Context, examType string) ([]model.Question, error) {
	if strings.TrimSpace(examType) == "" {
		return nil, util.NewValidationError("examType is required")
	}
	return s.QuestionRepo.ListByExamType(ctx, examType)
}

func (s *QuestionService) RandomQuestions(ctx context.Context, examType string, count int) ([]model.Question, error) {
	if strings.TrimSpace(examType) == "" {
		return nil, util.NewValidationError("examType is required")
	}
	if count < 0 {
		return nil, util.NewValidationError("count must not be negative")
	}
	if s.MaxQuestionCount > 0 && count > s.MaxQuestionCount {
		count = s.MaxQuestionCount
	}
	return s.QuestionRepo.SampleRandom(ctx, examType, count)
}
