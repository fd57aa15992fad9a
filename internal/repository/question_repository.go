package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"practice_exam_backend/internal/model"
	"practice_exam_backend/internal/util"
	"practice_exam_backend/pkg/logger"
	"practice_exam_backend/pkg/monitoring"
	"practice_exam_backend/pkg/tablestore"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RandSource returns a fresh pseudo-random generator for one sampling call.
type RandSource func() *rand.Rand

func TimeSeededRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

type QuestionRepository struct {
	Store    tablestore.Store
	NewRand  RandSource
	validate *validator.Validate
}

func NewQuestionRepository(store tablestore.Store) *QuestionRepository {
	return &QuestionRepository{
		Store:    store,
		NewRand:  TimeSeededRand,
		validate: validator.New(),
	}
}

func partitionFor(examType string) string {
	return strings.ToUpper(strings.TrimSpace(examType))
}

func (r *QuestionRepository) Add(ctx context.Context, q *model.Question) error {
	q.ID = strings.TrimSpace(q.ID)
	q.ExamType = partitionFor(q.ExamType)

	if err := r.validate.Struct(q); err != nil {
		return validationFailure(err)
	}
	if q.CorrectAnswer >= len(q.Options) {
		return util.NewValidationError("correctAnswer %d is out of range for %d options", q.CorrectAnswer, len(q.Options))
	}

	options, err := EncodeOptions(q.Options)
	if err != nil {
		return util.NewValidationError("options: %v", err)
	}

	e := &tablestore.Entity{
		PartitionKey: q.ExamType,
		RowKey:       q.ID,
		Properties: map[string]any{
			"Id":            q.ID,
			"ExamType":      q.ExamType,
			"Category":      q.Category,
			"Difficulty":    q.Difficulty,
			"Question":      q.QuestionText,
			"OptionsJson":   options,
			"CorrectAnswer": q.CorrectAnswer,
			"Explanation":   q.Explanation,
		},
	}

	err = r.Store.Insert(ctx, util.QuestionsTable, e)
	if errors.Is(err, tablestore.ErrEntityExists) {
		return fmt.Errorf("%w: %s/%s", util.ErrQuestionExists, e.PartitionKey, q.ID)
	}
	if err != nil {
		return storageError("add question", err)
	}
	return nil
}

// ListByExamType returns every readable question of the exam type. Records
// that cannot be converted are logged and skipped.
func (r *QuestionRepository) ListByExamType(ctx context.Context, examType string) ([]model.Question, error) {
	pk := partitionFor(examType)
	entities, err := r.Store.QueryPartition(ctx, util.QuestionsTable, pk)
	if err != nil {
		return nil, storageError("list questions", err)
	}

	out := make([]model.Question, 0, len(entities))
	for _, e := range entities {
		q, err := r.toQuestion(e)
		if err != nil {
			logger.Log.Error("Skipping unreadable question record",
				zap.String("exam_type", pk),
				zap.Error(err))
			continue
		}
		out = append(out, *q)
	}
	return out, nil
}

func (r *QuestionRepository) GetOne(ctx context.Context, examType, id string) (*model.Question, error) {
	pk := partitionFor(examType)
	e, err := r.Store.Get(ctx, util.QuestionsTable, pk, id)
	if errors.Is(err, tablestore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", util.ErrQuestionNotFound, pk, id)
	}
	if err != nil {
		return nil, storageError("get question", err)
	}
	return r.toQuestion(e)
}

// SampleRandom gives every question an independent random key, sorts by it and
// keeps the first count. Fewer come back when the pool is smaller.
func (r *QuestionRepository) SampleRandom(ctx context.Context, examType string, count int) ([]model.Question, error) {
	questions, err := r.ListByExamType(ctx, examType)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return []model.Question{}, nil
	}

	// stable starting order, so a seeded source reproduces a sample
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })

	rng := r.NewRand()
	type keyed struct {
		key int64
		q   model.Question
	}
	pool := make([]keyed, len(questions))
	for i, q := range questions {
		pool[i] = keyed{key: rng.Int63(), q: q}
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].key < pool[j].key })

	if count > len(pool) {
		count = len(pool)
	}
	out := make([]model.Question, count)
	for i := range out {
		out[i] = pool[i].q
	}
	return out, nil
}

func (r *QuestionRepository) toQuestion(e *tablestore.Entity) (q *model.Question, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			q, err = nil, fmt.Errorf("decode question: %v", rec)
		}
	}()

	props := e.Properties
	id := propString(props, "Id")
	if id == "" {
		id = e.RowKey
	}
	examType := propString(props, "ExamType")
	if examType == "" {
		examType = e.PartitionKey
	}

	rawOptions := propString(props, "OptionsJson")
	options, strategy := DecodeOptions(rawOptions)
	switch strategy {
	case "strict":
	case placeholderStrategy:
		monitoring.DegradedRecords.WithLabelValues(util.QuestionsTable, "OptionsJson").Inc()
		logger.Log.Warn("Options unreadable, substituting placeholders",
			zap.String("exam_type", e.PartitionKey),
			zap.String("question_id", id),
			zap.String("raw", rawOptions))
	default:
		monitoring.DegradedRecords.WithLabelValues(util.QuestionsTable, "OptionsJson").Inc()
		logger.Log.Warn("Options repaired from malformed encoding",
			zap.String("exam_type", e.PartitionKey),
			zap.String("question_id", id),
			zap.String("strategy", strategy))
	}

	correct, ok := propInt(props, "CorrectAnswer")
	if !ok {
		monitoring.DegradedRecords.WithLabelValues(util.QuestionsTable, "CorrectAnswer").Inc()
		logger.Log.Warn("CorrectAnswer unreadable, defaulting to 0",
			zap.String("exam_type", e.PartitionKey),
			zap.String("question_id", id),
			zap.Any("raw", props["CorrectAnswer"]))
	}

	return &model.Question{
		ID:            id,
		ExamType:      examType,
		Category:      propString(props, "Category"),
		Difficulty:    propString(props, "Difficulty"),
		QuestionText:  propString(props, "Question"),
		Options:       options,
		CorrectAnswer: correct,
		Explanation:   propString(props, "Explanation"),
	}, nil
}

func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return util.NewValidationError("%v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return util.NewValidationError("%s", strings.Join(fields, ", "))
}
