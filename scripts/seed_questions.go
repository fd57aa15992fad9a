// Loads exam questions from a YAML file into the configured table store.
// Questions whose id already exists are skipped, so the script can be rerun.
//
// Usage: go run scripts/seed_questions.go -file scripts/questions.sample.yaml

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"practice_exam_backend/internal/app"
	"practice_exam_backend/internal/config"
	"practice_exam_backend/internal/model"
	"practice_exam_backend/internal/repository"
	"practice_exam_backend/internal/util"

	"gopkg.in/yaml.v3"
)

type seedQuestion struct {
	ID            string   `yaml:"id"`
	ExamType      string   `yaml:"examType"`
	Category      string   `yaml:"category"`
	Difficulty    string   `yaml:"difficulty"`
	Question      string   `yaml:"question"`
	Options       []string `yaml:"options"`
	CorrectAnswer int      `yaml:"correctAnswer"`
	Explanation   string   `yaml:"explanation"`
}

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yaml")
	file := flag.String("file", "scripts/questions.sample.yaml", "YAML file with a list of questions")
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	var seeds []seedQuestion
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Storage.Driver == config.StorageMemory {
		log.Fatal("storage.driver is memory; seeding it would be lost on exit")
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer application.Close()

	repo := repository.NewQuestionRepository(application.Store)
	ctx := context.Background()

	added, skipped := 0, 0
	for _, s := range seeds {
		q := &model.Question{
			ID:            s.ID,
			ExamType:      s.ExamType,
			Category:      s.Category,
			Difficulty:    s.Difficulty,
			QuestionText:  s.Question,
			Options:       s.Options,
			CorrectAnswer: s.CorrectAnswer,
			Explanation:   s.Explanation,
		}
		err := repo.Add(ctx, q)
		switch {
		case err == nil:
			added++
		case errors.Is(err, util.ErrQuestionExists):
			skipped++
		default:
			log.Fatalf("Failed to add question %s: %v", s.ID, err)
		}
	}

	log.Printf("Seeded %d questions, %d already present", added, skipped)
}
