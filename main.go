// @title Practice Exam API
// @version 1.0
// @description Question bank and exam session backend for certification practice exams.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api

package main

import (
	"flag"
	"log"
	"path/filepath"

	"practice_exam_backend/internal/app"
	"practice_exam_backend/internal/config"
	"practice_exam_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer logger.Log.Sync()

	application.ConfigFile = filepath.Join(*configDir, "config.yaml")
	if err := application.Run(); err != nil {
		logger.Log.Error("Server stopped", zap.Error(err))
	}
}
