package configwatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"practice_exam_backend/internal/config"
	"practice_exam_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader receives every successfully reloaded configuration.
type Reloader func(cfg *config.Config)

// Watcher reloads config.yaml after it changes. Bursts of events (editors
// often write, rename and chmod in one save) are collapsed into one reload.
type Watcher struct {
	file     string
	watcher  *fsnotify.Watcher
	Debounce time.Duration
	Load     func(dir string) (*config.Config, error)
}

// New watches the directory holding configFile, so replacing the file by
// rename is seen as well as writing it in place.
func New(configFile string) (*Watcher, error) {
	abs, err := filepath.Abs(configFile)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		file:     abs,
		watcher:  fw,
		Debounce: time.Second,
		Load:     config.LoadConfig,
	}, nil
}

// Run blocks until ctx is done, calling reload after each settled change.
func (w *Watcher) Run(ctx context.Context, reload Reloader) {
	defer w.watcher.Close()

	timer := time.NewTimer(w.Debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.Debounce)
		case <-timer.C:
			cfg, err := w.Load(filepath.Dir(w.file))
			if err != nil {
				logger.Log.Error("Failed to reload config", zap.String("file", w.file), zap.Error(err))
				continue
			}
			logger.Log.Info("Config reloaded", zap.String("file", w.file))
			reload(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
