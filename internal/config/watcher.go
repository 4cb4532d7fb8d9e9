package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// GenerationOverrides are the runtime-tunable generation settings. They map
// onto the non-secret fields of Generation; absent fields keep their
// current value.
type GenerationOverrides struct {
	Provider       *string  `yaml:"provider"`
	OpenAIModel    *string  `yaml:"openaiModel"`
	GeminiModel    *string  `yaml:"geminiModel"`
	MaxAttempts    *int     `yaml:"maxAttempts"`
	InitialBackoff *string  `yaml:"initialBackoff"`
	Temperature    *float64 `yaml:"temperature"`
	MaxTokens      *int     `yaml:"maxTokens"`
}

// Watcher hot reloads the generation overrides file so prompt-engineering
// iteration does not require restarts. Only enabled in development.
type Watcher struct {
	mu        sync.RWMutex
	current   Generation
	callbacks []func(Generation)
	path      string
	fsWatcher *fsnotify.Watcher
	logger    *zap.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewWatcher applies the overrides file once and, in development, keeps
// watching it for changes. A missing file is not an error.
func NewWatcher(cfg *Config, path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		current: cfg.Generation,
		path:    path,
		logger:  logger.Named("config"),
		stopCh:  make(chan struct{}),
	}

	if err := w.applyFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("apply generation overrides: %w", err)
	}

	if cfg.IsDevelopment() && path != "" {
		fsWatcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("create file watcher: %w", err)
		}
		if err := fsWatcher.Add(path); err != nil {
			// The file may not exist yet; watch its creation via the parent.
			w.logger.Debug("overrides file not watchable yet", zap.String("path", path), zap.Error(err))
		}
		w.fsWatcher = fsWatcher
		go w.loop()
		w.logger.Info("generation overrides hot reload enabled", zap.String("path", path))
	}
	return w, nil
}

// Generation returns the current effective generation settings.
func (w *Watcher) Generation() Generation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked with the new settings after a
// successful reload.
func (w *Watcher) OnChange(fn func(Generation)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, fn)
	w.mu.Unlock()
}

// Stop ends the watch loop.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.fsWatcher != nil {
			w.fsWatcher.Close()
		}
	})
}

func (w *Watcher) loop() {
	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				if err := w.applyFile(); err != nil {
					w.logger.Error("overrides reload failed", zap.Error(err))
					return
				}
				w.notify()
			})

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) applyFile() error {
	if w.path == "" {
		return nil
	}
	file, err := os.Open(w.path)
	if err != nil {
		return err
	}
	defer file.Close()

	var overrides GenerationOverrides
	if err := yaml.NewDecoder(file).Decode(&overrides); err != nil {
		return fmt.Errorf("parse %s: %w", w.path, err)
	}

	var backoff time.Duration
	if overrides.InitialBackoff != nil {
		backoff, err = time.ParseDuration(*overrides.InitialBackoff)
		if err != nil {
			return fmt.Errorf("parse initialBackoff %q: %w", *overrides.InitialBackoff, err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if overrides.Provider != nil {
		w.current.Provider = *overrides.Provider
	}
	if overrides.OpenAIModel != nil {
		w.current.OpenAIModel = *overrides.OpenAIModel
	}
	if overrides.GeminiModel != nil {
		w.current.GeminiModel = *overrides.GeminiModel
	}
	if overrides.MaxAttempts != nil && *overrides.MaxAttempts >= 1 {
		w.current.MaxAttempts = *overrides.MaxAttempts
	}
	if overrides.InitialBackoff != nil && backoff > 0 {
		w.current.InitialBackoff = backoff
	}
	if overrides.Temperature != nil {
		w.current.Temperature = *overrides.Temperature
	}
	if overrides.MaxTokens != nil && *overrides.MaxTokens > 0 {
		w.current.MaxTokens = *overrides.MaxTokens
	}

	w.logger.Info("generation overrides applied", zap.String("path", w.path))
	return nil
}

func (w *Watcher) notify() {
	w.mu.RLock()
	gen := w.current
	callbacks := make([]func(Generation), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, fn := range callbacks {
		fn(gen)
	}
}
