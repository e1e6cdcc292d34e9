// Package watcher turns request files dropped into the inbox directory
// into queued audit jobs.
package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/clobrano/contentaudit/internal/logger"
	"github.com/clobrano/contentaudit/internal/models"
	"github.com/clobrano/contentaudit/internal/queue"
)

// Request file extensions picked up from the inbox.
const (
	ExtAudit = ".audit"
	ExtURL   = ".url"
)

var ErrEmptyRequest = errors.New("request names no text, url or file")

type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	watchDir     string
	defaultUser  string
	queue        *queue.Queue
	log          *zap.Logger
	debounceTime time.Duration
	pending      map[string]time.Time
	mu           sync.Mutex
	done         chan struct{}
}

func New(watchDir, defaultUser string, q *queue.Queue, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:    fsw,
		watchDir:     watchDir,
		defaultUser:  defaultUser,
		queue:        q,
		log:          logger.OrNop(log),
		debounceTime: 500 * time.Millisecond,
		pending:      make(map[string]time.Time),
		done:         make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.watchDir); err != nil {
		return err
	}

	// Requests dropped while the daemon was down
	if err := w.processExisting(); err != nil {
		w.log.Warn("Error processing existing requests", zap.Error(err))
	}

	go w.run()
	go w.debounceLoop()

	return nil
}

func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) processExisting() error {
	entries, err := os.ReadDir(w.watchDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsRequestFile(entry.Name()) {
			continue
		}
		w.processFile(filepath.Join(w.watchDir, entry.Name()))
	}

	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				if IsRequestFile(filepath.Base(event.Name)) {
					w.scheduleProcess(event.Name)
				}
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Error("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) scheduleProcess(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now().Add(w.debounceTime)
}

func (w *Watcher) debounceLoop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			now := time.Now()
			var toProcess []string
			for path, deadline := range w.pending {
				if now.After(deadline) {
					toProcess = append(toProcess, path)
					delete(w.pending, path)
				}
			}
			w.mu.Unlock()

			for _, path := range toProcess {
				w.processFile(path)
			}
		}
	}
}

func (w *Watcher) processFile(path string) {
	req, err := ParseRequestFile(path, w.defaultUser)
	if err != nil {
		w.log.Warn("Ignoring request file", zap.String("path", path), zap.Error(err))
		return
	}

	job := models.NewJob(path, req)
	if err := w.queue.Enqueue(job); err != nil {
		w.log.Error("Error enqueuing job", zap.String("path", path), zap.Error(err))
		return
	}

	w.log.Info("Queued audit job",
		zap.String("job_id", job.ID),
		zap.String("user_id", req.UserID),
		zap.String("target", job.Target()),
	)
}

// IsRequestFile reports whether name is a request file the inbox accepts.
func IsRequestFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ExtAudit || ext == ExtURL
}

// ParseRequestFile reads a request file. Two layouts are accepted:
//
//	---
//	user_id: alice
//	url: https://example.com/offer
//	category: Health
//	---
//
// where any text after the closing marker becomes the request text when
// the front matter names no text, url or file; or a bare URL on the first
// line. Requests without a user_id are attributed to defaultUser.
func ParseRequestFile(path, defaultUser string) (models.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Request{}, err
	}
	content := strings.TrimSpace(string(data))

	var req models.Request
	if front, body, ok := splitFrontMatter(content); ok {
		if err := yaml.Unmarshal([]byte(front), &req); err != nil {
			return models.Request{}, fmt.Errorf("parse front matter: %w", err)
		}
		if req.Text == "" && req.URL == "" && req.File == "" {
			req.Text = body
		}
	} else if line := firstLine(content); line != "" {
		req.URL = line
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.URL = strings.TrimSpace(req.URL)
	req.File = strings.TrimSpace(req.File)
	if req.UserID == "" {
		req.UserID = defaultUser
	}
	if req.Text == "" && req.URL == "" && req.File == "" {
		return models.Request{}, ErrEmptyRequest
	}
	return req, nil
}

func splitFrontMatter(content string) (front, body string, ok bool) {
	if !strings.HasPrefix(content, "---") {
		return "", "", false
	}
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[1], strings.TrimSpace(parts[2]), true
}

func firstLine(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	return strings.TrimSpace(line)
}
