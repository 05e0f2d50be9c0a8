package sinks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/log"
	"github.com/google/uuid"
)

// FileSink appends JSON lines to one file per sweep.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	path string
}

func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory for %q: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileSink{file: f, path: path}, nil
}

// NewSweepFileSink opens <dir>/<date>_<uuid>.jsonl for a single sweep.
func NewSweepFileSink(dir string, now time.Time) (*FileSink, error) {
	name := fmt.Sprintf("%s_%s.jsonl", now.UTC().Format("2006-01-02_15-04-05"), uuid.NewString())
	return NewFileSink(filepath.Join(dir, name))
}

// Path is the file being written.
func (fs *FileSink) Path() string {
	return fs.path
}

func (fs *FileSink) Write(event *log.LogEvent) error {
	logEntry := map[string]any{
		"level":   event.Level.String(),
		"time":    event.Timestamp,
		"message": event.Message,
	}
	for k, v := range event.Fields {
		logEntry[k] = v
	}

	data, err := json.Marshal(logEntry)
	if err != nil {
		return fmt.Errorf("failed to marshal log event for file sink: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, err := fs.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to file sink: %w", err)
	}
	return nil
}

func (fs *FileSink) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.file != nil {
		err := fs.file.Close()
		fs.file = nil
		return err
	}
	return nil
}
