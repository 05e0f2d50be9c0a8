// Package screenshot persists captured images and returns references to them.
package screenshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Meta identifies where an image came from.
type Meta struct {
	Instance string
	RunID    int64
	StepID   int64
}

// Sink stores one image and returns the reference recorded as run Data.
type Sink interface {
	Store(ctx context.Context, image []byte, name string, meta Meta) (string, error)
}

// Name builds a file name from the capture time.
func Name(t time.Time) string {
	return t.Format("2006-01-02_15-04-05") + "_" + uuid.NewString()[:8] + ".png"
}

// LocalSink writes images into a directory.
type LocalSink struct {
	Dir string
}

func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{Dir: dir}
}

func (l *LocalSink) Store(_ context.Context, image []byte, name string, _ Meta) (string, error) {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating screenshot dir %q: %w", l.Dir, err)
	}
	path := filepath.Join(l.Dir, filepath.Base(name))
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("writing screenshot %q: %w", path, err)
	}
	return path, nil
}
