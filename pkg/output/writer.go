// Package output persists carousel artifacts.
package output

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/menta2k/panorama-carousel/internal/utils"
	"github.com/menta2k/panorama-carousel/pkg/processing"
	"github.com/menta2k/panorama-carousel/pkg/types"
)

// ErrSave is wrapped by every failure to persist an artifact
var ErrSave = errors.New("cannot save artifact")

// ArtifactWriter receives finished rasters. name carries no extension;
// the writer decides how the artifact is encoded and stored.
type ArtifactWriter interface {
	Save(ctx context.Context, img image.Image, name string) error
}

// ArtifactError reports which artifact failed to save
type ArtifactError struct {
	Name string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("could not save %s: %v", e.Name, e.Err)
}

func (e *ArtifactError) Unwrap() []error {
	return []error{ErrSave, e.Err}
}

// DirWriter encodes artifacts into files inside a directory
type DirWriter struct {
	dir       string
	opts      types.OutputOptions
	processor *processing.Processor
	logger    *zap.Logger
}

// NewDirWriter creates a writer for dir. The directory is created on the
// first Save, so a run that fails before writing leaves nothing behind.
func NewDirWriter(dir string, opts types.OutputOptions, logger *zap.Logger) (*DirWriter, error) {
	format, err := processing.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format
	if opts.Quality == 0 {
		opts.Quality = processing.DefaultQuality
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirWriter{
		dir:       dir,
		opts:      opts,
		processor: processing.NewProcessor(),
		logger:    logger,
	}, nil
}

// Path returns the file an artifact called name is written to
func (w *DirWriter) Path(name string) string {
	return filepath.Join(w.dir, name+"."+w.opts.Format)
}

// Save encodes img to Path(name)
func (w *DirWriter) Save(ctx context.Context, img image.Image, name string) error {
	if err := ctx.Err(); err != nil {
		return &ArtifactError{Name: name, Err: err}
	}

	if err := utils.EnsureDir(w.dir); err != nil {
		return &ArtifactError{Name: name, Err: fmt.Errorf("failed to create output directory: %w", err)}
	}
	path := w.Path(name)
	if err := w.processor.SaveImage(img, path, w.opts.Format, w.opts.Quality, w.opts.Lossless); err != nil {
		return &ArtifactError{Name: name, Err: err}
	}

	fields := []zap.Field{zap.String("path", path)}
	if info, err := os.Stat(path); err == nil {
		fields = append(fields, zap.String("size", utils.FormatFileSize(info.Size())))
	}
	w.logger.Info("wrote", fields...)
	return nil
}

// MemoryWriter keeps artifacts in memory. It is safe for concurrent use.
type MemoryWriter struct {
	mu        sync.Mutex
	artifacts map[string]image.Image
}

// NewMemoryWriter creates an empty MemoryWriter
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{artifacts: map[string]image.Image{}}
}

// Save stores img under name, replacing any earlier artifact
func (w *MemoryWriter) Save(ctx context.Context, img image.Image, name string) error {
	if err := ctx.Err(); err != nil {
		return &ArtifactError{Name: name, Err: err}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.artifacts[name] = img
	return nil
}

// Get returns the artifact stored under name
func (w *MemoryWriter) Get(name string) (image.Image, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	img, ok := w.artifacts[name]
	return img, ok
}

// Names returns the stored artifact names in sorted order
func (w *MemoryWriter) Names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.artifacts))
	for name := range w.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored artifacts
func (w *MemoryWriter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.artifacts)
}
