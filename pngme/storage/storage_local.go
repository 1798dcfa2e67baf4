package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/flaneur2020/pngme/pngme/logger"
)

// LocalStorage reads and writes files on the local filesystem.
type LocalStorage struct{}

// NewLocalStorage constructs a LocalStorage.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// ReadFile reads the whole file.
func (s *LocalStorage) ReadFile(ctx context.Context, name string, progress ProgressCallback) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(name)
	if err != nil {
		logger.Error("Failed to open %s: %v", name, err)
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(int(stat.Size()))
	reader := &progressReader{
		ctx:      ctx,
		reader:   f,
		total:    stat.Size(),
		callback: progress,
	}
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	file := newFile(name, buf.Bytes())
	logger.Debug("Read %s: %d bytes (%s)", name, file.Size, file.Digest)
	return file, nil
}

// WriteFile replaces name with data. The data goes to a temporary file in the
// same directory which is then renamed over name, so a failed write leaves
// the original untouched. An existing file keeps its permission bits.
func (s *LocalStorage) WriteFile(ctx context.Context, name string, data []byte, progress ProgressCallback) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := os.FileMode(0644)
	if stat, err := os.Stat(name); err == nil {
		mode = stat.Mode().Perm()
	}

	dir := filepath.Dir(name)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		logger.Error("Failed to create temp file next to %s: %v", name, err)
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
				logger.Error("Failed to remove temp file %s: %v", tmpName, err)
			}
		}
	}()

	reader := &progressReader{
		ctx:      ctx,
		reader:   bytes.NewReader(data),
		total:    int64(len(data)),
		callback: progress,
	}
	if _, err := io.Copy(tmp, reader); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return nil, fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, name); err != nil {
		logger.Error("Failed to replace %s: %v", name, err)
		return nil, fmt.Errorf("failed to replace file: %w", err)
	}
	committed = true

	file := newFile(name, data)
	logger.Debug("Wrote %s: %d bytes (%s)", name, file.Size, file.Digest)
	return file, nil
}
