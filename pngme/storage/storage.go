package storage

import (
	"context"
	"io"

	"github.com/opencontainers/go-digest"
)

// ProgressCallback is called while a file is read or written.
// current: bytes transferred so far
// total: file size (may be -1 if unknown)
type ProgressCallback func(current int64, total int64)

// File is the content of a PNG file along with its size and digest.
type File struct {
	Name   string
	Size   int64
	Digest digest.Digest
	Data   []byte
}

// Storage abstracts whole-file reads and writes of PNG files.
type Storage interface {
	ReadFile(ctx context.Context, name string, progress ProgressCallback) (*File, error)
	WriteFile(ctx context.Context, name string, data []byte, progress ProgressCallback) (*File, error)
}

func newFile(name string, data []byte) *File {
	return &File{
		Name:   name,
		Size:   int64(len(data)),
		Digest: digest.FromBytes(data),
		Data:   data,
	}
}

// progressReader wraps an io.Reader to report transfer progress and stop
// early once ctx is cancelled.
type progressReader struct {
	ctx      context.Context
	reader   io.Reader
	total    int64
	current  int64
	callback ProgressCallback
}

func (pr *progressReader) Read(p []byte) (int, error) {
	if err := pr.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := pr.reader.Read(p)
	pr.current += int64(n)
	if pr.callback != nil {
		pr.callback(pr.current, pr.total)
	}
	return n, err
}
