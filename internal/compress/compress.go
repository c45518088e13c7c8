// Package compress holds the compression step applied to downloaded files.
//
// Placeholder is the default and only writes random bytes; no transcoding
// happens. Gzip produces a real gzip stream of the source.
package compress

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/klauspost/compress/gzip"
)

// Compressor turns the file at src into dst.
type Compressor interface {
	OutputName(name string) string
	Compress(ctx context.Context, src, dst string) error
}

// CompressedName returns "<stem>_compressed<ext>".
func CompressedName(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_compressed" + ext
}

// Placeholder writes Size random bytes to the output file.
type Placeholder struct {
	Size int
}

func (p Placeholder) OutputName(name string) string {
	return CompressedName(name)
}

func (p Placeholder) Compress(_ context.Context, src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return &domain.LocalIOError{Op: "stat", Path: src, Err: err}
	}

	size := p.Size
	if size <= 0 {
		size = 1024
	}

	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		return fmt.Errorf("generate placeholder bytes: %w", err)
	}

	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return &domain.LocalIOError{Op: "write", Path: dst, Err: err}
	}
	return nil
}

// Gzip compresses the source with klauspost/compress at Level.
type Gzip struct {
	Level int
}

func (g Gzip) OutputName(name string) string {
	return CompressedName(name) + ".gz"
}

func (g Gzip) Compress(ctx context.Context, src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return &domain.LocalIOError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return &domain.LocalIOError{Op: "create", Path: dst, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &domain.LocalIOError{Op: "close", Path: dst, Err: cerr}
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	level := g.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	zw, err := gzip.NewWriterLevel(out, level)
	if err != nil {
		return fmt.Errorf("gzip writer: %w", err)
	}
	zw.Name = filepath.Base(src)

	if _, err := io.Copy(zw, &ctxReader{ctx: ctx, r: in}); err != nil {
		_ = zw.Close()
		return &domain.LocalIOError{Op: "compress", Path: src, Err: err}
	}
	if err := zw.Close(); err != nil {
		return &domain.LocalIOError{Op: "compress", Path: dst, Err: err}
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
