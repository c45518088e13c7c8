package compress

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressedName(t *testing.T) {
	assert.Equal(t, "clip_compressed.mp4", CompressedName("clip.mp4"))
	assert.Equal(t, "archive.tar_compressed.gz", CompressedName("archive.tar.gz"))
	assert.Equal(t, "README_compressed", CompressedName("README"))
	assert.Equal(t, "clip_compressed.mp4", CompressedName("downloaded-files/clip.mp4"))
}

func TestPlaceholder(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("original"), 0o644))

	p := Placeholder{Size: 1024}
	dst := filepath.Join(dir, p.OutputName("clip.mp4"))
	require.NoError(t, p.Compress(context.Background(), src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), info.Size())
	assert.Equal(t, "clip_compressed.mp4", info.Name())
}

func TestPlaceholder_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Placeholder{}.Compress(context.Background(), filepath.Join(dir, "gone.mp4"), filepath.Join(dir, "out.mp4"))

	var ioErr *domain.LocalIOError
	require.True(t, errors.As(err, &ioErr))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestGzip_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte("frame "), 4096)
	src := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(src, content, 0o644))

	g := Gzip{}
	dst := filepath.Join(dir, g.OutputName("clip.mp4"))
	assert.Equal(t, "clip_compressed.mp4.gz", filepath.Base(dst))
	require.NoError(t, g.Compress(context.Background(), src, dst))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	assert.Equal(t, "clip.mp4", zr.Name)

	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestGzip_CancelledRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := filepath.Join(dir, "clip_compressed.mp4.gz")
	err := Gzip{}.Compress(ctx, src, dst)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(dst)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}
