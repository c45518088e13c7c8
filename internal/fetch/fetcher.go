package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultChunkSize = 8192

// ProgressFunc returns a writer that receives every chunk written for name.
// total is -1 when the server does not announce a length.
type ProgressFunc func(name string, total int64) io.Writer

// Fetcher downloads a URL into Dir, naming the file after the last URL path
// segment. A repeated fetch of the same URL overwrites the earlier file.
type Fetcher struct {
	Client    *http.Client
	Dir       string
	ChunkSize int
	Progress  ProgressFunc
}

func New(client *http.Client, dir string, chunkSize int) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Fetcher{Client: client, Dir: dir, ChunkSize: chunkSize}
}

// FileName derives the local file name from rawURL.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", errors.New("url has no file name")
	}
	return name, nil
}

// Fetch streams rawURL to disk and returns the local path. Non-2xx responses
// and transport failures return a *domain.FetchError and leave no file behind.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Err: err}
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", &domain.LocalIOError{Op: "mkdir", Path: f.Dir, Err: err}
	}

	outPath := filepath.Join(f.Dir, name)
	out, err := os.Create(outPath)
	if err != nil {
		return "", &domain.LocalIOError{Op: "create", Path: outPath, Err: err}
	}

	var w io.Writer = out
	if f.Progress != nil {
		if pw := f.Progress(name, resp.ContentLength); pw != nil {
			w = io.MultiWriter(out, pw)
		}
	}

	chunkSize := f.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	written, copyErr := copyChunks(w, resp.Body, make([]byte, chunkSize))
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		// Best-effort remove of the partial file
		_ = os.Remove(outPath)
		if copyErr != nil {
			return "", &domain.FetchError{URL: rawURL, Err: copyErr}
		}
		return "", &domain.LocalIOError{Op: "close", Path: outPath, Err: closeErr}
	}

	log.Info().
		Str("url", rawURL).
		Str("file", outPath).
		Int64("bytes", written).
		Msg("file downloaded")

	return outPath, nil
}

// copyChunks reads src into buf and writes each chunk to dst. It never hands
// the copy to dst.ReadFrom, so every read is at most len(buf) bytes.
func copyChunks(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			wn, err := dst.Write(buf[:n])
			written += int64(wn)
			if err != nil {
				return written, err
			}
			if wn != n {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
