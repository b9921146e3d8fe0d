package search

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// maxImageBytes caps a single download.
const maxImageBytes = 25 << 20

// Downloader fetches image URLs into a directory with a small worker pool.
type Downloader struct {
	client    *http.Client
	userAgent string
	threads   int
	limiter   *rate.Limiter
}

// NewDownloader creates a downloader. A nil limiter disables pacing.
func NewDownloader(client *http.Client, userAgent string, threads int, limiter *rate.Limiter) *Downloader {
	if threads <= 0 {
		threads = 4
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Downloader{client: client, userAgent: userAgent, threads: threads, limiter: limiter}
}

// Fetch downloads urls until max files have been written to dir, naming
// them 000001.<ext>, 000002.<ext>, ... in completion order. Failed URLs are
// logged and skipped. It returns the number of files written.
func (d *Downloader) Fetch(ctx context.Context, urls []string, max int, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create download directory: %w", err)
	}

	var written atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.threads)

	for i, u := range urls {
		if written.Load() >= int64(max) {
			break
		}
		g.Go(func() error {
			if written.Load() >= int64(max) {
				return nil
			}
			tmp := filepath.Join(dir, fmt.Sprintf(".part-%d", i))
			ext, err := d.fetchOne(ctx, u, tmp)
			if err != nil {
				_ = os.Remove(tmp)
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Debug("download failed", "url", u, "error", err)
				return nil
			}

			n := written.Add(1)
			if n > int64(max) {
				_ = os.Remove(tmp)
				return nil
			}
			return os.Rename(tmp, filepath.Join(dir, fmt.Sprintf("%06d%s", n, ext)))
		})
	}

	if err := g.Wait(); err != nil {
		return int(min(written.Load(), int64(max))), err
	}
	return int(min(written.Load(), int64(max))), nil
}

// fetchOne downloads one URL to dst and returns the file extension to use.
// The body must decode as a supported image; the extension follows the
// decoded format, not the response headers.
func (d *Downloader) fetchOne(ctx context.Context, rawURL, dst string) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if !imageType(resp.Header.Get("Content-Type"), rawURL) {
		return "", fmt.Errorf("not an image: %q", resp.Header.Get("Content-Type"))
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, io.LimitReader(resp.Body, maxImageBytes))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("empty body")
	}
	return decodedExt(dst)
}

// decodedExt checks that file holds a decodable image and returns the
// extension for its format.
func decodedExt(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return "", fmt.Errorf("undecodable image: %w", err)
	}
	ext, ok := formatExts[format]
	if !ok {
		return "", fmt.Errorf("unsupported image format %q", format)
	}
	return ext, nil
}

var formatExts = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
	"bmp":  ".bmp",
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// imageType reports whether a response content type may carry a supported
// image. Servers that send application/octet-stream are accepted when the
// URL names an image.
func imageType(contentType, rawURL string) bool {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if imageTypes[mediaType] {
		return true
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		switch strings.ToLower(path.Ext(strings.SplitN(rawURL, "?", 2)[0])) {
		case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
			return true
		}
	}
	return false
}
