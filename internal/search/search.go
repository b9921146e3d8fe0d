// Package search finds image URLs through web image-search engines and
// downloads them into a directory.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Sentinel errors for search operations.
var (
	// ErrNoResults indicates the engine returned no usable image URLs.
	ErrNoResults = errors.New("no image results")

	// ErrUnknownEngine indicates a configured engine name has no backend.
	ErrUnknownEngine = errors.New("unknown search engine")
)

// Backend queries one image-search engine.
type Backend interface {
	// Name identifies the engine in logs and scratch directory names.
	Name() string

	// Search returns up to max image URLs in the engine's ranking order.
	Search(ctx context.Context, query string, max int) ([]string, error)
}

// Options configures engines built by New.
type Options struct {
	Client     *http.Client
	UserAgent  string
	Threads    int
	RateLimit  float64 // requests per second, 0 for unlimited
	RateBurst  int
	Timeout    time.Duration
	BingURL    string
	GoogleURL  string
	BrowserBin string
}

// Engine pairs a Backend with a Downloader.
type Engine struct {
	Backend
	downloader *Downloader
}

// NewEngine wraps an existing backend.
func NewEngine(b Backend, d *Downloader) *Engine {
	return &Engine{Backend: b, downloader: d}
}

// New builds the named engine ("google" or "bing").
func New(name string, opts Options) (*Engine, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	limiter := newLimiter(opts.RateLimit, opts.RateBurst)

	var b Backend
	switch name {
	case "bing":
		b = NewBing(client, opts.BingURL, opts.UserAgent, limiter)
	case "google":
		b = NewGoogle(opts.GoogleURL, opts.BrowserBin, opts.Timeout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}

	return NewEngine(b, NewDownloader(client, opts.UserAgent, opts.Threads, limiter)), nil
}

// Crawl searches for keyword and downloads up to max images into dir.
// It returns the number of files written.
func (e *Engine) Crawl(ctx context.Context, keyword string, max int, dir string) (int, error) {
	// Ask for extra URLs: dead links and non-image responses are common.
	urls, err := e.Search(ctx, keyword, max*3)
	if err != nil {
		return 0, fmt.Errorf("%s search: %w", e.Name(), err)
	}
	if len(urls) == 0 {
		return 0, ErrNoResults
	}
	slog.Debug("search results", "engine", e.Name(), "query", keyword, "urls", len(urls))

	return e.downloader.Fetch(ctx, urls, max, dir)
}

// Close releases backend resources such as a browser process.
func (e *Engine) Close() error {
	if c, ok := e.Backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
