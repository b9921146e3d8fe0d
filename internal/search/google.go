package search

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Google searches Google Images. The results page is built by JavaScript,
// so it is rendered in a headless Chromium controlled through rod. The
// browser is launched on first use and reused until Close.
type Google struct {
	endpoint string
	bin      string
	timeout  time.Duration

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewGoogle creates a Google backend. bin overrides browser discovery.
func NewGoogle(endpoint, bin string, timeout time.Duration) *Google {
	if endpoint == "" {
		endpoint = "https://www.google.com/search"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Google{endpoint: endpoint, bin: bin, timeout: timeout}
}

// Name implements Backend.
func (g *Google) Name() string { return "google" }

// Search implements Backend.
func (g *Google) Search(ctx context.Context, query string, max int) ([]string, error) {
	browser, err := g.connect()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("tbm", "isch")

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: g.endpoint + "?" + params.Encode()})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for page: %w", err)
	}
	src, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	urls := ExtractGoogleURLs(src, max)
	if len(urls) == 0 {
		return nil, ErrNoResults
	}
	return urls, nil
}

func (g *Google) connect() (*rod.Browser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.browser != nil {
		return g.browser, nil
	}

	l := launcher.New().Headless(true)
	if g.bin != "" {
		l = l.Bin(g.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	g.launcher, g.browser = l, browser
	return browser, nil
}

// Close shuts the browser down if it was started.
func (g *Google) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.browser == nil {
		return nil
	}
	err := g.browser.Close()
	g.launcher.Kill()
	g.browser, g.launcher = nil, nil
	return err
}

// Result entries in the page's embedded data look like
// ["https://example.com/photo.jpg",1080,1920].
var googleImagePattern = regexp.MustCompile(`\["(https?://[^"]+?)",(\d+),(\d+)\]`)

// ExtractGoogleURLs pulls full-size image URLs out of a rendered results
// page, skipping Google's own thumbnail hosts.
func ExtractGoogleURLs(src string, max int) []string {
	var urls []string
	seen := make(map[string]bool)

	for _, m := range googleImagePattern.FindAllStringSubmatch(src, -1) {
		u := m[1]
		if unq, err := strconv.Unquote(`"` + u + `"`); err == nil {
			u = unq
		}
		if strings.Contains(u, "gstatic.com") || strings.Contains(u, "google.com") || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
		if max > 0 && len(urls) >= max {
			break
		}
	}
	return urls
}
