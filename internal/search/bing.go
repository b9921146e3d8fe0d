package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// Bing searches Bing Images through its async results endpoint, which
// returns server-rendered HTML.
type Bing struct {
	client    *http.Client
	endpoint  string
	userAgent string
	limiter   *rate.Limiter
}

// NewBing creates a Bing backend. endpoint defaults to the public service.
func NewBing(client *http.Client, endpoint, userAgent string, limiter *rate.Limiter) *Bing {
	if endpoint == "" {
		endpoint = "https://www.bing.com/images/async"
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Bing{client: client, endpoint: endpoint, userAgent: userAgent, limiter: limiter}
}

// Name implements Backend.
func (b *Bing) Name() string { return "bing" }

// Search implements Backend.
func (b *Bing) Search(ctx context.Context, query string, max int) ([]string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("first", "0")
	params.Set("count", strconv.Itoa(max))
	params.Set("adlt", "moderate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	urls, err := ParseBingResults(resp.Body, max)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, ErrNoResults
	}
	return urls, nil
}

// bingMeta is the JSON stored in the m attribute of each result anchor.
type bingMeta struct {
	MURL string `json:"murl"` // full-size media URL
	TURL string `json:"turl"` // thumbnail
}

// ParseBingResults extracts full-size image URLs from a results page:
// every <a class="iusc" m="{...}"> anchor carries the URL in its metadata.
func ParseBingResults(r io.Reader, max int) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	var urls []string
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if max > 0 && len(urls) >= max {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "iusc") {
			var meta bingMeta
			if raw := attr(n, "m"); raw != "" && json.Unmarshal([]byte(raw), &meta) == nil {
				if strings.HasPrefix(meta.MURL, "http") && !seen[meta.MURL] {
					seen[meta.MURL] = true
					urls = append(urls, meta.MURL)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return urls, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
