// Package websearch provides web search for grounding replies in
// current information. Searches run against the DuckDuckGo HTML
// endpoint, which needs no API key, and a keyword detector decides
// when a user message calls for a search at all.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Result is a single web search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Service searches the web for a query.
type Service interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// DuckDuckGo is a Service backed by the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	baseURL    string
	httpClient *http.Client
}

// Config is the configuration for the DuckDuckGo client.
// BaseURL: Endpoint address, defaults to "https://html.duckduckgo.com/html/"
// Timeout: HTTP timeout, defaults to 10 seconds
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewDuckDuckGo creates a new DuckDuckGo search client.
func NewDuckDuckGo(cfg *Config) *DuckDuckGo {
	if cfg == nil {
		cfg = &Config{}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://html.duckduckgo.com/html/"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &DuckDuckGo{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search runs the query and returns up to maxResults hits.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) fennec/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	results, err := ParseResults(resp.Body, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}

	return results, nil
}

// ParseResults extracts search hits from a DuckDuckGo HTML result page.
//
// Hits are the anchors with class "result__a"; the snippet is the sibling
// element with class "result__snippet".
func ParseResults(r io.Reader, maxResults int) ([]Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []Result
	var current *Result

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults && current == nil {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				if current != nil && current.Title != "" {
					results = append(results, *current)
				}
				current = &Result{
					Title: strings.TrimSpace(textContent(n)),
					URL:   cleanURL(attr(n, "href")),
				}
				return
			case hasClass(n, "result__snippet"):
				if current != nil {
					current.Snippet = strings.TrimSpace(textContent(n))
					results = append(results, *current)
					current = nil
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if current != nil && current.Title != "" && len(results) < maxResults {
		results = append(results, *current)
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// cleanURL unwraps DuckDuckGo redirect links of the form
// //duckduckgo.com/l/?uddg=<encoded>.
func cleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if decoded, err := url.QueryUnescape(uddg); err == nil {
			return decoded
		}
	}
	if u.Scheme == "" && strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// FormatDigest renders results as a context block for the model.
func FormatDigest(query string, results []Result) string {
	if len(results) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Web search results for \"" + query + "\":\n")
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, r.Title))
		if r.Snippet != "" {
			sb.WriteString("   " + r.Snippet + "\n")
		}
		if r.URL != "" {
			sb.WriteString("   " + r.URL + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
