package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	duckDuckGoHTMLURL    = "https://html.duckduckgo.com/html/"
	duckDuckGoInstantURL = "https://api.duckduckgo.com/"

	snippetSeparator = " \u2014 "

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// DuckDuckGoHTML scrapes the keyless HTML results page.
type DuckDuckGoHTML struct {
	baseURL    string
	httpClient *http.Client
}

// NewDuckDuckGoHTML creates the backend. An empty baseURL selects the public
// endpoint; a zero timeout selects DefaultTimeout.
func NewDuckDuckGoHTML(baseURL string, timeout time.Duration) *DuckDuckGoHTML {
	if baseURL == "" {
		baseURL = duckDuckGoHTMLURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DuckDuckGoHTML{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (d *DuckDuckGoHTML) Name() string { return "duckduckgo_html" }

func (d *DuckDuckGoHTML) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	body, err := get(ctx, d.httpClient, d.baseURL+"?q="+url.QueryEscape(query), "text/html")
	if err != nil {
		return nil, err
	}
	return parseHTMLResults(body, maxResults)
}

type htmlResult struct {
	title   string
	snippet string
}

// parseHTMLResults walks result divs and joins each title with its snippet.
func parseHTMLResults(body []byte, maxResults int) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var snippets []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if maxResults > 0 && len(snippets) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") && hasClass(n, "results_links") {
			r := extractResult(n)
			if text := joinNonEmpty(r.title, r.snippet); text != "" {
				snippets = append(snippets, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return snippets, nil
}

func extractResult(n *html.Node) htmlResult {
	var r htmlResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				r.title = textContent(n)
			case hasClass(n, "result__snippet"):
				r.snippet = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return r
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, snippetSeparator)
}

// DuckDuckGoInstant queries the Instant Answer JSON API. It only answers
// well-known topics, so it serves as the fallback backend.
type DuckDuckGoInstant struct {
	baseURL    string
	httpClient *http.Client
}

func NewDuckDuckGoInstant(baseURL string, timeout time.Duration) *DuckDuckGoInstant {
	if baseURL == "" {
		baseURL = duckDuckGoInstantURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DuckDuckGoInstant{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (d *DuckDuckGoInstant) Name() string { return "duckduckgo_instant" }

type instantTopic struct {
	Text   string         `json:"Text"`
	Topics []instantTopic `json:"Topics"`
}

type instantResponse struct {
	Heading       string         `json:"Heading"`
	AbstractText  string         `json:"AbstractText"`
	Answer        string         `json:"Answer"`
	RelatedTopics []instantTopic `json:"RelatedTopics"`
}

func (d *DuckDuckGoInstant) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	body, err := get(ctx, d.httpClient, d.baseURL+"?"+params.Encode(), "application/json")
	if err != nil {
		return nil, err
	}

	var resp instantResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse instant answer: %w", err)
	}

	var snippets []string
	add := func(s string) {
		if s != "" && (maxResults <= 0 || len(snippets) < maxResults) {
			snippets = append(snippets, s)
		}
	}
	if resp.AbstractText != "" {
		add(joinNonEmpty(resp.Heading, resp.AbstractText))
	}
	add(resp.Answer)

	var addTopics func([]instantTopic)
	addTopics = func(topics []instantTopic) {
		for _, t := range topics {
			add(t.Text)
			addTopics(t.Topics)
		}
	}
	addTopics(resp.RelatedTopics)
	return snippets, nil
}

func get(ctx context.Context, client *http.Client, target, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1MB limit
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
