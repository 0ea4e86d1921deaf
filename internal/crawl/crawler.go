package crawl

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"articles/backend/internal/article"
	"articles/backend/internal/extract"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

const (
	blogPathMarker      = "/blogs/"
	maxPageBytes        = int64(4_000_000)
	defaultCrawlTimeout = 15 * time.Second
	crawlerUserAgent    = "Mozilla/5.0 (compatible; articles-crawler/1.0)"
)

var ErrEmptyStartURL = errors.New("crawl start url is required")

type Crawler struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCrawler builds a crawler whose default client skips TLS verification.
func NewCrawler(timeout time.Duration, httpClient *http.Client, logger *zap.Logger) Crawler {
	if timeout <= 0 {
		timeout = defaultCrawlTimeout
	}
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		httpClient = &http.Client{Transport: transport, Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return Crawler{httpClient: httpClient, logger: logger}
}

// Scrape reads the blog listing at startURL and returns up to limit of the
// last linked posts as original articles. Posts missing a title or body are skipped.
func (c Crawler) Scrape(ctx context.Context, startURL string, limit int) ([]article.Article, error) {
	startURL = strings.TrimSpace(startURL)
	if startURL == "" {
		return nil, ErrEmptyStartURL
	}

	listing, _, err := c.fetchDocument(ctx, startURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	links := BlogLinks(listing, limit)
	c.logger.Info("blog links collected", zap.String("start_url", startURL), zap.Int("links", len(links)))

	out := make([]article.Article, 0, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		doc, raw, err := c.fetchDocument(ctx, link)
		if err != nil {
			c.logger.Warn("skipping blog post", zap.String("url", link), zap.Error(err))
			continue
		}

		title := pageTitle(doc, raw, link)
		content := extract.DocumentParagraphs(doc)
		if title == "" || content == "" {
			c.logger.Debug("blog post without title or content", zap.String("url", link))
			continue
		}

		out = append(out, article.Article{
			Title:     title,
			Content:   content,
			SourceURL: link,
			Type:      article.TypeOriginal,
		})
	}
	return out, nil
}

// BlogLinks returns the distinct absolute post links of a listing page in
// document order, keeping only the last limit of them.
func BlogLinks(doc *goquery.Document, limit int) []string {
	seen := make(map[string]struct{})
	links := make([]string, 0, 32)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(href, "http") || !strings.Contains(href, blogPathMarker) {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})

	if limit > 0 && len(links) > limit {
		links = links[len(links)-limit:]
	}
	return links
}

func (c Crawler) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", crawlerUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, nil, fmt.Errorf("%s returned %d", rawURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, raw, nil
}

func pageTitle(doc *goquery.Document, raw []byte, pageURL string) string {
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	fallback, err := readability.FromReader(bytes.NewReader(raw), parsedURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(fallback.Title)
}
