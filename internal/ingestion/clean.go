package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/tejaspachgade2315/Voosh/internal/platform/ctxutil"
)

const minReadableLength = 200

// extractArticleText downloads an article page and reduces it to plain text.
// Readability extraction runs first; pages it cannot parse fall back to a
// paragraph-level scrape.
func (f *Fetcher) extractArticleText(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "voosh-news-ingest/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch article: status=%d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read article: %w", err)
	}

	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse article url: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
	if err == nil {
		text := collapseWhitespace(article.TextContent)
		if len(text) >= minReadableLength {
			return text, nil
		}
	}

	text, qErr := scrapeParagraphs(bytes.NewReader(raw))
	if qErr != nil {
		if err != nil {
			return "", fmt.Errorf("readability: %v, goquery: %w", err, qErr)
		}
		return "", qErr
	}
	return text, nil
}

// scrapeParagraphs is the dumb fallback: every <p> long enough to carry
// prose, joined in document order.
func scrapeParagraphs(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, nav, footer, aside").Remove()

	var parts []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := collapseWhitespace(sel.Text())
		if len(text) >= 40 {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n"), nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
