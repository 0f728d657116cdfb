package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/tejaspachgade2315/Voosh/internal/platform/envutil"
	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
)

// Article is one fetched and cleaned news item, ready for chunking.
type Article struct {
	Title       string
	Source      string
	Link        string
	PublishedAt time.Time
	Text        string
}

type Fetcher struct {
	log         *logger.Logger
	httpClient  *http.Client
	parser      *gofeed.Parser
	concurrency int
}

func NewFetcher(log *logger.Logger) (*Fetcher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Fetcher{
		log:         log.With("service", "FeedFetcher"),
		httpClient:  &http.Client{Timeout: envutil.Seconds("INGEST_FETCH_TIMEOUT_SECONDS", 20*time.Second)},
		parser:      gofeed.NewParser(),
		concurrency: envutil.Int("INGEST_CONCURRENCY", 4),
	}, nil
}

// FetchFeeds pulls every feed, then fetches and cleans up to maxArticles
// article pages with bounded concurrency. Individual article failures are
// logged and skipped; a feed that cannot be parsed is skipped the same way.
func (f *Fetcher) FetchFeeds(ctx context.Context, feedURLs []string, maxArticles int) ([]Article, error) {
	if maxArticles <= 0 {
		maxArticles = 50
	}

	type feedItem struct {
		title     string
		source    string
		link      string
		published time.Time
		summary   string
	}

	items := make([]feedItem, 0, maxArticles)
	for _, feedURL := range feedURLs {
		feedURL = strings.TrimSpace(feedURL)
		if feedURL == "" {
			continue
		}
		feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			f.log.Warn("feed parse failed, skipping", "feed", feedURL, "error", err)
			continue
		}
		source := strings.TrimSpace(feed.Title)
		if source == "" {
			source = feedURL
		}
		for _, item := range feed.Items {
			if item == nil || strings.TrimSpace(item.Link) == "" {
				continue
			}
			published := time.Now().UTC()
			if item.PublishedParsed != nil {
				published = item.PublishedParsed.UTC()
			}
			items = append(items, feedItem{
				title:     strings.TrimSpace(item.Title),
				source:    source,
				link:      strings.TrimSpace(item.Link),
				published: published,
				summary:   strings.TrimSpace(item.Description),
			})
			if len(items) >= maxArticles {
				break
			}
		}
		if len(items) >= maxArticles {
			break
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no feed items found across %d feeds", len(feedURLs))
	}
	f.log.Info("feed items collected", "items", len(items), "feeds", len(feedURLs))

	articles := make([]Article, len(items))
	var mu sync.Mutex
	var kept int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, item := range items {
		g.Go(func() error {
			text, err := f.extractArticleText(gctx, item.link)
			if err != nil || strings.TrimSpace(text) == "" {
				if err != nil {
					f.log.Warn("article fetch failed, falling back to feed summary", "link", item.link, "error", err)
				}
				text = item.summary
			}
			if strings.TrimSpace(text) == "" {
				return nil
			}
			mu.Lock()
			articles[i] = Article{
				Title:       item.title,
				Source:      item.source,
				Link:        item.link,
				PublishedAt: item.published,
				Text:        text,
			}
			kept++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Article, 0, kept)
	for _, a := range articles {
		if a.Text != "" {
			out = append(out, a)
		}
	}
	f.log.Info("articles fetched", "kept", len(out), "dropped", len(items)-len(out))
	return out, nil
}
