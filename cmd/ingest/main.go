package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tejaspachgade2315/Voosh/internal/ingestion"
	"github.com/tejaspachgade2315/Voosh/internal/platform/envutil"
	"github.com/tejaspachgade2315/Voosh/internal/platform/jina"
	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
	"github.com/tejaspachgade2315/Voosh/internal/vectorindex"
)

const defaultFeeds = "https://feeds.bbci.co.uk/news/rss.xml," +
	"http://rss.cnn.com/rss/edition.rss," +
	"https://feeds.reuters.com/reuters/topNews"

// Offline corpus build: RSS feeds -> cleaned article text -> overlapping
// chunks -> embedded and persisted vector index. Run before serving queries;
// the server only reads the snapshot this writes.
func main() {
	_ = godotenv.Load()

	var (
		feedsFlag = flag.String("feeds", "", "comma-separated RSS feed URLs (defaults to RSS_FEEDS env)")
		maxFlag   = flag.Int("max", 0, "max articles to ingest (defaults to INGEST_MAX_ARTICLES env)")
		clearFlag = flag.Bool("clear", false, "clear the existing index before ingesting")
	)
	flag.Parse()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	feeds := strings.Split(envutil.String("RSS_FEEDS", defaultFeeds), ",")
	if strings.TrimSpace(*feedsFlag) != "" {
		feeds = strings.Split(*feedsFlag, ",")
	}
	maxArticles := envutil.Int("INGEST_MAX_ARTICLES", 50)
	if *maxFlag > 0 {
		maxArticles = *maxFlag
	}

	embedDim := envutil.Int("EMBED_DIM", 768)
	local := jina.NewLocalEmbedder(embedDim)
	remote, err := jina.NewClient(log)
	if err != nil {
		log.Warn("embedding API client unavailable, local fallback only", "error", err)
	}
	embedder := jina.WithFallback(log, remote, local)

	index, err := vectorindex.New(log, embedder, envutil.String("INDEX_PATH", "data/vector_index.json"))
	if err != nil {
		log.Error("Could not init vector index", "error", err)
		os.Exit(1)
	}
	if *clearFlag {
		index.Clear()
		log.Info("index cleared")
	}

	fetcher, err := ingestion.NewFetcher(log)
	if err != nil {
		log.Error("Could not init fetcher", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), envutil.Seconds("INGEST_TIMEOUT_SECONDS", 10*time.Minute))
	defer cancel()

	articles, err := fetcher.FetchFeeds(ctx, feeds, maxArticles)
	if err != nil {
		log.Error("feed fetch failed", "error", err)
		os.Exit(1)
	}

	chunker := ingestion.NewChunker(envutil.Int("CHUNK_SIZE", 1200), envutil.Int("CHUNK_OVERLAP", 200))
	for _, article := range articles {
		chunks := chunker.Split(article)
		if len(chunks) == 0 {
			continue
		}
		if err := index.AddDocuments(ctx, chunks); err != nil {
			log.Error("indexing failed", "error", err, "title", article.Title)
			os.Exit(1)
		}
	}

	log.Info("ingestion complete", "articles", len(articles), "documents", index.Size(), "dim", index.Dim())
}
