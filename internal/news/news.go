// Package news serves cached Finnhub market headlines.
package news

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"FinDesk/internal/provider"
)

const (
	DefaultCategory = "general"
	DefaultTTL      = 10 * time.Minute
)

var categories = map[string]bool{
	"general": true,
	"forex":   true,
	"crypto":  true,
	"merger":  true,
}

// Article is one market headline.
type Article struct {
	ID        int64     `json:"id"`
	Category  string    `json:"category"`
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary,omitempty"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	Image     string    `json:"image,omitempty"`
	Related   string    `json:"related,omitempty"`
	Published time.Time `json:"published"`
}

type entry struct {
	articles []Article
	expires  time.Time
}

// Feed fetches market news and caches each category for a TTL.
type Feed struct {
	api   *finnhub.DefaultApiService
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu    sync.Mutex
	cache map[string]entry
}

// NewFeed returns a feed backed by Finnhub. Without an API key the feed is
// disabled and always returns an empty list.
func NewFeed(baseURL, apiKey, proxyURL string, ttl, timeout time.Duration) *Feed {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	f := &Feed{ttl: ttl, now: time.Now, cache: make(map[string]entry)}
	if apiKey != "" {
		f.api = provider.NewFinnhubAPI(baseURL, apiKey, proxyURL, timeout)
	}
	return f
}

// Enabled reports whether an API key was configured.
func (f *Feed) Enabled() bool { return f.api != nil }

// ValidCategory reports whether c is a category Finnhub understands.
func ValidCategory(c string) bool { return categories[c] }

// Latest returns the headlines of a category, newest first.
func (f *Feed) Latest(ctx context.Context, category string) ([]Article, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = DefaultCategory
	}
	if !ValidCategory(category) {
		return nil, fmt.Errorf("unknown news category %q", category)
	}
	if f.api == nil {
		return []Article{}, nil
	}

	f.mu.Lock()
	e, ok := f.cache[category]
	f.mu.Unlock()
	if ok && f.now().Before(e.expires) {
		return e.articles, nil
	}

	v, err, _ := f.group.Do(category, func() (any, error) {
		return f.fetch(ctx, category)
	})
	if err != nil {
		// serve stale headlines rather than nothing
		if ok {
			log.Warn().Err(err).Str("category", category).Msg("news refresh failed, serving cached")
			return e.articles, nil
		}
		return nil, err
	}
	return v.([]Article), nil
}

func (f *Feed) fetch(ctx context.Context, category string) ([]Article, error) {
	res, _, err := f.api.MarketNews(ctx).Category(category).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetch %s news: %w", category, err)
	}
	out := make([]Article, 0, len(res))
	for _, n := range res {
		out = append(out, Article{
			ID:        n.GetId(),
			Category:  n.GetCategory(),
			Headline:  n.GetHeadline(),
			Summary:   n.GetSummary(),
			Source:    n.GetSource(),
			URL:       n.GetUrl(),
			Image:     n.GetImage(),
			Related:   n.GetRelated(),
			Published: time.Unix(n.GetDatetime(), 0).UTC(),
		})
	}
	f.mu.Lock()
	f.cache[category] = entry{articles: out, expires: f.now().Add(f.ttl)}
	f.mu.Unlock()
	log.Debug().Str("category", category).Int("articles", len(out)).Msg("news refreshed")
	return out, nil
}
