package crawl

import (
	"context"
	"fmt"

	"articles/backend/internal/article"
)

type Store interface {
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	Create(ctx context.Context, in article.Article) (article.Article, error)
}

// SaveNew stores the articles whose source URL is not already present and
// returns how many were created.
func SaveNew(ctx context.Context, store Store, items []article.Article) (int, error) {
	created := 0
	for _, item := range items {
		exists, err := store.ExistsBySourceURL(ctx, item.SourceURL)
		if err != nil {
			return created, fmt.Errorf("check %s: %w", item.SourceURL, err)
		}
		if exists {
			continue
		}
		if _, err := store.Create(ctx, item); err != nil {
			return created, fmt.Errorf("save %s: %w", item.SourceURL, err)
		}
		created++
	}
	return created, nil
}
