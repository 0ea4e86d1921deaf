package rewrite

import (
	"context"
	"errors"
	"fmt"

	"articles/backend/internal/article"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const updatedTitleSuffix = " (Updated)"

type ArticleStore interface {
	OriginalsLister
	Get(ctx context.Context, id int64) (article.Article, error)
	Create(ctx context.Context, in article.Article) (article.Article, error)
}

type ReferenceResolver interface {
	Resolve(ctx context.Context, target article.Article) (Resolution, error)
}

type RewriteGenerator interface {
	Generate(ctx context.Context, original, ref1, ref2 string, links []string) (string, error)
}

type Pipeline struct {
	store     ArticleStore
	resolver  ReferenceResolver
	generator RewriteGenerator
	logger    *zap.Logger
}

func NewPipeline(store ArticleStore, resolver ReferenceResolver, generator RewriteGenerator, logger *zap.Logger) Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Pipeline{store: store, resolver: resolver, generator: generator, logger: logger}
}

// Run rewrites the article with articleID and stores the result as a new
// updated article. Every returned error is a *Error.
func (p Pipeline) Run(ctx context.Context, articleID int64) (out article.Article, err error) {
	logger := p.logger.With(zap.String("run_id", uuid.NewString()), zap.Int64("article_id", articleID))

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("rewrite panicked", zap.Any("panic", recovered), zap.Stack("stack"))
			out, err = article.Article{}, newError(KindInternal, "Failed to rewrite article", fmt.Errorf("panic: %v", recovered))
		}
		if err != nil {
			rewriteErr := AsError(err)
			logger.Error("rewrite failed",
				zap.String("kind", string(rewriteErr.Kind)),
				zap.Int("status", rewriteErr.Status()),
				zap.Error(err),
			)
			err = rewriteErr
		}
	}()

	target, err := p.store.Get(ctx, articleID)
	if errors.Is(err, article.ErrNotFound) {
		return article.Article{}, newError(KindNotFound, fmt.Sprintf("Article %d not found", articleID), err)
	}
	if err != nil {
		return article.Article{}, err
	}

	resolution, err := p.resolver.Resolve(ctx, target)
	if err != nil {
		return article.Article{}, err
	}
	logger.Info("references resolved", zap.String("tier", string(resolution.Tier)), zap.Strings("links", resolution.Links))

	content, err := p.generator.Generate(ctx, target.Content, resolution.References[0], resolution.References[1], resolution.Links)
	if err != nil {
		return article.Article{}, err
	}

	created, err := p.store.Create(ctx, article.Article{
		Title:      target.Title + updatedTitleSuffix,
		Content:    content,
		Type:       article.TypeUpdated,
		References: resolution.Links,
	})
	if err != nil {
		return article.Article{}, fmt.Errorf("persist updated article: %w", err)
	}

	logger.Info("updated article stored", zap.Int64("updated_id", created.ID))
	return created, nil
}
