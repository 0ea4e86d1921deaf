package rewrite

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"articles/backend/internal/article"
	"articles/backend/internal/extract"

	"go.uber.org/zap"
)

// MinReferenceRunes is the shortest trimmed reference text the rewrite accepts.
const MinReferenceRunes = extract.MinParagraphRunes

type Tier string

const (
	TierLocalStore Tier = "local_store"
	TierSearch     Tier = "search"
)

type OriginalsLister interface {
	ListOtherOriginals(ctx context.Context, excludeID int64, limit int) ([]article.Article, error)
}

type ReferenceFinder interface {
	Find(ctx context.Context, query string) ([]string, error)
}

type ContentExtractor interface {
	Extract(ctx context.Context, rawURL string) (string, error)
}

type Resolution struct {
	References [referencesNeeded]string
	Links      []string
	Tier       Tier
}

type Resolver struct {
	store     OriginalsLister
	finder    ReferenceFinder
	extractor ContentExtractor
	logger    *zap.Logger
}

func NewResolver(store OriginalsLister, finder ReferenceFinder, extractor ContentExtractor, logger *zap.Logger) Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Resolver{store: store, finder: finder, extractor: extractor, logger: logger}
}

// Resolve acquires two reference texts for target. Stored originals are tried
// first; search and fetch run only when fewer than two are stored.
func (r Resolver) Resolve(ctx context.Context, target article.Article) (Resolution, error) {
	resolution, ok := r.fromStore(ctx, target)
	if !ok {
		var err *Error
		resolution, err = r.fromSearch(ctx, target)
		if err != nil {
			return Resolution{}, err
		}
	}

	for i, text := range resolution.References {
		if err := validateReference(i+1, text); err != nil {
			r.logger.Warn("reference rejected",
				zap.String("tier", string(resolution.Tier)),
				zap.Int("reference", i+1),
				zap.Int("length", utf8.RuneCountInString(strings.TrimSpace(text))),
			)
			return Resolution{}, err
		}
	}
	return resolution, nil
}

func (r Resolver) fromStore(ctx context.Context, target article.Article) (Resolution, bool) {
	if r.store == nil {
		return Resolution{}, false
	}

	others, err := r.store.ListOtherOriginals(ctx, target.ID, referencesNeeded)
	if err != nil {
		r.logger.Warn("local reference lookup failed", zap.Int64("article_id", target.ID), zap.Error(err))
		return Resolution{}, false
	}
	if len(others) < referencesNeeded {
		r.logger.Info("not enough stored originals for references",
			zap.Int64("article_id", target.ID),
			zap.Int("found", len(others)),
		)
		return Resolution{}, false
	}

	out := Resolution{Tier: TierLocalStore, Links: make([]string, 0, referencesNeeded)}
	for i, other := range others[:referencesNeeded] {
		out.References[i] = other.Content
		out.Links = append(out.Links, referenceLabel(other))
	}
	r.logger.Info("using stored originals as references", zap.Int64("article_id", target.ID), zap.Strings("links", out.Links))
	return out, true
}

func (r Resolver) fromSearch(ctx context.Context, target article.Article) (Resolution, *Error) {
	if r.finder == nil {
		return Resolution{}, resolutionFailure(0, newError(KindConfig, "SERPER_API_KEY is not set. Please set it in environment variables", nil))
	}

	links, err := r.finder.Find(ctx, target.Title)
	if err != nil {
		cause := AsError(err)
		r.logger.Warn("reference search failed", zap.Int64("article_id", target.ID), zap.String("kind", string(cause.Kind)), zap.Error(err))
		return Resolution{}, resolutionFailure(0, cause)
	}
	if len(links) < referencesNeeded {
		return Resolution{}, resolutionFailure(0, newError(
			KindInsufficientResults,
			fmt.Sprintf("Insufficient reference articles found from search. Found %d links, need at least %d", len(links), referencesNeeded),
			nil,
		))
	}

	out := Resolution{Tier: TierSearch, Links: append([]string(nil), links[:referencesNeeded]...)}
	for i, link := range out.Links {
		// A failed fetch stops the tier; the second link is not attempted.
		text, err := r.extractor.Extract(ctx, link)
		if err != nil {
			r.logger.Warn("reference fetch failed", zap.Int("reference", i+1), zap.String("url", link), zap.Error(err))
			return Resolution{}, resolutionFailure(i+1, newError(KindUpstream, fmt.Sprintf("Failed to fetch content from %s", link), err))
		}
		out.References[i] = text
	}
	return out, nil
}

func resolutionFailure(reference int, cause *Error) *Error {
	message := "Reference search is required but failed"
	switch {
	case reference > 0:
		message = fmt.Sprintf("Failed to fetch content from reference article %d", reference)
	case cause.Kind == KindInsufficientResults:
		message = "Reference search did not find enough usable articles. Add at least 2 original articles or check the search API configuration"
	case cause.Kind == KindConfig || cause.Kind == KindAuth || cause.Kind == KindQuotaOrConfig:
		message = "Reference search is required because fewer than 2 original articles are stored, but it is not usable"
	}
	return &Error{Kind: KindResolution, Reference: reference, Message: message, Err: cause}
}

func validateReference(index int, text string) *Error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinReferenceRunes {
		return &Error{
			Kind:      KindInsufficientContent,
			Reference: index,
			Message:   fmt.Sprintf("Reference article %d did not provide sufficient content", index),
		}
	}
	return nil
}

func referenceLabel(a article.Article) string {
	if source := strings.TrimSpace(a.SourceURL); source != "" {
		return source
	}
	return "Article: " + a.Title
}
