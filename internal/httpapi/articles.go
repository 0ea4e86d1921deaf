package httpapi

import (
	"net/http"
	"strings"

	"articles/backend/internal/article"
	"articles/backend/internal/crawl"

	"go.uber.org/zap"
)

type createArticleRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	SourceURL  string   `json:"source_url"`
	Type       string   `json:"type"`
	References []string `json:"references"`
}

type updateArticleRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	SourceURL *string `json:"source_url"`
}

func (h Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	kind := article.Type(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type"))))
	if kind != "" && kind != article.TypeOriginal && kind != article.TypeUpdated {
		writeError(w, http.StatusBadRequest, "invalid_request", "type must be original or updated")
		return
	}

	items, err := h.articles.List(r.Context(), kind)
	if err != nil {
		h.writeStoreError(w, err, "list articles")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleIDParam(r)
	if err != nil {
		writeInvalidRequest(w, err)
		return
	}

	item, err := h.articles.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "read article")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidRequest(w, err)
		return
	}

	created, err := h.articles.Create(r.Context(), article.Article{
		Title:      req.Title,
		Content:    req.Content,
		SourceURL:  req.SourceURL,
		Type:       article.Type(strings.ToLower(strings.TrimSpace(req.Type))),
		References: req.References,
	})
	if err != nil {
		h.writeStoreError(w, err, "create article")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleIDParam(r)
	if err != nil {
		writeInvalidRequest(w, err)
		return
	}

	var req updateArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidRequest(w, err)
		return
	}

	updated, err := h.articles.Update(r.Context(), id, article.Edit{
		Title:     req.Title,
		Content:   req.Content,
		SourceURL: req.SourceURL,
	})
	if err != nil {
		h.writeStoreError(w, err, "update article")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleIDParam(r)
	if err != nil {
		writeInvalidRequest(w, err)
		return
	}

	if err := h.articles.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "delete article")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// ScrapeArticles crawls the configured blog listing and stores posts not seen before.
func (h Handler) ScrapeArticles(w http.ResponseWriter, r *http.Request) {
	items, err := h.scraper.Scrape(r.Context(), h.cfg.CrawlStartURL, h.cfg.CrawlLimit)
	if err != nil {
		h.logger.Error("scrape failed", zap.String("start_url", h.cfg.CrawlStartURL), zap.Error(err))
		writeError(w, http.StatusBadGateway, "scrape_failed", err.Error())
		return
	}

	created, err := crawl.SaveNew(r.Context(), h.articles, items)
	if err != nil {
		h.writeStoreError(w, err, "save scraped articles")
		return
	}

	h.logger.Info("scrape completed", zap.Int("found", len(items)), zap.Int("created", created))
	writeJSON(w, http.StatusOK, map[string]any{"message": "Scraping completed", "created": created})
}
