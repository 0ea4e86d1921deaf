package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"articles/backend/internal/article"
	"articles/backend/internal/config"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type articleStore interface {
	Create(ctx context.Context, in article.Article) (article.Article, error)
	Get(ctx context.Context, id int64) (article.Article, error)
	List(ctx context.Context, kind article.Type) ([]article.Article, error)
	Update(ctx context.Context, id int64, edit article.Edit) (article.Article, error)
	Delete(ctx context.Context, id int64) error
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
}

type rewriter interface {
	Run(ctx context.Context, articleID int64) (article.Article, error)
}

type scraper interface {
	Scrape(ctx context.Context, startURL string, limit int) ([]article.Article, error)
}

type Handler struct {
	cfg      config.Config
	articles articleStore
	rewriter rewriter
	scraper  scraper
	logger   *zap.Logger
}

func NewHandler(cfg config.Config, articles articleStore, rewriter rewriter, scraper scraper, logger *zap.Logger) Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Handler{cfg: cfg, articles: articles, rewriter: rewriter, scraper: scraper, logger: logger}
}

func (h Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func articleIDParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("article id must be a positive integer")
	}
	return id, nil
}

// writeStoreError maps article store failures onto the error envelope.
func (h Handler) writeStoreError(w http.ResponseWriter, err error, action string) {
	var validationErr article.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "invalid_request", validationErr.Error())
	case errors.Is(err, article.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "article not found")
	default:
		h.logger.Error("article store failed", zap.String("action", action), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db_error", "failed to "+action)
	}
}
