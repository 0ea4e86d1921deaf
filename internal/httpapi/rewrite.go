package httpapi

import (
	"net/http"

	"articles/backend/internal/rewrite"
)

func (h Handler) RewriteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleIDParam(r)
	if err != nil {
		writeInvalidRequest(w, err)
		return
	}

	updated, err := h.rewriter.Run(r.Context(), id)
	if err != nil {
		rewriteErr := rewrite.AsError(err)
		writeError(w, rewriteErr.Status(), string(rewriteErr.Kind), rewriteErr.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
