package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// ListResponse is the body of a listing or search.
type ListResponse struct {
	Items    []*models.Record `json:"items"`
	NextPage *string          `json:"next_page"`
}

// IDResponse is returned with 409 when the record already exists.
type IDResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and reported without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *services.ConflictError

	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, IDResponse{ID: conflict.ID})
	case errors.Is(err, common.ErrClientInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, common.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %v", common.ErrClientInput, err)
	}
	return nil
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var params models.CreateParams
	if err := decodeBody(r, &params); err != nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.svc.Create(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var params models.UpdateParams
	if err := decodeBody(r, &params); err != nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pageSize reads count, falling back to the default and rejecting values
// outside 1..MaxPageSize.
func (h *Handler) pageSize(q url.Values) (int, error) {
	raw := q.Get("count")
	if raw == "" {
		return h.opts.DefaultPageSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > h.opts.MaxPageSize {
		return 0, fmt.Errorf("%w: count must be between 1 and %d", common.ErrClientInput, h.opts.MaxPageSize)
	}
	return n, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	count, err := h.pageSize(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	term := q.Get("search")
	var anchor *string
	if a := q.Get("anchor"); a != "" {
		anchor = &a
	}

	page, err := h.svc.List(r.Context(), count, term, anchor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := ListResponse{Items: page.Items}
	if resp.Items == nil {
		resp.Items = []*models.Record{}
	}
	if page.NextCursor != nil {
		next := nextPage(r.URL.Path, count, term, *page.NextCursor)
		resp.NextPage = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// nextPage builds "<path>?count=..[&search=..]&anchor=..".
func nextPage(path string, count int, term, anchor string) string {
	parts := []string{"count=" + strconv.Itoa(count)}
	if term != "" {
		parts = append(parts, "search="+url.QueryEscape(term))
	}
	parts = append(parts, "anchor="+url.QueryEscape(anchor))
	return path + "?" + strings.Join(parts, "&")
}
