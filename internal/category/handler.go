// Package category provides the HTTP handlers for the categories resource.
package category

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/HerbHall/videocatalog/internal/server"
	"github.com/HerbHall/videocatalog/internal/services"
)

const maxBodyBytes = 1 << 20

// Service is the set of category use cases the handler drives.
type Service interface {
	Create(ctx context.Context, in services.CreateCategoryInput) (services.CategoryOutput, error)
	Get(ctx context.Context, id string) (services.CategoryOutput, error)
	List(ctx context.Context, in services.ListCategoriesInput) (services.ListCategoriesOutput, error)
	Update(ctx context.Context, in services.UpdateCategoryInput) (services.CategoryOutput, error)
	Delete(ctx context.Context, id string) error
}

// Meta is the pagination block of a list response.
type Meta struct {
	Total       int `json:"total"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	LastPage    int `json:"last_page"`
}

// ItemResponse wraps a single category.
type ItemResponse struct {
	Data services.CategoryOutput `json:"data"`
}

// ListResponse wraps one page of categories.
type ListResponse struct {
	Data []services.CategoryOutput `json:"data"`
	Meta Meta                      `json:"meta"`
}

// Handler provides HTTP handlers for category endpoints.
type Handler struct {
	svc    Service
	logger *zap.Logger
}

// NewHandler creates a category Handler.
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.Named("category")}
}

// RegisterRoutes registers category routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/categories", h.handleList)
	mux.HandleFunc("POST /api/v1/categories", h.handleCreate)
	mux.HandleFunc("GET /api/v1/categories/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/v1/categories/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/v1/categories/{id}", h.handleDelete)
}

// handleList returns one page of categories. Query values are passed through
// raw; invalid paging falls back to defaults instead of failing.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.svc.List(r.Context(), services.ListCategoriesInput{
		Page:    queryValue(q, "page"),
		PerPage: queryValue(q, "per_page"),
		Sort:    queryValue(q, "sort"),
		SortDir: queryValue(q, "sort_dir"),
		Filter:  queryValue(q, "filter"),
	})
	if err != nil {
		server.WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Data: out.Items,
		Meta: Meta{
			Total:       out.Total,
			CurrentPage: out.CurrentPage,
			PerPage:     out.PerPage,
			LastPage:    out.LastPage,
		},
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in services.CreateCategoryInput
	if err := decodeBody(w, r, &in); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	out, err := h.svc.Create(r.Context(), in)
	if err != nil {
		server.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Location", "/api/v1/categories/"+out.ID)
	writeJSON(w, http.StatusCreated, ItemResponse{Data: out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		server.WriteError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, ItemResponse{Data: out})
}

// handleUpdate replaces name and description; is_active is applied only when
// present in the body.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateCategoryInput
	if err := decodeBody(w, r, &in); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	in.ID = r.PathValue("id")

	out, err := h.svc.Update(r.Context(), in)
	if err != nil {
		server.WriteError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, ItemResponse{Data: out})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		server.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryValue returns nil for an absent key so the search defaults apply.
func queryValue(q url.Values, key string) any {
	if !q.Has(key) {
		return nil
	}
	return q.Get(key)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return fmt.Errorf("invalid request body: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
