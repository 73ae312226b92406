// Package api exposes the whiteboard collection over HTTP.
//
//	GET    /boards?owner=ana          list board headers
//	POST   /boards                    create {"owner","title"}
//	GET    /boards/{id}               full board with elements
//	PATCH  /boards/{id}               {"title"} and/or {"elements"}
//	DELETE /boards/{id}               remove (missing is not an error)
//	GET    /boards/{id}/export        element array, ?format=json|yaml
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/easel/pkg/codec"
	"github.com/aretw0/easel/pkg/core"
)

// maxBody bounds request payloads; boards with many strokes stay well below it.
const maxBody = 8 << 20

// Handler serves the HTTP API on top of a core.Service.
type Handler struct {
	svc    *core.Service
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Handler.
func New(svc *core.Service, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns a chi router with the API and standard middleware mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	h.RegisterHTTP(r)
	return r
}

// RegisterHTTP registers the endpoints on r.
func (h *Handler) RegisterHTTP(r chi.Router) {
	r.Route("/boards", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Patch("/", h.handlePatch)
			r.Delete("/", h.handleDelete)
			r.Get("/export", h.handleExport)
		})
	})
}

// BoardSummary is the list representation of a board.
type BoardSummary struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"lastModified"`
}

func summary(wb core.Whiteboard) BoardSummary {
	return BoardSummary{ID: wb.ID, Owner: wb.Owner, Title: wb.Title, CreatedAt: wb.CreatedAt, UpdatedAt: wb.UpdatedAt}
}

// CreateRequest is the body of POST /boards.
type CreateRequest struct {
	Owner string `json:"owner"`
	Title string `json:"title"`
}

// PatchRequest is the body of PATCH /boards/{id}. Absent fields are unchanged.
type PatchRequest struct {
	Title    *string         `json:"title,omitempty"`
	Elements *[]core.Element `json:"elements,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	boards, err := h.svc.List(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]BoardSummary, 0, len(boards))
	for _, wb := range boards {
		out = append(out, summary(wb))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	wb, err := h.svc.Create(r.Context(), req.Owner, req.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/boards/"+wb.ID)
	writeJSON(w, http.StatusCreated, summary(wb))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	wb, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, core.ErrMalformed) {
		h.fail(w, r, err)
		return
	}
	if err != nil {
		h.logger.Warn("serving malformed board as empty", "id", wb.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, codec.FromWhiteboard(wb))
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req PatchRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()

	if req.Title != nil {
		if err := h.svc.Rename(ctx, id, *req.Title); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if req.Elements != nil {
		wb, err := h.svc.Get(ctx, id)
		if err != nil && !errors.Is(err, core.ErrMalformed) {
			h.fail(w, r, err)
			return
		}
		snap, err := core.FromElements(wb.Title, *req.Elements)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if err := h.svc.SaveSnapshot(ctx, id, snap.Touch(time.Now())); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	wb, err := h.svc.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.FromWhiteboard(wb))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	wb, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, core.ErrMalformed) {
		h.fail(w, r, err)
		return
	}
	data, filename, err := codec.Export(wb.Snapshot, wb.Title, format)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctype := "application/json"
	if format != "json" {
		ctype = "application/yaml"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrReadOnly):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
