package book

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookstore/internal/httpx"
	"bookstore/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// List handles GET /books
// @Summary List books
// @Tags books
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Items per page (max 100)"
// @Success 200 {object} httpx.SuccessResponse{data=[]Book}
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	result, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		httpx.JSONInternalError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, result.Items, map[string]any{
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total":       result.Total,
		"total_pages": result.TotalPages(),
	})
}

// Get handles GET /books/{id}
// @Summary Show a book
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse{data=Book}
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		httpx.JSONNotFound(w, r, "Book not found")
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Create handles POST /books
// @Summary Store a new book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param book body CreateInput true "Book payload"
// @Success 201 {object} httpx.SuccessResponse{data=Book}
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Router /books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeBookFields(w, r)
	if !ok {
		return
	}
	in := CreateInput{
		Title:   deref(fields[fieldTitle]),
		Author:  deref(fields[fieldAuthor]),
		Summary: deref(fields[fieldSummary]),
		ISBN:    deref(fields[fieldISBN]),
	}

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, b)
}

// Update handles PUT and PATCH /books/{id}. Both accept any subset of fields.
// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param book body UpdateInput true "Fields to change"
// @Success 200 {object} httpx.SuccessResponse{data=Book}
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Router /books/{id} [put]
// @Router /books/{id} [patch]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		httpx.JSONNotFound(w, r, "Book not found")
		return
	}

	fields, ok := decodeBookFields(w, r)
	if !ok {
		return
	}
	in := UpdateInput{
		Title:   fields[fieldTitle],
		Author:  fields[fieldAuthor],
		Summary: fields[fieldSummary],
		ISBN:    fields[fieldISBN],
	}

	b, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Delete handles DELETE /books/{id}
// @Summary Delete a book
// @Tags books
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 204
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		httpx.JSONNotFound(w, r, "Book not found")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := validation.As(err); ok {
		httpx.JSONValidationError(w, r, verr)
		return
	}
	if errors.Is(err, ErrNotFound) {
		httpx.JSONNotFound(w, r, "Book not found")
		return
	}
	httpx.JSONInternalError(w, r, err)
}

const (
	fieldTitle   = "title"
	fieldAuthor  = "author"
	fieldSummary = "summary"
	fieldISBN    = "isbn"
)

var bookFields = []string{fieldTitle, fieldAuthor, fieldSummary, fieldISBN}

// decodeBookFields reads the book fields present in the body. An explicit
// null or a non-string value is a field error, not a malformed body. It
// writes the error response itself and reports false when the request is done.
func decodeBookFields(w http.ResponseWriter, r *http.Request) (map[string]*string, bool) {
	var raw map[string]json.RawMessage
	if err := httpx.DecodeJSON(r, &raw); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body", nil)
		return nil, false
	}

	fields := make(map[string]*string, len(bookFields))
	verr := &validation.Error{}
	for _, name := range bookFields {
		value, present := raw[name]
		if !present {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			verr.Add(name, name+" is required")
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			verr.Add(name, name+" must be a string")
			continue
		}
		fields[name] = &s
	}
	if len(verr.Fields) > 0 {
		httpx.JSONValidationError(w, r, verr)
		return nil, false
	}
	return fields, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func bookID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
