package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sebuszqo/FinanceManager/internal/auth"
	"github.com/sebuszqo/FinanceManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceManager/internal/finance/errors"
)

const maxCategoryRequestBody = 1 << 20

type CategoryServiceInterface interface {
	FetchCategories(ctx context.Context, identity domain.Identity, filter domain.CategoryFilter) ([]domain.Category, error)
	GetCategory(ctx context.Context, identity domain.Identity, categoryID string) (domain.Category, error)
	EditCategory(ctx context.Context, identity domain.Identity, categoryID, name, categoryType string) (domain.Category, error)
	CreateCategory(ctx context.Context, identity domain.Identity, name, categoryType string) (domain.Category, error)
}

type CategoryHandler struct {
	service      CategoryServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, fieldErrors ...map[string]string)
	logger       *slog.Logger
}

func NewCategoryHandler(
	service CategoryServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, fieldErrors ...map[string]string),
	logger *slog.Logger,
) *CategoryHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
		logger:       logger,
	}
}

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Routes mounts the category endpoints on r.
func (h *CategoryHandler) Routes(r chi.Router) {
	r.Get("/categories", h.GetCategories)
	r.Post("/categories", h.CreateCategory)
	r.Get("/categories/{categoryID}", h.GetCategory)
	r.Put("/categories/{categoryID}", h.UpdateCategory)
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	categoryType, ok := domain.ParseCategoryFilterType(r.URL.Query().Get("type"))
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid category type")
		return
	}
	filter := domain.NewCategoryFilter(categoryType, r.URL.Query().Get("q"))

	categories, err := h.service.FetchCategories(r.Context(), identity, filter)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to retrieve categories", "")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Categories retrieved successfully.",
		"data":    categories,
	})
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	categoryID := chi.URLParam(r, "categoryID")

	category, err := h.service.GetCategory(r.Context(), identity, categoryID)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to retrieve category", "Category not found")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Category retrieved successfully.",
		"data":    category,
	})
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeCategoryRequest(w, r)
	if !ok {
		return
	}

	category, err := h.service.CreateCategory(r.Context(), identity, req.Name, req.Type)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to create category", "")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Category successfully created.",
		"data":    category,
	})
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	categoryID := chi.URLParam(r, "categoryID")

	req, ok := h.decodeCategoryRequest(w, r)
	if !ok {
		return
	}

	category, err := h.service.EditCategory(r.Context(), identity, categoryID, req.Name, req.Type)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to update category", "Could not update category")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Category successfully updated.",
		"data":    category,
	})
}

// requireIdentity answers 401 before anything in the request is parsed.
func (h *CategoryHandler) requireIdentity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity := auth.IdentityFromContext(r.Context())
	if !identity.IsAuthenticated() {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return domain.Identity{}, false
	}
	return identity, true
}

func (h *CategoryHandler) decodeCategoryRequest(w http.ResponseWriter, r *http.Request) (categoryRequest, bool) {
	var req categoryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCategoryRequestBody)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return categoryRequest{}, false
	}
	return req, true
}

// handleServiceError maps the service error taxonomy to HTTP. notFoundMessage is the generic
// text shown for a category that is missing or owned by someone else.
func (h *CategoryHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, failureMessage, notFoundMessage string) {
	var validationErrors *financeErrors.ValidationErrors

	switch {
	case errors.Is(err, financeErrors.ErrUnauthenticated):
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.As(err, &validationErrors):
		h.respondError(w, http.StatusBadRequest, "Validation errors occurred", validationErrors.Fields())
	case errors.Is(err, financeErrors.ErrCategoryNotFoundOrForbidden):
		h.respondError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, financeErrors.ErrStorageUnavailable):
		h.logger.WarnContext(r.Context(), "category storage unavailable",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable, please retry")
	default:
		h.logger.ErrorContext(r.Context(), failureMessage,
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusInternalServerError, failureMessage)
	}
}
