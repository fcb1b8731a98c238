package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/noodles-app/backend/internal/auth"
	"github.com/noodles-app/backend/internal/models"
	"github.com/noodles-app/backend/internal/services"
	"go.uber.org/zap"
)

// ProgressService is the interface that wraps methods for progress business logic
type ProgressService interface {
	// SubmitProgress validates and upserts a batch of status changes.
	//
	// "userID" parameter is used to identify the user.
	// "updates" parameter carries the status changes to store.
	// If wrong parameters will be used or some error will occur during data submission, the error will be returned.
	SubmitProgress(ctx context.Context, userID string, updates []services.ProgressUpdate) error
	// GetProgress retrieves the stored statuses for a user and category.
	//
	// Please reference SubmitProgress method for more information about parameters and error values.
	GetProgress(ctx context.Context, userID, categoryID string) ([]models.WordStatus, error)
	// GetCategoryAggregates retrieves per-category progress counts for a user.
	//
	// Please reference SubmitProgress method for more information about parameters and error values.
	GetCategoryAggregates(ctx context.Context, userID string) ([]models.CategoryAggregate, error)
	// ResetProgress removes every stored row for a user and category.
	//
	// Please reference SubmitProgress method for more information about parameters and error values.
	ResetProgress(ctx context.Context, userID, categoryID string) error
}

// ProgressHandler handles progress-related HTTP requests
type ProgressHandler struct {
	BaseHandler
	service ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(service ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     service,
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/progress", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.SubmitProgress)
		r.Get("/aggregates", h.GetCategoryAggregates)
		r.Get("/{categoryID}", h.GetProgress)
		r.Delete("/{categoryID}", h.ResetProgress)
	})
}

// SubmitProgress handles POST /api/v1/progress
// @Summary Submit progress updates
// @Description Upsert a batch of word status changes for the authenticated user
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
func (h *ProgressHandler) SubmitProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	var updates []services.ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.Logger.Error("failed to decode progress updates", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SubmitProgress(r.Context(), userID, updates); err != nil {
		h.Logger.Error("failed to submit progress", zap.Error(err))
		if errors.Is(err, services.ErrValidation) {
			h.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.RespondError(w, http.StatusInternalServerError, "failed to submit progress")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]int{"updated": len(updates)})
}

// GetProgress handles GET /api/v1/progress/{categoryID}
// @Summary Get category progress
// @Description Get the stored word statuses for the authenticated user and a category
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	categoryID := chi.URLParam(r, "categoryID")
	statuses, err := h.service.GetProgress(r.Context(), userID, categoryID)
	if err != nil {
		h.Logger.Error("failed to get progress", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to get progress")
		return
	}

	h.RespondJSON(w, http.StatusOK, statuses)
}

// GetCategoryAggregates handles GET /api/v1/progress/aggregates
// @Summary Get per-category progress counts
// @Description Get mastered/learning counts per category for the authenticated user
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
func (h *ProgressHandler) GetCategoryAggregates(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	aggregates, err := h.service.GetCategoryAggregates(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to get category aggregates", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to get category aggregates")
		return
	}

	h.RespondJSON(w, http.StatusOK, aggregates)
}

// ResetProgress handles DELETE /api/v1/progress/{categoryID}
// @Summary Reset category progress
// @Description Delete every stored row for the authenticated user and a category
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
func (h *ProgressHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	categoryID := chi.URLParam(r, "categoryID")
	if err := h.service.ResetProgress(r.Context(), userID, categoryID); err != nil {
		h.Logger.Error("failed to reset progress", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to reset progress")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
