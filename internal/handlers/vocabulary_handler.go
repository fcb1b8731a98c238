package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/noodles-app/backend/internal/auth"
	"github.com/noodles-app/backend/internal/models"
	"github.com/noodles-app/backend/internal/services"
	"go.uber.org/zap"
)

// VocabularyService is the interface that wraps methods for vocabulary business logic
type VocabularyService interface {
	// GetExtendedCategories retrieves extended categories available to the user's level.
	//
	// "userLevel" parameter gates the result; below the unlock level the list is empty.
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetExtendedCategories(ctx context.Context, userLevel int) ([]models.CategoryMeta, error)
	// GetExtendedWords retrieves extended words for a category with offset/limit paging.
	//
	// Please reference GetExtendedCategories method for more information about parameters and error values.
	GetExtendedWords(ctx context.Context, categoryID string, userLevel, offset, limit int) ([]models.WordRecord, error)
	// SearchWords searches static words first and tops up with extended words.
	//
	// Please reference GetExtendedCategories method for more information about parameters and error values.
	SearchWords(ctx context.Context, query string, userLevel, limit int) ([]models.WordRecord, error)
	// GetVocabularyStats reports how much vocabulary is available to a user.
	//
	// Please reference GetExtendedCategories method for more information about parameters and error values.
	GetVocabularyStats(ctx context.Context, userLevel int) (*services.VocabularyStats, error)
}

// VocabularyHandler handles vocabulary-related HTTP requests
type VocabularyHandler struct {
	BaseHandler
	service      VocabularyService
	levelService LevelService
}

// NewVocabularyHandler creates a new vocabulary handler
func NewVocabularyHandler(service VocabularyService, levelService LevelService, logger *zap.Logger) *VocabularyHandler {
	return &VocabularyHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		service:      service,
		levelService: levelService,
	}
}

// RegisterRoutes registers all vocabulary handler routes
func (h *VocabularyHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/categories/extended", h.GetExtendedCategories)
		r.Get("/categories/{categoryID}/words", h.GetExtendedWords)
		r.Get("/words/search", h.SearchWords)
		r.Get("/vocabulary/stats", h.GetVocabularyStats)
	})
}

// userLevel resolves the authenticated user's level for content gating
func (h *VocabularyHandler) userLevel(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return 0, false
	}

	level, err := h.levelService.GetLevel(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to get user level", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to get user level")
		return 0, false
	}
	return level.Level, true
}

// GetExtendedCategories handles GET /api/v1/categories/extended
// @Summary Get extended categories
// @Description Get extended categories unlocked for the authenticated user's level
// @Tags vocabulary
// @Produce json
// @Security ApiKeyAuth
func (h *VocabularyHandler) GetExtendedCategories(w http.ResponseWriter, r *http.Request) {
	level, ok := h.userLevel(w, r)
	if !ok {
		return
	}

	categories, err := h.service.GetExtendedCategories(r.Context(), level)
	if err != nil {
		h.Logger.Error("failed to get extended categories", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to get extended categories")
		return
	}

	h.RespondJSON(w, http.StatusOK, categories)
}

// GetExtendedWords handles GET /api/v1/categories/{categoryID}/words
// @Summary Get extended words
// @Description Get extended words for a category, paged by offset and limit
// @Tags vocabulary
// @Produce json
// @Security ApiKeyAuth
// @Param offset query int false "Paging offset, default: 0"
// @Param limit query int false "Page size, default: 100"
func (h *VocabularyHandler) GetExtendedWords(w http.ResponseWriter, r *http.Request) {
	level, ok := h.userLevel(w, r)
	if !ok {
		return
	}

	categoryID := chi.URLParam(r, "categoryID")

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil {
			h.Logger.Error("failed to parse offset parameter", zap.Error(err))
			h.RespondError(w, http.StatusBadRequest, "invalid offset parameter")
			return
		}
		offset = parsed
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			h.Logger.Error("failed to parse limit parameter", zap.Error(err))
			h.RespondError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	words, err := h.service.GetExtendedWords(r.Context(), categoryID, level, offset, limit)
	if err != nil {
		h.Logger.Error("failed to get extended words", zap.Error(err))
		if errors.Is(err, services.ErrValidation) {
			h.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.RespondError(w, http.StatusInternalServerError, "failed to get extended words")
		return
	}

	h.RespondJSON(w, http.StatusOK, words)
}

// SearchWords handles GET /api/v1/words/search
// @Summary Search vocabulary
// @Description Search static and extended vocabulary by chinese, pinyin or english
// @Tags vocabulary
// @Produce json
// @Security ApiKeyAuth
// @Param q query string true "Search query"
// @Param limit query int false "Maximum results, default: 20"
func (h *VocabularyHandler) SearchWords(w http.ResponseWriter, r *http.Request) {
	level, ok := h.userLevel(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		h.RespondError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			h.Logger.Error("failed to parse limit parameter", zap.Error(err))
			h.RespondError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	words, err := h.service.SearchWords(r.Context(), query, level, limit)
	if err != nil {
		h.Logger.Error("failed to search words", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to search words")
		return
	}

	h.RespondJSON(w, http.StatusOK, words)
}

// GetVocabularyStats handles GET /api/v1/vocabulary/stats
// @Summary Get vocabulary statistics
// @Description Get the static and extended vocabulary counts available to the user
// @Tags vocabulary
// @Produce json
// @Security ApiKeyAuth
func (h *VocabularyHandler) GetVocabularyStats(w http.ResponseWriter, r *http.Request) {
	level, ok := h.userLevel(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetVocabularyStats(r.Context(), level)
	if err != nil {
		h.Logger.Error("failed to get vocabulary stats", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to get vocabulary stats")
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}
