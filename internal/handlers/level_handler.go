package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/noodles-app/backend/internal/auth"
	"github.com/noodles-app/backend/internal/leveling"
	"github.com/noodles-app/backend/internal/models"
	"github.com/noodles-app/backend/internal/services"
	"go.uber.org/zap"
)

// LevelService is the interface that wraps methods for level business logic
type LevelService interface {
	// GetLevel retrieves the level state for a user, defaulting to a fresh
	// level-1 record when none is stored.
	//
	// "userID" parameter is used to identify the user.
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetLevel(ctx context.Context, userID string) (*models.UserLevel, error)
	// UpdateLevel recomputes the user's level from a mastered-word count,
	// applies the streak rules and upserts the record.
	//
	// Please reference GetLevel method for more information about parameters and error values.
	UpdateLevel(ctx context.Context, userID string, masteredCount int) (*models.UserLevel, error)
}

// levelResponse augments the stored level state with derived progress fields
type levelResponse struct {
	models.UserLevel
	LevelName         string                     `json:"levelName"`
	HasExtendedAccess bool                       `json:"hasExtendedAccess"`
	NextLevel         leveling.NextLevelProgress `json:"nextLevel"`
}

// updateLevelRequest is the PUT /level request body
type updateLevelRequest struct {
	TotalMastered int `json:"totalMastered"`
}

// updateLevelResponse reports the refresh outcome
type updateLevelResponse struct {
	models.UserLevel
	LevelName string `json:"levelName"`
	LeveledUp bool   `json:"leveledUp"`
}

// LevelHandler handles level-related HTTP requests
type LevelHandler struct {
	BaseHandler
	service LevelService
}

// NewLevelHandler creates a new level handler
func NewLevelHandler(service LevelService, logger *zap.Logger) *LevelHandler {
	return &LevelHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     service,
	}
}

// RegisterRoutes registers all level handler routes
func (h *LevelHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/level", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetLevel)
		r.Put("/", h.UpdateLevel)
	})
}

// GetLevel handles GET /api/v1/level
// @Summary Get user level
// @Description Get the authenticated user's level, streak and progress to the next level
// @Tags level
// @Produce json
// @Security ApiKeyAuth
func (h *LevelHandler) GetLevel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	level, err := h.service.GetLevel(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to get user level", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to get user level")
		return
	}

	h.RespondJSON(w, http.StatusOK, levelResponse{
		UserLevel:         *level,
		LevelName:         leveling.Names[level.Level],
		HasExtendedAccess: leveling.HasExtendedAccess(level.Level),
		NextLevel:         leveling.ProgressToNextLevel(level.Level, level.TotalMastered),
	})
}

// UpdateLevel handles PUT /api/v1/level
// @Summary Update user level
// @Description Recompute level and streak from a new mastered-word count
// @Tags level
// @Accept json
// @Produce json
// @Security ApiKeyAuth
func (h *LevelHandler) UpdateLevel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	var req updateLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("failed to decode level update", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	previous, err := h.service.GetLevel(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to get user level", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to get user level")
		return
	}

	updated, err := h.service.UpdateLevel(r.Context(), userID, req.TotalMastered)
	if err != nil {
		h.Logger.Error("failed to update user level", zap.Error(err))
		if errors.Is(err, services.ErrValidation) {
			h.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.RespondError(w, http.StatusInternalServerError, "failed to update user level")
		return
	}

	h.RespondJSON(w, http.StatusOK, updateLevelResponse{
		UserLevel: *updated,
		LevelName: leveling.Names[updated.Level],
		LeveledUp: updated.Level > previous.Level,
	})
}
