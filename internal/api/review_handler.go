// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/api/shared"
	"github.com/wordrill/wordrill-api/internal/config"
	"github.com/wordrill/wordrill-api/internal/domain"
	"github.com/wordrill/wordrill-api/internal/platform/logger"
	"github.com/wordrill/wordrill-api/internal/service/review"
)

// CardStateResponse represents the scheduling state returned after a rating.
type CardStateResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	WordID       string    `json:"word_id"`
	Queue        string    `json:"queue"`
	IntervalDays float64   `json:"interval_days"`
	EaseFactor   float64   `json:"ease_factor"`
	DueAt        time.Time `json:"due_at"`
	Lapses       int       `json:"lapses"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReviewHandler handles review session HTTP requests
type ReviewHandler struct {
	reviewService review.Service
	batchConfig   config.ReviewConfig
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(
	reviewService review.Service,
	batchConfig config.ReviewConfig,
	logger *slog.Logger,
) *ReviewHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewService cannot be nil for ReviewHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviewService: reviewService,
		batchConfig:   batchConfig,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// GetReviewBatch handles GET /reviews/batch requests
// It composes a bounded batch of due cards for the authenticated user.
// The optional "limit" query parameter caps batch size and is clamped to
// the configured maximum.
func (h *ReviewHandler) GetReviewBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	requested := h.batchConfig.DefaultBatchSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Warn("invalid limit parameter", slog.String("limit", raw))
			shared.RespondWithError(w, r, http.StatusBadRequest, "Limit must be a positive integer")
			return
		}
		requested = parsed
	}
	if requested > h.batchConfig.MaxBatchSize {
		requested = h.batchConfig.MaxBatchSize
	}

	log.Debug("composing review batch",
		slog.String("user_id", userID.String()),
		slog.Int("requested", requested))

	batch, err := h.reviewService.StartSession(r.Context(), userID, requested, time.Now())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)

		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to start review session"
		}

		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("composed review batch",
		slog.String("user_id", userID.String()),
		slog.Int("cards", len(batch.Cards)),
		slog.Int("remaining_today", batch.Quota.RemainingToday))
	shared.RespondWithJSON(w, r, http.StatusOK, batch)
}

// SubmitRatingRequest represents the request body for submitting a review rating
type SubmitRatingRequest struct {
	Rating string `json:"rating" validate:"required,oneof=again hard good easy"`
}

// SubmitRating handles POST /reviews/{wordId}/rating requests
// It applies the rating through the scheduler and returns the updated
// card scheduling state.
func (h *ReviewHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	pathWordID := chi.URLParam(r, "wordId")
	if pathWordID == "" {
		log.Warn("word ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Word ID is required")
		return
	}

	wordID, err := uuid.Parse(pathWordID)
	if err != nil {
		log.Warn("invalid word ID format", slog.String("word_id", pathWordID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid word ID format")
		return
	}

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req SubmitRatingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	state, err := h.reviewService.SubmitRating(
		r.Context(),
		userID,
		wordID,
		domain.Rating(req.Rating),
		time.Now(),
	)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)

		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to submit rating"
		}

		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("successfully submitted rating",
		slog.String("user_id", userID.String()),
		slog.String("word_id", wordID.String()),
		slog.String("rating", req.Rating),
		slog.String("queue", string(state.Queue)))
	shared.RespondWithJSON(w, r, http.StatusOK, cardStateToResponse(state))
}

// cardStateToResponse converts a domain.CardState to a CardStateResponse
func cardStateToResponse(state *domain.CardState) CardStateResponse {
	return CardStateResponse{
		ID:           state.ID.String(),
		UserID:       state.UserID.String(),
		WordID:       state.WordID.String(),
		Queue:        string(state.Queue),
		IntervalDays: state.IntervalDays,
		EaseFactor:   state.EaseFactor,
		DueAt:        state.DueAt,
		Lapses:       state.Lapses,
		UpdatedAt:    state.UpdatedAt,
	}
}
