package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/api/shared"
	"github.com/wordrill/wordrill-api/internal/platform/logger"
	"github.com/wordrill/wordrill-api/internal/service/quota"
)

// QuotaHandler handles quota snapshot HTTP requests
type QuotaHandler struct {
	quotaService *quota.Service
	logger       *slog.Logger
}

// NewQuotaHandler creates a new QuotaHandler
func NewQuotaHandler(quotaService *quota.Service, logger *slog.Logger) *QuotaHandler {
	if quotaService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("quotaService cannot be nil for QuotaHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for QuotaHandler")
	}

	return &QuotaHandler{
		quotaService: quotaService,
		logger:       logger.With(slog.String("component", "quota_handler")),
	}
}

// GetQuota handles GET /quota requests
// It returns the authenticated user's quota snapshot for the current day.
// Reading the snapshot never mutates the ledger, so polling this endpoint
// always yields the same numbers until a new card is actually rated.
func (h *QuotaHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	snapshot, err := h.quotaService.CurrentUsage(r.Context(), userID, time.Now())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)

		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to get quota"
		}

		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("retrieved quota snapshot",
		slog.String("user_id", userID.String()),
		slog.Int("used_today", snapshot.UsedToday),
		slog.Int("remaining_today", snapshot.RemainingToday))
	shared.RespondWithJSON(w, r, http.StatusOK, snapshot)
}
