package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/pitchside/prediction-engine/internal/platform/logging"
	"github.com/pitchside/prediction-engine/internal/usecase"
)

type Handler struct {
	featureService  *usecase.FeatureBuildService
	snapshotService *usecase.SnapshotService
	syncService     *usecase.SyncService
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	featureService *usecase.FeatureBuildService,
	snapshotService *usecase.SnapshotService,
	syncService *usecase.SyncService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		featureService:  featureService,
		snapshotService: snapshotService,
		syncService:     syncService,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// RebuildFeatures replays the full event store and replaces the stored
// feature rows.
func (h *Handler) RebuildFeatures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RebuildFeatures")
	defer span.End()

	if h.featureService == nil {
		writeError(ctx, w, fmt.Errorf("%w: feature service not configured", usecase.ErrDependencyUnavailable))
		return
	}

	summary, err := h.featureService.Rebuild(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "feature rebuild failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}

type matchupQuery struct {
	Home string `validate:"required"`
	Away string `validate:"required"`
}

func (h *Handler) GetMatchup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchup")
	defer span.End()

	if h.snapshotService == nil {
		writeError(ctx, w, fmt.Errorf("%w: snapshot service not configured", usecase.ErrDependencyUnavailable))
		return
	}

	query := matchupQuery{
		Home: strings.TrimSpace(r.URL.Query().Get("home")),
		Away: strings.TrimSpace(r.URL.Query().Get("away")),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchup, err := h.snapshotService.Matchup(ctx, query.Home, query.Away)
	if err != nil {
		h.logger.WarnContext(ctx, "matchup lookup failed",
			"home", query.Home, "away", query.Away, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchup)
}

type syncJobRequest struct {
	Competition string `json:"competition" validate:"required"`
	Season      string `json:"season" validate:"required,len=4,numeric"`
}

// RunSyncJob fetches fixtures and stats from the configured connectors and
// stages the merged events.
func (h *Handler) RunSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync service not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var payload syncJobRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, payload); err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.syncService.Sync(ctx, payload.Competition, payload.Season)
	if err != nil {
		h.logger.ErrorContext(ctx, "sync job failed",
			"competition", payload.Competition, "season", payload.Season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}
