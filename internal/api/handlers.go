package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"findmovie/internal/domain"
	"findmovie/internal/logging"
	"findmovie/internal/service"
)

// RecommendPort is the subset of the service the HTTP adapter uses.
type RecommendPort interface {
	Load(ctx context.Context) error
	Query(title string, n int) service.Result
	QueryByID(id int64, n int) service.Result
	Titles() []string
	Stats() domain.Stats
	Snapshot() *service.Snapshot
}

// Handler serves the recommendation endpoints.
type Handler struct {
	svc          RecommendPort
	defaultCount int
	maxCount     int
	reloadLimit  time.Duration
}

// NewHandler creates a handler. defaultCount is used when n is absent;
// requested counts above maxCount are capped.
func NewHandler(svc RecommendPort, defaultCount, maxCount int) *Handler {
	return &Handler{svc: svc, defaultCount: defaultCount, maxCount: maxCount, reloadLimit: 5 * time.Minute}
}

type healthResponse struct {
	Status     string       `json:"status"`
	SnapshotID string       `json:"snapshot_id,omitempty"`
	BuiltAt    *time.Time   `json:"built_at,omitempty"`
	Stats      domain.Stats `json:"stats"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Snapshot()
	if snap == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "dataset not loaded")
		return
	}
	builtAt := snap.BuiltAt
	respondJSON(w, r, http.StatusOK, healthResponse{
		Status:     "ok",
		SnapshotID: snap.ID,
		BuiltAt:    &builtAt,
		Stats:      snap.Stats,
	})
}

// Items handles GET /api/v1/items?q=.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	titles := h.svc.Titles()
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if q == "" || strings.Contains(strings.ToLower(t), q) {
			out = append(out, t)
		}
	}
	respondJSON(w, r, http.StatusOK, out)
}

// Recommendations handles GET /api/v1/recommendations?title=&id=&n=.
// Exactly one of title and id is required; id reaches items whose title is
// ambiguous. An unknown item is not an error: the result has found=false and
// no items.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("title")
	rawID := strings.TrimSpace(q.Get("id"))
	hasTitle := strings.TrimSpace(title) != ""
	if hasTitle == (rawID != "") {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "exactly one of title or id is required")
		return
	}
	n := h.defaultCount
	if raw := q.Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}
	if n > h.maxCount {
		n = h.maxCount
	}
	if hasTitle {
		respondJSON(w, r, http.StatusOK, h.svc.Query(title, n))
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "id must be an integer")
		return
	}
	respondJSON(w, r, http.StatusOK, h.svc.QueryByID(id, n))
}

// Reload handles POST /api/v1/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.reloadLimit)
	defer cancel()

	if err := h.svc.Load(ctx); err != nil {
		logging.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("reload failed")
		if errors.Is(err, domain.ErrDataUnavailable) {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeDataUnavailable, err.Error())
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "reload failed")
		return
	}
	h.Health(w, r)
}
