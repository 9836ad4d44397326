package analytics

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ecolink/internal/adapters/handlers/http/chi/v1/common"
	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// HandlerV1 is the handler for v1 analytics routes
type HandlerV1 struct {
	analyticsService port.AnalyticsService
	logger           *slog.Logger
	now              func() time.Time
}

// NewAnalyticsHandlerV1 creates HandlerV1
func NewAnalyticsHandlerV1(service port.AnalyticsService, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		analyticsService: service,
		logger:           logger,
		now:              time.Now,
	}
}

// Routes exposes routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/summary", h.SummaryV1)
	router.Get("/file-types", h.FileTypesV1)
	router.Get("/impact-trend", h.TrendV1)

	return router
}

// V1ScopeQuery is the optional [from, to) window, RFC 3339
type V1ScopeQuery struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to" validate:"omitempty,gtfield=From"`
}

// scope builds the caller's analytics scope from the query string
func scope(r *http.Request) (domain.AnalyticsScope, error) {
	ownerID, err := common.OwnerID(r)
	if err != nil {
		return domain.AnalyticsScope{}, err
	}

	var q V1ScopeQuery
	if q.From, err = queryTime(r, "from"); err != nil {
		return domain.AnalyticsScope{}, err
	}
	if q.To, err = queryTime(r, "to"); err != nil {
		return domain.AnalyticsScope{}, err
	}
	if err := common.Validate(q); err != nil {
		return domain.AnalyticsScope{}, err
	}

	return domain.AnalyticsScope{OwnerID: ownerID, From: q.From, To: q.To}, nil
}

func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339", domain.ErrValidation, name)
	}
	return t, nil
}

// SummaryV1 returns the rollup over the caller's complete assets
func (h *HandlerV1) SummaryV1(w http.ResponseWriter, r *http.Request) {
	s, err := scope(r)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	summary, err := h.analyticsService.Summarize(r.Context(), s)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, h.logger, http.StatusOK, toSummaryResponse(summary))
}

// FileTypesV1 returns the per mime type breakdown
func (h *HandlerV1) FileTypesV1(w http.ResponseWriter, r *http.Request) {
	s, err := scope(r)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	types, err := h.analyticsService.FileTypes(r.Context(), s)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := V1FileTypesResponse{FileTypes: make([]V1FileTypeResponse, 0, len(types))}
	for _, t := range types {
		resp.FileTypes = append(resp.FileTypes, V1FileTypeResponse(t))
	}
	common.WriteJSON(w, h.logger, http.StatusOK, resp)
}

// TrendV1 returns one point per UTC day over the last days days
func (h *HandlerV1) TrendV1(w http.ResponseWriter, r *http.Request) {
	ownerID, err := common.OwnerID(r)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days <= 0 {
			common.WriteError(w, h.logger, fmt.Errorf("%w: days must be a positive integer", domain.ErrValidation))
			return
		}
	}

	points, err := h.analyticsService.Trend(r.Context(), ownerID, days, h.now())
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := V1TrendResponse{Points: make([]V1TrendPointResponse, 0, len(points))}
	for _, p := range points {
		resp.Points = append(resp.Points, V1TrendPointResponse{
			Date:            p.Date.Format(time.DateOnly),
			FilesCount:      p.FilesCount,
			TotalKWh:        p.TotalKWh,
			TotalCO2g:       p.TotalCO2g,
			DuplicatesCount: p.DuplicatesCount,
		})
	}
	common.WriteJSON(w, h.logger, http.StatusOK, resp)
}
