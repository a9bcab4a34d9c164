package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/opsdesk/attendance-backend-go/internal/domain/metrics"
	"github.com/opsdesk/attendance-backend-go/internal/handler/http/response"
)

type MetricsHandler interface {
	GetUserMetrics(w http.ResponseWriter, r *http.Request)
	GetOrganizationReport(w http.ResponseWriter, r *http.Request)
}

type metricsHandlerImpl struct {
	metricsService metrics.MetricsService
}

func NewMetricsHandler(metricsService metrics.MetricsService) MetricsHandler {
	return &metricsHandlerImpl{
		metricsService: metricsService,
	}
}

// GetUserMetrics handles GET /att/metrics/{uid}
func (h *metricsHandlerImpl) GetUserMetrics(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "uid")

	result, err := h.metricsService.UserMetrics(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetOrganizationReport handles GET /att/report
func (h *metricsHandlerImpl) GetOrganizationReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := metrics.OrgReportRequest{
		DateFrom: query.Get("dateFrom"),
		DateTo:   query.Get("dateTo"),
	}
	if v := query.Get("branchId"); v != "" {
		req.BranchID = &v
	}
	if v := query.Get("role"); v != "" {
		req.Role = &v
	}
	if v := query.Get("includeUserDetails"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, "invalid includeUserDetails parameter", nil)
			return
		}
		req.IncludeUserDetails = include
	}

	result, err := h.metricsService.OrganizationReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
