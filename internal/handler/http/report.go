package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/opsdesk/attendance-backend-go/internal/domain/report"
	"github.com/opsdesk/attendance-backend-go/internal/handler/http/response"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/validator"
)

type ReportHandler interface {
	// Manual trigger for the morning report
	SendMorningReport(w http.ResponseWriter, r *http.Request)

	// Manual trigger for the evening report
	SendEveningReport(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

func organizationIDFromContext(r *http.Request) (string, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	organizationID, ok := claims["organization_id"].(string)
	if !ok || organizationID == "" {
		return "", fmt.Errorf("organization_id claim is missing or invalid")
	}

	return organizationID, nil
}

// reportDate resolves the optional ?date= query, defaulting to today.
func reportDate(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), true
	}
	parsed, err := validator.ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// SendMorningReport handles POST /att/reports/morning/send
func (h *reportHandlerImpl) SendMorningReport(w http.ResponseWriter, r *http.Request) {
	organizationID, err := organizationIDFromContext(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	date, ok := reportDate(r)
	if !ok {
		response.BadRequest(w, "date must be YYYY-MM-DD", nil)
		return
	}

	result, err := h.reportService.SendMorningReport(r.Context(), organizationID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Morning report sent", result)
}

// SendEveningReport handles POST /att/reports/evening/send
func (h *reportHandlerImpl) SendEveningReport(w http.ResponseWriter, r *http.Request) {
	organizationID, err := organizationIDFromContext(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	date, ok := reportDate(r)
	if !ok {
		response.BadRequest(w, "date must be YYYY-MM-DD", nil)
		return
	}

	result, err := h.reportService.SendEveningReport(r.Context(), organizationID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Evening report sent", result)
}
