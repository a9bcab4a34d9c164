package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opsdesk/attendance-backend-go/internal/domain/shift"
	"github.com/opsdesk/attendance-backend-go/internal/handler/http/response"
)

type ShiftHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	ToggleBreak(w http.ResponseWriter, r *http.Request)
	ListToday(w http.ResponseWriter, r *http.Request)
	ListByDate(w http.ResponseWriter, r *http.Request)
	ListByUser(w http.ResponseWriter, r *http.Request)
	GetStatus(w http.ResponseWriter, r *http.Request)
	ListByBranch(w http.ResponseWriter, r *http.Request)
	DailyStats(w http.ResponseWriter, r *http.Request)
}

type shiftHandlerImpl struct {
	shiftService shift.ShiftService
}

func NewShiftHandler(shiftService shift.ShiftService) ShiftHandler {
	return &shiftHandlerImpl{
		shiftService: shiftService,
	}
}

// decodeBody tolerates an empty body since every check-in/out field is
// optional.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// CheckIn implements ShiftHandler.
func (h *shiftHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req shift.CheckInRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.shiftService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Checked in", result)
}

// CheckOut implements ShiftHandler.
func (h *shiftHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req shift.CheckOutRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.shiftService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Checked out", result)
}

// ToggleBreak implements ShiftHandler. A single endpoint starts a break
// when none is open and ends the one in progress otherwise.
func (h *shiftHandlerImpl) ToggleBreak(w http.ResponseWriter, r *http.Request) {
	var req shift.BreakRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	message := "Break started"
	result, err := h.shiftService.StartBreak(r.Context(), req)
	if errors.Is(err, shift.ErrAlreadyOnBreak) {
		message = "Break ended"
		result, err = h.shiftService.EndBreak(r.Context(), req)
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, result)
}

// ListToday implements ShiftHandler.
func (h *shiftHandlerImpl) ListToday(w http.ResponseWriter, r *http.Request) {
	result, err := h.shiftService.ListToday(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListByDate implements ShiftHandler.
func (h *shiftHandlerImpl) ListByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	result, err := h.shiftService.ListByDate(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListByUser implements ShiftHandler.
func (h *shiftHandlerImpl) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "ref")

	result, err := h.shiftService.ListByUser(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetStatus implements ShiftHandler.
func (h *shiftHandlerImpl) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "ref")

	result, err := h.shiftService.GetStatus(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListByBranch implements ShiftHandler.
func (h *shiftHandlerImpl) ListByBranch(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "ref")

	result, err := h.shiftService.ListByBranch(r.Context(), branchID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DailyStats implements ShiftHandler.
func (h *shiftHandlerImpl) DailyStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "uid")
	date := r.URL.Query().Get("date")

	result, err := h.shiftService.DailyStats(r.Context(), userID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
