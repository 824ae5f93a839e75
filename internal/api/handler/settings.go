package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chronicle-app/chronicle/internal/api/middleware"
	"github.com/chronicle-app/chronicle/internal/api/response"
	"github.com/chronicle-app/chronicle/internal/api/validation"
	"github.com/chronicle-app/chronicle/internal/settings"
)

// SettingsHandler handles the settings endpoints: payment methods and
// expense groups.
type SettingsHandler struct {
	settings settings.Repository
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsRepo settings.Repository) *SettingsHandler {
	return &SettingsHandler{settings: settingsRepo}
}

// Get handles GET /api/settings. It reads from the store rather than the
// request scope so a mutation earlier in the session is reflected.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}

	s, err := h.settings.FindByUserID(r.Context(), view.User.ID)
	if err != nil {
		if errors.Is(err, settings.ErrSettingsNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Settings not found", requestID)
			return
		}
		slog.Error("failed to get settings", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get settings", requestID)
		return
	}

	groups := s.Groups
	if groups == nil {
		groups = []settings.ExpenseGroup{}
	}
	pms := s.PaymentMethods
	if pms == nil {
		pms = []string{}
	}

	response.Success(w, http.StatusOK, settingsResponse{
		Module:         s.Module,
		Profiles:       s.Profiles,
		Groups:         groups,
		PaymentMethods: pms,
	}, requestID)
}

type paymentMethodRequest struct {
	Name string `json:"name"`
}

// AddPaymentMethod handles POST /api/settings/payment-methods.
func (h *SettingsHandler) AddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidatePaymentMethodRequest(validation.PaymentMethodRequest{Name: req.Name})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.settings.AddPaymentMethod(r.Context(), view.User.ID, req.Name); err != nil {
		if errors.Is(err, settings.ErrSettingsNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Settings not found", requestID)
			return
		}
		slog.Error("failed to add payment method", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add payment method", requestID)
		return
	}

	response.NoContent(w)
}

// RemovePaymentMethod handles DELETE /api/settings/payment-methods/{name}.
func (h *SettingsHandler) RemovePaymentMethod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.settings.RemovePaymentMethod(r.Context(), view.User.ID, name); err != nil {
		if errors.Is(err, settings.ErrSettingsNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Settings not found", requestID)
			return
		}
		slog.Error("failed to remove payment method", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove payment method", requestID)
		return
	}

	response.NoContent(w)
}

type expenseGroupRequest struct {
	Name  string   `json:"name"`
	Words []string `json:"words"`
}

// AddExpenseGroup handles POST /api/settings/groups.
func (h *SettingsHandler) AddExpenseGroup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}

	req, ok := h.decodeGroup(w, r, requestID)
	if !ok {
		return
	}

	id, err := h.settings.AddExpenseGroup(r.Context(), view.User.ID, req.Name, validation.CleanWords(req.Words))
	if err != nil {
		if errors.Is(err, settings.ErrSettingsNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Settings not found", requestID)
			return
		}
		slog.Error("failed to add expense group", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add expense group", requestID)
		return
	}

	response.Success(w, http.StatusCreated, settings.ExpenseGroup{
		ID:    id,
		Name:  req.Name,
		Words: validation.CleanWords(req.Words),
	}, requestID)
}

// UpdateExpenseGroup handles PUT /api/settings/groups/{id}.
func (h *SettingsHandler) UpdateExpenseGroup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be an integer", requestID)
		return
	}

	req, ok := h.decodeGroup(w, r, requestID)
	if !ok {
		return
	}

	err = h.settings.UpdateExpenseGroup(r.Context(), view.User.ID, id, req.Name, validation.CleanWords(req.Words))
	if err != nil {
		if errors.Is(err, settings.ErrGroupNotFound) || errors.Is(err, settings.ErrSettingsNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Expense group not found", requestID)
			return
		}
		slog.Error("failed to update expense group", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update expense group", requestID)
		return
	}

	response.NoContent(w)
}

// RemoveExpenseGroup handles DELETE /api/settings/groups/{id}.
func (h *SettingsHandler) RemoveExpenseGroup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be an integer", requestID)
		return
	}

	if err := h.settings.RemoveExpenseGroup(r.Context(), view.User.ID, id); err != nil {
		if errors.Is(err, settings.ErrGroupNotFound) || errors.Is(err, settings.ErrSettingsNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Expense group not found", requestID)
			return
		}
		slog.Error("failed to remove expense group", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove expense group", requestID)
		return
	}

	response.NoContent(w)
}

func (h *SettingsHandler) decodeGroup(w http.ResponseWriter, r *http.Request, requestID string) (*expenseGroupRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req expenseGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return nil, false
	}

	fieldErrors := validation.ValidateExpenseGroupRequest(validation.ExpenseGroupRequest{Name: req.Name, Words: req.Words})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return nil, false
	}

	return &req, true
}
