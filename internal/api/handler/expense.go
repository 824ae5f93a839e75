package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chronicle-app/chronicle/internal/api/middleware"
	"github.com/chronicle-app/chronicle/internal/api/response"
	"github.com/chronicle-app/chronicle/internal/api/validation"
	"github.com/chronicle-app/chronicle/internal/expense"
	"github.com/chronicle-app/chronicle/internal/metadata"
	"github.com/chronicle-app/chronicle/internal/reqctx"
	"github.com/chronicle-app/chronicle/internal/settings"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ExpenseHandler handles the expense CRUD endpoints. Every operation is
// scoped to the request's UPID partition.
type ExpenseHandler struct {
	expenses expense.Repository
	metadata metadata.Repository
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenses expense.Repository, metadataRepo metadata.Repository) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, metadata: metadataRepo}
}

type expenseRequest struct {
	BillID        *string        `json:"bid,omitempty"`
	Store         string         `json:"store"`
	StoreAddr     *string        `json:"storeAddr,omitempty"`
	Date          int            `json:"date"`
	Time          *int           `json:"time,omitempty"`
	Items         []expense.Item `json:"items"`
	PaymentMethod *string        `json:"pm,omitempty"`
	Description   *string        `json:"desc,omitempty"`
	Currency      string         `json:"currency"`
}

type expenseResponse struct {
	ID            string         `json:"eid"`
	BillID        *string        `json:"bid,omitempty"`
	Store         string         `json:"store"`
	StoreAddr     *string        `json:"storeAddr,omitempty"`
	Date          int            `json:"date"`
	Time          *int           `json:"time,omitempty"`
	Items         []expense.Item `json:"items"`
	PaymentMethod *string        `json:"pm,omitempty"`
	Description   *string        `json:"desc,omitempty"`
	Currency      string         `json:"currency"`
	Total         float64        `json:"total"`
}

func newExpenseResponse(e *expense.Expense) expenseResponse {
	return expenseResponse{
		ID:            e.ID.String(),
		BillID:        e.BillID,
		Store:         e.Store,
		StoreAddr:     e.StoreAddr,
		Date:          e.Date,
		Time:          e.Time,
		Items:         e.Items,
		PaymentMethod: e.PaymentMethod,
		Description:   e.Description,
		Currency:      e.Currency,
		Total:         e.Total,
	}
}

// scopeKey resolves the partition key for the current request: the resolved
// profile, or the default profile id when the user has none configured.
func scopeKey(view *reqctx.UserView) string {
	pid := settings.DefaultProfileID
	if view.Profile != nil {
		pid = view.Profile.ID
	}
	return settings.UPID(view.User.ID, pid)
}

func currentScope(w http.ResponseWriter, r *http.Request, requestID string) (*reqctx.UserView, bool) {
	view, err := reqctx.CurrentUser(r.Context())
	if err != nil {
		slog.Error("current user missing after auth", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
		return nil, false
	}
	return view, true
}

func (h *ExpenseHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, requestID string) (*expenseRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return nil, false
	}

	fieldErrors := validation.ValidateExpenseRequest(validation.ExpenseRequest{
		Store:    req.Store,
		Date:     req.Date,
		Time:     req.Time,
		Items:    req.Items,
		Currency: req.Currency,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return nil, false
	}

	return &req, true
}

// Create handles POST /api/expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}
	req, ok := h.decodeAndValidate(w, r, requestID)
	if !ok {
		return
	}

	upid := scopeKey(view)
	e := &expense.Expense{
		UPID:          upid,
		BillID:        req.BillID,
		Store:         req.Store,
		StoreAddr:     req.StoreAddr,
		Date:          req.Date,
		Time:          req.Time,
		Items:         req.Items,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
		Currency:      req.Currency,
		Total:         expense.Total(req.Items),
	}

	if err := h.expenses.Create(r.Context(), e); err != nil {
		slog.Error("failed to create expense", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create expense", requestID)
		return
	}

	if err := h.metadata.IncrementBillCounter(r.Context(), upid, 1); err != nil {
		slog.Warn("failed to increment bill counter", "error", err, "upid", upid)
	}

	response.Success(w, http.StatusCreated, newExpenseResponse(e), requestID)
}

// List handles GET /api/expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	limit := defaultPageLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= maxPageLimit {
		limit = l
	}

	expenses, err := h.expenses.List(r.Context(), scopeKey(view), limit, (page-1)*limit)
	if err != nil {
		slog.Error("failed to list expenses", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list expenses", requestID)
		return
	}

	items := make([]expenseResponse, 0, len(expenses))
	for i := range expenses {
		items = append(items, newExpenseResponse(&expenses[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), page, limit, requestID)
}

// GetByID handles GET /api/expenses/{id}.
func (h *ExpenseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	e, err := h.expenses.FindByID(r.Context(), scopeKey(view), id)
	if err != nil {
		if errors.Is(err, expense.ErrExpenseNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Expense not found", requestID)
			return
		}
		slog.Error("failed to get expense", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get expense", requestID)
		return
	}

	response.Success(w, http.StatusOK, newExpenseResponse(e), requestID)
}

// Update handles PUT /api/expenses/{id}.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	req, ok := h.decodeAndValidate(w, r, requestID)
	if !ok {
		return
	}

	e := &expense.Expense{
		ID:            id,
		UPID:          scopeKey(view),
		BillID:        req.BillID,
		Store:         req.Store,
		StoreAddr:     req.StoreAddr,
		Date:          req.Date,
		Time:          req.Time,
		Items:         req.Items,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
		Currency:      req.Currency,
		Total:         expense.Total(req.Items),
	}

	if err := h.expenses.Update(r.Context(), e); err != nil {
		if errors.Is(err, expense.ErrExpenseNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Expense not found", requestID)
			return
		}
		slog.Error("failed to update expense", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update expense", requestID)
		return
	}

	response.Success(w, http.StatusOK, newExpenseResponse(e), requestID)
}

// Delete handles DELETE /api/expenses/{id}.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, ok := currentScope(w, r, requestID)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	upid := scopeKey(view)
	if err := h.expenses.Delete(r.Context(), upid, id); err != nil {
		if errors.Is(err, expense.ErrExpenseNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Expense not found", requestID)
			return
		}
		slog.Error("failed to delete expense", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete expense", requestID)
		return
	}

	if err := h.metadata.IncrementBillCounter(r.Context(), upid, -1); err != nil {
		slog.Warn("failed to decrement bill counter", "error", err, "upid", upid)
	}

	response.NoContent(w)
}
