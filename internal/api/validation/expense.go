package validation

import (
	"strings"

	"github.com/chronicle-app/chronicle/internal/expense"
)

// Currencies enumerates the supported expense currencies.
var Currencies = map[string]bool{"INR": true, "GBP": true}

// ExpenseRequest mirrors the fields needed for expense validation.
type ExpenseRequest struct {
	Store    string
	Date     int
	Time     *int
	Items    []expense.Item
	Currency string
}

// ValidateExpenseRequest validates an expense create/update request. Dates
// are YYMMDD within the supported range, times HHMM.
func ValidateExpenseRequest(req ExpenseRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Store) == "" {
		errs = append(errs, FieldError{Field: "store", Message: "store is required"})
	}

	if req.Date < 200101 || req.Date > 991231 {
		errs = append(errs, FieldError{Field: "date", Message: "date must be YYMMDD between 200101 and 991231"})
	}

	if req.Time != nil && (*req.Time < 0 || *req.Time > 2359) {
		errs = append(errs, FieldError{Field: "time", Message: "time must be HHMM between 0000 and 2359"})
	}

	if len(req.Items) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "at least one item is required"})
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			errs = append(errs, FieldError{Field: "items", Message: "item names must not be empty"})
			break
		}
	}
	for _, item := range req.Items {
		if item.Qty < 0 {
			errs = append(errs, FieldError{Field: "items", Message: "item quantities must not be negative"})
			break
		}
	}

	if !Currencies[req.Currency] {
		errs = append(errs, FieldError{Field: "currency", Message: "currency invalid or not supported"})
	}

	return errs
}
