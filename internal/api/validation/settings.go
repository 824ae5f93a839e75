package validation

import "strings"

// ExpenseGroupRequest mirrors the fields needed for expense group validation.
type ExpenseGroupRequest struct {
	Name  string
	Words []string
}

// ValidateExpenseGroupRequest validates an expense group create/update
// request. Blank words are dropped, not rejected.
func ValidateExpenseGroupRequest(req ExpenseGroupRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}

	return errs
}

// CleanWords drops blank entries and trims the rest.
func CleanWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// PaymentMethodRequest mirrors the fields needed for payment method validation.
type PaymentMethodRequest struct {
	Name string
}

// ValidatePaymentMethodRequest validates a payment method name.
func ValidatePaymentMethodRequest(req PaymentMethodRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}

	return errs
}

// CredentialsRequest mirrors the fields needed for registration validation.
type CredentialsRequest struct {
	Email    string
	Name     string
	Password string
}

// ValidateCredentialsRequest validates a native account's registration
// fields.
func ValidateCredentialsRequest(req CredentialsRequest) []FieldError {
	var errs []FieldError

	if !IsEmail(strings.TrimSpace(req.Email)) {
		errs = append(errs, FieldError{Field: "email", Message: "email address is invalid"})
	}
	if !IsName(strings.TrimSpace(req.Name)) {
		errs = append(errs, FieldError{Field: "name", Message: "name is invalid"})
	}
	if !IsPassword(req.Password) {
		errs = append(errs, FieldError{Field: "password", Message: "password is invalid"})
	}

	return errs
}
