package validation

import "regexp"

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	emailRegex    = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9-]+(?:\\.[a-zA-Z0-9-]+)*$")
	nameRegex     = regexp.MustCompile(`^[a-zA-Z ]{3,32}$`)
	passwordRegex = regexp.MustCompile(`^[a-zA-Z0-9@\-_$#&!]{8,32}$`)
)

// IsEmail reports whether s is an acceptable email address.
func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsName reports whether s is an acceptable display name: letters and
// spaces, 3 to 32 characters.
func IsName(s string) bool {
	return nameRegex.MatchString(s)
}

// IsPassword reports whether s is an acceptable password: 8 to 32
// characters from the allowed set.
func IsPassword(s string) bool {
	return passwordRegex.MatchString(s)
}
