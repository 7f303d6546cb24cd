package service

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidationResult is one field-level validation failure, surfaced to the
// caller as a (field, message) pair.
type ValidationResult struct {
	FieldName string
	Message   string
}

type newUserFields struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,accountpassword"`
}

// FieldValidator checks the constrained fields of a signup request: email
// format, and the password policy (6-20 characters with at least one
// digit, one lowercase and one uppercase letter).
type FieldValidator struct {
	validate *validator.Validate
}

func NewFieldValidator() *FieldValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for a nil func or empty tag.
	_ = v.RegisterValidation("accountpassword", validPassword)
	return &FieldValidator{validate: v}
}

func validPassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) < 6 || len(value) > 20 {
		return false
	}

	var hasDigit, hasLower, hasUpper bool
	for _, r := range value {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	return hasDigit && hasLower && hasUpper
}

// ValidateNewUser returns one entry per failing field, empty when both
// fields pass.
func (v *FieldValidator) ValidateNewUser(email, password string) []ValidationResult {
	err := v.validate.Struct(newUserFields{Email: email, Password: password})
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationResult{{FieldName: "request", Message: "invalid request"}}
	}

	results := make([]ValidationResult, 0, len(validationErrors))
	for _, fe := range validationErrors {
		results = append(results, ValidationResult{
			FieldName: fieldName(fe),
			Message:   fieldMessage(fe),
		})
	}
	return results
}

// ValidatePassword checks a single password against the account password
// policy, for flows that replace the password of an existing account.
func (v *FieldValidator) ValidatePassword(password string) []ValidationResult {
	err := v.validate.Var(password, "required,accountpassword")
	if err == nil {
		return nil
	}
	return []ValidationResult{{
		FieldName: "password",
		Message:   "must be 6-20 characters and contain a digit, a lowercase and an uppercase letter",
	}}
}

func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Email":
		return "email"
	case "Password":
		return "password"
	default:
		return fe.Field()
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a well-formed email address"
	case "accountpassword":
		return "must be 6-20 characters and contain a digit, a lowercase and an uppercase letter"
	default:
		return "is invalid"
	}
}
