package dto

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate runs struct-tag validation on a request payload and returns
// a field->reason map for any violations, shaped for DomainError details.
func Validate(payload any) map[string]any {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	details := map[string]any{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return details
	}
	details["payload"] = err.Error()
	return details
}
