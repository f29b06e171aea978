package httpapi

import (
	"strings"

	"github.com/expertbridge/consult_platform/internal/service"
	"github.com/go-playground/validator/v10"
)

// checkInput runs struct tag validation and folds failures into the same
// ValidationError shape the services produce, so writeError maps them
// uniformly to 422.
func (a *API) checkInput(input any) error {
	err := a.validate.Struct(input)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return service.NewValidationError("body", "invalid payload")
	}

	ve := &service.ValidationError{Fields: make(map[string]string, len(invalid))}
	for _, fe := range invalid {
		ve.Fields[strings.ToLower(fe.Field())] = "failed " + fe.Tag() + " validation"
	}
	return ve
}
