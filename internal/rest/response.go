package rest

import (
	"mmDiagnosis/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// newValidator registers the "category" tag for CategoryID fields.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.CategoryID(fl.Field().String()).Valid()
	})
	return v
}

// decode binds the body and validates it. A non-nil result is the 400 body.
func decode(c echo.Context, v *validator.Validate, req any) *ResponseError {
	if err := c.Bind(req); err != nil {
		return &ResponseError{Message: "invalid request body"}
	}
	if err := v.Struct(req); err != nil {
		return &ResponseError{Message: err.Error()}
	}
	return nil
}
