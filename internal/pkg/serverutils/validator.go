package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest checks struct tags and converts the first violation into
// a client-facing 400 message.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	first := validationErrs[0]
	field := strings.ToLower(first.Field())

	var message string
	switch first.Tag() {
	case "required":
		message = fmt.Sprintf("field '%s' is required", field)
	case "oneof":
		message = fmt.Sprintf("field '%s' must be one of: %s", field, first.Param())
	case "max":
		message = fmt.Sprintf("field '%s' exceeds the maximum length of %s", field, first.Param())
	case "min":
		message = fmt.Sprintf("field '%s' is below the minimum of %s", field, first.Param())
	case "uuid4":
		message = fmt.Sprintf("field '%s' must be a valid UUID", field)
	default:
		message = fmt.Sprintf("field '%s' is invalid", field)
	}

	return fiber.NewError(fiber.StatusBadRequest, message)
}
