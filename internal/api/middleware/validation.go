package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"green-needle/internal/api/errors"
)

// Validator lets request types add domain rules beyond struct tags.
type Validator interface {
	Validate() error
}

// ValidateRequest binds the JSON body and checks struct tags, then domain
// rules when the type implements Validator.
func ValidateRequest(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return errors.Validation("validation failed", fieldMessages(err))
	}
	if v, ok := req.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateQuery binds and checks query parameters the same way.
func ValidateQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return errors.Validation("invalid query parameters", fieldMessages(err))
	}
	if v, ok := req.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func fieldMessages(err error) map[string]string {
	messages := make(map[string]string)

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		messages["request"] = "malformed request"
		return messages
	}

	for _, fieldError := range validationErrs {
		field := strings.ToLower(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			messages[field] = "is required"
		case "min":
			messages[field] = "is too small"
		case "max":
			messages[field] = "is too large"
		case "oneof":
			messages[field] = "must be one of the allowed values"
		default:
			messages[field] = "is invalid"
		}
	}
	return messages
}
