package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/enrollment-gate/internal/middleware"
	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// bindingError maps the first struct validation failure to INVALID_FIELD using
// the json name of the offending field.
func bindingError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	first := validationErrs[0]
	field := toSnake(first.Field())
	switch first.Tag() {
	case "required", "required_with":
		return appErrors.InvalidField(field, field+" is required")
	case "document_type":
		return appErrors.InvalidField(field, "document type must be national or foreign")
	default:
		return appErrors.InvalidField(field, field+" is invalid")
	}
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
