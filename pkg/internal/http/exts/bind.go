package exts

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

var validation = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report the json names, clients never see the go field names
	validation.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func describeValidationError(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}

	messages := make([]string, 0, len(errs))
	for _, item := range errs {
		field := item.Field()
		switch item.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters long", field, item.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters long", field, item.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(messages, ", ")
}

func BindAndValidate(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	} else if err := validation.Struct(out); err != nil {
		return fmt.Errorf("%w: %s", services.ErrValidation, describeValidationError(err))
	}
	return nil
}

// JSONBodyGuard rejects json bodies that cannot be parsed before any handler runs.
func JSONBodyGuard(c *fiber.Ctx) error {
	contentType := string(c.Request().Header.ContentType())
	if len(c.Body()) > 0 && strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		if !jsoniter.Valid(c.Body()) {
			return fmt.Errorf("%w: malformed json body", services.ErrValidation)
		}
	}
	return c.Next()
}
