package httpserver

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("txhash", func(fl validator.FieldLevel) bool {
		return txHashPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register txhash validation: %v", err))
	}
	return v
}

// validationMessage renders the first failed rule as "field: reason".
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "invalid request"
	}

	e := errs[0]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "url", "http_url":
		return fmt.Sprintf("%s must be an absolute http(s) URL", e.Field())
	case "eth_addr":
		return fmt.Sprintf("%s must be a 0x-prefixed wallet address", e.Field())
	case "txhash":
		return fmt.Sprintf("%s must be a 0x-prefixed transaction hash", e.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
