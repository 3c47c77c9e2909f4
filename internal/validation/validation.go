// Package validation checks request payloads against their `validate` tags
// and reports every failing field at once.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format for calendar dates (birth dates, report periods).
const DateLayout = "2006-01-02"

var (
	productNameRegex = regexp.MustCompile(`^[\p{L}\p{N} _-]+$`)
	categoryRegex    = regexp.MustCompile(`^[\p{L} ]+$`)

	once     sync.Once
	validate *validator.Validate
)

// Error lists every field constraint that failed.
type Error struct {
	Fields []string
}

func (e *Error) Error() string {
	return strings.Join(e.Fields, "; ")
}

// Struct validates s and returns *Error on constraint violations.
func Struct(s any) error {
	if err := instance().Struct(s); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return &Error{Fields: msgs}
		}
		return err
	}
	return nil
}

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names, not Go field names.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		mustRegister(v, "productname", func(fl validator.FieldLevel) bool {
			return productNameRegex.MatchString(fl.Field().String())
		})
		mustRegister(v, "category", func(fl validator.FieldLevel) bool {
			return categoryRegex.MatchString(fl.Field().String())
		})
		mustRegister(v, "notfuture", notFuture)

		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// notFuture accepts a DateLayout string or a time.Time that is not after today.
func notFuture(fl validator.FieldLevel) bool {
	var t time.Time
	switch v := fl.Field().Interface().(type) {
	case string:
		parsed, err := time.Parse(DateLayout, v)
		if err != nil {
			return false
		}
		t = parsed
	case time.Time:
		t = v
	default:
		return false
	}
	return !t.After(time.Now().UTC())
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "alphanum":
		return field + " must contain only letters and digits"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in format %s", field, fe.Param())
	case "productname":
		return field + " may contain only letters, digits, spaces, hyphens and underscores"
	case "category":
		return field + " may contain only letters and spaces"
	case "notfuture":
		return field + " must not be in the future"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
