// Package validator configures gin's binding engine for request structs.
package validator

import (
	"database/sql/driver"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// FieldError is one failed rule, keyed by the JSON field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email",
	"min":      "is too short",
	"max":      "is too long",
	"url":      "must be a valid URL",
	"hhmm":     "must be a time of day in HH:MM form",
	"uuid":     "must be a UUID",
}

// Register installs the custom rules on gin's validator. Types passed in
// valuers are validated through their driver.Valuer, so a zero value that
// stores as NULL fails "required".
func Register(valuers ...interface{}) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding engine")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	if len(valuers) > 0 {
		v.RegisterCustomTypeFunc(valuerValue, valuers...)
	}
	return nil
}

func valuerValue(field reflect.Value) interface{} {
	valuer, ok := field.Interface().(driver.Valuer)
	if !ok {
		return nil
	}
	val, err := valuer.Value()
	if err != nil {
		return nil
	}
	return val
}

// Errors flattens a binding error into per-field messages. It returns nil
// for errors that did not come from the validator, such as malformed JSON.
func Errors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		msg, ok := messages[e.Tag()]
		if !ok {
			msg = "failed " + e.Tag() + " validation"
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}

// Summary joins Errors into one line, falling back to err's text.
func Summary(err error) string {
	fields := Errors(err)
	if len(fields) == 0 {
		return "invalid request body"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Field + " " + f.Message
	}
	return strings.Join(parts, "; ")
}
