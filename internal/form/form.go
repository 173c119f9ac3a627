// Package form turns submitted HTML form values into validated domain
// values.  Every failure is reported per field so a page can show all of
// them at once next to the input the user typed.
package form

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their form name so messages line up with inputs
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// FieldError is one problem with one submitted field.
type FieldError struct {
	Field   string
	Message string
}

// Errors collects field errors in the order they were found.
type Errors []FieldError

// Add appends a message for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Has reports whether field has at least one error.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Messages returns every message in order.
func (e Errors) Messages() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, fe.Message)
	}
	return out
}

// Empty reports whether no errors were collected.
func (e Errors) Empty() bool { return len(e) == 0 }

// check validates v and translates each failing rule through messages,
// keyed "field.tag".  Unknown combinations fall back to a generic text.
func check(v any, messages map[string]string, errs *Errors) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		errs.Add("", err.Error())
		return
	}
	for _, fe := range ve {
		if fe.Field() == "" {
			continue
		}
		if errs.Has(fe.Field()) {
			continue
		}
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		errs.Add(fe.Field(), msg)
	}
}
