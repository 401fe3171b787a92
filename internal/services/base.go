package services

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownPlugin = errors.New("unknown plugin")
)

// ValidationError lists every offending field with a readable reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(names, ", "))
}

func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = reason
	}
}

// errOrNil returns e when it carries fields.
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var (
	mediaIDsPattern = regexp.MustCompile(`^\s*\d+\s*(,\s*\d+\s*)*$`)
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// newValidator returns the validator used for extra-data and settings values.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("media_ids", func(fl validator.FieldLevel) bool {
		return mediaIDsPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// describeRule turns a failed validator tag into a message.
func describeRule(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "is invalid"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "numeric", "number":
		return "must be a number"
	case "url":
		return "must be a valid URL"
	case "datetime":
		return fmt.Sprintf("must be a date in the form %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "slug":
		return "may only contain lowercase letters, digits and dashes"
	case "media_ids":
		return "must be a comma-separated list of media ids"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
