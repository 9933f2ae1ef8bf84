// Package validation checks user input and configuration with go-playground/validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// TaskInput is a task title typed by the user
type TaskInput struct {
	Title string `json:"title" validate:"notblank,max=500"`
}

// TagInput is a tag name and color typed by the user
type TagInput struct {
	Name  string `json:"name" validate:"notblank,max=32"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// Error lists the fields that failed validation and why
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator with friendlier errors
type Validator struct {
	v *validator.Validate
}

// New creates a validator. Field names in errors come from the mapstructure or
// json tag, whichever is present.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"mapstructure", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{v: v}
}

// Validate validates a struct, returning *Error for rule violations
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Task validates a task title
func (v *Validator) Task(title string) error {
	return v.Validate(TaskInput{Title: title})
}

// Tag validates a tag name and color
func (v *Validator) Tag(name, color string) error {
	return v.Validate(TagInput{Name: name, Color: color})
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string)
	for _, e := range validationErrs {
		// nested structs report "Config.log.level"; drop the root type name
		name := e.Namespace()
		if _, rest, ok := strings.Cut(name, "."); ok {
			name = rest
		}
		fields[name] = friendlyMessage(e)
	}
	return &Error{Fields: fields}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "hexcolor":
		return "must be a hex color such as #2196f3"
	case "oneof":
		return "must be one of: " + e.Param()
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	default:
		return "failed " + e.Tag() + " check"
	}
}
