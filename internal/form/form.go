// Package form declares the input accepted by each write operation and
// validates it with go-playground/validator.
//
// HOW A FORM IS PROCESSED:
//  1. Bind copies the submitted values into a form struct, matching the
//     `form` tag and trimming surrounding whitespace
//  2. Validate runs the `validate` constraints and turns every failure into
//     an apperror validation error keyed by the same `form` name
//  3. The handler re-renders the page with the prior input and the per-field
//     messages, or passes the clean struct on to the service
//
// The same structs serve the JSON API: their `json` tags match the form
// names, so field errors line up across both transports.
package form

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/reqimple/reqimple/internal/apperror"
)

// Register is the account creation form.
type Register struct {
	Email       string `form:"email"        json:"email"        validate:"required,email,max=120"`
	Username    string `form:"username"     json:"username"     validate:"required,min=3,max=80,startsnotwith=bot_"`
	DisplayName string `form:"display_name" json:"display_name" validate:"required,max=120"`
	Password    string `form:"password"     json:"password"     validate:"required,max=72"`
}

// Login is used by both the login page and POST /api/v1/auth/login.
type Login struct {
	Email    string `form:"email"    json:"email"    validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// Idea is the create-idea form.
type Idea struct {
	Title       string `form:"title"       json:"title"       validate:"required,max=200"`
	Description string `form:"description" json:"description" validate:"required"`
}

// EditIdea adds the status selector to Idea.
type EditIdea struct {
	Title       string `form:"title"       validate:"required,max=200"`
	Description string `form:"description" validate:"required"`
	Status      string `form:"status"      validate:"required,oneof=draft active archived"`
}

// Comment is the add-comment form for both parent kinds.
type Comment struct {
	Content string `form:"content" validate:"required,max=5000"`
}

// Implementation is the submit-implementation form.
type Implementation struct {
	Title       string `form:"title"        validate:"required,max=200" msg:"Title must not exceed 200 characters."`
	Description string `form:"description"  validate:"required,min=30"  msg:"Description must be at least 30 characters long."`
	ExternalURL string `form:"external_url" validate:"required,max=500" msg:"The link is too long."`
	Type        string `form:"type"         validate:"required,oneof=github_repo live_demo article prototype other"`
}

// Profile is the edit-profile form. Everything but the display name is
// optional; an empty website is allowed, a malformed one is not.
type Profile struct {
	DisplayName    string `form:"display_name"    validate:"required,max=120"`
	Bio            string `form:"bio"             validate:"max=2000"`
	WebsiteURL     string `form:"website_url"     validate:"omitempty,url,max=500"`
	GitHubUsername string `form:"github_username" validate:"omitempty,max=39"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field errors under the form name, not the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks dst against its `validate` tags. It returns nil or an
// *apperror.AppError of kind ErrValidation whose Fields map every invalid
// field to a message. dst must be a pointer to one of the form structs.
func Validate(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("form: validating %T: %w", dst, err)
	}

	structType := reflect.TypeOf(dst)
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	fields := make(map[string]string, len(verrs))
	first := ""
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = message(structType, fe)
		if first == "" {
			first = name
		}
	}
	return apperror.InvalidFields(first, fields)
}

// message picks the text shown for one failed constraint. A `msg` tag on
// the field overrides everything except a missing value.
func message(structType reflect.Type, fe validator.FieldError) string {
	if fe.Tag() != "required" {
		if sf, ok := structType.FieldByName(fe.StructField()); ok {
			if custom := sf.Tag.Get("msg"); custom != "" {
				return custom
			}
		}
	}

	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "url":
		return "Invalid URL."
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "oneof":
		return "Not a valid choice."
	case "startsnotwith":
		return "This username is reserved."
	}
	return "Invalid value."
}

// Bind copies values into the string fields of dst that carry a `form`
// tag, trimming surrounding whitespace. Passwords are copied verbatim.
// dst must be a pointer to a struct.
func Bind(values url.Values, dst any) {
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("form"), ",")
		if name == "" || name == "-" || sf.Type.Kind() != reflect.String {
			continue
		}
		value := values.Get(name)
		if name != "password" {
			value = strings.TrimSpace(value)
		}
		v.Field(i).SetString(value)
	}
}
