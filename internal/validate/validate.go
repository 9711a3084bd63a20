// Package validate rejects bad auth input at the form boundary so invalid
// requests never reach the network layer.
package validate

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"lingua-client/internal/domain"
)

// LoginInput is the login form.
type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// RegisterInput is the registration form.
type RegisterInput struct {
	FirstName string `validate:"required,personname"`
	LastName  string `validate:"required,personname"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,password"`
}

var (
	nameRe      = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	lowercaseRe = regexp.MustCompile(`[a-z]`)
	uppercaseRe = regexp.MustCompile(`[A-Z]`)
	digitRe     = regexp.MustCompile(`[0-9]`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return len(strings.TrimSpace(name)) >= 2 && nameRe.MatchString(name)
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		return len(p) >= 8 && lowercaseRe.MatchString(p) && uppercaseRe.MatchString(p) && digitRe.MatchString(p)
	})
	return v
}

// Login validates the login form, returning a *domain.ValidationError with
// one message per bad field.
func Login(input LoginInput) error {
	return translate(validate.Struct(input))
}

// Register validates the registration form.
func Register(input RegisterInput) error {
	return translate(validate.Struct(input))
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fieldKey(fe.Field())] = message(fe)
	}
	return &domain.ValidationError{Fields: fields}
}

func fieldKey(field string) string {
	switch field {
	case "FirstName":
		return "first_name"
	case "LastName":
		return "last_name"
	default:
		return strings.ToLower(field)
	}
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "Email":
		if fe.Tag() == "required" {
			return "Email is required"
		}
		return "Please enter a valid email address"
	case "Password":
		if fe.Tag() == "required" {
			return "Password is required"
		}
		return "Password must be at least 8 characters long and contain a lowercase letter, an uppercase letter, and a number"
	case "FirstName":
		if fe.Tag() == "required" {
			return "First name is required"
		}
		return "First name must be at least 2 characters long and contain only letters"
	case "LastName":
		if fe.Tag() == "required" {
			return "Last name is required"
		}
		return "Last name must be at least 2 characters long and contain only letters"
	default:
		return "Invalid value"
	}
}
