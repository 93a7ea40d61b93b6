package users

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// maxPasswordBytes is the bcrypt input limit, counted in bytes.
const maxPasswordBytes = 72

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(field.Name)
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pwbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := rbac.ParseRole(fl.Field().String())
		return ok
	})
	return v
}

// validationError converts validator output into a shared.ValidationError.
// field overrides the reported name for single-value checks.
func validationError(err error, field string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &shared.ValidationError{}
	for _, fe := range verrs {
		name := field
		if name == "" {
			name = fe.Field()
		}
		out.Add(name, fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "enter a valid email address"
	case "username":
		return "may contain only letters, numbers, and @/./+/-/_ characters"
	case "pwbytes":
		return fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)
	case "role":
		return "must be one of Admin, Manager, Employee"
	default:
		return "is invalid"
	}
}

// NormalizeUsername applies NFKC so visually identical usernames collide.
func NormalizeUsername(username string) string {
	return norm.NFKC.String(strings.TrimSpace(username))
}

// NormalizeEmail lower-cases the domain part of an address.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func (s *Service) validateRegister(in RegisterInput) (RegisterInput, rbac.Role, error) {
	in.Username = NormalizeUsername(in.Username)
	in.Email = NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := s.validate.Struct(in); err != nil {
		return in, "", validationError(err, "")
	}
	role := rbac.DefaultRole
	if in.Role != "" {
		role, _ = rbac.ParseRole(in.Role)
	}
	return in, role, nil
}

func (s *Service) validateUpdate(in UpdateInput) error {
	checks := []struct {
		field string
		value *string
		tag   string
	}{
		{"email", in.Email, "omitempty,max=254,email"},
		{"first_name", in.FirstName, "max=150"},
		{"last_name", in.LastName, "max=150"},
		{"role", in.Role, "required,role"},
		{"password", in.Password, "required,min=6,pwbytes"},
	}
	out := &shared.ValidationError{}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if err := s.validate.Var(*c.value, c.tag); err != nil {
			var verr *shared.ValidationError
			if errors.As(validationError(err, c.field), &verr) {
				for k, msg := range verr.Fields {
					out.Add(k, msg)
				}
				continue
			}
			return err
		}
	}
	if !out.Empty() {
		return out
	}
	return nil
}
