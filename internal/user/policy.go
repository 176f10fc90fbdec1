// AngelaMos | 2026
// policy.go

package user

import (
	"strings"
	"unicode"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

const (
	minPasswordLength = 8
	passwordSymbols   = `!@#$%^&*(),.?":{}|<>`
)

// Policy holds the account rules that depend on deployment.
type Policy struct {
	EmailDomain string
}

// PrimordialEmail is the admin account that can never be removed.
func (p Policy) PrimordialEmail() string {
	return "admin@" + strings.ToLower(p.EmailDomain)
}

func (p Policy) IsPrimordial(email string) bool {
	return strings.EqualFold(email, p.PrimordialEmail())
}

// UserInput is the account data a create or update must satisfy.
type UserInput struct {
	Name     string
	Email    string
	Password string
}

// ValidationErrors lists every rule an input broke, in rule order.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

func (v ValidationErrors) Unwrap() error {
	return core.ErrInvalidInput
}

// Validate checks in against the policy. Every rule is evaluated and all
// violations are returned together.
func Validate(in UserInput, p Policy) error {
	return validate(in, p, true)
}

// ValidateUpdate is Validate with an optional password: an empty password
// keeps the stored one and is not checked.
func ValidateUpdate(in UserInput, p Policy) error {
	return validate(in, p, false)
}

func validate(in UserInput, p Policy, passwordRequired bool) error {
	var errs ValidationErrors

	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, "name is required")
	}

	email := strings.TrimSpace(in.Email)
	switch {
	case email == "":
		errs = append(errs, "email is required")
	case !strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(p.EmailDomain)):
		errs = append(errs, "email must end with @"+p.EmailDomain)
	}

	switch {
	case in.Password == "" && passwordRequired:
		errs = append(errs, "password is required")
	case in.Password != "":
		errs = append(errs, passwordViolations(in.Password)...)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidatePassword applies the password rules alone.
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationErrors{"password is required"}
	}
	if errs := passwordViolations(password); len(errs) > 0 {
		return ValidationErrors(errs)
	}
	return nil
}

func passwordViolations(password string) []string {
	var (
		errs                   []string
		upper, digit, symbolic bool
	)

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbolic = true
		}
	}

	if len([]rune(password)) < minPasswordLength {
		errs = append(errs, "password must be at least 8 characters")
	}
	if !upper {
		errs = append(errs, "password must contain an uppercase letter")
	}
	if !digit {
		errs = append(errs, "password must contain a digit")
	}
	if !symbolic {
		errs = append(errs, "password must contain one of "+passwordSymbols)
	}
	return errs
}
