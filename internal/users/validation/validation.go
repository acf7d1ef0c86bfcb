// Package validation is the pre-store gate for user records. It is a pure
// predicate over the request payload: no store access, no side effects, so a
// record that fails here is guaranteed to cause no partial write.
package validation

import (
	"net/mail"
	"strings"
	"time"

	"uservault/internal/users/models"

	dErrors "uservault/pkg/domain-errors"
)

// DefaultMinimumAge applies when no deployment-specific age is configured.
const DefaultMinimumAge = 18

// Validator checks user payloads against field constraints and the
// deployment's minimum-age rule.
type Validator struct {
	minimumAge int
	now        func() time.Time
}

// Option customizes a Validator.
type Option func(*Validator)

// WithClock injects the time source, used by tests to pin "today".
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New creates a Validator with the given minimum age. Non-positive values
// fall back to DefaultMinimumAge.
func New(minimumAge int, opts ...Option) *Validator {
	v := &Validator{minimumAge: minimumAge, now: time.Now}
	if v.minimumAge <= 0 {
		v.minimumAge = DefaultMinimumAge
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MinimumAge returns the configured age threshold.
func (v *Validator) MinimumAge() int { return v.minimumAge }

// Validate runs every field check and reports the first violation as a
// CodeValidation error. Nil means the payload may be persisted.
func (v *Validator) Validate(req models.UserRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name cannot be blank")
	}
	if strings.TrimSpace(req.LastName) == "" {
		return dErrors.New(dErrors.CodeValidation, "lastName cannot be blank")
	}
	if err := validEmail(req.Email); err != nil {
		return err
	}
	return v.validBirthday(req.Birthday)
}

func validEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return dErrors.New(dErrors.CodeValidation, "email cannot be blank")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	// mail.ParseAddress accepts local addresses like "a@b"; require a dot in
	// the domain so the check matches what callers expect of an email field.
	at := strings.LastIndexByte(email, '@')
	if at < 0 || !strings.Contains(email[at+1:], ".") {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	return nil
}

func (v *Validator) validBirthday(birthday models.Date) error {
	if birthday.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "birthday is required")
	}
	today := models.DateOf(v.now().UTC())
	if !birthday.Before(today) {
		return dErrors.New(dErrors.CodeValidation, "birthday must be in the past")
	}
	if birthday.YearsUntil(today) < v.minimumAge {
		return dErrors.Newf(dErrors.CodeValidation, "user must be at least %d years old", v.minimumAge)
	}
	return nil
}
