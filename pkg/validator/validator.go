// Package validator provides request validation with domain-aware
// custom rules.
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/tenant"
)

// inviteCodePattern matches the canonical XXXX-XXXX invite code shape.
var inviteCodePattern = regexp.MustCompile(`^[A-HJKMNP-Z2-9]{4}-[A-HJKMNP-Z2-9]{4}$`)

// Validator validates request structs.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom domain rules registered.
func New() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	rules := map[string]validator.Func{
		"rolename":    validRoleName,
		"tenantcode":  validTenantCode,
		"invitecode":  validInviteCode,
		"accesslevel": validAccessLevel,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %q rule: %w", tag, err)
		}
	}

	return &Validator{validate: v}, nil
}

// Struct validates a struct and returns field-level errors.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Value: fmt.Sprintf("%v", fe.Value()),
		})
	}
	return &Error{Fields: fields}
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"rule"`
	Value string `json:"value,omitempty"`
}

// Error aggregates field validation failures.
type Error struct {
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "validation failed: " + strings.Join(names, ", ")
}

func validRoleName(fl validator.FieldLevel) bool {
	_, ok := role.Parse(fl.Field().String())
	return ok
}

func validTenantCode(fl validator.FieldLevel) bool {
	return tenant.IsValidCode(fl.Field().String())
}

func validInviteCode(fl validator.FieldLevel) bool {
	return inviteCodePattern.MatchString(fl.Field().String())
}

func validAccessLevel(fl validator.FieldLevel) bool {
	_, ok := permissiongroup.ParseAccessLevel(fl.Field().String())
	return ok
}
