package http

import (
	"fmt"
)

// RequestValidator collects field violations for a request payload.
type RequestValidator struct {
	fieldViolations map[string][]string
}

// NewRequestValidator creates a new RequestValidator.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		fieldViolations: make(map[string][]string),
	}
}

// Field begins building a validation for the given request field name.
func (v *RequestValidator) Field(name string) *FieldValidator {
	return &FieldValidator{
		validator: v,
		field:     name,
	}
}

// OptionalRange adds a violation when val is set (non-zero) and outside
// [lo, hi]. Zero means the field was omitted and a default applies.
func (v *RequestValidator) OptionalRange(name string, val, lo, hi int) *RequestValidator {
	return v.Field(name).
		When(val != 0 && (val < lo || val > hi)).
		Messagef("Must be between %d and %d", lo, hi)
}

// NotNegative adds a violation when val is below zero.
func (v *RequestValidator) NotNegative(name string, val int) *RequestValidator {
	return v.Field(name).When(val < 0).Message("Must not be negative")
}

// Error returns a *BadRequestError listing every violation, or nil.
func (v *RequestValidator) Error() error {
	if len(v.fieldViolations) == 0 {
		return nil
	}
	return &BadRequestError{FieldViolations: v.fieldViolations}
}

type FieldValidator struct {
	validator *RequestValidator
	field     string
}

// When sets the condition for the field.
func (f *FieldValidator) When(cond bool) *FieldCondition {
	return &FieldCondition{
		validator: f.validator,
		field:     f.field,
		condition: cond,
	}
}

type FieldCondition struct {
	validator *RequestValidator
	field     string
	condition bool
}

// Message adds a violation if the condition is true.
func (fc *FieldCondition) Message(msg string) *RequestValidator {
	if fc.condition {
		fc.validator.fieldViolations[fc.field] = append(
			fc.validator.fieldViolations[fc.field],
			msg,
		)
	}
	return fc.validator
}

// Messagef adds a formatted violation message if the condition is true.
func (fc *FieldCondition) Messagef(msg string, args ...any) *RequestValidator {
	return fc.Message(fmt.Sprintf(msg, args...))
}
