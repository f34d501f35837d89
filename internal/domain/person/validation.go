package person

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength     = 255
	MaxPhoneLength    = 32
	MaxStreetLength   = 255
	MaxNumberLength   = 20
	MaxDistrictLength = 120
	MaxCityLength     = 120
	MaxStateLength    = 120
)

type Violation struct {
	Field   string
	Message string
}

// ValidationError lists every rule a candidate failed. It matches ErrInvalid
// with errors.Is.
type ValidationError struct {
	Violations []Violation
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Violations: []Violation{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Validator accepts or rejects a candidate before it is written. A rejection
// is a *ValidationError.
type Validator[T any] interface {
	Validate(candidate T) error
}

type ValidatorFunc[T any] func(candidate T) error

func (f ValidatorFunc[T]) Validate(candidate T) error {
	return f(candidate)
}

type chain[T any] []Validator[T]

// Chain runs every validator and merges their violations into one error.
// Errors that are not validation errors stop the chain.
func Chain[T any](validators ...Validator[T]) Validator[T] {
	return chain[T](validators)
}

func (c chain[T]) Validate(candidate T) error {
	var merged []Violation
	for _, v := range c {
		if v == nil {
			continue
		}
		err := v.Validate(candidate)
		if err == nil {
			continue
		}
		ve, ok := err.(*ValidationError)
		if !ok {
			return err
		}
		merged = append(merged, ve.Violations...)
	}
	if len(merged) > 0 {
		return &ValidationError{Violations: merged}
	}
	return nil
}

type violations []Violation

func (vs *violations) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		*vs = append(*vs, Violation{Field: field, Message: "must not be blank"})
	}
}

func (vs *violations) maxLength(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		*vs = append(*vs, Violation{Field: field, Message: fmt.Sprintf("must be at most %d characters", limit)})
	}
}

func (vs violations) err() error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Violations: vs}
}

// DefaultPersonValidator rejects a blank name and values wider than their
// columns.
func DefaultPersonValidator() Validator[PersonDraft] {
	return ValidatorFunc[PersonDraft](func(d PersonDraft) error {
		var vs violations
		vs.required("name", d.Name)
		vs.maxLength("name", d.Name, MaxNameLength)
		vs.maxLength("phone", d.Phone, MaxPhoneLength)
		return vs.err()
	})
}

// DefaultAddressValidator requires an owner and a street.
func DefaultAddressValidator() Validator[AddressDraft] {
	return ValidatorFunc[AddressDraft](func(d AddressDraft) error {
		var vs violations
		if d.PersonID <= 0 {
			vs = append(vs, Violation{Field: "person_id", Message: "must be a positive integer"})
		}
		vs.required("street", d.Street)
		vs.maxLength("street", d.Street, MaxStreetLength)
		vs.maxLength("number", d.Number, MaxNumberLength)
		vs.maxLength("district", d.District, MaxDistrictLength)
		vs.maxLength("city", d.City, MaxCityLength)
		vs.maxLength("state", d.State, MaxStateLength)
		return vs.err()
	})
}

func MinNameLength(n int) Validator[PersonDraft] {
	return ValidatorFunc[PersonDraft](func(d PersonDraft) error {
		if utf8.RuneCountInString(strings.TrimSpace(d.Name)) < n {
			return NewValidationError("name", fmt.Sprintf("must be at least %d characters", n))
		}
		return nil
	})
}

// PersonValidator builds the person strategy used by the service. A
// minNameLength of one or less keeps the default rules only.
func PersonValidator(minNameLength int) Validator[PersonDraft] {
	if minNameLength <= 1 {
		return DefaultPersonValidator()
	}
	return Chain(DefaultPersonValidator(), MinNameLength(minNameLength))
}
