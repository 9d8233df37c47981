package catalog

import (
	"fmt"

	"github.com/aescanero/gridmock/pkg/domain"
)

// Value is one optional payload field as received from a client
type Value struct {
	// Present is true when the key appeared in the payload, even as null
	Present bool
	// IsString is true when the value was a string
	IsString bool
	Text     string
}

// String builds a present string Value
func String(s string) Value {
	return Value{Present: true, IsString: true, Text: s}
}

// nonEmpty reports whether v carries a non-empty string
func (v Value) nonEmpty() bool {
	return v.Present && v.IsString && v.Text != ""
}

// ComponentInput carries the client-supplied component fields
type ComponentInput struct {
	Name   Value
	Status Value
	Type   Value
}

// Field names used in validation errors
const (
	FieldName   = "name"
	FieldStatus = "status"
	FieldType   = "type"
)

// Validator validates component payloads
type Validator struct{}

// NewValidator creates a new component validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreate checks a creation payload. Every field is required.
func (v *Validator) ValidateCreate(in ComponentInput) error {
	if !in.Name.nonEmpty() {
		return domain.NewValidationError(FieldName, "Name is required and must be a string")
	}

	if err := v.validateStatus(in.Status); err != nil {
		return err
	}

	if !in.Type.nonEmpty() {
		return domain.NewValidationError(FieldType, "Type is required and must be a string")
	}

	return nil
}

// ValidateUpdate checks a partial update payload. Absent fields are skipped.
func (v *Validator) ValidateUpdate(in ComponentInput) error {
	if in.Status.Present {
		if err := v.validateStatus(in.Status); err != nil {
			return err
		}
	}

	if in.Name.Present && !in.Name.nonEmpty() {
		return domain.NewValidationError(FieldName, "Name must be a non-empty string")
	}

	if in.Type.Present && !in.Type.nonEmpty() {
		return domain.NewValidationError(FieldType, "Type must be a non-empty string")
	}

	return nil
}

// validateStatus checks that v is one of the known statuses
func (v *Validator) validateStatus(val Value) error {
	if !val.Present || !val.IsString || !domain.Status(val.Text).IsValid() {
		return domain.NewValidationError(FieldStatus,
			fmt.Sprintf("Status must be one of: %s", domain.StatusList()))
	}
	return nil
}
