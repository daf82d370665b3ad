// Package model defines the data that flows through one import run:
// raw rows, field specifications, normalized records, write intents,
// per-row outcomes and the final report.
package model

import "fmt"

// FieldType is the target type a raw cell is coerced to.
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeNumber  FieldType = "number"
	FieldTypeDecimal FieldType = "decimal"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDecimal, FieldTypeBoolean, FieldTypeDate:
		return true
	}
	return false
}

// FieldSpec declares how one target field is read from a raw row.
type FieldSpec struct {
	// Name is the target field (and storage column) name.
	Name string `yaml:"name"`
	// Label is the human-readable name used in generated messages. Defaults to Name.
	Label string    `yaml:"label"`
	Type  FieldType `yaml:"type"`
	// Required fields reject missing, empty and blank values.
	Required bool `yaml:"required"`
	// RequiredMessage replaces the generated "<Label> is required" message.
	RequiredMessage string `yaml:"required_message"`
	// InvalidMessage replaces generated type, enum and rule messages.
	InvalidMessage string `yaml:"invalid_message"`
	// Aliases are alternative source headers, tried in order after Name.
	Aliases []string `yaml:"aliases"`
	// Enum restricts a text field to a fixed set of values.
	Enum []string `yaml:"enum"`
	// Rule is a validator tag applied to non-blank text values, e.g. "email" or "max=255".
	Rule string `yaml:"rule"`
	// DateLayouts overrides the accepted layouts for date fields.
	DateLayouts []string `yaml:"date_layouts"`
}

// DisplayLabel returns Label, or Name when no label is set.
func (f FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Validate checks the spec for configuration mistakes.
func (f FieldSpec) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("field name is required")
	}
	if !f.Type.Valid() {
		return fmt.Errorf("field '%s': unknown type '%s'", f.Name, f.Type)
	}
	if len(f.Enum) > 0 && f.Type != FieldTypeText {
		return fmt.Errorf("field '%s': enum is only supported on text fields", f.Name)
	}
	if f.Rule != "" && f.Type != FieldTypeText {
		return fmt.Errorf("field '%s': rule is only supported on text fields", f.Name)
	}
	return nil
}
