package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tigerroll/sheetload/pkg/batch/support/util/configbinder"
)

// RawRow is one row handed over by the spreadsheet reader.
// Values hold untyped scalars (string, numeric kinds, bool, time.Time or nil).
type RawRow struct {
	// Index is the 0-based position of the row in the input sequence.
	Index  int
	Values map[string]any
}

// Fields holds the typed values of a normalized record, keyed by field name.
// A value is one of string, float64, decimal.Decimal, bool, time.Time or nil.
type Fields map[string]any

// Text returns the string value of name. ok is false when it is null or not text.
func (f Fields) Text(name string) (string, bool) {
	v, ok := f[name].(string)
	return v, ok
}

// Number returns the float64 value of name.
func (f Fields) Number(name string) (float64, bool) {
	v, ok := f[name].(float64)
	return v, ok
}

// Decimal returns the decimal value of name.
func (f Fields) Decimal(name string) (decimal.Decimal, bool) {
	v, ok := f[name].(decimal.Decimal)
	return v, ok
}

// Bool returns the boolean value of name.
func (f Fields) Bool(name string) (bool, bool) {
	v, ok := f[name].(bool)
	return v, ok
}

// Date returns the time value of name.
func (f Fields) Date(name string) (time.Time, bool) {
	v, ok := f[name].(time.Time)
	return v, ok
}

// IsNull reports whether name is present with a null value.
func (f Fields) IsNull(name string) bool {
	v, ok := f[name]
	return ok && v == nil
}

// NormalizedRecord is a row that passed validation.
type NormalizedRecord struct {
	RowIndex int
	Fields   Fields
}

// Decode projects the record onto a struct whose fields carry `field:"<name>"` tags.
func (r NormalizedRecord) Decode(target any) error {
	return configbinder.BindRecord(r.Fields, target)
}

// ValidationError is a problem found in one row before any write happens.
type ValidationError struct {
	RowIndex int
	// Field is empty for row-level problems such as duplicate keys.
	Field   string
	Message string
}
