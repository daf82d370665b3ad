// Package normalize turns loosely typed spreadsheet rows into typed records.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
)

// DefaultDateLayouts are tried in order when a date field declares no layouts.
var DefaultDateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

// spreadsheetEpoch is day zero of spreadsheet serial dates.
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Normalizer validates and coerces raw rows against a fixed list of field specs.
// It is safe for concurrent use once built.
type Normalizer struct {
	fields   []model.FieldSpec
	validate *validator.Validate
}

// NewNormalizer creates a Normalizer for fields.
func NewNormalizer(fields []model.FieldSpec) *Normalizer {
	return &Normalizer{
		fields:   fields,
		validate: validator.New(),
	}
}

// Normalize coerces every declared field of row. All problems of the row are
// reported together; the record is only meaningful when no error is returned.
func (n *Normalizer) Normalize(row model.RawRow) (model.NormalizedRecord, []model.ValidationError) {
	fields := make(model.Fields, len(n.fields))
	var errs []model.ValidationError

	for _, spec := range n.fields {
		raw, present := lookup(row.Values, spec)
		if isBlank(raw, present) {
			if spec.Required {
				errs = append(errs, model.ValidationError{RowIndex: row.Index, Field: spec.Name, Message: requiredMessage(spec)})
				continue
			}
			fields[spec.Name] = nil
			continue
		}

		value, msg := n.coerce(spec, raw)
		if msg != "" {
			if spec.InvalidMessage != "" {
				msg = spec.InvalidMessage
			}
			errs = append(errs, model.ValidationError{RowIndex: row.Index, Field: spec.Name, Message: msg})
			continue
		}
		fields[spec.Name] = value
	}

	if len(errs) > 0 {
		return model.NormalizedRecord{}, errs
	}
	return model.NormalizedRecord{RowIndex: row.Index, Fields: fields}, nil
}

// NormalizeAll normalizes rows in order and splits them into valid records and errors.
func (n *Normalizer) NormalizeAll(rows []model.RawRow) ([]model.NormalizedRecord, []model.ValidationError) {
	records := make([]model.NormalizedRecord, 0, len(rows))
	var errs []model.ValidationError
	for _, row := range rows {
		record, rowErrs := n.Normalize(row)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		records = append(records, record)
	}
	return records, errs
}

// lookup reads the field by name, then by each alias.
func lookup(values map[string]any, spec model.FieldSpec) (any, bool) {
	if v, ok := values[spec.Name]; ok {
		return v, true
	}
	for _, alias := range spec.Aliases {
		if v, ok := values[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func isBlank(raw any, present bool) bool {
	if !present || raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func requiredMessage(spec model.FieldSpec) string {
	if spec.RequiredMessage != "" {
		return spec.RequiredMessage
	}
	return fmt.Sprintf("%s is required", spec.DisplayLabel())
}

// coerce converts raw to the field type. A non-empty message means the value was rejected.
func (n *Normalizer) coerce(spec model.FieldSpec, raw any) (any, string) {
	label := spec.DisplayLabel()
	switch spec.Type {
	case model.FieldTypeNumber:
		f, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Sprintf("%s must be a number", label)
		}
		return f, ""
	case model.FieldTypeDecimal:
		d, ok := toDecimal(raw)
		if !ok {
			return nil, fmt.Sprintf("%s must be a number", label)
		}
		return d, ""
	case model.FieldTypeBoolean:
		b, ok := toBool(raw)
		if !ok {
			return nil, fmt.Sprintf("%s must be true or false", label)
		}
		return b, ""
	case model.FieldTypeDate:
		layouts := spec.DateLayouts
		if len(layouts) == 0 {
			layouts = DefaultDateLayouts
		}
		t, ok := toDate(raw, layouts)
		if !ok {
			return nil, fmt.Sprintf("%s must be a date", label)
		}
		return t, ""
	default:
		return n.text(spec, raw)
	}
}

func (n *Normalizer) text(spec model.FieldSpec, raw any) (any, string) {
	label := spec.DisplayLabel()
	s := toText(raw)

	if len(spec.Enum) > 0 && !contains(spec.Enum, s) {
		return nil, fmt.Sprintf("%s must be one of: %s", label, strings.Join(spec.Enum, ", "))
	}
	if spec.Rule != "" {
		if err := n.validate.Var(s, spec.Rule); err != nil {
			return nil, fmt.Sprintf("%s is invalid", label)
		}
	}
	return s, ""
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func toText(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// toFloat accepts native numbers and locale-agnostic numeric strings. NaN and infinities are rejected.
func toFloat(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	default:
		f, ok := toFloat(raw)
		if !ok {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(f), true
	}
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		switch s {
		case "yes", "y", "có", "x":
			return true, true
		case "no", "n", "không":
			return false, true
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, false
		}
		return b, true
	default:
		f, ok := toFloat(raw)
		if !ok {
			return false, false
		}
		switch f {
		case 1:
			return true, true
		case 0:
			return false, true
		}
		return false, false
	}
}

func toDate(raw any, layouts []string) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		serial, ok := toFloat(raw)
		if !ok || serial < 1 {
			return time.Time{}, false
		}
		days := math.Floor(serial)
		seconds := math.Round((serial - days) * 86400)
		return spreadsheetEpoch.AddDate(0, 0, int(days)).Add(time.Duration(seconds) * time.Second), true
	}
}
