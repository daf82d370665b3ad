// Package keyresolve computes business keys and matches them against the
// records already in storage.
package keyresolve

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
)

// Separator joins the components of a composite key.
const Separator = "|"

// ResolveKey returns the business key of fields: the string form of each key
// field joined by Separator. Null components are empty segments.
func ResolveKey(fields map[string]any, keyFields []string) string {
	parts := make([]string, len(keyFields))
	for i, name := range keyFields {
		parts[i] = KeyString(fields[name])
	}
	return strings.Join(parts, Separator)
}

// KeyString renders one key component. Values read back from storage and
// values produced by the normalizer render identically.
func KeyString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case decimal.Decimal:
		return val.String()
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

// BuildKeyIndex maps the business key of every existing record to its identifier.
// When storage holds the same key twice, the last record wins.
func BuildKeyIndex(existing []model.ExistingRecord, keyFields []string) model.KeyIndex {
	index := make(model.KeyIndex, len(existing))
	for _, rec := range existing {
		index[ResolveKey(rec.Fields, keyFields)] = rec.ID
	}
	return index
}

// DefaultDuplicateMessage formats the error reported for a key repeated within one import.
func DefaultDuplicateMessage(key string) string {
	return fmt.Sprintf("duplicate business key %q within this import", key)
}

// DetectDuplicates keeps the first record of every business key and reports
// each later one as a validation error. message replaces the default text when set.
func DetectDuplicates(records []model.NormalizedRecord, keyFields []string, message string) ([]model.NormalizedRecord, []model.ValidationError) {
	seen := make(map[string]struct{}, len(records))
	unique := make([]model.NormalizedRecord, 0, len(records))
	var errs []model.ValidationError

	for _, rec := range records {
		key := ResolveKey(rec.Fields, keyFields)
		if _, dup := seen[key]; dup {
			msg := message
			if msg == "" {
				msg = DefaultDuplicateMessage(key)
			}
			errs = append(errs, model.ValidationError{RowIndex: rec.RowIndex, Message: msg})
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, rec)
	}
	return unique, errs
}
