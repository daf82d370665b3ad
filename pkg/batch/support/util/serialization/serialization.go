// Package serialization reads already parsed rows and writes import reports as JSON.
package serialization

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

const module = "serialization"

// Mask replaces the value of every masked key.
const Mask = "********"

// GetMaskedMap returns a copy of values with the configured sensitive keys masked.
// Nested maps are masked as well. Keys match case-insensitively.
func GetMaskedMap(values map[string]interface{}) map[string]interface{} {
	if len(values) == 0 {
		return map[string]interface{}{}
	}
	masked := make(map[string]bool)
	for _, key := range config.GetMaskedKeys() {
		masked[strings.ToLower(key)] = true
	}
	return maskMap(values, masked)
}

func maskMap(values map[string]interface{}, masked map[string]bool) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		if masked[strings.ToLower(k)] {
			out[k] = Mask
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = maskMap(nested, masked)
			continue
		}
		out[k] = v
	}
	return out
}

// UnmarshalRows decodes a JSON array of objects into rows numbered from 0.
// A null or empty document yields no rows.
func UnmarshalRows(data []byte) ([]model.RawRow, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		logger.Debugf("Row document is empty. Returning no rows.")
		return []model.RawRow{}, nil
	}

	var objects []map[string]any
	if err := json.Unmarshal([]byte(trimmed), &objects); err != nil {
		logger.Errorf("Failed to deserialize rows: %v", err)
		return nil, exception.NewBatchError(module, "Failed to deserialize rows: expected a JSON array of objects", err, false, false)
	}

	rows := make([]model.RawRow, len(objects))
	for i, values := range objects {
		if values == nil {
			values = map[string]any{}
		}
		rows[i] = model.RawRow{Index: i, Values: values}
	}
	return rows, nil
}

// ReadRows reads the whole of r and decodes it with UnmarshalRows.
func ReadRows(r io.Reader) ([]model.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, exception.NewBatchError(module, "Failed to read rows", err, false, true)
	}
	return UnmarshalRows(data)
}

// MarshalReport serializes an ImportReport. Errors is always an array.
func MarshalReport(report model.ImportReport) ([]byte, error) {
	if report.Errors == nil {
		report.Errors = []model.RowError{}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Errorf("Failed to serialize ImportReport: %v", err)
		return nil, exception.NewBatchError(module, "Failed to serialize ImportReport", err, false, false)
	}
	return data, nil
}

// WriteReport writes the serialized report followed by a newline.
func WriteReport(w io.Writer, report model.ImportReport) error {
	data, err := MarshalReport(report)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return exception.NewBatchError(module, "Failed to write ImportReport", err, false, false)
	}
	return nil
}
