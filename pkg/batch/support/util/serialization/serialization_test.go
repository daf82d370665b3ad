package serialization_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/exception"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/serialization"
)

func TestUnmarshalRows(t *testing.T) {
	rows, err := serialization.UnmarshalRows([]byte(`[
		{"Tên nhóm": "Kế toán", "Mô tả": "Phòng kế toán"},
		{"Tên nhóm": "  ", "so_gio": 7.5, "tang_ca": true},
		null
	]`))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, "Kế toán", rows[0].Values["Tên nhóm"])
	assert.Equal(t, 1, rows[1].Index)
	assert.Equal(t, 7.5, rows[1].Values["so_gio"])
	assert.Equal(t, true, rows[1].Values["tang_ca"])
	assert.Equal(t, 2, rows[2].Index)
	assert.NotNil(t, rows[2].Values)
	assert.Empty(t, rows[2].Values)
}

func TestUnmarshalRows_EmptyDocuments(t *testing.T) {
	for _, doc := range []string{"", "  ", "null", "[]"} {
		rows, err := serialization.UnmarshalRows([]byte(doc))
		require.NoError(t, err, doc)
		assert.Empty(t, rows, doc)
	}
}

func TestUnmarshalRows_RejectsNonArrays(t *testing.T) {
	_, err := serialization.UnmarshalRows([]byte(`{"Tên nhóm": "Kế toán"}`))

	require.Error(t, err)
	var be *exception.BatchError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, err.Error(), "JSON array of objects")
}

func TestReadRows(t *testing.T) {
	rows, err := serialization.ReadRows(strings.NewReader(`[{"a": 1}, {"a": 2}]`))
	require.NoError(t, err)
	assert.Equal(t, []model.RawRow{
		{Index: 0, Values: map[string]any{"a": 1.0}},
		{Index: 1, Values: map[string]any{"a": 2.0}},
	}, rows)
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, serialization.WriteReport(&buf, model.ImportReport{Inserted: 2}))
	assert.JSONEq(t, `{"inserted": 2, "updated": 0, "errors": []}`, buf.String())
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	buf.Reset()
	require.NoError(t, serialization.WriteReport(&buf, model.ImportReport{
		Updated: 1,
		Errors:  []model.RowError{{Row: 3, Error: "Tên nhóm is required"}},
	}))
	assert.JSONEq(t, `{"inserted": 0, "updated": 1, "errors": [{"row": 3, "error": "Tên nhóm is required"}]}`, buf.String())
}

func TestGetMaskedMap(t *testing.T) {
	prev := config.GlobalConfig
	defer func() { config.GlobalConfig = prev }()
	config.GlobalConfig = config.NewConfig()

	got := serialization.GetMaskedMap(map[string]interface{}{
		"type":     "postgres",
		"Password": "s3cret",
		"nested":   map[string]interface{}{"api_key": "abc", "host": "db"},
	})

	assert.Equal(t, "postgres", got["type"])
	assert.Equal(t, serialization.Mask, got["Password"])
	assert.Equal(t, map[string]interface{}{"api_key": serialization.Mask, "host": "db"}, got["nested"])
	assert.Empty(t, serialization.GetMaskedMap(nil))
}
