package normalize_test

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/engine/normalize"
	testutil "github.com/tigerroll/sheetload/pkg/batch/test"
)

func row(index int, values map[string]any) model.RawRow {
	return model.RawRow{Index: index, Values: values}
}

func TestNormalize_RequiredBlankUsesConfiguredMessage(t *testing.T) {
	n := normalize.NewNormalizer(testutil.NewGroupProfile().Fields)

	for _, raw := range []map[string]any{
		{},
		{"ten_nhom": nil},
		{"ten_nhom": ""},
		{"ten_nhom": "   \t"},
	} {
		_, errs := n.Normalize(row(1, raw))
		require.Len(t, errs, 1, "%v", raw)
		assert.Equal(t, model.ValidationError{RowIndex: 1, Field: "ten_nhom", Message: "Tên nhóm là bắt buộc"}, errs[0])
	}
}

func TestNormalize_DefaultRequiredMessageUsesLabel(t *testing.T) {
	n := normalize.NewNormalizer([]model.FieldSpec{{Name: "ngay", Label: "Date", Type: model.FieldTypeDate, Required: true}})
	_, errs := n.Normalize(row(0, map[string]any{}))
	require.Len(t, errs, 1)
	assert.Equal(t, "Date is required", errs[0].Message)
}

func TestNormalize_TrimsAndNullsOptionalBlanks(t *testing.T) {
	n := normalize.NewNormalizer(testutil.NewGroupProfile().Fields)

	rec, errs := n.Normalize(row(3, map[string]any{"ten_nhom": "  Sales ", "mo_ta": "  "}))
	require.Empty(t, errs)
	assert.Equal(t, 3, rec.RowIndex)
	name, ok := rec.Fields.Text("ten_nhom")
	assert.True(t, ok)
	assert.Equal(t, "Sales", name)

	v, present := rec.Fields["mo_ta"]
	assert.True(t, present, "optional fields are never absent")
	assert.Nil(t, v)
	assert.True(t, rec.Fields.IsNull("mo_ta"))
}

func TestNormalize_ReadsAliases(t *testing.T) {
	n := normalize.NewNormalizer(testutil.NewGroupProfile().Fields)
	rec, errs := n.Normalize(row(0, map[string]any{"Tên nhóm": "Ops", "Mô tả": "night shift"}))
	require.Empty(t, errs)
	assert.Equal(t, "Ops", rec.Fields["ten_nhom"])
	assert.Equal(t, "night shift", rec.Fields["mo_ta"])
}

func TestNormalize_Numbers(t *testing.T) {
	n := normalize.NewNormalizer([]model.FieldSpec{{Name: "so_gio", Label: "Số giờ", Type: model.FieldTypeNumber}})

	cases := map[string]struct {
		raw  any
		want float64
	}{
		"native int":      {raw: 8, want: 8},
		"native float":    {raw: 7.5, want: 7.5},
		"string":          {raw: " 7.25 ", want: 7.25},
		"negative string": {raw: "-3", want: -3},
		"exponent":        {raw: "1e2", want: 100},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec, errs := n.Normalize(row(0, map[string]any{"so_gio": tc.raw}))
			require.Empty(t, errs)
			got, ok := rec.Fields.Number("so_gio")
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []any{"abc", "7,5", "NaN", "Inf", math.NaN(), true} {
		_, errs := n.Normalize(row(0, map[string]any{"so_gio": bad}))
		require.Len(t, errs, 1, "%v", bad)
		assert.Equal(t, "Số giờ must be a number", errs[0].Message)
	}
}

func TestNormalize_Decimal(t *testing.T) {
	n := normalize.NewNormalizer([]model.FieldSpec{{Name: "han_muc", Label: "Hạn mức", Type: model.FieldTypeDecimal}})

	rec, errs := n.Normalize(row(0, map[string]any{"han_muc": "1500000.50"}))
	require.Empty(t, errs)
	d, ok := rec.Fields.Decimal("han_muc")
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("1500000.5")))

	rec, errs = n.Normalize(row(0, map[string]any{"han_muc": 42}))
	require.Empty(t, errs)
	d, _ = rec.Fields.Decimal("han_muc")
	assert.Equal(t, "42", d.String())

	_, errs = n.Normalize(row(0, map[string]any{"han_muc": "1.000.000"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "Hạn mức must be a number", errs[0].Message)
}

func TestNormalize_Booleans(t *testing.T) {
	n := normalize.NewNormalizer([]model.FieldSpec{{Name: "tang_ca", Label: "Tăng ca", Type: model.FieldTypeBoolean}})

	for raw, want := range map[any]bool{
		true: true, false: false,
		"true": true, "FALSE": false,
		"yes": true, "No": false,
		"Có": true, "không": false,
		1: true, 0: false, "1": true,
	} {
		rec, errs := n.Normalize(row(0, map[string]any{"tang_ca": raw}))
		require.Empty(t, errs, "%v", raw)
		got, ok := rec.Fields.Bool("tang_ca")
		assert.True(t, ok)
		assert.Equal(t, want, got, "%v", raw)
	}

	_, errs := n.Normalize(row(0, map[string]any{"tang_ca": "maybe"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "Tăng ca must be true or false", errs[0].Message)

	_, errs = n.Normalize(row(0, map[string]any{"tang_ca": 2}))
	assert.Len(t, errs, 1)
}

func TestNormalize_Dates(t *testing.T) {
	n := normalize.NewNormalizer([]model.FieldSpec{{Name: "ngay", Label: "Ngày", Type: model.FieldTypeDate}})
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, raw := range []any{"2024-03-15", "15/03/2024", "2024-03-15T00:00:00Z", want, 45366} {
		rec, errs := n.Normalize(row(0, map[string]any{"ngay": raw}))
		require.Empty(t, errs, "%v", raw)
		got, ok := rec.Fields.Date("ngay")
		require.True(t, ok)
		assert.True(t, want.Equal(got), "%v parsed as %v", raw, got)
	}

	_, errs := n.Normalize(row(0, map[string]any{"ngay": "03-15-2024"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "Ngày must be a date", errs[0].Message)
}

func TestNormalize_CustomDateLayouts(t *testing.T) {
	n := normalize.NewNormalizer([]model.FieldSpec{{Name: "ngay", Type: model.FieldTypeDate, DateLayouts: []string{"02.01.2006"}}})
	rec, errs := n.Normalize(row(0, map[string]any{"ngay": "01.02.2024"}))
	require.Empty(t, errs)
	got, _ := rec.Fields.Date("ngay")
	assert.Equal(t, time.February, got.Month())

	_, errs = n.Normalize(row(0, map[string]any{"ngay": "2024-02-01"}))
	assert.Len(t, errs, 1, "defaults are replaced, not extended")
}

func TestNormalize_TextFromNativeValues(t *testing.T) {
	n := normalize.NewNormalizer([]model.FieldSpec{{Name: "ma_nhan_vien", Type: model.FieldTypeText}})

	rec, _ := n.Normalize(row(0, map[string]any{"ma_nhan_vien": float64(1024)}))
	assert.Equal(t, "1024", rec.Fields["ma_nhan_vien"])

	rec, _ = n.Normalize(row(0, map[string]any{"ma_nhan_vien": 3.5}))
	assert.Equal(t, "3.5", rec.Fields["ma_nhan_vien"])

	rec, _ = n.Normalize(row(0, map[string]any{"ma_nhan_vien": true}))
	assert.Equal(t, "true", rec.Fields["ma_nhan_vien"])
}

func TestNormalize_EnumNamesAllowedValues(t *testing.T) {
	n := normalize.NewNormalizer(testutil.NewCategoryProfile().Fields)

	_, errs := n.Normalize(row(4, map[string]any{"danh_muc": "Lương", "loai": "Khác"}))
	require.Len(t, errs, 1)
	assert.Equal(t, model.ValidationError{RowIndex: 4, Field: "loai", Message: "Loại must be one of: Thu, Chi"}, errs[0])

	_, errs = n.Normalize(row(4, map[string]any{"danh_muc": "Lương", "loai": " Chi "}))
	assert.Empty(t, errs, "enum is checked after trimming")

	_, errs = n.Normalize(row(4, map[string]any{"danh_muc": "Lương", "loai": "chi"}))
	assert.Len(t, errs, 1, "enum matching is case-sensitive")
}

func TestNormalize_RuleAndInvalidMessage(t *testing.T) {
	fields := testutil.NewCategoryProfile().Fields
	n := normalize.NewNormalizer(fields)

	_, errs := n.Normalize(row(0, map[string]any{"danh_muc": "Lương", "loai": "Thu", "email_phu_trach": "not-an-email"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "Email phụ trách is invalid", errs[0].Message)

	rec, errs := n.Normalize(row(0, map[string]any{"danh_muc": "Lương", "loai": "Thu", "email_phu_trach": "ketoan@example.com"}))
	require.Empty(t, errs)
	assert.Equal(t, "ketoan@example.com", rec.Fields["email_phu_trach"])

	fields[1].InvalidMessage = "Loại không hợp lệ"
	n = normalize.NewNormalizer(fields)
	_, errs = n.Normalize(row(0, map[string]any{"danh_muc": "Lương", "loai": "X"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "Loại không hợp lệ", errs[0].Message)
}

func TestNormalize_CollectsEveryErrorOfTheRow(t *testing.T) {
	n := normalize.NewNormalizer(testutil.NewAttendanceProfile().Fields)

	_, errs := n.Normalize(row(9, map[string]any{"ngay": "yesterday", "so_gio": "eight", "tang_ca": "?"}))
	require.Len(t, errs, 4)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		assert.Equal(t, 9, e.RowIndex)
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"ma_nhan_vien", "ngay", "so_gio", "tang_ca"}, fields, "errors follow field order")
}

func TestNormalizeAll_KeepsRowIndices(t *testing.T) {
	n := normalize.NewNormalizer(testutil.NewGroupProfile().Fields)
	rows := testutil.NewRawRows(
		map[string]any{"ten_nhom": "Sales"},
		map[string]any{"ten_nhom": ""},
		map[string]any{"ten_nhom": "Ops"},
	)

	records, errs := n.NormalizeAll(rows)
	require.Len(t, records, 2)
	assert.Equal(t, 0, records[0].RowIndex)
	assert.Equal(t, 2, records[1].RowIndex)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].RowIndex)
}

func TestNormalizedRecord_Decode(t *testing.T) {
	n := normalize.NewNormalizer(testutil.NewAttendanceProfile().Fields)
	rec, errs := n.Normalize(row(0, map[string]any{"ma_nhan_vien": "NV01", "ngay": "2024-03-15", "so_gio": "8", "tang_ca": "có"}))
	require.Empty(t, errs)

	var got struct {
		Employee string    `field:"ma_nhan_vien"`
		Day      time.Time `field:"ngay"`
		Hours    float64   `field:"so_gio"`
		Overtime bool      `field:"tang_ca"`
	}
	require.NoError(t, rec.Decode(&got))
	assert.Equal(t, "NV01", got.Employee)
	assert.Equal(t, 15, got.Day.Day())
	assert.Equal(t, 8.0, got.Hours)
	assert.True(t, got.Overtime)
}
