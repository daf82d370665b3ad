package model_test

import (
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
)

func groupProfile() model.EntityProfile {
	return model.EntityProfile{
		Name:  "nhom_nhan_vien",
		Table: "nhom_nhan_vien",
		Fields: []model.FieldSpec{
			{Name: "ten_nhom", Label: "Tên nhóm", Type: model.FieldTypeText, Required: true, RequiredMessage: "Tên nhóm là bắt buộc"},
			{Name: "mo_ta", Label: "Mô tả", Type: model.FieldTypeText},
		},
		KeyFields:     []string{"ten_nhom"},
		CreatorColumn: "nguoi_tao",
	}
}

func TestEntityProfile_WithDefaults(t *testing.T) {
	p := groupProfile().WithDefaults()

	assert.Equal(t, "id", p.IDColumn)
	assert.Equal(t, model.DefaultChunkSize, p.ChunkSize)
	assert.Equal(t, []string{"id", "created_at", "nguoi_tao"}, p.ServerAssigned)
	assert.Equal(t, model.Target{Table: "nhom_nhan_vien", IDColumn: "id"}, p.Target())
	assert.True(t, p.RequiresActor())
	require.NoError(t, p.Validate())
}

func TestEntityProfile_WithDefaults_KeepsExplicitValues(t *testing.T) {
	p := groupProfile()
	p.IDColumn = "ma"
	p.ChunkSize = 50
	p.ServerAssigned = []string{"created_at", "updated_at"}
	p.CreatorColumn = ""

	p = p.WithDefaults()
	assert.Equal(t, 50, p.ChunkSize)
	assert.Equal(t, []string{"ma", "created_at", "updated_at"}, p.ServerAssigned)
	assert.False(t, p.RequiresActor())
}

func TestEntityProfile_NegativeChunkSizeSurvivesDefaults(t *testing.T) {
	p := groupProfile()
	p.ChunkSize = -5

	p = p.WithDefaults()
	assert.Equal(t, -5, p.ChunkSize)
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk size must be positive, got -5")
}

func TestEntityProfile_Validate_CollectsEveryProblem(t *testing.T) {
	p := model.EntityProfile{
		Name: "broken",
		Fields: []model.FieldSpec{
			{Name: "loai", Type: model.FieldTypeNumber, Enum: []string{"Thu", "Chi"}},
			{Name: "loai", Type: "money"},
		},
		KeyFields: []string{"danh_muc"},
	}

	err := p.Validate()
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 5)
	assert.Contains(t, err.Error(), "table is required")
	assert.Contains(t, err.Error(), "enum is only supported on text fields")
	assert.Contains(t, err.Error(), "unknown type 'money'")
	assert.Contains(t, err.Error(), "declared twice")
	assert.Contains(t, err.Error(), "key field 'danh_muc' is not a declared field")
}

func TestFields_Accessors(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := model.Fields{
		"ten":     "Sales",
		"so_gio":  8.5,
		"han_muc": decimal.RequireFromString("1200.50"),
		"tang_ca": true,
		"ngay":    day,
		"mo_ta":   nil,
	}

	s, ok := f.Text("ten")
	assert.True(t, ok)
	assert.Equal(t, "Sales", s)

	n, ok := f.Number("so_gio")
	assert.True(t, ok)
	assert.Equal(t, 8.5, n)

	d, ok := f.Decimal("han_muc")
	assert.True(t, ok)
	assert.Equal(t, "1200.5", d.String())

	b, ok := f.Bool("tang_ca")
	assert.True(t, ok)
	assert.True(t, b)

	dt, ok := f.Date("ngay")
	assert.True(t, ok)
	assert.Equal(t, day, dt)

	assert.True(t, f.IsNull("mo_ta"))
	assert.False(t, f.IsNull("missing"))
	_, ok = f.Text("mo_ta")
	assert.False(t, ok)
}

type attendance struct {
	Employee string    `field:"ma_nhan_vien"`
	Day      time.Time `field:"ngay"`
	Hours    float64   `field:"so_gio"`
	Overtime bool      `field:"tang_ca"`
}

func TestNormalizedRecord_Decode(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := model.NormalizedRecord{RowIndex: 4, Fields: model.Fields{
		"ma_nhan_vien": "NV001",
		"ngay":         day,
		"so_gio":       8.0,
		"tang_ca":      false,
	}}

	var a attendance
	require.NoError(t, rec.Decode(&a))
	assert.Equal(t, attendance{Employee: "NV001", Day: day, Hours: 8}, a)
}

func TestImportReport(t *testing.T) {
	r := model.ImportReport{Inserted: 2, Errors: []model.RowError{{Row: 2, Error: "Tên nhóm là bắt buộc"}}}
	assert.False(t, r.Succeeded())
	assert.Equal(t, 1, r.Failed())
	assert.True(t, model.ImportReport{Inserted: 1, Errors: []model.RowError{}}.Succeeded())
}

func TestWriteIntent_Success(t *testing.T) {
	ins := model.WriteIntent{Kind: model.WriteInsert, RowIndex: 3}
	upd := model.WriteIntent{Kind: model.WriteUpdate, RowIndex: 7, ID: int64(5)}

	assert.Equal(t, model.RowOutcome{RowIndex: 3, Kind: model.OutcomeInserted}, model.Succeeded(ins))
	assert.Equal(t, model.RowOutcome{RowIndex: 7, Kind: model.OutcomeUpdated}, model.Succeeded(upd))
	assert.Equal(t, "failed", model.Failed(1, "boom").Kind.String())
}
