package test

import (
	"fmt"

	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
)

// NewGroupProfile returns the employee group profile: key ten_nhom, optional mo_ta,
// creator stamped into nguoi_tao.
func NewGroupProfile() model.EntityProfile {
	return model.EntityProfile{
		Name:  "nhom_nhan_vien",
		Table: "nhom_nhan_vien",
		Fields: []model.FieldSpec{
			{Name: "ten_nhom", Label: "Tên nhóm", Type: model.FieldTypeText, Required: true, RequiredMessage: "Tên nhóm là bắt buộc", Aliases: []string{"Tên nhóm"}},
			{Name: "mo_ta", Label: "Mô tả", Type: model.FieldTypeText, Aliases: []string{"Mô tả"}},
		},
		KeyFields:     []string{"ten_nhom"},
		CreatorColumn: "nguoi_tao",
	}.WithDefaults()
}

// NewCategoryProfile returns the income/expense category profile keyed by (danh_muc, loai).
func NewCategoryProfile() model.EntityProfile {
	return model.EntityProfile{
		Name:  "danh_muc_thu_chi",
		Table: "danh_muc_thu_chi",
		Fields: []model.FieldSpec{
			{Name: "danh_muc", Label: "Danh mục", Type: model.FieldTypeText, Required: true},
			{Name: "loai", Label: "Loại", Type: model.FieldTypeText, Required: true, Enum: []string{"Thu", "Chi"}},
			{Name: "han_muc", Label: "Hạn mức", Type: model.FieldTypeDecimal},
			{Name: "email_phu_trach", Label: "Email phụ trách", Type: model.FieldTypeText, Rule: "email"},
		},
		KeyFields:     []string{"danh_muc", "loai"},
		CreatorColumn: "nguoi_tao",
		UpdaterColumn: "nguoi_sua",
	}.WithDefaults()
}

// NewAttendanceProfile returns the attendance profile keyed by (ma_nhan_vien, ngay).
func NewAttendanceProfile() model.EntityProfile {
	return model.EntityProfile{
		Name:  "cham_cong",
		Table: "cham_cong",
		Fields: []model.FieldSpec{
			{Name: "ma_nhan_vien", Label: "Mã nhân viên", Type: model.FieldTypeText, Required: true},
			{Name: "ngay", Label: "Ngày", Type: model.FieldTypeDate, Required: true},
			{Name: "so_gio", Label: "Số giờ", Type: model.FieldTypeNumber, Required: true},
			{Name: "tang_ca", Label: "Tăng ca", Type: model.FieldTypeBoolean},
		},
		KeyFields: []string{"ma_nhan_vien", "ngay"},
	}.WithDefaults()
}

// NewRawRows numbers values from 0 in input order.
func NewRawRows(values ...map[string]any) []model.RawRow {
	rows := make([]model.RawRow, len(values))
	for i, v := range values {
		rows[i] = model.RawRow{Index: i, Values: v}
	}
	return rows
}

// NewGroupRows returns n group rows named "group-0000", "group-0001", ...
func NewGroupRows(n int) []model.RawRow {
	values := make([]map[string]any, n)
	for i := range values {
		values[i] = map[string]any{"ten_nhom": fmt.Sprintf("group-%04d", i)}
	}
	return NewRawRows(values...)
}

// NewInsertIntents returns n insert intents for the group table, one per row index.
func NewInsertIntents(n int) []model.WriteIntent {
	intents := make([]model.WriteIntent, n)
	for i := range intents {
		intents[i] = model.WriteIntent{
			Kind:     model.WriteInsert,
			RowIndex: i,
			Payload:  model.Payload{"ten_nhom": fmt.Sprintf("group-%04d", i)},
		}
	}
	return intents
}
