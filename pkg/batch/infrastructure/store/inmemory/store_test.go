package inmemory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/infrastructure/store/inmemory"
)

var groups = model.Target{Table: "nhom_nhan_vien", IDColumn: "id"}

func insert(rowIndex int, name string) model.WriteIntent {
	return model.WriteIntent{Kind: model.WriteInsert, RowIndex: rowIndex, Payload: model.Payload{"ten_nhom": name}}
}

func newStore() *inmemory.Store {
	s := inmemory.NewStore()
	s.DefineTable("nhom_nhan_vien", inmemory.TableOptions{
		UniqueKeys: [][]string{{"ten_nhom"}},
		NotNull:    []string{"ten_nhom"},
	})
	return s
}

func TestStore_InsertAssignsIDsAndLoadExistingReadsKeys(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	s.Seed("nhom_nhan_vien", map[string]any{"id": int64(5), "ten_nhom": "Sales", "mo_ta": "old"})

	require.NoError(t, s.Insert(ctx, groups, []model.WriteIntent{insert(0, "Ops"), insert(1, "HR")}))

	rows := s.Rows("nhom_nhan_vien")
	require.Len(t, rows, 3)
	assert.Equal(t, int64(6), rows[1]["id"])
	assert.Equal(t, "Ops", rows[1]["ten_nhom"])

	existing, err := s.LoadExisting(ctx, groups, []string{"ten_nhom"})
	require.NoError(t, err)
	require.Len(t, existing, 3)
	assert.Equal(t, int64(5), existing[0].ID)
	assert.Equal(t, "Sales", existing[0].Fields["ten_nhom"])
	assert.NotContains(t, existing[0].Fields, "mo_ta", "only id and key columns are read")
}

func TestStore_InsertIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	s.Seed("nhom_nhan_vien", map[string]any{"ten_nhom": "Sales"})

	err := s.Insert(ctx, groups, []model.WriteIntent{insert(0, "Ops"), insert(1, "Sales")})
	require.Error(t, err)
	assert.Equal(t, "UNIQUE constraint failed: nhom_nhan_vien.ten_nhom", err.Error())
	assert.Len(t, s.Rows("nhom_nhan_vien"), 1, "nothing from the failed call is kept")

	err = s.Insert(ctx, groups, []model.WriteIntent{{Kind: model.WriteInsert, Payload: model.Payload{"mo_ta": "x"}}})
	require.Error(t, err)
	assert.Equal(t, "NOT NULL constraint failed: nhom_nhan_vien.ten_nhom", err.Error())
}

func TestStore_UpdateMergesPayload(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	ids := s.Seed("nhom_nhan_vien", map[string]any{"ten_nhom": "Sales", "mo_ta": "old", "nguoi_tao": "1"})

	err := s.Update(ctx, groups, []model.WriteIntent{{Kind: model.WriteUpdate, ID: ids[0], Payload: model.Payload{"ten_nhom": "Sales", "mo_ta": "new"}}})
	require.NoError(t, err)

	row, ok := s.Row("nhom_nhan_vien", ids[0])
	require.True(t, ok)
	assert.Equal(t, "new", row["mo_ta"])
	assert.Equal(t, "1", row["nguoi_tao"], "columns missing from the payload are kept")

	err = s.Update(ctx, groups, []model.WriteIntent{{Kind: model.WriteUpdate, ID: int64(404), Payload: model.Payload{"mo_ta": "x"}}})
	assert.EqualError(t, err, "record 404 not found in nhom_nhan_vien")
}

func TestStore_FailureInjection(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	s.FailBulk("nhom_nhan_vien", "connection reset")
	s.Reject("nhom_nhan_vien", "ten_nhom", "Bad", "value too long for column ten_nhom")

	assert.EqualError(t, s.Insert(ctx, groups, []model.WriteIntent{insert(0, "A"), insert(1, "B")}), "connection reset")
	assert.NoError(t, s.Insert(ctx, groups, []model.WriteIntent{insert(0, "A")}), "single-record calls pass")
	assert.EqualError(t, s.Insert(ctx, groups, []model.WriteIntent{insert(2, "Bad")}), "value too long for column ten_nhom")

	calls := s.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, inmemory.Call{Table: "nhom_nhan_vien", Kind: model.WriteInsert, Size: 2}, calls[0])
}

func TestStore_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newStore()
	_, err := s.LoadExisting(ctx, groups, []string{"ten_nhom"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Insert(ctx, groups, []model.WriteIntent{insert(0, "A")}), context.Canceled)
}
