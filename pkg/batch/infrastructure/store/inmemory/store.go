// Package inmemory provides a RecordStore kept in process memory. It enforces
// unique keys and NOT NULL columns like a database would, and can be told to
// reject bulk calls or specific values. Used by tests and dry runs.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/engine/keyresolve"
)

// TableOptions declares the constraints of one table.
type TableOptions struct {
	// UniqueKeys lists column groups that must be unique. Rows with a null
	// component do not take part, as in SQL.
	UniqueKeys [][]string
	// NotNull columns must be present and non-nil on insert.
	NotNull []string
}

// Call is one storage call received by the store.
type Call struct {
	Table string
	Kind  model.WriteKind
	Size  int
}

type rejection struct {
	column  string
	value   any
	message string
}

type table struct {
	opts       TableOptions
	idColumn   string
	nextID     int64
	rows       map[int64]map[string]any
	failBulk   string
	rejections []rejection
}

// Store is an in-memory port.RecordStore. Every exported method is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
	calls  []Call
}

// NewStore creates an empty Store. Tables are created on first use.
func NewStore() *Store {
	return &Store{tables: make(map[string]*table)}
}

// DefineTable sets the constraints of name, creating it if needed.
func (s *Store) DefineTable(name string, opts TableOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table(name, model.DefaultIDColumn).opts = opts
}

// Seed stores rows as if they already existed and returns their ids.
// A row carrying an int64 "id" keeps it.
func (s *Store) Seed(name string, rows ...map[string]any) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(name, model.DefaultIDColumn)

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		row := copyRow(r)
		id, ok := row[t.idColumn].(int64)
		if !ok {
			t.nextID++
			id = t.nextID
		} else if id > t.nextID {
			t.nextID = id
		}
		row[t.idColumn] = id
		t.rows[id] = row
		ids = append(ids, id)
	}
	return ids
}

// FailBulk makes every call carrying more than one intent on name fail with message.
func (s *Store) FailBulk(name, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table(name, model.DefaultIDColumn).failBulk = message
}

// Reject makes any write whose payload holds value in column fail with message.
func (s *Store) Reject(name, column string, value any, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(name, model.DefaultIDColumn)
	t.rejections = append(t.rejections, rejection{column: column, value: value, message: message})
}

// Rows returns a copy of every row of name, ordered by id.
func (s *Store) Rows(name string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(t.rows))
	for _, id := range t.sortedIDs() {
		out = append(out, copyRow(t.rows[id]))
	}
	return out
}

// Row returns a copy of the row with id.
func (s *Store) Row(name string, id int64) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, false
	}
	row, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	return copyRow(row), true
}

// Calls returns the write calls received so far, in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// LoadExisting implements port.RecordStore.
func (s *Store) LoadExisting(ctx context.Context, target model.Target, keyColumns []string) ([]model.ExistingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(target.Table, target.IDColumn)

	out := make([]model.ExistingRecord, 0, len(t.rows))
	for _, id := range t.sortedIDs() {
		row := t.rows[id]
		fields := make(map[string]any, len(keyColumns)+1)
		fields[t.idColumn] = id
		for _, c := range keyColumns {
			fields[c] = row[c]
		}
		out = append(out, model.ExistingRecord{ID: id, Fields: fields})
	}
	return out, nil
}

// Insert implements port.RecordStore. Either every row is stored or none is.
func (s *Store) Insert(ctx context.Context, target model.Target, intents []model.WriteIntent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(target.Table, target.IDColumn)
	s.calls = append(s.calls, Call{Table: target.Table, Kind: model.WriteInsert, Size: len(intents)})

	if err := t.precheck(intents); err != nil {
		return err
	}

	staged := t.clone()
	for _, intent := range intents {
		row := copyRow(intent.Payload)
		for _, c := range staged.opts.NotNull {
			if row[c] == nil {
				return fmt.Errorf("NOT NULL constraint failed: %s.%s", target.Table, c)
			}
		}
		staged.nextID++
		row[staged.idColumn] = staged.nextID
		if err := staged.checkUnique(target.Table, staged.nextID, row); err != nil {
			return err
		}
		staged.rows[staged.nextID] = row
	}
	s.tables[target.Table] = staged
	return nil
}

// Update implements port.RecordStore. Either every update is applied or none is.
func (s *Store) Update(ctx context.Context, target model.Target, intents []model.WriteIntent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(target.Table, target.IDColumn)
	s.calls = append(s.calls, Call{Table: target.Table, Kind: model.WriteUpdate, Size: len(intents)})

	if err := t.precheck(intents); err != nil {
		return err
	}

	staged := t.clone()
	for _, intent := range intents {
		id, ok := toID(intent.ID)
		if !ok {
			return fmt.Errorf("invalid id %v for %s", intent.ID, target.Table)
		}
		current, ok := staged.rows[id]
		if !ok {
			return fmt.Errorf("record %d not found in %s", id, target.Table)
		}
		row := copyRow(current)
		for k, v := range intent.Payload {
			row[k] = v
		}
		if err := staged.checkUnique(target.Table, id, row); err != nil {
			return err
		}
		staged.rows[id] = row
	}
	s.tables[target.Table] = staged
	return nil
}

func (s *Store) table(name, idColumn string) *table {
	t, ok := s.tables[name]
	if !ok {
		if idColumn == "" {
			idColumn = model.DefaultIDColumn
		}
		t = &table{idColumn: idColumn, rows: make(map[int64]map[string]any)}
		s.tables[name] = t
	}
	return t
}

// precheck applies the injected failures.
func (t *table) precheck(intents []model.WriteIntent) error {
	if t.failBulk != "" && len(intents) > 1 {
		return fmt.Errorf("%s", t.failBulk)
	}
	for _, intent := range intents {
		for _, r := range t.rejections {
			if v, ok := intent.Payload[r.column]; ok && v == r.value {
				return fmt.Errorf("%s", r.message)
			}
		}
	}
	return nil
}

func (t *table) checkUnique(name string, id int64, row map[string]any) error {
	for _, cols := range t.opts.UniqueKeys {
		if hasNull(row, cols) {
			continue
		}
		key := keyresolve.ResolveKey(row, cols)
		for otherID, other := range t.rows {
			if otherID == id || hasNull(other, cols) {
				continue
			}
			if keyresolve.ResolveKey(other, cols) == key {
				return fmt.Errorf("UNIQUE constraint failed: %s", qualified(name, cols))
			}
		}
	}
	return nil
}

func (t *table) clone() *table {
	c := *t
	c.rows = make(map[int64]map[string]any, len(t.rows))
	for id, row := range t.rows {
		c.rows[id] = row
	}
	return &c
}

func (t *table) sortedIDs() []int64 {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func hasNull(row map[string]any, cols []string) bool {
	for _, c := range cols {
		if row[c] == nil {
			return true
		}
	}
	return false
}

func qualified(name string, cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += name + "." + c
	}
	return out
}

func toID(v any) (int64, bool) {
	switch id := v.(type) {
	case int64:
		return id, true
	case int:
		return int64(id), true
	case int32:
		return int64(id), true
	case float64:
		return int64(id), float64(int64(id)) == id
	}
	return 0, false
}

func copyRow(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

var _ port.RecordStore = (*Store)(nil)
