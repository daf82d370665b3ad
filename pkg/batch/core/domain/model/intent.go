package model

// Target names the storage table an entity is written to.
type Target struct {
	Table    string
	IDColumn string
}

// ExistingRecord is one row of the bulk read used to build the key index.
type ExistingRecord struct {
	ID     any
	Fields map[string]any
}

// KeyIndex maps a business key to the storage identifier of an existing record.
type KeyIndex map[string]any

// Lookup returns the identifier stored for key.
func (i KeyIndex) Lookup(key string) (any, bool) {
	id, ok := i[key]
	return id, ok
}

// Payload is the column/value map sent to storage for one record.
type Payload map[string]any

// WriteKind tells the writer which storage call a WriteIntent needs.
type WriteKind int

const (
	WriteInsert WriteKind = iota
	WriteUpdate
)

func (k WriteKind) String() string {
	if k == WriteUpdate {
		return "update"
	}
	return "insert"
}

// WriteIntent is a planned storage write for one input row.
type WriteIntent struct {
	Kind     WriteKind
	RowIndex int
	// ID is the identifier matched in the key index. Nil for inserts.
	ID      any
	Payload Payload
}

// Success returns the outcome kind reported when this intent is written.
func (w WriteIntent) Success() OutcomeKind {
	if w.Kind == WriteUpdate {
		return OutcomeUpdated
	}
	return OutcomeInserted
}
