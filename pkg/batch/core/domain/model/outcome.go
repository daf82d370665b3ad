package model

import "time"

// OutcomeKind is the result of writing one intent.
type OutcomeKind int

const (
	OutcomeInserted OutcomeKind = iota
	OutcomeUpdated
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	default:
		return "failed"
	}
}

// RowOutcome is the write result of one row.
type RowOutcome struct {
	RowIndex int
	Kind     OutcomeKind
	// Message carries the storage error text for failed rows.
	Message string
}

// Succeeded returns an outcome for a successful write of intent.
func Succeeded(intent WriteIntent) RowOutcome {
	return RowOutcome{RowIndex: intent.RowIndex, Kind: intent.Success()}
}

// Failed returns a failed outcome carrying message.
func Failed(rowIndex int, message string) RowOutcome {
	return RowOutcome{RowIndex: rowIndex, Kind: OutcomeFailed, Message: message}
}

// RowError is one entry of the report's error table.
// Row is 1-based, as shown to users.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportReport is what an import hands back to its caller.
type ImportReport struct {
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Errors   []RowError `json:"errors"`
}

// Succeeded reports whether every row was written.
func (r ImportReport) Succeeded() bool {
	return len(r.Errors) == 0
}

// Failed returns the number of rows listed in Errors.
func (r ImportReport) Failed() int {
	return len(r.Errors)
}

// RunStatus is the final state of an import run.
type RunStatus string

const (
	RunCompleted          RunStatus = "COMPLETED"
	RunCompletedWithError RunStatus = "COMPLETED_WITH_ERRORS"
	RunCancelled          RunStatus = "CANCELLED"
)

// ImportRun is the audit entry stored after each import.
type ImportRun struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Entity     string    `gorm:"column:entity"`
	Actor      string    `gorm:"column:actor"`
	TotalRows  int       `gorm:"column:total_rows"`
	Inserted   int       `gorm:"column:inserted"`
	Updated    int       `gorm:"column:updated"`
	Failed     int       `gorm:"column:failed"`
	Status     RunStatus `gorm:"column:status"`
	StartedAt  time.Time `gorm:"column:started_at"`
	FinishedAt time.Time `gorm:"column:finished_at"`
}

// TableName implements the gorm table namer.
func (ImportRun) TableName() string {
	return "import_runs"
}
