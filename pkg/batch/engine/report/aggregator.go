// Package report folds validation errors and write outcomes into the import report.
package report

import (
	"sort"

	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
)

// Entry is one failed row, still carrying its 0-based row index.
type Entry struct {
	RowIndex int
	Message  string
}

// Summary is the engine-side result of an import. Row indices are 0-based.
type Summary struct {
	Inserted int
	Updated  int
	// Errors are sorted by RowIndex; entries of the same row keep their input order.
	Errors []Entry
}

// Aggregate counts successful outcomes and merges validation errors with
// failed outcomes. It has no side effects.
func Aggregate(validationErrors []model.ValidationError, outcomes []model.RowOutcome) Summary {
	s := Summary{Errors: make([]Entry, 0, len(validationErrors))}

	for _, v := range validationErrors {
		s.Errors = append(s.Errors, Entry{RowIndex: v.RowIndex, Message: v.Message})
	}
	for _, o := range outcomes {
		switch o.Kind {
		case model.OutcomeInserted:
			s.Inserted++
		case model.OutcomeUpdated:
			s.Updated++
		case model.OutcomeFailed:
			s.Errors = append(s.Errors, Entry{RowIndex: o.RowIndex, Message: o.Message})
		}
	}

	sort.SliceStable(s.Errors, func(i, j int) bool {
		return s.Errors[i].RowIndex < s.Errors[j].RowIndex
	})
	return s
}

// Succeeded reports whether the import had no error at all.
func (s Summary) Succeeded() bool {
	return len(s.Errors) == 0
}

// Failed returns the number of error entries.
func (s Summary) Failed() int {
	return len(s.Errors)
}

// Report converts the summary into the caller-facing report, numbering rows from 1.
func (s Summary) Report() model.ImportReport {
	errs := make([]model.RowError, len(s.Errors))
	for i, e := range s.Errors {
		errs[i] = model.RowError{Row: e.RowIndex + 1, Error: e.Message}
	}
	return model.ImportReport{Inserted: s.Inserted, Updated: s.Updated, Errors: errs}
}
