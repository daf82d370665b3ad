package model

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DefaultChunkSize is the number of records written per bulk call.
const DefaultChunkSize = 1000

// DefaultIDColumn is the storage identifier column used when a profile names none.
const DefaultIDColumn = "id"

// EntityProfile parameterizes the import engine for one business entity.
type EntityProfile struct {
	Name     string      `yaml:"name"`
	Table    string      `yaml:"table"`
	IDColumn string      `yaml:"id_column"`
	Fields   []FieldSpec `yaml:"fields"`
	// KeyFields form the business key, in order.
	KeyFields []string `yaml:"key_fields"`
	// ServerAssigned fields are stripped from every payload.
	ServerAssigned []string `yaml:"server_assigned"`
	// CreatorColumn receives the current user id on insert.
	CreatorColumn string `yaml:"creator_column"`
	// UpdaterColumn receives the current user id on update.
	UpdaterColumn string `yaml:"updater_column"`
	ChunkSize     int    `yaml:"chunk_size"`
	// DuplicateMessage replaces the generated message for a key repeated within one import.
	DuplicateMessage string `yaml:"duplicate_message"`
}

// Target returns the storage target of the profile.
func (p EntityProfile) Target() Target {
	return Target{Table: p.Table, IDColumn: p.IDColumn}
}

// RequiresActor reports whether an import must carry the current user id.
func (p EntityProfile) RequiresActor() bool {
	return p.CreatorColumn != "" || p.UpdaterColumn != ""
}

// Field returns the spec named name.
func (p EntityProfile) Field(name string) (FieldSpec, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// WithDefaults returns a copy with IDColumn, ChunkSize and ServerAssigned filled in.
// Only an unset ChunkSize is defaulted; a negative one is kept for Validate to reject.
func (p EntityProfile) WithDefaults() EntityProfile {
	if p.IDColumn == "" {
		p.IDColumn = DefaultIDColumn
	}
	if p.ChunkSize == 0 {
		p.ChunkSize = DefaultChunkSize
	}
	if p.Table == "" {
		p.Table = p.Name
	}

	assigned := make([]string, 0, len(p.ServerAssigned)+3)
	seen := make(map[string]struct{})
	for _, col := range append(append([]string{p.IDColumn, "created_at"}, p.ServerAssigned...), p.CreatorColumn) {
		if col == "" {
			continue
		}
		if _, dup := seen[col]; dup {
			continue
		}
		seen[col] = struct{}{}
		assigned = append(assigned, col)
	}
	p.ServerAssigned = assigned
	return p
}

// Validate reports every configuration problem of the profile at once.
func (p EntityProfile) Validate() error {
	var result *multierror.Error

	if p.Name == "" {
		result = multierror.Append(result, fmt.Errorf("profile name is required"))
	}
	if p.Table == "" {
		result = multierror.Append(result, fmt.Errorf("profile '%s': table is required", p.Name))
	}
	if len(p.Fields) == 0 {
		result = multierror.Append(result, fmt.Errorf("profile '%s': at least one field is required", p.Name))
	}
	if len(p.KeyFields) == 0 {
		result = multierror.Append(result, fmt.Errorf("profile '%s': at least one key field is required", p.Name))
	}
	if p.ChunkSize < 0 {
		result = multierror.Append(result, fmt.Errorf("profile '%s': chunk size must be positive, got %d", p.Name, p.ChunkSize))
	}

	names := make(map[string]struct{}, len(p.Fields))
	for _, f := range p.Fields {
		if err := f.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("profile '%s': %w", p.Name, err))
		}
		if _, dup := names[f.Name]; dup {
			result = multierror.Append(result, fmt.Errorf("profile '%s': field '%s' is declared twice", p.Name, f.Name))
		}
		names[f.Name] = struct{}{}
	}
	for _, k := range p.KeyFields {
		if _, ok := names[k]; !ok {
			result = multierror.Append(result, fmt.Errorf("profile '%s': key field '%s' is not a declared field", p.Name, k))
		}
	}
	for _, col := range p.ServerAssigned {
		for _, k := range p.KeyFields {
			if col == k {
				result = multierror.Append(result, fmt.Errorf("profile '%s': key field '%s' cannot be server-assigned", p.Name, k))
			}
		}
	}

	return result.ErrorOrNil()
}
