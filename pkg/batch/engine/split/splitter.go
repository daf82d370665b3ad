// Package split partitions resolved records into insert and update intents.
package split

import (
	"github.com/samber/lo"

	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/engine/keyresolve"
)

// Options parameterizes Split.
type Options struct {
	KeyFields []string
	// ServerAssigned columns are removed from every payload.
	ServerAssigned []string
	// InsertStamp is merged into insert payloads after stripping, e.g. the creator column.
	InsertStamp map[string]any
	// UpdateStamp is merged into update payloads after stripping.
	UpdateStamp map[string]any
}

// OptionsFor derives the split options of profile for an import run by actor.
func OptionsFor(profile model.EntityProfile, actor string) Options {
	opts := Options{
		KeyFields:      profile.KeyFields,
		ServerAssigned: profile.ServerAssigned,
	}
	if profile.CreatorColumn != "" {
		opts.InsertStamp = map[string]any{profile.CreatorColumn: actor}
	}
	if profile.UpdaterColumn != "" {
		opts.UpdateStamp = map[string]any{profile.UpdaterColumn: actor}
	}
	return opts
}

// Plan is the outcome of Split. Both lists keep input order.
type Plan struct {
	Inserts []model.WriteIntent
	Updates []model.WriteIntent
}

// Size returns the number of planned writes.
func (p Plan) Size() int {
	return len(p.Inserts) + len(p.Updates)
}

// Split routes each record to an update when its key is in index and to an
// insert otherwise.
func Split(records []model.NormalizedRecord, index model.KeyIndex, opts Options) Plan {
	stripped := lo.SliceToMap(opts.ServerAssigned, func(name string) (string, struct{}) {
		return name, struct{}{}
	})
	plan := Plan{}

	for _, rec := range records {
		key := keyresolve.ResolveKey(rec.Fields, opts.KeyFields)
		if id, hit := index.Lookup(key); hit {
			plan.Updates = append(plan.Updates, model.WriteIntent{
				Kind:     model.WriteUpdate,
				RowIndex: rec.RowIndex,
				ID:       id,
				Payload:  payload(rec.Fields, stripped, opts.UpdateStamp),
			})
			continue
		}
		plan.Inserts = append(plan.Inserts, model.WriteIntent{
			Kind:     model.WriteInsert,
			RowIndex: rec.RowIndex,
			Payload:  payload(rec.Fields, stripped, opts.InsertStamp),
		})
	}
	return plan
}

func payload(fields model.Fields, stripped map[string]struct{}, stamp map[string]any) model.Payload {
	p := make(model.Payload, len(fields)+len(stamp))
	for name, v := range fields {
		if _, drop := stripped[name]; drop {
			continue
		}
		p[name] = v
	}
	for name, v := range stamp {
		p[name] = v
	}
	return p
}
