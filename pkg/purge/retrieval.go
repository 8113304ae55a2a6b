package purge

import (
	"context"
	"iter"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/store"
)

// Mode identifies how a Retrieval finds eligible records.
type Mode int

const (
	// ModeNone is the zero Retrieval: no mechanism was supplied.
	ModeNone Mode = iota
	// ModeBulk selects eligible records with a single condition.
	ModeBulk
	// ModeEnumeration yields eligible records one by one.
	ModeEnumeration
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeBulk:
		return "bulk"
	case ModeEnumeration:
		return "enumeration"
	default:
		return "none"
	}
}

// MarshalText renders the mode in reports.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Enumerator lazily yields eligible record handles. Iteration stops at the
// first non-nil error.
type Enumerator func(ctx context.Context, st store.Store) iter.Seq2[store.Record, error]

// Retrieval is how a purger finds its eligible records: exactly one of a
// bulk condition or an enumerator. Build it with BulkQuery or Enumeration;
// the zero value carries neither and is rejected by the executor.
type Retrieval struct {
	mode      Mode
	cond      store.Condition
	enumerate Enumerator
}

// BulkQuery returns a Retrieval selecting every record matching cond.
// A nil cond selects nothing.
func BulkQuery(cond store.Condition) Retrieval {
	if cond == nil {
		cond = store.Nothing{}
	}
	return Retrieval{mode: ModeBulk, cond: cond}
}

// Enumeration returns a Retrieval yielding records from fn.
// A nil fn is the zero Retrieval.
func Enumeration(fn Enumerator) Retrieval {
	if fn == nil {
		return Retrieval{}
	}
	return Retrieval{mode: ModeEnumeration, enumerate: fn}
}

// Mode returns the retrieval mechanism.
func (r Retrieval) Mode() Mode {
	return r.mode
}

// Condition returns the bulk condition, if the mode is ModeBulk.
func (r Retrieval) Condition() (store.Condition, bool) {
	return r.cond, r.mode == ModeBulk
}

// Enumerator returns the enumerator, if the mode is ModeEnumeration.
func (r Retrieval) Enumerator() (Enumerator, bool) {
	return r.enumerate, r.mode == ModeEnumeration
}

// SelectAll is an Enumerator helper that yields the records of model
// matching cond, loaded with one Select.
func SelectAll(model *catalog.Model, cond store.Condition) Enumerator {
	return func(ctx context.Context, st store.Store) iter.Seq2[store.Record, error] {
		return func(yield func(store.Record, error) bool) {
			records, err := st.Select(ctx, model, cond)
			if err != nil {
				yield(store.Record{}, err)
				return
			}
			for _, rec := range records {
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}
