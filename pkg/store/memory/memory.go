package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/store"
)

const backendName = "memory"

// Store implements store.Store with in-memory tables.
// It is intended for tests and should not be used in production.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]store.Record
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		tables: make(map[string][]store.Record),
	}
}

// Insert appends a record to the model's table. The record's ID is also
// stored under the model's primary key field.
func (s *Store) Insert(model *catalog.Model, rec store.Record) error {
	if rec.ID == nil {
		return store.NewStorageError(backendName, "insert", fmt.Errorf("record for %s has no id", model.Name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tables[model.Table] {
		if sameValue(existing.ID, rec.ID) {
			return store.NewStorageError(backendName, "insert",
				fmt.Errorf("duplicate id %v in %s", rec.ID, model.Table))
		}
	}

	fields := make(map[string]any, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		fields[k] = v
	}
	fields[model.Key()] = rec.ID

	s.tables[model.Table] = append(s.tables[model.Table], store.Record{ID: rec.ID, Fields: fields})
	return nil
}

// Count returns the number of records of model matching cond.
func (s *Store) Count(ctx context.Context, model *catalog.Model, cond store.Condition) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, rec := range s.tables[model.Table] {
		ok, err := s.matches(model, rec, cond)
		if err != nil {
			return 0, store.NewStorageError(backendName, "count", err)
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// Select returns copies of the records of model matching cond, in insertion order.
func (s *Store) Select(ctx context.Context, model *catalog.Model, cond store.Condition) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []store.Record
	for _, rec := range s.tables[model.Table] {
		ok, err := s.matches(model, rec, cond)
		if err != nil {
			return nil, store.NewStorageError(backendName, "select", err)
		}
		if ok {
			results = append(results, copyRecord(rec))
		}
	}
	return results, nil
}

// Delete removes the records of model matching cond.
func (s *Store) Delete(ctx context.Context, model *catalog.Model, cond store.Condition) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[model.Table]
	kept := rows[:0:0]
	var deleted int64
	for _, rec := range rows {
		ok, err := s.matches(model, rec, cond)
		if err != nil {
			return 0, store.NewStorageError(backendName, "delete", err)
		}
		if ok {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.tables[model.Table] = kept
	return deleted, nil
}

// DeleteRecord removes the record of model with the given primary key.
func (s *Store) DeleteRecord(ctx context.Context, model *catalog.Model, id any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[model.Table]
	for i, rec := range rows {
		if sameValue(rec.ID, id) {
			s.tables[model.Table] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Len returns the number of records stored for model.
func (s *Store) Len(model *catalog.Model) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[model.Table])
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

// matches evaluates cond against rec, a record of model. Callers hold s.mu.
func (s *Store) matches(model *catalog.Model, rec store.Record, cond store.Condition) (bool, error) {
	switch c := cond.(type) {
	case nil, store.Everything:
		return true, nil
	case store.Nothing:
		return false, nil
	case store.Before:
		t, ok := asTime(rec.Fields[c.Field])
		if !ok {
			return false, nil
		}
		return t.Before(c.Cutoff), nil
	case store.Equals:
		return sameValue(rec.Fields[c.Field], c.Value), nil
	case store.Unreferenced:
		return !containsValue(s.referenced(model, c.Refs), rec.ID), nil
	case store.All:
		for _, sub := range c {
			ok, err := s.matches(model, rec, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("%w: %T", store.ErrUnsupportedCondition, cond)
	}
}

// referenced returns the keys of model's records that are in use: those
// pointed at from other tables, then the records those point at through
// model's own relation fields, until no new key is found. Records reachable
// only from each other are not in use.
func (s *Store) referenced(model *catalog.Model, refs []catalog.Reference) []any {
	var kept []any
	var self []string
	for _, ref := range refs {
		if ref.Table == model.Table {
			self = append(self, ref.Field)
			continue
		}
		for _, other := range s.tables[ref.Table] {
			if v := other.Fields[ref.Field]; v != nil && !containsValue(kept, v) {
				kept = append(kept, v)
			}
		}
	}
	if len(self) == 0 {
		return kept
	}

	for i := 0; i < len(kept); i++ {
		for _, rec := range s.tables[model.Table] {
			if !sameValue(rec.ID, kept[i]) {
				continue
			}
			for _, field := range self {
				if v := rec.Fields[field]; v != nil && !containsValue(kept, v) {
					kept = append(kept, v)
				}
			}
		}
	}
	return kept
}

func containsValue(values []any, v any) bool {
	for _, x := range values {
		if sameValue(x, v) {
			return true
		}
	}
	return false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

// sameValue compares two field values, treating every integer kind as int64
// so keys inserted as int match references stored as int64.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if ai, ok := asInt(a); ok {
		bi, ok := asInt(b)
		return ok && ai == bi
	}
	return reflect.DeepEqual(a, b)
}

func asInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	default:
		return 0, false
	}
}

func copyRecord(rec store.Record) store.Record {
	fields := make(map[string]any, len(rec.Fields))
	for k, v := range rec.Fields {
		fields[k] = v
	}
	return store.Record{ID: rec.ID, Fields: fields}
}
