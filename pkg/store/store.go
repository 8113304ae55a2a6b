package store

import (
	"context"
	"time"

	"coursys/courselib/pkg/catalog"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks coursys/courselib/pkg/store Store

// Store is the storage capability the purge subsystem needs: counting,
// selecting and deleting the records of one model that match a condition,
// and deleting a single record by primary key.
type Store interface {
	// Count returns the number of records of model matching cond.
	Count(ctx context.Context, model *catalog.Model, cond Condition) (int64, error)

	// Select returns the records of model matching cond.
	Select(ctx context.Context, model *catalog.Model, cond Condition) ([]Record, error)

	// Delete removes every record of model matching cond and returns the
	// number of records removed.
	Delete(ctx context.Context, model *catalog.Model, cond Condition) (int64, error)

	// DeleteRecord removes the record of model whose primary key is id.
	// Deleting a record that no longer exists is not an error.
	DeleteRecord(ctx context.Context, model *catalog.Model, id any) error

	// Close releases resources held by the backend.
	Close() error
}

// Record is a handle on one stored row.
type Record struct {
	// ID is the primary key value.
	ID any

	// Fields holds the column values, keyed by column name.
	Fields map[string]any
}

// Condition selects records of one model. It is a closed set of variants;
// every backend translates each of them.
type Condition interface {
	condition()
}

// Before matches records whose Field value is strictly earlier than Cutoff.
// Records with a NULL field never match.
type Before struct {
	Field  string
	Cutoff time.Time
}

// Nothing matches no record.
type Nothing struct{}

// Everything matches every record.
type Everything struct{}

// Equals matches records whose Field equals Value.
type Equals struct {
	Field string
	Value any
}

// Unreferenced matches records whose primary key appears in none of Refs.
type Unreferenced struct {
	Refs []catalog.Reference
}

// All matches records matching every condition. An empty All matches
// everything.
type All []Condition

func (Before) condition()       {}
func (Nothing) condition()      {}
func (Everything) condition()   {}
func (Equals) condition()       {}
func (Unreferenced) condition() {}
func (All) condition()          {}
