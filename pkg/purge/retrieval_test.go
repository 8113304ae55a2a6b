package purge

import (
	"context"
	"encoding/json"
	"iter"
	"testing"

	"coursys/courselib/pkg/store"
)

func TestRetrieval_ZeroValue(t *testing.T) {
	var r Retrieval
	if r.Mode() != ModeNone {
		t.Errorf("Mode() = %v, want none", r.Mode())
	}
	if _, ok := r.Condition(); ok {
		t.Error("zero Retrieval reports a condition")
	}
	if _, ok := r.Enumerator(); ok {
		t.Error("zero Retrieval reports an enumerator")
	}
}

func TestBulkQuery(t *testing.T) {
	r := BulkQuery(store.Everything{})
	if r.Mode() != ModeBulk {
		t.Fatalf("Mode() = %v, want bulk", r.Mode())
	}
	if _, ok := r.Enumerator(); ok {
		t.Error("bulk Retrieval reports an enumerator")
	}

	cond, ok := BulkQuery(nil).Condition()
	if !ok {
		t.Fatal("BulkQuery(nil) is not a bulk retrieval")
	}
	if _, ok := cond.(store.Nothing); !ok {
		t.Errorf("BulkQuery(nil) condition = %T, want store.Nothing", cond)
	}
}

func TestEnumeration(t *testing.T) {
	fn := func(ctx context.Context, st store.Store) iter.Seq2[store.Record, error] {
		return func(yield func(store.Record, error) bool) {}
	}
	r := Enumeration(fn)
	if r.Mode() != ModeEnumeration {
		t.Fatalf("Mode() = %v, want enumeration", r.Mode())
	}
	if _, ok := r.Condition(); ok {
		t.Error("enumeration Retrieval reports a condition")
	}

	if Enumeration(nil).Mode() != ModeNone {
		t.Error("Enumeration(nil) should be the zero Retrieval")
	}
}

func TestMode_MarshalText(t *testing.T) {
	data, err := json.Marshal(map[string]Mode{"a": ModeBulk, "b": ModeEnumeration, "c": ModeNone})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"a":"bulk","b":"enumeration","c":"none"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}
