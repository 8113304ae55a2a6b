package coredata

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/purge"
	"coursys/courselib/pkg/store"
	"coursys/courselib/pkg/store/memory"
)

func insert(t *testing.T, st *memory.Store, m *catalog.Model, id int, fields map[string]any) {
	t.Helper()
	if err := st.Insert(m, store.Record{ID: id, Fields: fields}); err != nil {
		t.Fatalf("Insert(%s, %d) error = %v", m.Name, id, err)
	}
}

func TestDiscover(t *testing.T) {
	units, err := purge.Discover(catalog.Default, purge.DefaultRegistry, purge.DiscoverOptions{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []struct {
		model    string
		describe string
	}{
		{"Semester", "public"},
		{"Unit", "unreferenced"},
	}
	if len(units) != len(want) {
		t.Fatalf("got %d units, want %d: %+v", len(units), len(want), units)
	}
	for i, w := range want {
		if units[i].Model != w.model || units[i].Describe() != w.describe {
			t.Errorf("units[%d] = %s/%s, want %s/%s", i, units[i].Model, units[i].Describe(), w.model, w.describe)
		}
	}
}

func TestReferences(t *testing.T) {
	refs := catalog.Default.ReferencesTo("Unit")
	if len(refs) != 2 {
		t.Fatalf("ReferencesTo(Unit) = %+v", refs)
	}
	if refs[0].Source != "CourseOffering" || refs[0].Field != "owner_id" {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].Source != "Unit" || refs[1].Field != "parent_id" {
		t.Errorf("refs[1] = %+v", refs[1])
	}
}

func TestPurge(t *testing.T) {
	st := memory.New()
	insert(t, st, Semester, 1, map[string]any{"name": "1261"})
	insert(t, st, Semester, 2, map[string]any{"name": "1264"})
	insert(t, st, Unit, 1, map[string]any{"label": "UNIV"})
	insert(t, st, Unit, 2, map[string]any{"label": "CMPT", "parent_id": 1})
	insert(t, st, Unit, 3, map[string]any{"label": "MATH", "parent_id": 1})
	insert(t, st, Unit, 4, map[string]any{"label": "GONE"})
	insert(t, st, CourseOffering, 1, map[string]any{"semester_id": 1, "owner_id": 2})

	units, err := purge.Discover(catalog.Default, purge.DefaultRegistry, purge.DiscoverOptions{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	var out bytes.Buffer
	exec := purge.NewExecutor(st, catalog.Default, purge.Options{
		Out:    &out,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    time.Now,
	})
	if _, err := exec.Run(context.Background(), units, true); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if st.Len(Semester) != 2 {
		t.Errorf("semesters left = %d, want 2", st.Len(Semester))
	}

	left, err := st.Select(context.Background(), Unit, store.Everything{})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	got := map[any]bool{}
	for _, r := range left {
		got[r.ID] = true
	}
	// MATH and GONE were unreferenced; UNIV is still a parent of CMPT.
	if len(got) != 2 || !got[1] || !got[2] {
		t.Errorf("units left = %v, want 1 and 2", got)
	}

	want := "Purging 0 instances of Semester\nPurging 2 instances of Unit\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestPurge_UnitHierarchyIsIdempotent(t *testing.T) {
	st := memory.New()
	insert(t, st, Unit, 1, map[string]any{"label": "UNIV"})
	insert(t, st, Unit, 2, map[string]any{"label": "CMPT", "parent_id": 1})

	units, err := purge.Discover(catalog.Default, purge.DefaultRegistry, purge.DiscoverOptions{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	exec := purge.NewExecutor(st, catalog.Default, purge.Options{
		Out:    io.Discard,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    time.Now,
	})

	unitResult := func(report *purge.Report) purge.UnitResult {
		t.Helper()
		for _, u := range report.Units {
			if u.Model == "Unit" {
				return u
			}
		}
		t.Fatal("no result for Unit")
		return purge.UnitResult{}
	}

	first, err := exec.Run(context.Background(), units, true)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if got := unitResult(first); got.Eligible != 2 || got.Deleted != 2 {
		t.Errorf("first run eligible=%d deleted=%d, want 2 and 2", got.Eligible, got.Deleted)
	}
	if st.Len(Unit) != 0 {
		t.Errorf("units left = %d, want 0", st.Len(Unit))
	}

	second, err := exec.Run(context.Background(), units, true)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if got := unitResult(second); got.Eligible != 0 {
		t.Errorf("second run eligible = %d, want 0", got.Eligible)
	}
}
