package purge

import (
	"errors"
	"testing"

	"coursys/courselib/pkg/catalog"
)

func TestDiscover_Sources(t *testing.T) {
	semester := *semesterModel
	semester.PurgePolicy = PublicData{}
	widget := *widgetModel
	widget.PurgePolicy = UnreferencedOnly{}

	cat := newTestCatalog(t, logEntryModel, &semester, &widget, orderModel)

	reg := NewRegistry()
	if err := reg.Register(fixedPurger{model: "LogEntry", retrieval: BulkQuery(nil)}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(fixedPurger{model: "Widget"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	units, err := Discover(cat, reg, DiscoverOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []struct {
		model  string
		source Source
	}{
		{"LogEntry", SourceRegistered},
		{"Semester", SourceAttached},
		{"Widget", SourceAttached},
		{"Widget", SourceRegistered},
	}
	if len(units) != len(want) {
		t.Fatalf("Discover() returned %d units, want %d: %+v", len(units), len(want), units)
	}
	for i, w := range want {
		if units[i].Model != w.model || units[i].Source != w.source {
			t.Errorf("unit[%d] = %s/%s, want %s/%s", i, units[i].Model, units[i].Source, w.model, w.source)
		}
		if units[i].Err != nil {
			t.Errorf("unit[%d] Err = %v", i, units[i].Err)
		}
	}
}

func TestDiscover_Deterministic(t *testing.T) {
	semester := *semesterModel
	semester.PurgePolicy = PublicData{}
	cat := newTestCatalog(t, logEntryModel, &semester, widgetModel)
	reg := NewRegistry()
	reg.Register(fixedPurger{model: "Widget"})
	reg.Register(fixedPurger{model: "LogEntry"})

	first, _ := Discover(cat, reg, DiscoverOptions{Logger: quietLogger()})
	for i := 0; i < 10; i++ {
		again, _ := Discover(cat, reg, DiscoverOptions{Logger: quietLogger()})
		if len(again) != len(first) {
			t.Fatalf("run %d: %d units, want %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j].Model != first[j].Model || again[j].Source != first[j].Source {
				t.Fatalf("run %d: unit[%d] = %s/%s, want %s/%s",
					i, j, again[j].Model, again[j].Source, first[j].Model, first[j].Source)
			}
		}
	}
}

func TestDiscover_WrongAttachedType(t *testing.T) {
	bad := *widgetModel
	bad.PurgePolicy = "delete after a while"
	cat := newTestCatalog(t, &bad)

	units, err := Discover(cat, nil, DiscoverOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Discover() returned %d units, want 1", len(units))
	}

	var cfgErr *ConfigError
	if !errors.As(units[0].Err, &cfgErr) {
		t.Fatalf("unit Err = %v, want *ConfigError", units[0].Err)
	}
	if cfgErr.Model != "Widget" {
		t.Errorf("ConfigError.Model = %q, want Widget", cfgErr.Model)
	}
	if units[0].Purger != nil {
		t.Error("misconfigured unit should carry no purger")
	}
	if units[0].Describe() != "invalid" {
		t.Errorf("Describe() = %q, want invalid", units[0].Describe())
	}
}

func TestDiscover_UnknownModel(t *testing.T) {
	cat := newTestCatalog(t, logEntryModel)
	reg := NewRegistry()
	reg.Register(fixedPurger{model: "Ghost"})

	units, err := Discover(cat, reg, DiscoverOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Discover() returned %d units, want 1", len(units))
	}
	var cfgErr *ConfigError
	if !errors.As(units[0].Err, &cfgErr) {
		t.Errorf("unit Err = %v, want *ConfigError", units[0].Err)
	}
}

func TestDiscover_Overrides(t *testing.T) {
	semester := *semesterModel
	semester.PurgePolicy = PublicData{}
	cat := newTestCatalog(t, logEntryModel, &semester)
	reg := NewRegistry()
	reg.Register(fixedPurger{model: "LogEntry"})

	units, err := Discover(cat, reg, DiscoverOptions{
		Logger: quietLogger(),
		Overrides: []Override{
			{Model: "LogEntry", Field: "datetime", AfterDays: 730},
			{Model: "Nope", Field: "created", AfterDays: 1},
		},
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(units) != 3 {
		t.Fatalf("Discover() returned %d units, want 3: %+v", len(units), units)
	}

	log := units[0]
	if log.Model != "LogEntry" || log.Source != SourceConfig {
		t.Errorf("unit[0] = %s/%s, want LogEntry/config", log.Model, log.Source)
	}
	if got := log.Describe(); got != "age(datetime > 730d)" {
		t.Errorf("override Describe() = %q", got)
	}

	if units[1].Model != "Nope" || units[1].Err == nil {
		t.Errorf("unit[1] = %+v, want Nope with a configuration error", units[1])
	}
	if units[2].Model != "Semester" {
		t.Errorf("unit[2].Model = %q, want Semester", units[2].Model)
	}
}

func TestDiscover_Disabled(t *testing.T) {
	semester := *semesterModel
	semester.PurgePolicy = PublicData{}
	cat := newTestCatalog(t, logEntryModel, &semester)
	reg := NewRegistry()
	reg.Register(fixedPurger{model: "LogEntry"})

	units, err := Discover(cat, reg, DiscoverOptions{
		Logger:    quietLogger(),
		Disabled:  []string{"LogEntry", "Unknown"},
		Overrides: []Override{{Model: "LogEntry", Field: "datetime", AfterDays: 1}},
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(units) != 1 || units[0].Model != "Semester" {
		t.Errorf("Discover() = %+v, want only Semester", units)
	}
}

func TestDiscover_NilCatalog(t *testing.T) {
	if _, err := Discover(nil, NewRegistry(), DiscoverOptions{}); err == nil {
		t.Error("Discover(nil catalog) should fail")
	}
}

func TestDiscover_EmptyCatalog(t *testing.T) {
	units, err := Discover(catalog.New(), NewRegistry(), DiscoverOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(units) != 0 {
		t.Errorf("Discover() = %d units, want 0", len(units))
	}
}
