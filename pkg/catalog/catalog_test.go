package catalog

import (
	"errors"
	"testing"
)

func TestCatalog_Register(t *testing.T) {
	tests := []struct {
		name      string
		model     *Model
		wantError bool
	}{
		{name: "valid", model: &Model{Name: "LogEntry", Table: "log_logentry"}},
		{name: "nil model", model: nil, wantError: true},
		{name: "empty name", model: &Model{Table: "t"}, wantError: true},
		{name: "empty table", model: &Model{Name: "Orphan"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			err := c.Register(tt.model)
			if (err != nil) != tt.wantError {
				t.Fatalf("Register() error = %v, wantError %v", err, tt.wantError)
			}
			if err != nil {
				var regErr *RegistryError
				if !errors.As(err, &regErr) {
					t.Errorf("error type = %T, want *RegistryError", err)
				}
			}
		})
	}
}

func TestCatalog_RegisterDuplicate(t *testing.T) {
	c := New()
	if err := c.Register(&Model{Name: "Unit", Table: "coredata_unit"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	err := c.Register(&Model{Name: "Unit", Table: "other"})
	if err == nil {
		t.Fatal("duplicate Register() should fail")
	}
	m, _ := c.Lookup("Unit")
	if m.Table != "coredata_unit" {
		t.Errorf("duplicate registration replaced the model: table = %q", m.Table)
	}
}

func TestCatalog_ModelsSorted(t *testing.T) {
	c := New()
	for _, name := range []string{"Semester", "CourseOffering", "LogEntry"} {
		if err := c.Register(&Model{Name: name, Table: name}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	models := c.Models()
	want := []string{"CourseOffering", "LogEntry", "Semester"}
	if len(models) != len(want) {
		t.Fatalf("Models() = %d models, want %d", len(models), len(want))
	}
	for i, m := range models {
		if m.Name != want[i] {
			t.Errorf("Models()[%d] = %s, want %s", i, m.Name, want[i])
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestCatalog_ReferencesTo(t *testing.T) {
	c := New()
	models := []*Model{
		{Name: "Semester", Table: "coredata_semester"},
		{Name: "Unit", Table: "coredata_unit", Relations: []Relation{{Field: "parent_id", Target: "Unit"}}},
		{
			Name:  "CourseOffering",
			Table: "coredata_courseoffering",
			Relations: []Relation{
				{Field: "semester_id", Target: "Semester"},
				{Field: "owner_id", Target: "Unit"},
			},
		},
	}
	for _, m := range models {
		if err := c.Register(m); err != nil {
			t.Fatalf("Register(%s) error = %v", m.Name, err)
		}
	}

	refs := c.ReferencesTo("Unit")
	want := []Reference{
		{Source: "CourseOffering", Table: "coredata_courseoffering", Field: "owner_id"},
		{Source: "Unit", Table: "coredata_unit", Field: "parent_id"},
	}
	if len(refs) != len(want) {
		t.Fatalf("ReferencesTo(Unit) = %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("ReferencesTo(Unit)[%d] = %v, want %v", i, refs[i], want[i])
		}
	}

	if refs := c.ReferencesTo("CourseOffering"); len(refs) != 0 {
		t.Errorf("ReferencesTo(CourseOffering) = %v, want none", refs)
	}
}

func TestModel_KeyAndFields(t *testing.T) {
	m := &Model{Name: "SessionInfo", Table: "otp_sessioninfo", Fields: []string{"session_key", "created"}}
	if m.Key() != "id" {
		t.Errorf("Key() = %q, want id", m.Key())
	}
	if !m.HasField("created") || !m.HasField("id") {
		t.Error("HasField() rejected a declared field")
	}
	if m.HasField("updated") {
		t.Error("HasField() accepted an undeclared field")
	}

	open := &Model{Name: "Any", Table: "any", PrimaryKey: "key"}
	if open.Key() != "key" {
		t.Errorf("Key() = %q, want key", open.Key())
	}
	if !open.HasField("whatever") {
		t.Error("model without a field list should accept every field")
	}
}
