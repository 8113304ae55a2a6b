package purge

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/store"
	"coursys/courselib/pkg/store/memory"
	"coursys/courselib/pkg/store/mocks"
)

func logEntryFixture(t *testing.T) (*catalog.Catalog, *memory.Store) {
	t.Helper()
	cat := newTestCatalog(t, logEntryModel)
	st := memory.New()
	insert(t, st, logEntryModel, 1, map[string]any{"datetime": daysAgo(400), "description": "old"})
	insert(t, st, logEntryModel, 2, map[string]any{"datetime": daysAgo(10), "description": "recent"})
	return cat, st
}

func logEntryUnits() []Unit {
	return []Unit{{
		Model:  "LogEntry",
		Source: SourceRegistered,
		Purger: Bind("LogEntry", AgePolicy{Field: "datetime", AfterDays: 365}),
	}}
}

func TestExecutor_LogEntryDryRun(t *testing.T) {
	cat, st := logEntryFixture(t)
	var out bytes.Buffer

	report, err := newTestExecutor(st, cat, &out).Run(context.Background(), logEntryUnits(), false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := out.String(); got != "Purging 1 instances of LogEntry\n" {
		t.Errorf("output = %q", got)
	}
	if st.Len(logEntryModel) != 2 {
		t.Errorf("dry run left %d records, want 2", st.Len(logEntryModel))
	}

	res, ok := report.Unit("LogEntry")
	if !ok {
		t.Fatal("report has no LogEntry unit")
	}
	if res.Eligible != 1 || res.Deleted != 0 || res.State != StateReported {
		t.Errorf("unit result = %+v, want eligible=1 deleted=0 state=reported", res)
	}
	if !report.DryRun {
		t.Error("report.DryRun = false")
	}
	if report.RunID == "" {
		t.Error("report has no run ID")
	}
}

func TestExecutor_LogEntryCommit(t *testing.T) {
	cat, st := logEntryFixture(t)
	var out bytes.Buffer

	report, err := newTestExecutor(st, cat, &out).Run(context.Background(), logEntryUnits(), true)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := out.String(); got != "Purging 1 instances of LogEntry\n" {
		t.Errorf("output = %q", got)
	}

	remaining, err := st.Select(context.Background(), logEntryModel, store.Everything{})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != 2 {
		t.Errorf("remaining = %+v, want only record 2", remaining)
	}

	res, _ := report.Unit("LogEntry")
	if res.Deleted != 1 || res.State != StateDeleted {
		t.Errorf("unit result = %+v, want deleted=1 state=deleted", res)
	}
	if report.TotalDeleted() != 1 {
		t.Errorf("TotalDeleted() = %d, want 1", report.TotalDeleted())
	}
}

func TestExecutor_Idempotent(t *testing.T) {
	cat, st := logEntryFixture(t)
	cat.Register(widgetModel)
	cat.Register(orderModel)
	insert(t, st, widgetModel, "a", nil)
	insert(t, st, widgetModel, "b", nil)
	insert(t, st, orderModel, 10, map[string]any{"widget_id": "a"})

	units := append(logEntryUnits(), Unit{
		Model:  "Widget",
		Source: SourceAttached,
		Purger: Bind("Widget", UnreferencedOnly{}),
	})

	var out bytes.Buffer
	exec := newTestExecutor(st, cat, &out)
	if _, err := exec.Run(context.Background(), units, true); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	out.Reset()
	report, err := exec.Run(context.Background(), units, true)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.TotalEligible() != 0 {
		t.Errorf("second run eligible = %d, want 0", report.TotalEligible())
	}
	want := "Purging 0 instances of LogEntry\nPurging 0 instances of Widget\n"
	if out.String() != want {
		t.Errorf("second run output = %q, want %q", out.String(), want)
	}
}

func TestExecutor_UnreferencedWidget(t *testing.T) {
	cat := newTestCatalog(t, widgetModel, orderModel)
	st := memory.New()
	insert(t, st, widgetModel, "A", map[string]any{"name": "referenced"})
	insert(t, st, widgetModel, "B", map[string]any{"name": "orphan"})
	insert(t, st, orderModel, 1, map[string]any{"widget_id": "A"})

	units := []Unit{{Model: "Widget", Source: SourceAttached, Purger: Bind("Widget", UnreferencedOnly{})}}

	var out bytes.Buffer
	exec := newTestExecutor(st, cat, &out)

	if _, err := exec.Run(context.Background(), units, false); err != nil {
		t.Fatalf("dry Run() error = %v", err)
	}
	if out.String() != "Purging 1 instances of Widget\n" {
		t.Errorf("dry run output = %q", out.String())
	}

	if _, err := exec.Run(context.Background(), units, true); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	remaining, _ := st.Select(context.Background(), widgetModel, store.Everything{})
	if len(remaining) != 1 || remaining[0].ID != "A" {
		t.Errorf("remaining widgets = %+v, want only A", remaining)
	}
}

func TestExecutor_PublicDataNeverMutates(t *testing.T) {
	cat := newTestCatalog(t, semesterModel)
	st := memory.New()
	insert(t, st, semesterModel, 1261, map[string]any{"name": "1261"})
	insert(t, st, semesterModel, 1264, map[string]any{"name": "1264"})

	units := []Unit{{Model: "Semester", Source: SourceAttached, Purger: Bind("Semester", PublicData{})}}

	for _, commit := range []bool{false, true} {
		var out bytes.Buffer
		report, err := newTestExecutor(st, cat, &out).Run(context.Background(), units, commit)
		if err != nil {
			t.Fatalf("Run(commit=%v) error = %v", commit, err)
		}
		if out.String() != "Purging 0 instances of Semester\n" {
			t.Errorf("Run(commit=%v) output = %q", commit, out.String())
		}
		if report.TotalDeleted() != 0 {
			t.Errorf("Run(commit=%v) deleted %d", commit, report.TotalDeleted())
		}
	}
	if st.Len(semesterModel) != 2 {
		t.Errorf("semesters = %d, want 2", st.Len(semesterModel))
	}
}

func TestExecutor_Enumeration(t *testing.T) {
	cat, st := logEntryFixture(t)
	units := []Unit{{
		Model:  "LogEntry",
		Source: SourceRegistered,
		Purger: fixedPurger{
			model:     "LogEntry",
			retrieval: Enumeration(SelectAll(logEntryModel, store.Equals{Field: "description", Value: "recent"})),
		},
	}}

	var out bytes.Buffer
	exec := newTestExecutor(st, cat, &out)

	report, err := exec.Run(context.Background(), units, false)
	if err != nil {
		t.Fatalf("dry Run() error = %v", err)
	}
	if out.String() != "Purging 1 instances of LogEntry\n" {
		t.Errorf("output = %q", out.String())
	}
	if st.Len(logEntryModel) != 2 {
		t.Errorf("dry run mutated storage: %d records", st.Len(logEntryModel))
	}
	if res, _ := report.Unit("LogEntry"); res.Mode != ModeEnumeration {
		t.Errorf("Mode = %v, want enumeration", res.Mode)
	}

	report, err = exec.Run(context.Background(), units, true)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.TotalDeleted() != 1 {
		t.Errorf("deleted = %d, want 1", report.TotalDeleted())
	}
	remaining, _ := st.Select(context.Background(), logEntryModel, store.Everything{})
	if len(remaining) != 1 || remaining[0].ID != 1 {
		t.Errorf("remaining = %+v, want only record 1", remaining)
	}
}

func TestExecutor_Isolation(t *testing.T) {
	cat, st := logEntryFixture(t)
	cat.Register(semesterModel)
	cat.Register(widgetModel)

	units := []Unit{
		{Model: "Ghost", Source: SourceRegistered, Err: NewConfigError("Ghost", "purger names a model missing from the catalog", nil)},
		logEntryUnits()[0],
		{Model: "Semester", Source: SourceRegistered, Purger: fixedPurger{model: "Semester"}},
		{Model: "Widget", Source: SourceRegistered, Purger: panicPurger{model: "Widget"}},
	}

	var out bytes.Buffer
	report, err := newTestExecutor(st, cat, &out).Run(context.Background(), units, true)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("output has %d lines, want 4:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "Skipping Ghost: ") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "Purging 1 instances of LogEntry" {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Skipping Semester: ") {
		t.Errorf("line 2 = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "Skipping Widget: ") {
		t.Errorf("line 3 = %q", lines[3])
	}

	if st.Len(logEntryModel) != 1 {
		t.Errorf("LogEntry records = %d, want 1", st.Len(logEntryModel))
	}

	failed := report.Failed()
	if len(failed) != 3 {
		t.Fatalf("Failed() = %d units, want 3", len(failed))
	}

	semester, _ := report.Unit("Semester")
	if !errors.Is(semester.Err, ErrNoRetrieval) {
		t.Errorf("Semester error = %v, want ErrNoRetrieval", semester.Err)
	}
	var cfgErr *ConfigError
	if !errors.As(semester.Err, &cfgErr) {
		t.Errorf("Semester error = %T, want *ConfigError", semester.Err)
	}

	widget, _ := report.Unit("Widget")
	var unitErr *UnitError
	if !errors.As(widget.Err, &unitErr) || unitErr.Phase != PhasePanic {
		t.Errorf("Widget error = %v, want panic UnitError", widget.Err)
	}
}

func TestExecutor_RetrievalError(t *testing.T) {
	cat, st := logEntryFixture(t)
	units := []Unit{{
		Model:  "LogEntry",
		Source: SourceConfig,
		Purger: Bind("LogEntry", AgePolicy{Field: "datetime", AfterDays: 0}),
	}}

	var out bytes.Buffer
	report, err := newTestExecutor(st, cat, &out).Run(context.Background(), units, true)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "Skipping LogEntry: ") {
		t.Errorf("output = %q", out.String())
	}
	if st.Len(logEntryModel) != 2 {
		t.Errorf("misconfigured unit mutated storage")
	}
	res, _ := report.Unit("LogEntry")
	var cfgErr *ConfigError
	if !errors.As(res.Err, &cfgErr) {
		t.Errorf("error = %v, want *ConfigError", res.Err)
	}
}

func TestExecutor_StorageFailures(t *testing.T) {
	cat := newTestCatalog(t, logEntryModel, semesterModel)
	storageErr := errors.New("database is locked")

	tests := []struct {
		name      string
		expect    func(m *mocks.MockStore)
		wantPhase string
	}{
		{
			name: "count fails",
			expect: func(m *mocks.MockStore) {
				m.EXPECT().Count(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), storageErr)
			},
			wantPhase: PhaseCount,
		},
		{
			name: "delete fails",
			expect: func(m *mocks.MockStore) {
				m.EXPECT().Count(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(3), nil)
				m.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), storageErr)
			},
			wantPhase: PhaseDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			st := mocks.NewMockStore(ctrl)
			tt.expect(st)
			// The Semester unit still counts after LogEntry fails.
			st.EXPECT().Count(gomock.Any(), gomock.Any(), store.Nothing{}).Return(int64(0), nil)
			st.EXPECT().Delete(gomock.Any(), gomock.Any(), store.Nothing{}).Return(int64(0), nil)

			units := append(logEntryUnits(), Unit{
				Model:  "Semester",
				Source: SourceAttached,
				Purger: Bind("Semester", PublicData{}),
			})

			var out bytes.Buffer
			report, err := newTestExecutor(st, cat, &out).Run(context.Background(), units, true)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			res, _ := report.Unit("LogEntry")
			var unitErr *UnitError
			if !errors.As(res.Err, &unitErr) {
				t.Fatalf("LogEntry error = %v, want *UnitError", res.Err)
			}
			if unitErr.Phase != tt.wantPhase {
				t.Errorf("Phase = %q, want %q", unitErr.Phase, tt.wantPhase)
			}
			if !errors.Is(res.Err, storageErr) {
				t.Errorf("error does not wrap the storage error: %v", res.Err)
			}
			if !strings.Contains(out.String(), "Purging 0 instances of Semester\n") {
				t.Errorf("Semester unit did not report: %q", out.String())
			}
		})
	}
}

func TestExecutor_ContextCanceled(t *testing.T) {
	cat, st := logEntryFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	report, err := newTestExecutor(st, cat, &out).Run(ctx, logEntryUnits(), true)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if report == nil || len(report.Units) != 0 {
		t.Errorf("report = %+v, want no processed units", report)
	}
	if st.Len(logEntryModel) != 2 {
		t.Errorf("canceled run mutated storage")
	}
}

func TestExecutor_Metrics(t *testing.T) {
	cat, st := logEntryFixture(t)
	metrics := NewMetrics("test", nil)

	units := append(logEntryUnits(), Unit{Model: "Ghost", Err: NewConfigError("Ghost", "unknown", nil)})

	var out bytes.Buffer
	exec := NewExecutor(st, cat, Options{Out: &out, Logger: quietLogger(), Metrics: metrics, Now: func() time.Time { return testNow }})
	if _, err := exec.Run(context.Background(), units, true); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.deleted.WithLabelValues("LogEntry")); got != 1 {
		t.Errorf("deleted{LogEntry} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.eligible.WithLabelValues("LogEntry")); got != 1 {
		t.Errorf("eligible{LogEntry} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.failures.WithLabelValues("Ghost")); got != 1 {
		t.Errorf("failures{Ghost} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("commit")); got != 1 {
		t.Errorf("runs{commit} = %v, want 1", got)
	}
}

func TestExecutor_MetricsPartialEnumerationDelete(t *testing.T) {
	cat := newTestCatalog(t, logEntryModel)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any()).Return([]store.Record{{ID: 1}, {ID: 2}, {ID: 3}}, nil)
	gomock.InOrder(
		st.EXPECT().DeleteRecord(gomock.Any(), gomock.Any(), 1).Return(nil),
		st.EXPECT().DeleteRecord(gomock.Any(), gomock.Any(), 2).Return(errors.New("database is locked")),
	)

	units := []Unit{{
		Model:  "LogEntry",
		Source: SourceRegistered,
		Purger: fixedPurger{model: "LogEntry", retrieval: Enumeration(SelectAll(logEntryModel, store.Everything{}))},
	}}

	metrics := NewMetrics("test", nil)
	var out bytes.Buffer
	exec := NewExecutor(st, cat, Options{Out: &out, Logger: quietLogger(), Metrics: metrics, Now: func() time.Time { return testNow }})
	report, err := exec.Run(context.Background(), units, true)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	res, _ := report.Unit("LogEntry")
	if res.State != StateFailed || res.Deleted != 1 {
		t.Fatalf("result = %+v, want failed with 1 deleted", res)
	}
	if got := testutil.ToFloat64(metrics.deleted.WithLabelValues("LogEntry")); got != 1 {
		t.Errorf("deleted{LogEntry} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.failures.WithLabelValues("LogEntry")); got != 1 {
		t.Errorf("failures{LogEntry} = %v, want 1", got)
	}
}
