package purge

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/store"
	"coursys/courselib/pkg/store/memory"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	logEntryModel = &catalog.Model{
		Name:   "LogEntry",
		Table:  "log_logentry",
		Fields: []string{"datetime", "description"},
	}
	widgetModel = &catalog.Model{
		Name:  "Widget",
		Table: "shop_widget",
	}
	orderModel = &catalog.Model{
		Name:      "Order",
		Table:     "shop_order",
		Relations: []catalog.Relation{{Field: "widget_id", Target: "Widget"}},
	}
	semesterModel = &catalog.Model{
		Name:  "Semester",
		Table: "coredata_semester",
	}
)

// newTestCatalog returns a catalog with copies of the fixture models.
func newTestCatalog(t *testing.T, models ...*catalog.Model) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()
	for _, m := range models {
		cp := *m
		if err := cat.Register(&cp); err != nil {
			t.Fatalf("Register(%s) error = %v", m.Name, err)
		}
	}
	return cat
}

func insert(t *testing.T, st *memory.Store, model *catalog.Model, id any, fields map[string]any) {
	t.Helper()
	if err := st.Insert(model, store.Record{ID: id, Fields: fields}); err != nil {
		t.Fatalf("Insert(%s, %v) error = %v", model.Name, id, err)
	}
}

func daysAgo(days int) time.Time {
	return testNow.AddDate(0, 0, -days)
}

// newTestExecutor returns an executor at testNow writing report lines to out.
func newTestExecutor(st store.Store, cat *catalog.Catalog, out *bytes.Buffer) *Executor {
	return NewExecutor(st, cat, Options{
		Out:    out,
		Logger: quietLogger(),
		Now:    func() time.Time { return testNow },
	})
}

// fixedPurger is a registered-style purger returning a fixed retrieval.
type fixedPurger struct {
	model     string
	retrieval Retrieval
	err       error
}

func (p fixedPurger) ModelName() string { return p.model }

func (p fixedPurger) Retrieval(*Env) (Retrieval, error) { return p.retrieval, p.err }

// panicPurger panics while building its retrieval.
type panicPurger struct{ model string }

func (p panicPurger) ModelName() string { return p.model }

func (p panicPurger) Retrieval(*Env) (Retrieval, error) { panic("boom") }
