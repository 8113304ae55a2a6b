package purge

import (
	"time"
)

// UnitState is the lifecycle state of one unit within a run.
type UnitState string

const (
	// StateDiscovered: the unit was built but not evaluated yet.
	StateDiscovered UnitState = "discovered"
	// StateEvaluated: the eligible set was computed.
	StateEvaluated UnitState = "evaluated"
	// StateReported: the eligible set was reported; nothing was deleted (dry run).
	StateReported UnitState = "reported"
	// StateDeleted: the eligible set was reported and deleted.
	StateDeleted UnitState = "deleted"
	// StateFailed: evaluation or deletion failed, or the unit is misconfigured.
	StateFailed UnitState = "failed"
)

// UnitResult is the outcome of one unit.
type UnitResult struct {
	Model    string        `json:"model"`
	Source   Source        `json:"source"`
	Mode     Mode          `json:"mode"`
	Eligible int64         `json:"eligible"`
	Deleted  int64         `json:"deleted"`
	State    UnitState     `json:"state"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`

	// Err is the failure, when State is StateFailed.
	Err error `json:"-"`
}

func (r *UnitResult) fail(err error) {
	r.State = StateFailed
	r.Err = err
	r.Error = err.Error()
}

// Report is the outcome of one executor run.
type Report struct {
	RunID      string       `json:"run_id"`
	DryRun     bool         `json:"dry_run"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Units      []UnitResult `json:"units"`
}

// Failed returns the units that failed.
func (r *Report) Failed() []UnitResult {
	var failed []UnitResult
	for _, u := range r.Units {
		if u.State == StateFailed {
			failed = append(failed, u)
		}
	}
	return failed
}

// TotalEligible sums the eligible counts of all units.
func (r *Report) TotalEligible() int64 {
	var n int64
	for _, u := range r.Units {
		n += u.Eligible
	}
	return n
}

// TotalDeleted sums the deleted counts of all units.
func (r *Report) TotalDeleted() int64 {
	var n int64
	for _, u := range r.Units {
		n += u.Deleted
	}
	return n
}

// Unit returns the first result for the named model.
func (r *Report) Unit(model string) (UnitResult, bool) {
	for _, u := range r.Units {
		if u.Model == model {
			return u, true
		}
	}
	return UnitResult{}, false
}
