package health

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CheckFunc is a function that performs a health check for a component.
// It returns nil if the component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// Check statuses.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
)

// CheckResult represents the result of a single health check.
type CheckResult struct {
	// Name is the checked component.
	Name string `json:"name"`

	// Status is the health status: "ok" or "unhealthy"
	Status string `json:"status"`

	// Message describes the problem for unhealthy checks.
	Message string `json:"message,omitempty"`

	// Duration is how long the check took
	Duration time.Duration `json:"duration_ns"`
}

// Status is the outcome of running every registered check.
type Status struct {
	Checks    []CheckResult `json:"checks"`
	Timestamp time.Time     `json:"timestamp"`
}

// Healthy reports whether every check passed.
func (s Status) Healthy() bool {
	for _, c := range s.Checks {
		if c.Status != StatusOK {
			return false
		}
	}
	return true
}

// Failed returns the unhealthy checks.
func (s Status) Failed() []CheckResult {
	var failed []CheckResult
	for _, c := range s.Checks {
		if c.Status != StatusOK {
			failed = append(failed, c)
		}
	}
	return failed
}

type namedCheck struct {
	name  string
	check CheckFunc
}

// Checker manages health checks for system components.
type Checker struct {
	mu     sync.RWMutex
	checks []namedCheck

	// Timeout for individual checks
	checkTimeout time.Duration
}

// ErrCheckTimeout is returned when a health check times out.
var ErrCheckTimeout = errors.New("health check timeout")

// New creates a new health checker with the specified check timeout.
// If timeout is 0, defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}

	return &Checker{
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers a health check function for a named component.
// If a check with the same name already exists, it is replaced in place.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.checks {
		if c.checks[i].name == name {
			c.checks[i].check = check
			return
		}
	}
	c.checks = append(c.checks, namedCheck{name: name, check: check})
}

// Run performs every registered check concurrently and returns the results
// in registration order.
func (c *Checker) Run(ctx context.Context) Status {
	c.mu.RLock()
	checks := make([]namedCheck, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup

	for i, nc := range checks {
		wg.Add(1)
		go func(i int, nc namedCheck) {
			defer wg.Done()
			results[i] = c.runCheck(ctx, nc)
		}(i, nc)
	}

	wg.Wait()

	return Status{
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes a single health check with timeout.
func (c *Checker) runCheck(ctx context.Context, nc namedCheck) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	// Run check in goroutine to support timeout
	errChan := make(chan error, 1)
	go func() {
		errChan <- nc.check(checkCtx)
	}()

	var err error
	select {
	case err = <-errChan:
	case <-checkCtx.Done():
		err = ErrCheckTimeout
	}

	result := CheckResult{
		Name:     nc.name,
		Status:   StatusOK,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

// ListChecks returns the names of all registered health checks in
// registration order.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for _, nc := range c.checks {
		names = append(names, nc.name)
	}
	return names
}
