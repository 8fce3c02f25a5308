package report

import (
	"time"

	"github.com/bitrise-steplib/steps-email-test-report/suite"
)

// Status holds the per outcome counts of a run. The buckets are disjoint:
// Failed does not include the timed out tests.
type Status struct {
	Passed   int
	Failed   int
	TimedOut int
	Skipped  int
}

// Failures is the number of failed tests, timed out ones included.
func (s Status) Failures() int {
	return s.Failed + s.TimedOut
}

// Total ...
func (s Status) Total() int {
	return s.Passed + s.Failures() + s.Skipped
}

// HasFailed ...
func (s Status) HasFailed() bool {
	return s.Failures() > 0
}

func (s *Status) add(outcome suite.Outcome) {
	switch outcome {
	case suite.Passed:
		s.Passed++
	case suite.Failed:
		s.Failed++
	case suite.TimedOut:
		s.TimedOut++
	default:
		s.Skipped++
	}
}

// TestRecord is the final state of one executed test.
type TestRecord struct {
	Title    string
	File     string
	Outcome  suite.Outcome
	Error    string
	Duration time.Duration
	Retries  int
}

// FileGroup ...
type FileGroup struct {
	Path  string
	Tests []TestRecord
}

// FileGroups keeps the groups in the order their first test was visited.
type FileGroups []FileGroup

// Get ...
func (g FileGroups) Get(path string) ([]TestRecord, bool) {
	for _, group := range g {
		if group.Path == path {
			return group.Tests, true
		}
	}
	return nil, false
}

// Paths ...
func (g FileGroups) Paths() []string {
	paths := make([]string, 0, len(g))
	for _, group := range g {
		paths = append(paths, group.Path)
	}
	return paths
}

// StatusGroups splits the records by outcome. Failed contains the timed out tests too.
type StatusGroups struct {
	Failed   []TestRecord
	Skipped  []TestRecord
	Passed   []TestRecord
	TimedOut int
}
