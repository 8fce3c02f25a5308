// Package suite holds the tree of test suites and test cases a test run produced.
package suite

import "time"

// Outcome is the final categorical result of a test.
type Outcome string

// Outcomes ...
const (
	Passed   Outcome = "passed"
	Failed   Outcome = "failed"
	Skipped  Outcome = "skipped"
	TimedOut Outcome = "timedOut"
)

// Attempt is a single execution of a test. Retried tests have more than one.
type Attempt struct {
	Outcome  Outcome
	Error    string
	Duration time.Duration
	Stdout   []string
	Stderr   []string
}

// TestCase ...
type TestCase struct {
	Title    string
	File     string
	Line     int
	Attempts []Attempt
}

// LastAttempt returns the latest attempt of the test, if there is any.
func (t *TestCase) LastAttempt() (Attempt, bool) {
	if len(t.Attempts) == 0 {
		return Attempt{}, false
	}
	return t.Attempts[len(t.Attempts)-1], true
}

// Outcome returns the outcome of the latest attempt.
// A test without any recorded attempt is treated as skipped.
func (t *TestCase) Outcome() Outcome {
	attempt, ok := t.LastAttempt()
	if !ok {
		return Skipped
	}
	return attempt.Outcome
}

// Retries ...
func (t *TestCase) Retries() int {
	if len(t.Attempts) < 2 {
		return 0
	}
	return len(t.Attempts) - 1
}

// Suite is a node of the suite tree. The root suite's children are the project suites,
// their children are the file suites, below those suites may nest freely.
type Suite struct {
	Title   string
	File    string
	Project string
	Suites  []*Suite
	Tests   []*TestCase
}

// AllTests returns every test of the suite and its descendants, depth-first:
// child suites are visited before the suite's own tests.
func (s *Suite) AllTests() []*TestCase {
	if s == nil {
		return nil
	}

	var tests []*TestCase
	s.Walk(func(tc *TestCase) {
		tests = append(tests, tc)
	})
	return tests
}

// Walk calls fn for every test case in AllTests order.
func (s *Suite) Walk(fn func(*TestCase)) {
	if s == nil {
		return
	}
	for _, child := range s.Suites {
		child.Walk(fn)
	}
	for _, tc := range s.Tests {
		fn(tc)
	}
}

// IsEmpty reports whether neither the suite nor any of its descendants contain a test.
func (s *Suite) IsEmpty() bool {
	if s == nil {
		return true
	}
	if len(s.Tests) > 0 {
		return false
	}
	for _, child := range s.Suites {
		if !child.IsEmpty() {
			return false
		}
	}
	return true
}
