package report

import (
	"github.com/bitrise-steplib/steps-email-test-report/suite"
)

// NewTestRecord ...
func NewTestRecord(tc *suite.TestCase) TestRecord {
	record := TestRecord{
		Title:   tc.Title,
		File:    tc.File,
		Outcome: tc.Outcome(),
		Retries: tc.Retries(),
	}

	if attempt, ok := tc.LastAttempt(); ok {
		record.Error = attempt.Error
		record.Duration = attempt.Duration
	}

	return record
}

// TotalStatus counts the final outcome of every test of the given suites.
func TotalStatus(suites []*suite.Suite) Status {
	var status Status
	for _, s := range suites {
		s.Walk(func(tc *suite.TestCase) {
			status.add(tc.Outcome())
		})
	}
	return status
}

// TestsPerFile groups the tests of the suite by source file, in traversal order.
func TestsPerFile(s *suite.Suite) FileGroups {
	var groups FileGroups
	index := map[string]int{}

	s.Walk(func(tc *suite.TestCase) {
		i, ok := index[tc.File]
		if !ok {
			i = len(groups)
			index[tc.File] = i
			groups = append(groups, FileGroup{Path: tc.File})
		}
		groups[i].Tests = append(groups[i].Tests, NewTestRecord(tc))
	})

	return groups
}

// GroupByStatus ...
func GroupByStatus(s *suite.Suite) StatusGroups {
	var groups StatusGroups

	s.Walk(func(tc *suite.TestCase) {
		record := NewTestRecord(tc)
		switch record.Outcome {
		case suite.Passed:
			groups.Passed = append(groups.Passed, record)
		case suite.Failed:
			groups.Failed = append(groups.Failed, record)
		case suite.TimedOut:
			groups.Failed = append(groups.Failed, record)
			groups.TimedOut++
		default:
			groups.Skipped = append(groups.Skipped, record)
		}
	})

	return groups
}
