package report

import (
	"testing"
	"time"

	"github.com/bitrise-steplib/steps-email-test-report/suite"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCase(title, file string, outcomes ...suite.Outcome) *suite.TestCase {
	tc := &suite.TestCase{Title: title, File: file}
	for _, outcome := range outcomes {
		tc.Attempts = append(tc.Attempts, suite.Attempt{Outcome: outcome, Duration: time.Second})
	}
	return tc
}

// sampleRun has two projects with the same files in both.
func sampleRun() *suite.Suite {
	return &suite.Suite{
		Suites: []*suite.Suite{
			{
				Title:   "chromium",
				Project: "chromium",
				Suites: []*suite.Suite{
					{
						Title: "login.spec.ts",
						File:  "tests/login.spec.ts",
						Suites: []*suite.Suite{
							{
								Title: "login form",
								Tests: []*suite.TestCase{
									testCase("shows errors", "tests/login.spec.ts", suite.Failed),
									testCase("accepts valid input", "tests/login.spec.ts", suite.Failed, suite.Passed),
								},
							},
						},
						Tests: []*suite.TestCase{
							testCase("has title", "tests/login.spec.ts", suite.Passed),
						},
					},
					{
						Title: "cart.spec.ts",
						File:  "tests/cart.spec.ts",
						Tests: []*suite.TestCase{
							testCase("adds item", "tests/cart.spec.ts", suite.TimedOut),
							testCase("removes item", "tests/cart.spec.ts", suite.Skipped),
							testCase("never ran", "tests/cart.spec.ts"),
						},
					},
				},
			},
			{
				Title:   "firefox",
				Project: "firefox",
				Suites: []*suite.Suite{
					{
						Title: "login.spec.ts",
						File:  "tests/login.spec.ts",
						Tests: []*suite.TestCase{
							testCase("has title", "tests/login.spec.ts", suite.Passed),
						},
					},
				},
			},
		},
	}
}

func TestTotalStatus(t *testing.T) {
	root := sampleRun()

	got := TotalStatus(root.Suites)

	want := Status{Passed: 3, Failed: 1, TimedOut: 1, Skipped: 2}
	if got != want {
		t.Errorf("TotalStatus() = %v, want %v", pretty.Sprint(got), pretty.Sprint(want))
	}
	assert.Equal(t, 2, got.Failures())
	assert.Equal(t, len(root.AllTests()), got.Total())
	assert.Equal(t, got.Total(), got.Passed+got.Failures()+got.Skipped)
	assert.True(t, got.HasFailed())
}

func TestTotalStatus_Empty(t *testing.T) {
	got := TotalStatus(nil)
	assert.Equal(t, Status{}, got)
	assert.False(t, got.HasFailed())
}

func TestTestsPerFile(t *testing.T) {
	root := sampleRun()

	groups := TestsPerFile(root.Suites[0])

	require.Equal(t, []string{"tests/login.spec.ts", "tests/cart.spec.ts"}, groups.Paths())

	login, ok := groups.Get("tests/login.spec.ts")
	require.True(t, ok)
	assert.Equal(t, []string{"shows errors", "accepts valid input", "has title"}, titles(login))
	assert.Equal(t, suite.Passed, login[1].Outcome)
	assert.Equal(t, 1, login[1].Retries)

	cart, ok := groups.Get("tests/cart.spec.ts")
	require.True(t, ok)
	assert.Equal(t, []string{"adds item", "removes item", "never ran"}, titles(cart))
	assert.Equal(t, suite.Skipped, cart[2].Outcome)

	_, ok = groups.Get("tests/missing.spec.ts")
	assert.False(t, ok)
}

func TestTestsPerFile_EveryTestExactlyOnce(t *testing.T) {
	root := sampleRun()

	groups := TestsPerFile(root)

	count := 0
	for _, group := range groups {
		count += len(group.Tests)
	}
	assert.Equal(t, len(root.AllTests()), count)

	var all []string
	for _, tc := range root.AllTests() {
		all = append(all, tc.File+"/"+tc.Title)
	}
	var grouped []string
	for _, group := range groups {
		for _, record := range group.Tests {
			grouped = append(grouped, record.File+"/"+record.Title)
		}
	}
	assert.ElementsMatch(t, all, grouped)
}

func TestGroupByStatus(t *testing.T) {
	groups := GroupByStatus(sampleRun())

	assert.Equal(t, []string{"shows errors", "adds item"}, titles(groups.Failed))
	assert.Equal(t, []string{"removes item", "never ran"}, titles(groups.Skipped))
	assert.Equal(t, []string{"accepts valid input", "has title", "has title"}, titles(groups.Passed))
	assert.Equal(t, 1, groups.TimedOut)
}

func TestNewTestRecord(t *testing.T) {
	tc := &suite.TestCase{
		Title: "flaky",
		File:  "a.spec.ts",
		Attempts: []suite.Attempt{
			{Outcome: suite.Failed, Error: "first", Duration: time.Second},
			{Outcome: suite.Failed, Error: "second", Duration: 2 * time.Second},
		},
	}

	assert.Equal(t, TestRecord{
		Title:    "flaky",
		File:     "a.spec.ts",
		Outcome:  suite.Failed,
		Error:    "second",
		Duration: 2 * time.Second,
		Retries:  1,
	}, NewTestRecord(tc))
}

func titles(records []TestRecord) []string {
	var result []string
	for _, record := range records {
		result = append(result, record.Title)
	}
	return result
}
