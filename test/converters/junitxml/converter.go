package junitxml

import (
	"encoding/xml"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bitrise-steplib/steps-email-test-report/suite"
	"github.com/bitrise-steplib/steps-email-test-report/test/testreport"
	"github.com/pkg/errors"
)

var timeoutPattern = regexp.MustCompile(`Test timeout of \d+ms exceeded`)

// Converter holds data of the converter
type Converter struct {
	projectName string
	results     []resultReader
}

// Setup sets the project name used for suites that do not carry one.
func (c *Converter) Setup(projectName string) {
	c.projectName = projectName
}

// Detect return true if the test results contain JUnit XML files.
func (c *Converter) Detect(files []string) bool {
	c.results = nil
	for _, file := range files {
		if strings.HasSuffix(file, ".xml") || strings.HasSuffix(file, ".junit") {
			c.results = append(c.results, &fileReader{Filename: file})
		}
	}

	return len(c.results) > 0
}

// Convert parses every detected file into one suite tree: root > project > file > nested suites.
func (c *Converter) Convert() (*suite.Suite, error) {
	root := &suite.Suite{}
	projects := map[string]*suite.Suite{}

	for _, result := range c.results {
		testSuites, err := parseTestSuites(result)
		if err != nil {
			return nil, err
		}

		for _, ts := range testSuites {
			projectName := ts.Hostname
			if projectName == "" {
				projectName = c.projectName
			}

			project, ok := projects[projectName]
			if !ok {
				project = &suite.Suite{Title: projectName, Project: projectName}
				projects[projectName] = project
				root.Suites = append(root.Suites, project)
			}

			project.Suites = append(project.Suites, convertSuite(ts, projectName, ""))
		}
	}

	return root, nil
}

func parseTestSuites(result resultReader) ([]testreport.TestSuite, error) {
	data, err := result.ReadAll()
	if err != nil {
		return nil, err
	}

	var testSuites testreport.TestReport

	testSuitesError := xml.Unmarshal(data, &testSuites)
	if testSuitesError == nil {
		return testSuites.TestSuites, nil
	}

	var testSuite testreport.TestSuite
	if err := xml.Unmarshal(data, &testSuite); err != nil {
		return nil, errors.Wrapf(errors.Wrap(err, testSuitesError.Error()), "failed to parse %s", result.Name())
	}

	return []testreport.TestSuite{testSuite}, nil
}

func convertSuite(ts testreport.TestSuite, projectName, parentFile string) *suite.Suite {
	file := ts.File
	if file == "" {
		file = parentFile
	}
	if file == "" {
		file = ts.Name
	}

	s := &suite.Suite{
		Title:   ts.Name,
		File:    file,
		Project: projectName,
	}

	for _, child := range ts.TestSuites {
		s.Suites = append(s.Suites, convertSuite(child, projectName, file))
	}

	for _, tc := range ts.TestCases {
		s.Tests = append(s.Tests, convertTestCase(tc, file))
	}

	return s
}

func convertTestCase(tc testreport.TestCase, suiteFile string) *suite.TestCase {
	file := tc.File
	if file == "" {
		file = suiteFile
	}

	attempt := suite.Attempt{
		Outcome:  outcome(tc),
		Error:    errorDetail(tc),
		Duration: time.Duration(tc.Time * float64(time.Second)),
	}
	if tc.SystemOut != nil {
		if out := strings.TrimSpace(tc.SystemOut.Value); out != "" {
			attempt.Stdout = []string{out + "\n"}
		}
	}
	if tc.SystemErr != nil {
		if out := strings.TrimSpace(tc.SystemErr.Value); out != "" {
			attempt.Stderr = []string{out + "\n"}
		}
	}

	return &suite.TestCase{
		Title:    tc.Name,
		File:     filepath.ToSlash(file),
		Line:     tc.Line,
		Attempts: []suite.Attempt{attempt},
	}
}

func outcome(tc testreport.TestCase) suite.Outcome {
	switch {
	case tc.Failure != nil || tc.Error != nil:
		if timeoutPattern.MatchString(failureText(tc)) {
			return suite.TimedOut
		}
		return suite.Failed
	case tc.Skipped != nil:
		return suite.Skipped
	default:
		return suite.Passed
	}
}

func failureText(tc testreport.TestCase) string {
	var parts []string
	if tc.Failure != nil {
		parts = append(parts, tc.Failure.Message, tc.Failure.Value)
	}
	if tc.Error != nil {
		parts = append(parts, tc.Error.Message, tc.Error.Value)
	}
	return strings.Join(parts, "\n")
}

// errorDetail merges the failure and error messages of a test case, separated by an empty line.
func errorDetail(tc testreport.TestCase) string {
	var messages []string

	if tc.Failure != nil {
		if len(strings.TrimSpace(tc.Failure.Message)) > 0 {
			messages = append(messages, tc.Failure.Message)
		}

		if len(strings.TrimSpace(tc.Failure.Value)) > 0 {
			messages = append(messages, strings.TrimSpace(tc.Failure.Value))
		}
	}

	if tc.Error != nil {
		if len(strings.TrimSpace(tc.Error.Message)) > 0 {
			messages = append(messages, "Error message:\n"+tc.Error.Message)
		}

		if len(strings.TrimSpace(tc.Error.Value)) > 0 {
			messages = append(messages, "Error value:\n"+strings.TrimSpace(tc.Error.Value))
		}
	}

	return strings.Join(messages, "\n\n")
}
