// Package test loads the results of a test run into a suite tree.
package test

import (
	"fmt"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-email-test-report/suite"
	"github.com/bitrise-steplib/steps-email-test-report/test/converters"
)

/*
ParseTestResults loads the test results found at resultsPath.

resultsPath is either a report file or a directory holding the report files of a single run:

	test_results
	├── results.json
	├── results.xml
	└── trace.zip

Only the first level of a directory is read. The first converter in converters.List that
recognizes the files converts them; a run reported in more formats is only counted once.
*/
func ParseTestResults(resultsPath, projectName string, logger log.Logger) (*suite.Suite, error) {
	files, err := NewPathResolver(pathutil.NewPathModifier(), pathutil.NewPathChecker(), pathutil.NewPathProvider()).ResultFiles(resultsPath)
	if err != nil {
		return nil, err
	}

	return ConvertTestResults(files, projectName, logger)
}

// ConvertTestResults runs the first converter recognizing the given files.
func ConvertTestResults(files []string, projectName string, logger log.Logger) (*suite.Suite, error) {
	logger.Debugf("Test result files: %v", files)

	for _, converter := range converters.List() {
		logger.Debugf("Running converter: %T", converter)

		converter.Setup(projectName)

		detected := converter.Detect(files)

		logger.Debugf("known test result detected: %v", detected)

		if !detected {
			continue
		}

		root, err := converter.Convert()
		if err != nil {
			return nil, fmt.Errorf("failed to convert test results: %w", err)
		}

		return mergeProjects(root), nil
	}

	return nil, fmt.Errorf("no supported test results found in: %v", files)
}

// mergeProjects folds project suites of the same name into the first one, keeping their order.
func mergeProjects(root *suite.Suite) *suite.Suite {
	merged := &suite.Suite{Title: root.Title, Tests: root.Tests}
	projects := map[string]*suite.Suite{}

	for _, project := range root.Suites {
		if project.IsEmpty() {
			continue
		}

		if existing, ok := projects[project.Project]; ok {
			existing.Suites = append(existing.Suites, project.Suites...)
			existing.Tests = append(existing.Tests, project.Tests...)
			continue
		}

		projects[project.Project] = project
		merged.Suites = append(merged.Suites, project)
	}

	return merged
}
