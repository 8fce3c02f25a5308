package playwrightjson

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/bitrise-steplib/steps-email-test-report/suite"
	"github.com/pkg/errors"
)

// Converter reads Playwright json reports, keeping every retry attempt.
type Converter struct {
	projectName string
	files       []string
}

// Setup sets the project name used for tests that do not carry one.
func (c *Converter) Setup(projectName string) {
	c.projectName = projectName
}

// Detect returns true if any of the files is a Playwright json report.
func (c *Converter) Detect(files []string) bool {
	c.files = nil
	for _, file := range files {
		if !strings.HasSuffix(file, ".json") {
			continue
		}
		if isReport(file) {
			c.files = append(c.files, file)
		}
	}

	return len(c.files) > 0
}

// Convert builds one suite tree: root > project > file > describe blocks.
func (c *Converter) Convert() (*suite.Suite, error) {
	root := &suite.Suite{}
	projects := map[string]*suite.Suite{}

	for _, file := range c.files {
		report, err := readReport(file)
		if err != nil {
			return nil, err
		}

		for _, projectName := range c.projectNames(report) {
			var fileSuites []*suite.Suite
			for _, s := range report.Suites {
				if converted := c.convertSuite(s, projectName, ""); converted != nil {
					fileSuites = append(fileSuites, converted)
				}
			}
			if len(fileSuites) == 0 {
				continue
			}

			project, ok := projects[projectName]
			if !ok {
				project = &suite.Suite{Title: projectName, Project: projectName}
				projects[projectName] = project
				root.Suites = append(root.Suites, project)
			}
			project.Suites = append(project.Suites, fileSuites...)
		}
	}

	return root, nil
}

func isReport(file string) bool {
	data, err := os.ReadFile(file)
	if err != nil {
		return false
	}

	var report struct {
		Config *json.RawMessage `json:"config"`
		Suites *json.RawMessage `json:"suites"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return false
	}

	return report.Config != nil && report.Suites != nil
}

func readReport(file string) (Report, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Report{}, err
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, errors.Wrapf(err, "failed to parse %s", file)
	}

	return report, nil
}

// projectNames lists the configured projects followed by the ones only the tests mention.
func (c *Converter) projectNames(report Report) []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, project := range report.Config.Projects {
		add(c.project(project.Name))
	}

	var walk func(suites []Suite)
	walk = func(suites []Suite) {
		for _, s := range suites {
			for _, spec := range s.Specs {
				for _, test := range spec.Tests {
					add(c.project(test.ProjectName))
				}
			}
			walk(s.Suites)
		}
	}
	walk(report.Suites)

	return names
}

func (c *Converter) project(name string) string {
	if name == "" {
		return c.projectName
	}
	return name
}

// convertSuite keeps the tests of the given project only. Suites left empty are dropped.
func (c *Converter) convertSuite(s Suite, projectName, parentFile string) *suite.Suite {
	file := s.File
	if file == "" {
		file = parentFile
	}

	converted := &suite.Suite{
		Title:   s.Title,
		File:    file,
		Project: projectName,
	}

	for _, child := range s.Suites {
		if childSuite := c.convertSuite(child, projectName, file); childSuite != nil {
			converted.Suites = append(converted.Suites, childSuite)
		}
	}

	for _, spec := range s.Specs {
		for _, test := range spec.Tests {
			if c.project(test.ProjectName) != projectName {
				continue
			}
			converted.Tests = append(converted.Tests, convertTest(spec, test, file))
		}
	}

	if converted.IsEmpty() {
		return nil
	}
	return converted
}

func convertTest(spec Spec, test Test, suiteFile string) *suite.TestCase {
	file := spec.File
	if file == "" {
		file = suiteFile
	}

	tc := &suite.TestCase{
		Title: spec.Title,
		File:  file,
		Line:  spec.Line,
	}
	for _, result := range test.Results {
		tc.Attempts = append(tc.Attempts, convertResult(result))
	}

	return tc
}

func convertResult(result Result) suite.Attempt {
	return suite.Attempt{
		Outcome:  outcome(result.Status),
		Error:    errorMessage(result),
		Duration: time.Duration(result.Duration * float64(time.Millisecond)),
		Stdout:   outputChunks(result.Stdout),
		Stderr:   outputChunks(result.Stderr),
	}
}

func outcome(status string) suite.Outcome {
	switch status {
	case "passed":
		return suite.Passed
	case "timedOut":
		return suite.TimedOut
	case "skipped":
		return suite.Skipped
	default:
		// failed, interrupted
		return suite.Failed
	}
}

func errorMessage(result Result) string {
	if result.Error != nil && result.Error.Message != "" {
		return result.Error.Message
	}

	var messages []string
	for _, e := range result.Errors {
		if e.Message != "" {
			messages = append(messages, e.Message)
		}
	}
	return strings.Join(messages, "\n\n")
}

func outputChunks(items []OutputItem) []string {
	var chunks []string
	for _, item := range items {
		switch {
		case item.Text != "":
			chunks = append(chunks, item.Text)
		case item.Buffer != "":
			if b, err := base64.StdEncoding.DecodeString(item.Buffer); err == nil {
				chunks = append(chunks, string(b))
			}
		}
	}
	return chunks
}
