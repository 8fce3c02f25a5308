// Package converters contains the interface that is required to be a package a test result converter.
// It must be possible to set files from outside (for example if someone wants to use
// a pre-filtered files list), need to return the suite tree of the run, and needs to have a
// Detect method to see if the converter can run with the files included in the test results dir.
package converters

import (
	"github.com/bitrise-steplib/steps-email-test-report/suite"
	"github.com/bitrise-steplib/steps-email-test-report/test/converters/junitxml"
	"github.com/bitrise-steplib/steps-email-test-report/test/converters/playwrightjson"
)

// Intf is the required interface a converter need to match
type Intf interface {
	Setup(projectName string)
	Detect([]string) bool
	Convert() (*suite.Suite, error)
}

// Playwright json comes first: unlike JUnit XML it keeps every retry attempt.
var converters = []Intf{
	&playwrightjson.Converter{},
	&junitxml.Converter{},
}

// List lists all supported converters in priority order
func List() []Intf {
	return converters
}
