package testreport

import (
	"encoding/xml"
)

// TestReport is the JUnit XML document as written by the common test runners.
type TestReport struct {
	XMLName    xml.Name    `xml:"testsuites"`
	Name       string      `xml:"name,attr,omitempty"`
	TestSuites []TestSuite `xml:"testsuite"`
}

type TestSuite struct {
	XMLName xml.Name `xml:"testsuite"`
	Name    string   `xml:"name,attr"`
	// Hostname carries the project name in Playwright's JUnit output.
	Hostname   string      `xml:"hostname,attr,omitempty"`
	File       string      `xml:"file,attr,omitempty"`
	Tests      int         `xml:"tests,attr"`
	Failures   int         `xml:"failures,attr"`
	Errors     int         `xml:"errors,attr"`
	Skipped    int         `xml:"skipped,attr"`
	Time       float64     `xml:"time,attr"`
	TestCases  []TestCase  `xml:"testcase"`
	TestSuites []TestSuite `xml:"testsuite"`
}

type TestCase struct {
	XMLName   xml.Name   `xml:"testcase"`
	Name      string     `xml:"name,attr"`
	ClassName string     `xml:"classname,attr"`
	File      string     `xml:"file,attr,omitempty"`
	Line      int        `xml:"line,attr,omitempty"`
	Time      float64    `xml:"time,attr"`
	Error     *Error     `xml:"error,omitempty"`
	Failure   *Failure   `xml:"failure,omitempty"`
	Skipped   *Skipped   `xml:"skipped,omitempty"`
	SystemOut *SystemOut `xml:"system-out,omitempty"`
	SystemErr *SystemErr `xml:"system-err,omitempty"`
}

type Error struct {
	XMLName xml.Name `xml:"error,omitempty"`
	Message string   `xml:"message,attr,omitempty"`
	Type    string   `xml:"type,attr,omitempty"`
	Value   string   `xml:",chardata"`
}

type Failure struct {
	XMLName xml.Name `xml:"failure,omitempty"`
	Message string   `xml:"message,attr,omitempty"`
	Type    string   `xml:"type,attr,omitempty"`
	Value   string   `xml:",chardata"`
}

type Skipped struct {
	XMLName xml.Name `xml:"skipped,omitempty"`
	Message string   `xml:"message,attr,omitempty"`
}

type SystemOut struct {
	XMLName xml.Name `xml:"system-out,omitempty"`
	Value   string   `xml:",chardata"`
}

type SystemErr struct {
	XMLName xml.Name `xml:"system-err,omitempty"`
	Value   string   `xml:",chardata"`
}
