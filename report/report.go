// Package report aggregates the outcome of a test run and renders it as HTML.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-email-test-report/suite"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("report").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html.tmpl"))

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDuration": formatDuration,
		"statusText":     statusText,
		"statusStyle": func(outcome suite.Outcome) template.CSS {
			return template.CSS("color: " + statusColor(outcome) + ";")
		},
	}
}

// BodyOptions ...
type BodyOptions struct {
	ShowError     bool
	LinkToResults string
}

// Renderer turns aggregated results into HTML fragments.
// It never fails: a fragment that can not be rendered is left out.
type Renderer struct {
	logger   log.Logger
	platform string
}

// NewRenderer ...
func NewRenderer(platform string, logger log.Logger) Renderer {
	return Renderer{
		logger:   logger,
		platform: platform,
	}
}

type section struct {
	Heading string
	Table   template.HTML
}

// Summary renders the headline counts of the run as a list.
func (r Renderer) Summary(root *suite.Suite) string {
	if root == nil {
		return ""
	}

	data := struct {
		Total  int
		Status Status
	}{
		Total:  len(root.AllTests()),
		Status: TotalStatus([]*suite.Suite{root}),
	}

	return r.execute("summary", data)
}

// StatusOverview renders a table with a fixed row for every status.
func (r Renderer) StatusOverview(status Status) string {
	return r.execute("overview", status)
}

// StatusSections renders a heading and a table for every non-empty status group,
// in failed, skipped, passed order.
func (r Renderer) StatusSections(groups StatusGroups, showError bool) string {
	var sections []section

	if len(groups.Failed) > 0 {
		heading := "Failed tests"
		if groups.TimedOut > 0 {
			heading = fmt.Sprintf("Failed tests (%d timed out)", groups.TimedOut)
		}
		sections = r.appendSection(sections, heading, groups.Failed, showError)
	}
	if len(groups.Skipped) > 0 {
		sections = r.appendSection(sections, "Skipped tests", groups.Skipped, showError)
	}
	if len(groups.Passed) > 0 {
		sections = r.appendSection(sections, "Passed tests", groups.Passed, showError)
	}

	if len(sections) == 0 {
		return ""
	}
	return r.execute("sections", sections)
}

// FileSections renders a heading and a result table for every file of every project.
func (r Renderer) FileSections(root *suite.Suite, showError bool) string {
	var sections []section

	for _, project := range projectSuites(root) {
		for _, group := range TestsPerFile(project) {
			heading := FileHeading(filepath.Base(group.Path), r.platform, project.Project)
			sections = r.appendSection(sections, heading, group.Tests, showError)
		}
	}

	if len(sections) == 0 {
		return ""
	}
	return r.execute("sections", sections)
}

// Table renders the result rows of the given tests. Empty input renders nothing.
func (r Renderer) Table(records []TestRecord, showError bool) string {
	if len(records) == 0 {
		return ""
	}

	data := struct {
		Records   []TestRecord
		ShowError bool
	}{
		Records:   records,
		ShowError: showError,
	}

	return r.execute("results", data)
}

// Body renders the email content.
func (r Renderer) Body(root *suite.Suite, opts BodyOptions) string {
	if root == nil {
		return ""
	}

	status := TotalStatus([]*suite.Suite{root})

	data := struct {
		Summary        template.HTML
		Overview       template.HTML
		StatusSections template.HTML
		FileSections   template.HTML
		LinkToResults  string
	}{
		Summary:        template.HTML(r.Summary(root)),
		Overview:       template.HTML(r.StatusOverview(status)),
		StatusSections: template.HTML(r.StatusSections(GroupByStatus(root), opts.ShowError)),
		FileSections:   template.HTML(r.FileSections(root, opts.ShowError)),
		LinkToResults:  opts.LinkToResults,
	}

	return r.execute("body", data)
}

// Document wraps the body into a standalone HTML document.
func (r Renderer) Document(title, body string) string {
	data := struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(body),
	}

	return r.execute("document", data)
}

// FileHeading ...
func FileHeading(fileName, platform, project string) string {
	heading := fileName
	if platform != "" {
		heading += " - " + platform
	}
	if project != "" {
		heading += " - " + project
	}
	return heading
}

func (r Renderer) appendSection(sections []section, heading string, records []TestRecord, showError bool) []section {
	table := r.Table(records, showError)
	if table == "" {
		return sections
	}
	return append(sections, section{Heading: heading, Table: template.HTML(table)})
}

func (r Renderer) execute(name string, data interface{}) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		if r.logger != nil {
			r.logger.Warnf("Failed to render %s: %s", name, err)
		}
		return ""
	}
	return buf.String()
}

// projectSuites returns the project level suites. Tests attached directly to the root
// are reported as a project without a name.
func projectSuites(root *suite.Suite) []*suite.Suite {
	if root == nil {
		return nil
	}

	projects := root.Suites
	if len(root.Tests) > 0 {
		projects = append(projects[:len(projects):len(projects)], &suite.Suite{Tests: root.Tests})
	}
	return projects
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

func statusText(outcome suite.Outcome) string {
	switch outcome {
	case suite.Passed:
		return "Passed"
	case suite.Failed:
		return "Failed"
	case suite.TimedOut:
		return "Timed out"
	case suite.Skipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

func statusColor(outcome suite.Outcome) string {
	switch outcome {
	case suite.Passed:
		return "#1a7f37"
	case suite.Failed, suite.TimedOut:
		return "#cf222e"
	default:
		return "#9a6700"
	}
}
