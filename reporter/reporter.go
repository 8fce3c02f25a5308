// Package reporter adapts the mail notification flow to the test runner event interface.
package reporter

import (
	"context"
	"encoding/json"
	"io"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-email-test-report/config"
	"github.com/bitrise-steplib/steps-email-test-report/notify"
	"github.com/bitrise-steplib/steps-email-test-report/report"
	"github.com/bitrise-steplib/steps-email-test-report/suite"
)

// RunStatus is the overall status reported by the test runner.
type RunStatus string

// Run statuses ...
const (
	RunPassed   RunStatus = "passed"
	RunFailed   RunStatus = "failed"
	RunTimedOut RunStatus = "timedout"
)

// RunResult ...
type RunResult struct {
	Status RunStatus
}

// Reporter receives the events of a test run.
type Reporter interface {
	OnBegin(root *suite.Suite)
	OnStdOut(chunk []byte)
	OnStdErr(chunk []byte)
	OnEnd(ctx context.Context, result RunResult) notify.Result
}

// Dispatcher ...
type Dispatcher interface {
	Dispatch(ctx context.Context, root *suite.Suite, opts config.Options) notify.Result
}

// MailReporter emails the test report once the run is over.
type MailReporter struct {
	opts       config.Options
	dispatcher Dispatcher
	logger     log.Logger
	stdout     io.Writer
	stderr     io.Writer

	root *suite.Suite
}

// NewMailReporter ...
func NewMailReporter(opts config.Options, dispatcher Dispatcher, logger log.Logger, stdout, stderr io.Writer) *MailReporter {
	r := &MailReporter{
		opts:       opts,
		dispatcher: dispatcher,
		logger:     logger,
		stdout:     stdout,
		stderr:     stderr,
	}

	logger.Printf("Using the Mail Reporter")
	for _, configErr := range opts.ConfigErrors {
		logger.Warnf("%s", configErr)
	}

	if opts.Debug {
		logger.Printf("Using debug mode")
		if b, err := json.MarshalIndent(opts.Masked(), "", "  "); err != nil {
			logger.Warnf("Failed to serialize the reporter options: %s", err)
		} else {
			logger.Printf("Reporter options:\n%s", b)
		}
	}

	return r
}

// OnBegin ...
func (r *MailReporter) OnBegin(root *suite.Suite) {
	r.root = root
}

// OnStdOut ...
func (r *MailReporter) OnStdOut(chunk []byte) {
	r.write(r.stdout, chunk)
}

// OnStdErr ...
func (r *MailReporter) OnStdErr(chunk []byte) {
	r.write(r.stderr, chunk)
}

// OnEnd prints the summary and hands the run over to the dispatcher.
// The run status is informational only.
func (r *MailReporter) OnEnd(ctx context.Context, result RunResult) notify.Result {
	r.logger.Debugf("Test run finished with status: %s", result.Status)

	if r.root == nil {
		r.logger.Warnf("No test results to report")
		return notify.ResultSkipped
	}

	if !r.opts.Quiet && r.stdout != nil {
		report.WriteConsoleSummary(r.stdout, report.TotalStatus([]*suite.Suite{r.root}))
	}

	return r.dispatcher.Dispatch(ctx, r.root, r.opts)
}

func (r *MailReporter) write(w io.Writer, chunk []byte) {
	if r.opts.Quiet || w == nil || len(chunk) == 0 {
		return
	}
	if _, err := w.Write(chunk); err != nil {
		r.logger.Debugf("Failed to forward test output: %s", err)
	}
}
