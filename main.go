package main

import (
	"context"
	"os"
	"runtime"

	"github.com/bitrise-io/go-steputils/tools"
	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/pathutil"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-email-test-report/config"
	"github.com/bitrise-steplib/steps-email-test-report/mail"
	"github.com/bitrise-steplib/steps-email-test-report/notify"
	"github.com/bitrise-steplib/steps-email-test-report/redactor"
	"github.com/bitrise-steplib/steps-email-test-report/report"
	"github.com/bitrise-steplib/steps-email-test-report/reporter"
	"github.com/bitrise-steplib/steps-email-test-report/suite"
	"github.com/bitrise-steplib/steps-email-test-report/test"
)

const reportStatusKey = "SENDGRID_REPORT_STATUS"

// Input ...
type Input struct {
	TestResultsPath string          `env:"test_results_path,required"`
	ProjectName     string          `env:"project_name"`
	DotEnvPath      string          `env:"dotenv_path"`
	APIKey          stepconf.Secret `env:"api_key"`
	FromEmail       string          `env:"from_email"`
	ToEmails        string          `env:"to_emails"`
	ReplyTo         string          `env:"reply_to"`
	Subject         string          `env:"subject"`
	MailOnSuccess   string          `env:"mail_on_success"`
	ShowError       string          `env:"show_error"`
	LinkToResults   string          `env:"link_to_results"`
	Quiet           string          `env:"quiet"`
	DebugMode       string          `env:"debug_mode"`
	AttachHTML      string          `env:"attach_html_report"`
	MailBaseURL     string          `env:"sendgrid_base_url"`
}

func fail(logger log.Logger, format string, v ...interface{}) {
	logger.Errorf(format, v...)
	os.Exit(1)
}

func main() {
	logger := log.NewLogger()
	envRepo := env.NewRepository()

	var input Input
	if err := stepconf.NewInputParser(envRepo).Parse(&input); err != nil {
		fail(logger, "Issue with input: %s", err)
	}

	stepconf.Print(input)
	logger.Println()

	if err := config.LoadDotEnv(input.DotEnvPath); err != nil {
		fail(logger, "Failed to load the dotenv file: %s", err)
	}

	opts := config.Resolve(envRepo, input.overrides())
	logger.EnableDebugLog(opts.Debug)

	absResultsPth, err := pathutil.AbsPath(input.TestResultsPath)
	if err != nil {
		fail(logger, "Failed to expand path: %s, error: %s", input.TestResultsPath, err)
	}

	logger.Infof("Loading test results")
	root, err := test.ParseTestResults(absResultsPth, input.ProjectName, logger)
	if err != nil {
		fail(logger, "Failed to load test results: %s", err)
	}
	logger.Printf("- %d test(s) found", len(root.AllTests()))
	logger.Println()

	tracker := notify.NewTracker(envRepo, logger)
	dispatcher := notify.NewDispatcher(
		newSenderFactory(input.MailBaseURL, logger),
		report.NewRenderer(runtime.GOOS, logger),
		redactor.New(logger),
		tracker,
		logger,
	)

	logger.Infof("Sending the test report")
	r := reporter.NewMailReporter(opts, dispatcher, logger, os.Stdout, os.Stderr)
	result := runReporter(context.Background(), r, root)
	tracker.Wait()

	if err := tools.ExportEnvironmentWithEnvman(reportStatusKey, string(result)); err != nil {
		fail(logger, "Failed to export %s, error: %s", reportStatusKey, err)
	}
	logger.Printf("The report status is now available in the Environment Variable: %s (value: %s)", reportStatusKey, result)
}

func newSenderFactory(baseURL string, logger log.Logger) notify.SenderFactory {
	return func(apiKey string) mail.Sender {
		return mail.NewClient(baseURL, apiKey, logger)
	}
}

// runReporter feeds a finished run to the reporter: the suite tree, the output captured by
// the final attempt of every test and the overall status.
func runReporter(ctx context.Context, r reporter.Reporter, root *suite.Suite) notify.Result {
	r.OnBegin(root)

	root.Walk(func(tc *suite.TestCase) {
		attempt, ok := tc.LastAttempt()
		if !ok {
			return
		}
		for _, chunk := range attempt.Stdout {
			r.OnStdOut([]byte(chunk))
		}
		for _, chunk := range attempt.Stderr {
			r.OnStdErr([]byte(chunk))
		}
	})

	return r.OnEnd(ctx, reporter.RunResult{Status: runStatus(root)})
}

func runStatus(root *suite.Suite) reporter.RunStatus {
	status := report.TotalStatus([]*suite.Suite{root})
	switch {
	case status.TimedOut > 0:
		return reporter.RunTimedOut
	case status.Failures() > 0:
		return reporter.RunFailed
	default:
		return reporter.RunPassed
	}
}

func (i Input) overrides() config.Overrides {
	return config.Overrides{
		APIKey:           optionalString(string(i.APIKey)),
		From:             optionalString(i.FromEmail),
		To:               optionalString(i.ToEmails),
		ReplyTo:          optionalString(i.ReplyTo),
		Subject:          optionalString(i.Subject),
		LinkToResults:    optionalString(i.LinkToResults),
		MailOnSuccess:    config.ParseBool(i.MailOnSuccess),
		ShowError:        config.ParseBool(i.ShowError),
		Quiet:            config.ParseBool(i.Quiet),
		Debug:            config.ParseBool(i.DebugMode),
		AttachHTMLReport: config.ParseBool(i.AttachHTML),
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
