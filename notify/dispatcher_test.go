package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-email-test-report/config"
	"github.com/bitrise-steplib/steps-email-test-report/mail"
	"github.com/bitrise-steplib/steps-email-test-report/notify/mocks"
	"github.com/bitrise-steplib/steps-email-test-report/redactor"
	"github.com/bitrise-steplib/steps-email-test-report/report"
	"github.com/bitrise-steplib/steps-email-test-report/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 891000000, time.UTC)

type trackedDispatch struct {
	result Result
	err    error
}

type recordingTracker struct {
	tracked []trackedDispatch
}

func (r *recordingTracker) Track(result Result, _ time.Duration, err error) {
	r.tracked = append(r.tracked, trackedDispatch{result: result, err: err})
}

func (r *recordingTracker) Wait() {}

func validOptions() config.Options {
	return config.Options{
		APIKey:        "SG.secret",
		From:          "ci@example.com",
		To:            "a@x.com, b@y.com ,,",
		Subject:       "Nightly",
		MailOnSuccess: true,
	}
}

func runWith(outcomes ...suite.Outcome) *suite.Suite {
	file := &suite.Suite{Title: "a.spec.ts", File: "tests/a.spec.ts"}
	for i, outcome := range outcomes {
		file.Tests = append(file.Tests, &suite.TestCase{
			Title:    "test " + string(rune('a'+i)),
			File:     "tests/a.spec.ts",
			Attempts: []suite.Attempt{{Outcome: outcome, Error: "boom SG.secret", Duration: time.Second}},
		})
	}
	return &suite.Suite{Suites: []*suite.Suite{{Title: "chromium", Project: "chromium", Suites: []*suite.Suite{file}}}}
}

func createSut(t *testing.T) (Dispatcher, *mocks.Sender, *recordingTracker, *[]string) {
	dispatcher, sender, tracker, apiKeys, _ := createSutWithOutput(t)
	return dispatcher, sender, tracker, apiKeys
}

func createSutWithOutput(t *testing.T) (Dispatcher, *mocks.Sender, *recordingTracker, *[]string, *bytes.Buffer) {
	sender := mocks.NewSender(t)
	tracker := &recordingTracker{}
	var apiKeys []string

	var output bytes.Buffer
	logger := log.NewLogger(log.WithOutput(&output))
	dispatcher := NewDispatcher(
		func(apiKey string) mail.Sender {
			apiKeys = append(apiKeys, apiKey)
			return sender
		},
		report.NewRenderer("linux", logger),
		redactor.New(logger),
		tracker,
		logger,
	)
	dispatcher.now = func() time.Time { return fixedNow }
	dispatcher.newRunID = func() string { return "run-id" }

	return dispatcher, sender, tracker, &apiKeys, &output
}

func TestDispatch_Preconditions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Options)
	}{
		{name: "missing api key", modify: func(o *config.Options) { o.APIKey = "" }},
		{name: "missing from", modify: func(o *config.Options) { o.From = "" }},
		{name: "missing to", modify: func(o *config.Options) { o.To = "" }},
		{name: "config diagnostics", modify: func(o *config.Options) {
			o.ConfigErrors = []string{"Missing required environment variables: SENDGRID_TO_EMAILS"}
		}},
		{name: "only empty recipients", modify: func(o *config.Options) { o.To = " , ," }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher, sender, tracker, _ := createSut(t)
			opts := validOptions()
			tt.modify(&opts)

			got := dispatcher.Dispatch(context.Background(), runWith(suite.Failed), opts)

			assert.Equal(t, ResultSkipped, got)
			sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
			assert.Equal(t, []trackedDispatch{{result: ResultSkipped}}, tracker.tracked)
		})
	}
}

func TestDispatch_NilSuite(t *testing.T) {
	dispatcher, sender, _, _ := createSut(t)

	got := dispatcher.Dispatch(context.Background(), nil, validOptions())

	assert.Equal(t, ResultSkipped, got)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatch_MailOnSuccess(t *testing.T) {
	tests := []struct {
		name          string
		mailOnSuccess bool
		outcomes      []suite.Outcome
		wantSend      bool
		wantSubject   string
	}{
		{name: "success is skipped when disabled", mailOnSuccess: false, outcomes: []suite.Outcome{suite.Passed, suite.Skipped}, wantSend: false},
		{name: "success is sent when enabled", mailOnSuccess: true, outcomes: []suite.Outcome{suite.Passed}, wantSend: true, wantSubject: "Nightly - Success"},
		{name: "failure is sent when disabled", mailOnSuccess: false, outcomes: []suite.Outcome{suite.Passed, suite.Failed}, wantSend: true, wantSubject: "Nightly - Failed"},
		{name: "timeout counts as failure", mailOnSuccess: false, outcomes: []suite.Outcome{suite.TimedOut}, wantSend: true, wantSubject: "Nightly - Failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher, sender, _, _ := createSut(t)
			opts := validOptions()
			opts.MailOnSuccess = tt.mailOnSuccess

			var sent mail.Message
			if tt.wantSend {
				sender.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
					sent = args.Get(1).(mail.Message)
				})
			}

			got := dispatcher.Dispatch(context.Background(), runWith(tt.outcomes...), opts)

			if tt.wantSend {
				assert.Equal(t, ResultSent, got)
				assert.Equal(t, tt.wantSubject, sent.Subject)
			} else {
				assert.Equal(t, ResultSkipped, got)
				sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDispatch_Message(t *testing.T) {
	dispatcher, sender, tracker, apiKeys := createSut(t)
	opts := validOptions()
	opts.ReplyTo = "reply@example.com"
	opts.ShowError = true
	opts.LinkToResults = "https://ci.example.com/runs/42"

	var sent mail.Message
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		sent = args.Get(1).(mail.Message)
	})

	got := dispatcher.Dispatch(context.Background(), runWith(suite.Failed, suite.Passed), opts)

	require.Equal(t, ResultSent, got)
	assert.Equal(t, []string{"SG.secret"}, *apiKeys)
	assert.Equal(t, mail.Address{Email: "ci@example.com"}, sent.From)
	assert.Equal(t, []mail.Address{{Email: "a@x.com"}, {Email: "b@y.com"}}, sent.To)
	assert.Equal(t, &mail.Address{Email: "reply@example.com"}, sent.ReplyTo)
	assert.Equal(t, "Nightly - Failed", sent.Subject)
	assert.Equal(t, map[string]string{"run_id": "run-id"}, sent.CustomArgs)
	assert.Empty(t, sent.Attachments)
	assert.Contains(t, sent.HTML, "View results")
	assert.Contains(t, sent.HTML, "boom")
	assert.NotContains(t, sent.HTML, "SG.secret")
	assert.NotContains(t, sent.HTML, "<html")
	assert.Equal(t, []trackedDispatch{{result: ResultSent}}, tracker.tracked)
}

func TestDispatch_NoReplyTo(t *testing.T) {
	dispatcher, sender, _, _ := createSut(t)

	var sent mail.Message
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		sent = args.Get(1).(mail.Message)
	})

	require.Equal(t, ResultSent, dispatcher.Dispatch(context.Background(), runWith(suite.Passed), validOptions()))
	assert.Nil(t, sent.ReplyTo)
}

func TestDispatch_Attachment(t *testing.T) {
	dispatcher, sender, _, _ := createSut(t)
	opts := validOptions()
	opts.AttachHTMLReport = true

	var sent mail.Message
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		sent = args.Get(1).(mail.Message)
	})

	require.Equal(t, ResultSent, dispatcher.Dispatch(context.Background(), runWith(suite.Passed), opts))
	require.Len(t, sent.Attachments, 1)

	attachment := sent.Attachments[0]
	assert.Equal(t, "test-report-2024-03-09T14-05-07-891Z.html", attachment.Filename)
	assert.Equal(t, "text/html", attachment.Type)
	assert.Equal(t, "attachment", attachment.Disposition)

	document, err := base64.StdEncoding.DecodeString(attachment.Content)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(document), "<!DOCTYPE html>"))
	assert.Contains(t, string(document), "<title>Nightly - Success</title>")
	assert.Contains(t, string(document), "Summary</h2>")
}

func TestDispatch_TransportFailure(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantLogs   []string
		unwantLogs []string
	}{
		{
			name: "structured error body",
			err: &mail.ResponseError{
				StatusCode: 401,
				Message:    "The provided authorization grant is invalid, expired, or revoked",
				Body:       json.RawMessage(`{"errors": [{"message": "The provided authorization grant is invalid, expired, or revoked", "field": null, "help": null}]}`),
			},
			wantLogs: []string{
				"The provided authorization grant is invalid, expired, or revoked",
				`{"errors":[{"message":"The provided authorization grant is invalid, expired, or revoked","field":null,"help":null}]}`,
			},
		},
		{
			name:       "error without message",
			err:        &mail.ResponseError{StatusCode: 500, Message: ""},
			wantLogs:   []string{"SendGrid: failed to send message"},
			unwantLogs: []string{"status code 500"},
		},
		{
			name:       "wrapped error without message",
			err:        fmt.Errorf("send: %w", &mail.ResponseError{StatusCode: 502}),
			wantLogs:   []string{"SendGrid: failed to send message"},
			unwantLogs: []string{"send:"},
		},
		{
			name:       "network error",
			err:        errors.New("dial tcp: connection refused"),
			wantLogs:   []string{"dial tcp: connection refused"},
			unwantLogs: []string{"SendGrid: failed to send message"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher, sender, tracker, _, output := createSutWithOutput(t)
			sender.On("Send", mock.Anything, mock.Anything).Return(tt.err).Once()

			got := dispatcher.Dispatch(context.Background(), runWith(suite.Failed), validOptions())

			assert.Equal(t, ResultFailed, got)
			sender.AssertNumberOfCalls(t, "Send", 1)
			assert.Equal(t, []trackedDispatch{{result: ResultFailed, err: tt.err}}, tracker.tracked)
			for _, want := range tt.wantLogs {
				assert.Contains(t, output.String(), want)
			}
			for _, unwant := range tt.unwantLogs {
				assert.NotContains(t, output.String(), unwant)
			}
			assert.NotContains(t, output.String(), "Failed to serialize")
		})
	}
}

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		to   string
		want []string
	}{
		{to: "a@x.com, b@y.com ,,", want: []string{"a@x.com", "b@y.com"}},
		{to: "single@example.com", want: []string{"single@example.com"}},
		{to: " , ", want: nil},
		{to: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRecipients(tt.to))
		})
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Nightly - Failed", Subject("Nightly", true))
	assert.Equal(t, "Nightly - Success", Subject("Nightly", false))
}

func TestAttachmentFileName(t *testing.T) {
	got := AttachmentFileName(time.Date(2023, 12, 31, 23, 59, 59, 5000000, time.FixedZone("CET", 3600)))

	assert.Equal(t, "test-report-2023-12-31T22-59-59-005Z.html", got)

	name := strings.TrimSuffix(got, ".html")
	assert.NotContains(t, name, ":")
	assert.NotContains(t, name, ".")
}

func TestNewHTMLAttachment(t *testing.T) {
	got := NewHTMLAttachment("<p>hi</p>", fixedNow)

	assert.Equal(t, mail.Attachment{
		Content:     "PHA+aGk8L3A+",
		Filename:    "test-report-2024-03-09T14-05-07-891Z.html",
		Type:        "text/html",
		Disposition: "attachment",
	}, got)
}
