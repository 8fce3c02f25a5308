// Package notify decides whether a test run is worth an email and dispatches it.
package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-email-test-report/config"
	"github.com/bitrise-steplib/steps-email-test-report/mail"
	"github.com/bitrise-steplib/steps-email-test-report/redactor"
	"github.com/bitrise-steplib/steps-email-test-report/report"
	"github.com/bitrise-steplib/steps-email-test-report/suite"
	"github.com/docker/go-units"
	"github.com/google/uuid"
)

// Result is the terminal state of a dispatch.
type Result string

// Results ...
const (
	ResultSent    Result = "sent"
	ResultSkipped Result = "skipped"
	ResultFailed  Result = "failed"
)

const (
	attachmentPrefix      = "test-report-"
	attachmentType        = "text/html"
	attachmentDisposition = "attachment"
	genericFailureReason  = "SendGrid: failed to send message"
)

// Renderer ...
type Renderer interface {
	Body(root *suite.Suite, opts report.BodyOptions) string
	Document(title, body string) string
}

// SenderFactory creates the mail transport for the given API key.
type SenderFactory func(apiKey string) mail.Sender

// Dispatcher ...
type Dispatcher struct {
	newSender SenderFactory
	renderer  Renderer
	redactor  redactor.Redactor
	tracker   Tracker
	logger    log.Logger
	now       func() time.Time
	newRunID  func() string
}

// NewDispatcher ...
func NewDispatcher(newSender SenderFactory, renderer Renderer, redactor redactor.Redactor, tracker Tracker, logger log.Logger) Dispatcher {
	return Dispatcher{
		newSender: newSender,
		renderer:  renderer,
		redactor:  redactor,
		tracker:   tracker,
		logger:    logger,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
}

// Dispatch runs the whole notification flow once. Problems are logged, never returned:
// the result only tells which terminal state was reached.
func (d Dispatcher) Dispatch(ctx context.Context, root *suite.Suite, opts config.Options) Result {
	start := d.now()

	result, err := d.dispatch(ctx, root, opts)
	if d.tracker != nil {
		d.tracker.Track(result, d.now().Sub(start), err)
	}

	return result
}

func (d Dispatcher) dispatch(ctx context.Context, root *suite.Suite, opts config.Options) (Result, error) {
	if reason, ok := checkPreconditions(opts); !ok {
		d.logger.Errorf("%s", reason)
		return ResultSkipped, nil
	}

	if root == nil {
		d.logger.Warnf("No test results to report")
		return ResultSkipped, nil
	}

	status := report.TotalStatus([]*suite.Suite{root})
	if !opts.MailOnSuccess && !status.HasFailed() {
		d.logger.Printf("Not sending email on success")
		return ResultSkipped, nil
	}

	recipients := ParseRecipients(opts.To)
	if len(recipients) == 0 {
		d.logger.Errorf("No valid to email address in: %q", opts.To)
		return ResultSkipped, nil
	}

	msg, err := d.buildMessage(root, status, recipients, opts)
	if err != nil {
		d.logger.Errorf("Failed to build the email: %s", err)
		return ResultFailed, err
	}

	d.logger.Debugf("Sending %q to %d recipient(s), run id: %s", msg.Subject, len(msg.To), msg.CustomArgs["run_id"])

	if err := d.newSender(opts.APIKey).Send(ctx, msg); err != nil {
		d.logSendError(err)
		return ResultFailed, err
	}

	d.logger.Donef("SendGrid: message sent successfully")
	return ResultSent, nil
}

func checkPreconditions(opts config.Options) (string, bool) {
	switch {
	case opts.APIKey == "":
		return "Missing SendGrid API key", false
	case opts.From == "":
		return "Missing from email address", false
	case opts.To == "":
		return "Missing to email address", false
	case len(opts.ConfigErrors) > 0:
		return strings.Join(opts.ConfigErrors, "; "), false
	}
	return "", true
}

func (d Dispatcher) buildMessage(root *suite.Suite, status report.Status, recipients []string, opts config.Options) (mail.Message, error) {
	subject := Subject(opts.Subject, status.HasFailed())

	body := d.renderer.Body(root, report.BodyOptions{
		ShowError:     opts.ShowError,
		LinkToResults: opts.LinkToResults,
	})
	body, err := d.redactor.Redact(body, []string{opts.APIKey})
	if err != nil {
		return mail.Message{}, err
	}

	msg := mail.Message{
		From:       mail.Address{Email: opts.From},
		Subject:    subject,
		HTML:       body,
		CustomArgs: map[string]string{"run_id": d.newRunID()},
	}
	for _, recipient := range recipients {
		msg.To = append(msg.To, mail.Address{Email: recipient})
	}

	if opts.ReplyTo != "" {
		msg.ReplyTo = &mail.Address{Email: opts.ReplyTo}
	}

	if opts.AttachHTMLReport {
		document := d.renderer.Document(subject, body)
		msg.Attachments = append(msg.Attachments, NewHTMLAttachment(document, d.now()))
		d.logger.Printf("Attaching HTML report (%s)", units.HumanSize(float64(len(document))))
	}

	return msg, nil
}

func (d Dispatcher) logSendError(err error) {
	var respErr *mail.ResponseError
	if !errors.As(err, &respErr) {
		message := err.Error()
		if message == "" {
			message = genericFailureReason
		}
		d.logger.Errorf("%s", message)
		return
	}

	message := respErr.Message
	if message == "" {
		message = genericFailureReason
	}
	d.logger.Errorf("%s", message)

	if len(respErr.Body) == 0 {
		return
	}
	body, marshalErr := json.Marshal(respErr.Body)
	if marshalErr != nil {
		d.logger.Warnf("Failed to serialize the error response: %s", marshalErr)
		return
	}
	d.logger.Errorf("%s", body)
}

// ParseRecipients splits a comma separated address list, dropping the empty entries.
func ParseRecipients(to string) []string {
	var recipients []string
	for _, recipient := range strings.Split(to, ",") {
		recipient = strings.TrimSpace(recipient)
		if recipient != "" {
			recipients = append(recipients, recipient)
		}
	}
	return recipients
}

// Subject ...
func Subject(base string, hasFailed bool) string {
	if hasFailed {
		return base + " - Failed"
	}
	return base + " - Success"
}

// AttachmentFileName returns a sortable file name without ':' and '.' in the timestamp part.
func AttachmentFileName(t time.Time) string {
	timestamp := t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
	timestamp = strings.NewReplacer(":", "-", ".", "-").Replace(timestamp)
	return attachmentPrefix + timestamp + ".html"
}

// NewHTMLAttachment ...
func NewHTMLAttachment(document string, t time.Time) mail.Attachment {
	return mail.Attachment{
		Content:     base64.StdEncoding.EncodeToString([]byte(document)),
		Filename:    AttachmentFileName(t),
		Type:        attachmentType,
		Disposition: attachmentDisposition,
	}
}
