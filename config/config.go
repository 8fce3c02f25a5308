// Package config resolves the mail reporter options from the environment and explicit overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment keys ...
const (
	APIKeyKey        = "SENDGRID_API_KEY"
	FromKey          = "SENDGRID_FROM_EMAIL"
	ToKey            = "SENDGRID_TO_EMAILS"
	ReplyToKey       = "SENDGRID_REPLY_TO"
	SubjectKey       = "SENDGRID_SUBJECT"
	MailOnSuccessKey = "SENDGRID_MAIL_ON_SUCCESS"
	ShowErrorKey     = "SENDGRID_SHOW_ERROR"
	LinkToResultsKey = "SENDGRID_LINK_TO_RESULTS"
	QuietKey         = "SENDGRID_QUIET"
	DebugKey         = "SENDGRID_DEBUG"
	AttachHTMLKey    = "SENDGRID_ATTACH_HTML"
)

// DefaultSubject ...
const DefaultSubject = "Playwright Test Results"

const maskedSecret = "**********"

// Getter is the read side of go-utils/v2 env.Repository.
type Getter interface {
	Get(key string) string
}

// Options ...
type Options struct {
	APIKey           string   `json:"apiKey,omitempty"`
	From             string   `json:"from,omitempty"`
	To               string   `json:"to,omitempty"`
	ReplyTo          string   `json:"replyTo,omitempty"`
	Subject          string   `json:"subject"`
	LinkToResults    string   `json:"linkToResults,omitempty"`
	MailOnSuccess    bool     `json:"mailOnSuccess"`
	ShowError        bool     `json:"showError"`
	Quiet            bool     `json:"quiet"`
	Debug            bool     `json:"debug"`
	AttachHTMLReport bool     `json:"attachHtmlReport"`
	ConfigErrors     []string `json:"configErrors,omitempty"`
}

// Masked returns a copy of the options safe to print.
func (o Options) Masked() Options {
	if o.APIKey != "" {
		o.APIKey = maskedSecret
	}
	return o
}

// Overrides are explicitly provided option values. A nil field is not set.
type Overrides struct {
	APIKey           *string
	From             *string
	To               *string
	ReplyTo          *string
	Subject          *string
	LinkToResults    *string
	MailOnSuccess    *bool
	ShowError        *bool
	Quiet            *bool
	Debug            *bool
	AttachHTMLReport *bool
}

// Defaults ...
func Defaults() Options {
	return Options{
		Subject:       DefaultSubject,
		MailOnSuccess: true,
	}
}

// Resolve merges the defaults, the environment and the overrides, in increasing precedence,
// and collects the missing required values as diagnostics.
func Resolve(env Getter, overrides Overrides) Options {
	options := Defaults()

	fromEnv := environmentOverrides(env)
	options.apply(fromEnv)
	options.apply(overrides)

	if diagnostic := missingRequired(env, overrides); diagnostic != "" {
		options.ConfigErrors = append(options.ConfigErrors, diagnostic)
	}

	return options
}

// ParseBool accepts only "true" and "false", trimmed and case-insensitive.
// Anything else is unset.
func ParseBool(value string) *bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		b := true
		return &b
	case "false":
		b := false
		return &b
	default:
		return nil
	}
}

// LoadDotEnv loads the given dotenv file into the process environment.
// Variables already set are kept, a missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to check dotenv file (%s): %w", path, err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load dotenv file (%s): %w", path, err)
	}
	return nil
}

func environmentOverrides(env Getter) Overrides {
	return Overrides{
		APIKey:           nonEmpty(env.Get(APIKeyKey)),
		From:             nonEmpty(env.Get(FromKey)),
		To:               nonEmpty(env.Get(ToKey)),
		ReplyTo:          nonEmpty(env.Get(ReplyToKey)),
		Subject:          nonEmpty(env.Get(SubjectKey)),
		LinkToResults:    nonEmpty(env.Get(LinkToResultsKey)),
		MailOnSuccess:    ParseBool(env.Get(MailOnSuccessKey)),
		ShowError:        ParseBool(env.Get(ShowErrorKey)),
		Quiet:            ParseBool(env.Get(QuietKey)),
		Debug:            ParseBool(env.Get(DebugKey)),
		AttachHTMLReport: ParseBool(env.Get(AttachHTMLKey)),
	}
}

func (o *Options) apply(overrides Overrides) {
	setString(&o.APIKey, overrides.APIKey)
	setString(&o.From, overrides.From)
	setString(&o.To, overrides.To)
	setString(&o.ReplyTo, overrides.ReplyTo)
	setString(&o.Subject, overrides.Subject)
	setString(&o.LinkToResults, overrides.LinkToResults)
	setBool(&o.MailOnSuccess, overrides.MailOnSuccess)
	setBool(&o.ShowError, overrides.ShowError)
	setBool(&o.Quiet, overrides.Quiet)
	setBool(&o.Debug, overrides.Debug)
	setBool(&o.AttachHTMLReport, overrides.AttachHTMLReport)
}

func missingRequired(env Getter, overrides Overrides) string {
	required := []struct {
		key      string
		override *string
	}{
		{key: APIKeyKey, override: overrides.APIKey},
		{key: FromKey, override: overrides.From},
		{key: ToKey, override: overrides.To},
	}

	var missing []string
	for _, r := range required {
		if r.override != nil && *r.override != "" {
			continue
		}
		if strings.TrimSpace(env.Get(r.key)) == "" {
			missing = append(missing, r.key)
		}
	}

	if len(missing) == 0 {
		return ""
	}
	return "Missing required environment variables: " + strings.Join(missing, ", ")
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
