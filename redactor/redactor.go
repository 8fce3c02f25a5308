// Package redactor removes secret values from outbound content.
package redactor

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/redactwriter"
)

// Redactor is an interface for a structure which, given some content and a slice of secrets,
// returns the content with the secrets redacted.
type Redactor interface {
	Redact(content string, secrets []string) (string, error)
}

type redactor struct {
	logger log.Logger
}

// New ...
func New(logger log.Logger) Redactor {
	return redactor{
		logger: logger,
	}
}

func (r redactor) Redact(content string, secrets []string) (string, error) {
	var nonEmpty []string
	for _, secret := range secrets {
		if strings.TrimSpace(secret) != "" {
			nonEmpty = append(nonEmpty, secret)
		}
	}
	if len(nonEmpty) == 0 || content == "" {
		return content, nil
	}

	var destination bytes.Buffer
	redactWriter := redactwriter.New(nonEmpty, &destination, r.logger)
	if _, err := io.Copy(redactWriter, strings.NewReader(content)); err != nil {
		return "", fmt.Errorf("failed to redact secrets: %w", err)
	}

	if err := redactWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to close redact writer: %w", err)
	}

	return destination.String(), nil
}
