// Package mail submits messages to the SendGrid v3 mail send API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultBaseURL ...
const DefaultBaseURL = "https://api.sendgrid.com"

// Sender ...
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPClient ...
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResponseError is returned when the API answers with a non 2xx status.
type ResponseError struct {
	StatusCode int
	Message    string
	// Body is the raw JSON error body, if the API sent one.
	Body json.RawMessage
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// Client ...
type Client struct {
	logger     log.Logger
	httpClient HTTPClient
	baseURL    string
	apiKey     string
}

// NewClient creates a client that performs every request exactly once.
func NewClient(baseURL, apiKey string, logger log.Logger) *Client {
	retryClient := retryhttp.NewClient(logger)
	retryClient.RetryMax = 0
	retryClient.CheckRetry = noRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		logger:     logger,
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Send ...
func (c *Client) Send(ctx context.Context, msg Message) error {
	url := fmt.Sprintf("%s/v3/mail/send", c.baseURL)

	body, err := json.Marshal(newSendRequest(msg))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	return c.perform(req)
}

func (c *Client) perform(request *http.Request) error {
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+c.apiKey)

	dump, err := httputil.DumpRequest(request, false)
	if err != nil {
		c.logger.Warnf("Request dump failed: %s", err)
	} else {
		requestDump := string(dump)
		if c.apiKey != "" {
			requestDump = strings.ReplaceAll(requestDump, c.apiKey, "[REDACTED]")
		}
		c.logger.Debugf("Request dump: %s", requestDump)
	}

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("Failed to close response body: %s", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warnf("Failed to read response body: %s", err)
	}
	c.logger.Debugf("Response: %d %s", resp.StatusCode, string(respBody))

	if resp.StatusCode >= 300 || resp.StatusCode < 200 {
		return newResponseError(resp.StatusCode, respBody)
	}

	return nil
}

// noRetry hands every response back to the caller, so error bodies can be parsed.
func noRetry(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return false, err
}

func newResponseError(statusCode int, body []byte) *ResponseError {
	respErr := &ResponseError{StatusCode: statusCode}

	type apiError struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	type errorResponse struct {
		Errors []apiError `json:"errors"`
	}

	var response errorResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return respErr
	}

	respErr.Body = json.RawMessage(body)
	if len(response.Errors) > 0 {
		respErr.Message = response.Errors[0].Message
	}

	return respErr
}
