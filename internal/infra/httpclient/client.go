package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	domai "github.com/bryanwahyu/image-identifier/internal/domain/ai"
	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
	"github.com/bryanwahyu/image-identifier/internal/middleware"
)

// Client calls a remote image-identifier API. It satisfies client.Analyzer.
type Client struct {
	rc *resty.Client
}

type Options struct {
	Endpoint   string // base URL, e.g. http://localhost:8080
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func New(opts Options) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("httpclient: endpoint is required")
	}
	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(endpoint).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.APIKey != "" {
		rc.SetAuthToken(opts.APIKey)
	}
	return &Client{rc: rc}, nil
}

// remoteError keeps the server's message verbatim while still unwrapping to a cause.
type remoteError struct {
	msg   string
	cause error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.cause }

// Analyze posts the input and maps error responses back onto pipeline kinds.
func (c *Client) Analyze(ctx context.Context, in analysis.Input) (analysis.Result, error) {
	var (
		res     analysis.Result
		errBody middleware.ErrorBody
	)
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&res).
		SetError(&errBody).
		Post("/v1/analyze")
	if err != nil {
		return analysis.Result{}, analysis.Invocation("analysis service unreachable", err)
	}
	if !resp.IsError() {
		return res, nil
	}
	return analysis.Result{}, decodeFailure(resp.StatusCode(), errBody.Error, resp.String())
}

func decodeFailure(status int, detail middleware.ErrorDetail, raw string) error {
	msg := detail.Message
	if msg == "" {
		msg = strings.TrimSpace(raw)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch analysis.Kind(detail.Kind) {
	case analysis.KindInvalidInput:
		return &analysis.PipelineError{Kind: analysis.KindInvalidInput, Err: &remoteError{msg: msg}}
	case analysis.KindInvalidOutput:
		return &analysis.PipelineError{Kind: analysis.KindInvalidOutput, Err: &remoteError{msg: msg}}
	case analysis.KindInvocation:
		var cause error
		if status == http.StatusTooManyRequests {
			cause = domai.ErrQuotaExceeded
		}
		return &analysis.PipelineError{Kind: analysis.KindInvocation, Err: &remoteError{msg: msg, cause: cause}}
	}
	if detail.Kind == middleware.KindTooLarge {
		return analysis.InvalidInput("image too large", &remoteError{msg: msg})
	}
	return analysis.Invocation(fmt.Sprintf("analysis service returned %d", status), &remoteError{msg: msg})
}
