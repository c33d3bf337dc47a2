package capability

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jornadahq/jornada/logger"
	"go.uber.org/zap"
)

// HTTPResponse is the outcome of an outbound HTTP step.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

// HTTPCaller performs the HTTPRequest step's outbound call. The timeout is
// enforced per request so a slow endpoint can not hold a worker.
type HTTPCaller interface {
	Call(ctx context.Context, method string, url string, headers map[string]string, body string, timeout time.Duration) (*HTTPResponse, error)
}

type restyCaller struct {
	client *resty.Client
}

// NewHTTPCaller builds a caller with a bounded retry policy: retryCount
// attempts after the first, waiting retryWait with backoff between attempts.
func NewHTTPCaller(retryCount int, retryWait time.Duration) HTTPCaller {
	client := resty.New().
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryWait)
	return &restyCaller{client: client}
}

func (c *restyCaller) Call(ctx context.Context, method string, url string, headers map[string]string, body string, timeout time.Duration) (*HTTPResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req := c.client.R().
		SetContext(reqCtx).
		SetHeaders(headers)
	if len(body) > 0 {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		logger.Error("http call failed", zap.String("method", method), zap.String("url", url), zap.Error(err))
		return nil, err
	}
	return &HTTPResponse{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}
