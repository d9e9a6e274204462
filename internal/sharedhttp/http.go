package sharedhttp

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"mymanga/internal/domain"

	"github.com/avast/retry-go"
)

var Transport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ReadBufferSize:        65536,
	WriteBufferSize:       65536,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// NewClient returns a client on the shared transport. No overall timeout is set;
// callers bound requests through their context.
func NewClient() *http.Client {
	return &http.Client{Transport: Transport}
}

// CheckStatusCode classifies a response status. Throttling and server errors are
// retried, every other non-2xx status is final.
func CheckStatusCode(req *http.Request, statusCode int) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	err := &domain.NetworkError{
		Op:         req.Method,
		URL:        req.URL.String(),
		StatusCode: statusCode,
	}

	switch {
	case statusCode == http.StatusTooManyRequests, statusCode == http.StatusRequestTimeout:
		return err
	case statusCode >= http.StatusInternalServerError:
		return err
	default:
		return retry.Unrecoverable(err)
	}
}

// ExecRequest sends req and hands back the response only when it is 2xx.
// The body of a rejected response is drained and closed.
func ExecRequest(client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		netErr := &domain.NetworkError{Op: req.Method, URL: req.URL.String(), Err: err}
		if req.Context().Err() != nil {
			return nil, retry.Unrecoverable(netErr)
		}
		return nil, netErr
	}

	if err := CheckStatusCode(req, resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

type RetryPolicy struct {
	Attempts  uint
	Delay     time.Duration
	MaxJitter time.Duration
}

var DefaultRetry = RetryPolicy{
	Attempts:  3,
	Delay:     time.Second,
	MaxJitter: time.Second,
}

// Do runs fn until it succeeds, returns an unrecoverable error, runs out of attempts or ctx is done.
// The last error is returned unwrapped.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}

	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.MaxJitter(p.MaxJitter),
		retry.LastErrorOnly(true),
	)
}
