package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
)

// maxErrorBody caps how much of an error response is kept in a StatusError
const maxErrorBody = 1 << 10

// HTTPClient wraps an *http.Client with a circuit breaker. Requests are never
// retried: a failed request surfaces its error to the caller and stops.
type HTTPClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// NewHTTPClient creates an HTTPClient with the given transport timeout,
// circuit breaker name and user agent.
func NewHTTPClient(timeout time.Duration, breakerName, userAgent string) *HTTPClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			// A superseded request says nothing about upstream health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		breaker:   cb,
		userAgent: userAgent,
	}
}

// Do executes the request through the circuit breaker. 5xx and 429 responses
// count as breaker failures and are returned as *StatusError.
// The caller is responsible for closing the body of a successful response.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, statusError(req.URL, r)
		}
		return r, nil
	})
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return resp, nil
}

// GetJSON issues a GET to endpoint with params and decodes a 200 response into out
func (c *HTTPClient) GetJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(req.URL, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// BreakerState reports the circuit breaker state, e.g. "closed" or "open"
func (c *HTTPClient) BreakerState() string {
	return c.breaker.State().String()
}

func statusError(u *url.URL, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	endpoint := *u
	endpoint.RawQuery = ""
	return &StatusError{
		URL:        endpoint.String(),
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
