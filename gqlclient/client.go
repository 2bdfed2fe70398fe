// Package gqlclient executes GraphQL operations against the Playing Arts API
// over HTTP.
package gqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	logging "github.com/ipfs/go-log/v2"
	"github.com/playingarts/go-libplayingarts/apierror"
)

var log = logging.Logger("gqlclient")

// DefaultPath is the path of the GraphQL endpoint on the site.
const DefaultPath = "/api/v1/graphql"

// Request is a GraphQL operation and its variables.
type Request struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Executor is the interface implemented by anything that can execute a
// GraphQL request. It returns the "data" object of the response, or an error.
type Executor interface {
	Execute(context.Context, Request) (map[string]any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(context.Context, Request) (map[string]any, error)

func (f ExecutorFunc) Execute(ctx context.Context, req Request) (map[string]any, error) {
	return f(ctx, req)
}

// Client is an http client for the GraphQL API.
type Client struct {
	c      *http.Client
	url    *url.URL
	header http.Header
}

// Client must implement Executor.
var _ Executor = (*Client)(nil)

// New creates a new GraphQL HTTP client. If endpoint has no path, then
// DefaultPath is used.
func New(endpoint string, options ...Option) (*Client, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url must have http or https scheme: %s", endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}

	httpClient := opts.httpClient
	if opts.retryMax != 0 {
		rclient := &retryablehttp.Client{
			HTTPClient:   httpClient,
			Logger:       retryLogger{},
			RetryWaitMin: opts.retryWaitMin,
			RetryWaitMax: opts.retryWaitMax,
			RetryMax:     opts.retryMax,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			Backoff:      retryablehttp.DefaultBackoff,
		}
		httpClient = rclient.StandardClient()
	}

	return &Client{
		c:      httpClient,
		url:    u,
		header: opts.header,
	}, nil
}

// Execute posts the request to the GraphQL endpoint and returns the data
// object of the response. A response carrying GraphQL errors is an error even
// if it also carries partial data.
func (c *Client) Execute(ctx context.Context, gqlReq Request) (map[string]any, error) {
	body, err := json.Marshal(&gqlReq)
	if err != nil {
		return nil, fmt.Errorf("cannot encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, vals := range c.header {
		for _, val := range vals {
			req.Header.Add(key, val)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apierror.FromResponse(resp.StatusCode, respBody)
	}

	var gqlResp struct {
		Data   map[string]any          `json:"data"`
		Errors []apierror.GraphQLError `json:"errors"`
	}
	if err = json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("cannot decode response: %w", err)
	}
	if err = apierror.FromGraphQL(gqlResp.Errors); err != nil {
		log.Debugw("GraphQL errors in response", "operation", gqlReq.OperationName, "err", err)
		return nil, err
	}
	if gqlResp.Data == nil {
		return nil, fmt.Errorf("response for %s has no data", gqlReq.OperationName)
	}
	return gqlResp.Data, nil
}

func (c *Client) String() string {
	return c.url.String()
}

// retryLogger sends retryablehttp log output to the package logger.
type retryLogger struct{}

func (retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, keysAndValues...)
}

func (retryLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Infow(msg, keysAndValues...)
}

func (retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

func (retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, keysAndValues...)
}
