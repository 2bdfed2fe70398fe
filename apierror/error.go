package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"syscall"

	"github.com/hashicorp/go-multierror"
)

// ErrAborted is returned, or wrapped, when a request is abandoned before it
// settles, such as when the subject of a fetch is navigated away from.
var ErrAborted = errors.New("request aborted")

// Error is the type of error returned by the GraphQL network client. It
// contains an HTTP status code so that callers can interpret the error
// message.
type Error struct {
	err    error
	status int
}

// GraphQLError is one entry of the "errors" array in a GraphQL response.
type GraphQLError struct {
	Message string   `json:"message"`
	Path    []any    `json:"path,omitempty"`
	Ext     extCodes `json:"extensions,omitempty"`
}

type extCodes struct {
	Code string `json:"code,omitempty"`
}

func New(err error, status int) *Error {
	return &Error{
		err:    err,
		status: status,
	}
}

// FromResponse creates an error from a non-OK response. If the body holds a
// GraphQL error document, then its messages are used as the error text.
func FromResponse(status int, body []byte) error {
	err := DecodeErrors(body)
	if err == nil {
		text := strings.TrimSpace(string(body))
		if text != "" {
			err = errors.New(text)
		}
	}
	if status == 0 {
		return err
	}
	return New(err, status)
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.status == 0 {
		return ""
	}
	// If there is only status, then return status text
	if text := http.StatusText(e.status); text != "" {
		return fmt.Sprintf("%d %s", e.status, text)
	}
	return fmt.Sprintf("%d", e.status)
}

func (e *Error) Status() int {
	return e.status
}

func (e *Error) Text() string {
	parts := make([]string, 0, 5)
	if e.status != 0 {
		parts = append(parts, fmt.Sprintf("%d", e.status))
		text := http.StatusText(e.status)
		if text != "" {
			parts = append(parts, " ")
			parts = append(parts, text)
		}
	}
	if e.err != nil {
		if len(parts) != 0 {
			parts = append(parts, ": ")
		}
		parts = append(parts, e.err.Error())
	}

	return strings.Join(parts, "")
}

func (e *Error) Unwrap() error {
	return e.err
}

// FromGraphQL joins the messages of a GraphQL errors array into one error.
// Returns nil if there are no errors.
func FromGraphQL(gqlErrs []GraphQLError) error {
	var errs *multierror.Error
	for _, ge := range gqlErrs {
		msg := ge.Message
		if msg == "" {
			msg = "unknown graphql error"
		}
		if ge.Ext.Code != "" {
			msg = ge.Ext.Code + ": " + msg
		}
		errs = multierror.Append(errs, errors.New(msg))
	}
	return errs.ErrorOrNil()
}

// DecodeErrors decodes a GraphQL response body that carries an "errors"
// array. Returns nil if the body is not such a document.
func DecodeErrors(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var doc struct {
		Errors []GraphQLError `json:"errors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return FromGraphQL(doc.Errors)
}

// IsAbandoned reports whether err is an expected outcome of navigation rather
// than a service failure: a canceled context, an explicit abort, or a
// connection reset while the request was in flight. Callers do not offer a
// retry for these.
func IsAbandoned(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrAborted) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "aborted") || strings.Contains(msg, "ECONNRESET") ||
		strings.Contains(msg, "connection reset by peer")
}
