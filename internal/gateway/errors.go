// Package gateway holds the failure taxonomy shared by the upstream
// gateways and the policy that decides whether a failure reaches the caller.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"interviewcoach/internal/upstream/openai"
)

type Kind string

const (
	KindAuthError   Kind = "auth_error"
	KindRateLimited Kind = "rate_limited"
	KindUnavailable Kind = "unavailable"
	KindUnknown     Kind = "unknown"
)

// Policy says what a gateway does with an upstream failure.
type Policy int

const (
	// HardFail returns the translated *Error to the caller.
	HardFail Policy = iota
	// SoftFail swallows the failure and answers with a placeholder value.
	SoftFail
)

func (p Policy) String() string {
	if p == SoftFail {
		return "soft_fail"
	}
	return "hard_fail"
}

// Error is an upstream failure normalized for the HTTP layer. HTTPStatus is
// the status the client sees, which is not necessarily the upstream one.
type Error struct {
	Kind       Kind
	HTTPStatus int
	Message    string
	RawDetails any
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

const (
	msgRateLimited = "Rate limit exceeded. Please try again later."
	msgAuth        = "Authentication error with the feedback service"
	msgAuthDetails = "The server's API credentials were rejected. Contact the administrator."
	msgUnavailable = "Feedback service is unavailable"
	msgUnknown     = "Failed to get feedback"
)

// Translate maps any upstream error into the taxonomy. A nil error yields nil.
//
//	429            -> RateLimited, 429, upstream body forwarded
//	401            -> AuthError, 500, upstream status and body withheld
//	transport/ctx  -> Unavailable, 500
//	anything else  -> Unknown, 500
func Translate(err error) *Error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}

	var upErr *openai.Error
	if errors.As(err, &upErr) {
		switch upErr.StatusCode {
		case http.StatusTooManyRequests:
			return &Error{
				Kind:       KindRateLimited,
				HTTPStatus: http.StatusTooManyRequests,
				Message:    msgRateLimited,
				RawDetails: rawDetails(upErr.Body),
				cause:      err,
			}
		case http.StatusUnauthorized:
			return &Error{
				Kind:       KindAuthError,
				HTTPStatus: http.StatusInternalServerError,
				Message:    msgAuth,
				RawDetails: msgAuthDetails,
				cause:      err,
			}
		default:
			return &Error{
				Kind:       KindUnknown,
				HTTPStatus: http.StatusInternalServerError,
				Message:    msgUnknown,
				RawDetails: rawDetails(upErr.Body),
				cause:      err,
			}
		}
	}

	if isTransportError(err) {
		return &Error{
			Kind:       KindUnavailable,
			HTTPStatus: http.StatusInternalServerError,
			Message:    msgUnavailable,
			RawDetails: err.Error(),
			cause:      err,
		}
	}

	return &Error{
		Kind:       KindUnknown,
		HTTPStatus: http.StatusInternalServerError,
		Message:    msgUnknown,
		RawDetails: err.Error(),
		cause:      err,
	}
}

func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// rawDetails forwards a JSON upstream body as structured JSON, anything else as text.
func rawDetails(body string) any {
	if body == "" {
		return nil
	}
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	return body
}
