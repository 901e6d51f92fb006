package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrorKind classifies a failed model call
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindQuota
	KindAuth
	KindEmptyResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindAuth:
		return "auth"
	case KindEmptyResponse:
		return "empty_response"
	default:
		return "other"
	}
}

// Sentinels matched by TransportError.Is
var (
	ErrQuotaExceeded      = errors.New("ai: quota exceeded")
	ErrInvalidCredentials = errors.New("ai: invalid credentials")
	ErrEmptyResponse      = errors.New("ai: empty response")
)

// TransportError is a failed call to the model. Message is the text shown to
// the user; Err keeps the upstream diagnostic.
type TransportError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrQuotaExceeded:
		return e.Kind == KindQuota
	case ErrInvalidCredentials:
		return e.Kind == KindAuth
	case ErrEmptyResponse:
		return e.Kind == KindEmptyResponse
	}
	return false
}

// Retryable is true only for quota exhaustion
func (e *TransportError) Retryable() bool {
	return e.Kind == KindQuota
}

// AsTransportError extracts a TransportError from err
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// classifyAnalysisError wraps a failed analysis call
func classifyAnalysisError(err error) *TransportError {
	switch kind := classify(err); kind {
	case KindQuota:
		return &TransportError{
			Kind:    kind,
			Message: "API request limit reached. Please try again later or check your API quota. (Error 429)",
			Err:     err,
		}
	case KindAuth:
		return &TransportError{
			Kind:    kind,
			Message: "Invalid API Key. Please check your OPENAI_API_KEY configuration.",
			Err:     err,
		}
	default:
		return &TransportError{
			Kind:    kind,
			Message: fmt.Sprintf("Failed to get analysis from AI: %s", err.Error()),
			Err:     err,
		}
	}
}

// classifyChatError wraps a failed assistant turn
func classifyChatError(err error) *TransportError {
	return &TransportError{
		Kind:    classify(err),
		Message: fmt.Sprintf("AI Assistant failed to respond: %s", err.Error()),
		Err:     err,
	}
}

func emptyResponseError(what string) *TransportError {
	return &TransportError{
		Kind:    KindEmptyResponse,
		Message: fmt.Sprintf("Received empty response from %s.", what),
		Err:     ErrEmptyResponse,
	}
}

// classify reads the HTTP status carried by go-openai errors and falls back
// to message matching for proxies that rewrap them.
func classify(err error) ErrorKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if kind, ok := kindForStatus(apiErr.HTTPStatusCode); ok {
			return kind
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if kind, ok := kindForStatus(reqErr.HTTPStatusCode); ok {
			return kind
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"):
		return KindQuota
	case strings.Contains(msg, "api key not valid"),
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "incorrect api key"):
		return KindAuth
	}
	return KindOther
}

func kindForStatus(code int) (ErrorKind, bool) {
	switch code {
	case http.StatusTooManyRequests:
		return KindQuota, true
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth, true
	}
	return KindOther, false
}
