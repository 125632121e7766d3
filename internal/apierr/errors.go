// Package apierr defines the error kinds shared by the external service
// clients and the pipeline.
package apierr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classifying failures from external collaborators.
var (
	// ErrTransient indicates a failure that is safe to retry with backoff
	// (network error, timeout, rate limit, server-side 5xx).
	ErrTransient = errors.New("transient service error")

	// ErrPermanent indicates a failure that will not succeed on retry
	// (auth failure, quota exhausted, request rejected).
	ErrPermanent = errors.New("permanent service error")
)

// ValidationError reports malformed input detected before any external call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("invalid input: %s", e.Msg)
}

// Validation constructs a ValidationError for the given field.
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// ServiceError is a failure reported by an external service.
type ServiceError struct {
	Service    string // "deepgram", "cohere", "pinecone"
	StatusCode int    // HTTP status, 0 for transport-level failures
	Msg        string
	Transient  bool
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Msg)
}

// Unwrap maps the error onto the transient/permanent sentinels so callers
// can classify with errors.Is.
func (e *ServiceError) Unwrap() error {
	if e.Transient {
		return ErrTransient
	}
	return ErrPermanent
}

// FromStatus builds a ServiceError classified by HTTP status code.
// 408, 429 and all 5xx are transient; everything else is permanent.
func FromStatus(service string, status int, msg string) error {
	transient := status == 408 || status == 429 || status >= 500
	return &ServiceError{Service: service, StatusCode: status, Msg: msg, Transient: transient}
}

// Network wraps a transport-level failure (connection refused, timeout)
// as a transient ServiceError.
func Network(service string, err error) error {
	return &ServiceError{Service: service, Msg: err.Error(), Transient: true}
}

// PartialBatchFailure reports an upsert where only part of the batch made
// it into the store. Upserted holds the identifiers confirmed written,
// Failed the identifiers of the batch that was rejected.
type PartialBatchFailure struct {
	Upserted []string
	Failed   []string
	Err      error
}

func (e *PartialBatchFailure) Error() string {
	return fmt.Sprintf("partial batch failure: %d upserted, %d failed (%s): %v",
		len(e.Upserted), len(e.Failed), previewIDs(e.Failed), e.Err)
}

func (e *PartialBatchFailure) Unwrap() error {
	return e.Err
}

func previewIDs(ids []string) string {
	const max = 3
	if len(ids) <= max {
		return strings.Join(ids, ", ")
	}
	return strings.Join(ids[:max], ", ") + ", ..."
}

// IsValidation returns true if the error is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransient returns true if the error is safe to retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsPermanent returns true if the error is a non-retryable service failure.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// IsPartialBatch returns the PartialBatchFailure if the error carries one.
func IsPartialBatch(err error) (*PartialBatchFailure, bool) {
	var pb *PartialBatchFailure
	if errors.As(err, &pb) {
		return pb, true
	}
	return nil, false
}
