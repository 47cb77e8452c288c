package sentiment

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures surfaced by the pipeline.
type ErrorKind string

const (
	// KindValidation indicates a malformed batch or text.
	KindValidation ErrorKind = "validation"
	// KindUnavailable indicates no artifact is loaded.
	KindUnavailable ErrorKind = "unavailable"
	// KindInference indicates an unexpected failure while predicting.
	KindInference ErrorKind = "inference"
	// KindTraining indicates a training run was aborted.
	KindTraining ErrorKind = "training"
	// KindCanceled indicates the caller gave up before a batch was classified.
	KindCanceled ErrorKind = "canceled"
)

// Error is a categorized pipeline error.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Sentinels for errors.Is. Any *Error of the same Kind matches.
var (
	ErrValidation  = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrUnavailable = &Error{Kind: KindUnavailable, Message: "model artifacts not loaded"}
	ErrInference   = &Error{Kind: KindInference, Message: "inference failed"}
	ErrTraining    = &Error{Kind: KindTraining, Message: "training failed"}
	ErrCanceled    = &Error{Kind: KindCanceled, Message: "request canceled"}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// ValidationError reports a request that violates batch or text limits.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ArtifactUnavailable reports that no artifact is ready to serve.
func ArtifactUnavailable(cause error) *Error {
	return &Error{Kind: KindUnavailable, Message: "model artifacts not loaded", Cause: cause}
}

// InferenceError reports an unexpected failure during prediction.
func InferenceError(message string, cause error) *Error {
	return &Error{Kind: KindInference, Message: message, Cause: cause}
}

// TrainingFailure reports an aborted training run.
func TrainingFailure(message string, cause error) *Error {
	return &Error{Kind: KindTraining, Message: message, Cause: cause}
}

// RequestCanceled reports a batch abandoned because its context ended.
func RequestCanceled(cause error) *Error {
	return &Error{Kind: KindCanceled, Message: "request canceled", Cause: cause}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
