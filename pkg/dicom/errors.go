package dicom

import (
	"fmt"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
)

// ParseReason categorizes why a byte stream could not be parsed
type ParseReason string

const (
	ReasonMissingPreamble           ParseReason = "missing-preamble"
	ReasonUnsupportedTransferSyntax ParseReason = "unsupported-transfer-syntax"
	ReasonTruncatedStream           ParseReason = "truncated-stream"
	ReasonInvalidVR                 ParseReason = "invalid-vr"
)

// ParseError reports a malformed or unsupported input stream. Parsing a
// batch of files continues past a ParseError on one of them.
type ParseError struct {
	Reason ParseReason
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse failed (%s) at offset %d: %v", e.Reason, e.Offset, e.Err)
	}
	return fmt.Sprintf("parse failed (%s) at offset %d", e.Reason, e.Offset)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(reason ParseReason, offset int64, format string, args ...interface{}) *ParseError {
	return &ParseError{Reason: reason, Offset: offset, Err: fmt.Errorf(format, args...)}
}

// SerializeReason categorizes why a dataset could not be written
type SerializeReason string

const (
	ReasonInvalidValueForVR SerializeReason = "invalid-value-for-vr"
	ReasonEncodingOverflow  SerializeReason = "encoding-overflow"
)

// SerializeError reports an edited value that cannot be legally encoded.
// A failed save leaves the target file untouched.
type SerializeError struct {
	Reason SerializeReason
	Tag    tag.Tag
	Err    error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("serialize failed (%s) for %s: %v", e.Reason, e.Tag, e.Err)
}

func (e *SerializeError) Unwrap() error { return e.Err }

// ValidationReason categorizes a rejected edit
type ValidationReason string

const (
	ReasonVRMismatch            ValidationReason = "vr-mismatch"
	ReasonMultiplicityViolation ValidationReason = "multiplicity-violation"
)

// ValidationError reports an edit that violates the element's VR or
// multiplicity rules. The original value is always retained.
type ValidationError struct {
	Reason ValidationReason
	Tag    tag.Tag
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value (%s) for %s: %v", e.Reason, e.Tag, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrTagNotFound is returned by Get for a tag absent from the dataset
type ErrTagNotFound struct {
	Tag tag.Tag
}

func (e *ErrTagNotFound) Error() string {
	return fmt.Sprintf("tag %s not found", e.Tag)
}
