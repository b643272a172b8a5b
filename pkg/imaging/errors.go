package imaging

import "fmt"

// DecodeReason categorizes why pixel data could not be decoded
type DecodeReason string

const (
	ReasonUnsupportedTransferSyntax DecodeReason = "unsupported-transfer-syntax"
	ReasonMissingPixelData          DecodeReason = "missing-pixel-data"
	ReasonCodecUnavailable          DecodeReason = "codec-unavailable"
)

// DecodeError reports unusable pixel data. It is recoverable: the UI shows
// a placeholder thumbnail and metadata stays browsable.
type DecodeError struct {
	Reason DecodeReason
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pixel decode failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("pixel decode failed (%s)", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// GenerationReason categorizes a thumbnail rendering failure
type GenerationReason string

const (
	ReasonEmptyBuffer            GenerationReason = "empty-buffer"
	ReasonUnsupportedPhotometric GenerationReason = "unsupported-photometric"
)

// GenerationError reports a buffer that cannot be rendered as a preview
type GenerationError struct {
	Reason GenerationReason
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("thumbnail generation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("thumbnail generation failed (%s)", e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }
