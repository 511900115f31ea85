package codec

import "errors"

var (
	// Encode-time failures, caller-correctable.
	ErrFieldMismatch = errors.New("codec: field set does not match schema")
	ErrSizeMismatch  = errors.New("codec: field value does not serialize to declared width")

	// Decode-time failures, expected on noisy input. Callers discard the
	// candidate buffer and move on; the same bytes will fail the same way.
	ErrLengthMismatch   = errors.New("codec: buffer length does not match frame size")
	ErrHeaderMismatch   = errors.New("codec: header marker mismatch")
	ErrFooterMismatch   = errors.New("codec: footer marker mismatch")
	ErrChecksumMismatch = errors.New("codec: checksum mismatch")
)
