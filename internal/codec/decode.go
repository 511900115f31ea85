package codec

import (
	"bytes"
	"fmt"

	"github.com/danmuck/framectl/internal/checksum"
	"github.com/danmuck/framectl/internal/schema"
)

// Result is one successfully decoded frame, tagged with the schema name.
type Result struct {
	Schema string
	Fields map[string]any
}

// Decode validates and extracts one candidate frame. The input is one
// already-isolated buffer, not a stream; resynchronization over a byte stream
// is the caller's responsibility. The buffer is never mutated and repeated
// calls on the same bytes return the same result.
//
// Validation order: total length, header leading byte, footer trailing byte,
// checksum, then field extraction. Multi-byte markers are checked on a single
// byte only: the header's most-significant byte against the first buffer
// byte, the footer's least-significant byte against the last. This partial
// check is carried-over wire behavior, kept so that acceptance of malformed
// input does not silently change.
func Decode(s *schema.FrameSchema, buf []byte) (*Result, error) {
	lay := s.Layout()

	if len(buf) != lay.TotalSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, len(buf), lay.TotalSize)
	}

	if s.Header != nil {
		msb := byte(s.Header.Value >> (8 * (s.Header.Width - 1)))
		if buf[0] != msb {
			return nil, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrHeaderMismatch, buf[0], msb)
		}
	}

	if s.Footer != nil {
		lsb := byte(s.Footer.Value)
		if buf[len(buf)-1] != lsb {
			return nil, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrFooterMismatch, buf[len(buf)-1], lsb)
		}
	}

	if s.Checksum.Algorithm != checksum.None {
		want := checksum.Bytes(s.Checksum.Algorithm, buf[lay.ChecksumStart:lay.ChecksumEnd])
		got := buf[lay.ChecksumPos : lay.ChecksumPos+lay.ChecksumWidth]
		if !bytes.Equal(got, want) {
			return nil, fmt.Errorf("%w: got % X, want % X", ErrChecksumMismatch, got, want)
		}
	}

	order := s.Order()
	fields := make(map[string]any, len(s.Fields))
	for _, fl := range lay.Fields {
		start := lay.PayloadPos + fl.Offset
		fields[fl.Field.Name] = decodeField(fl.Field, buf[start:start+fl.Field.Width()], order)
	}

	return &Result{Schema: s.Name, Fields: fields}, nil
}

// DecodeAny probes buf against every schema in the registry and returns all
// successful decodes, ordered by schema name. An empty slice means no
// registered protocol accepted the buffer.
func DecodeAny(reg *schema.Registry, buf []byte) []*Result {
	var results []*Result
	for _, name := range reg.Names() {
		s, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		if res, err := Decode(s, buf); err == nil {
			results = append(results, res)
		}
	}
	return results
}
