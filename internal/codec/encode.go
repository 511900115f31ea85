// Package codec implements the runtime frame encoder and decoder. Both are
// pure functions over an immutable schema and are safe for concurrent use.
package codec

import (
	"fmt"

	"github.com/danmuck/framectl/internal/checksum"
	"github.com/danmuck/framectl/internal/schema"
)

// Encode assembles one frame from values. The key set of values must exactly
// match the schema's field names; every field must serialize to its declared
// width. The returned buffer always has the schema's fixed total size.
//
// Segment order: header (MSB-first), length field, aligned payload, checksum
// over the configured range, footer (MSB-first). The length byte is written
// before the checksum is computed so that ranges covering the length field
// checksum the value a receiver will see.
func Encode(s *schema.FrameSchema, values map[string]any) ([]byte, error) {
	if err := checkFieldSet(s, values); err != nil {
		return nil, err
	}

	lay := s.Layout()
	order := s.Order()
	buf := make([]byte, lay.TotalSize)

	copy(buf[lay.HeaderPos:], s.HeaderBytes())
	if s.Length != nil {
		buf[lay.LengthPos] = byte(lay.LengthValue)
	}

	for _, fl := range lay.Fields {
		b, err := encodeField(fl.Field, values[fl.Field.Name], order)
		if err != nil {
			return nil, err
		}
		if len(b) != fl.Field.Width() {
			return nil, fmt.Errorf("%w: field %q produced %d bytes, want %d",
				ErrSizeMismatch, fl.Field.Name, len(b), fl.Field.Width())
		}
		copy(buf[lay.PayloadPos+fl.Offset:], b)
	}

	if s.Checksum.Algorithm != checksum.None {
		sum := checksum.Bytes(s.Checksum.Algorithm, buf[lay.ChecksumStart:lay.ChecksumEnd])
		copy(buf[lay.ChecksumPos:], sum)
	}

	copy(buf[lay.FooterPos:], s.FooterBytes())
	return buf, nil
}

func checkFieldSet(s *schema.FrameSchema, values map[string]any) error {
	for _, f := range s.Fields {
		if _, ok := values[f.Name]; !ok {
			return fmt.Errorf("%w: missing field %q", ErrFieldMismatch, f.Name)
		}
	}
	if len(values) != len(s.Fields) {
		known := make(map[string]bool, len(s.Fields))
		for _, f := range s.Fields {
			known[f.Name] = true
		}
		for name := range values {
			if !known[name] {
				return fmt.Errorf("%w: unknown field %q", ErrFieldMismatch, name)
			}
		}
	}
	return nil
}
