package schema

import (
	"golang.org/x/exp/constraints"

	"github.com/danmuck/framectl/internal/checksum"
)

// roundup rounds n up to the nearest multiple of align (align a power of two).
func roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// FieldLayout places one field inside the payload. Offset is relative to the
// start of the payload; Padding zero bytes precede the field so that Offset
// is a multiple of the schema alignment.
type FieldLayout struct {
	Field   FieldSpec
	Padding int
	Offset  int
}

// Layout is the canonical wire placement computed once from a schema. The
// encoder, the decoder and every source emitter consume the same Layout, so
// framing arithmetic has a single source of truth and backends only translate
// value representations.
//
// Segment order: header, length field, payload, checksum, footer. All
// positions are absolute offsets into the frame.
type Layout struct {
	Fields []FieldLayout

	HeaderWidth   int
	LengthWidth   int
	PayloadSize   int
	ChecksumWidth int
	FooterWidth   int

	HeaderPos   int
	LengthPos   int
	PayloadPos  int
	ChecksumPos int
	FooterPos   int
	TotalSize   int

	// ChecksumStart/ChecksumEnd bound the bytes fed to the checksum.
	ChecksumStart int
	ChecksumEnd   int

	// LengthValue is the byte written into the length field, per the
	// schema's length mode and include flags.
	LengthValue int
}

// Layout computes the canonical layout for the schema. It is total over any
// schema value, but only a schema that passed Validate yields a meaningful
// wire layout.
func (s *FrameSchema) Layout() Layout {
	var l Layout

	if s.Header != nil {
		l.HeaderWidth = s.Header.Width
	}
	if s.Length != nil {
		l.LengthWidth = 1
	}
	if s.Footer != nil {
		l.FooterWidth = s.Footer.Width
	}
	l.ChecksumWidth = checksum.Width(s.Checksum.Algorithm)

	align := s.Alignment
	if align < 1 {
		align = 1
	}
	offset := 0
	l.Fields = make([]FieldLayout, len(s.Fields))
	for i, f := range s.Fields {
		aligned := roundup(offset, align)
		l.Fields[i] = FieldLayout{Field: f, Padding: aligned - offset, Offset: aligned}
		offset = aligned + f.Width()
	}
	l.PayloadSize = offset

	l.HeaderPos = 0
	l.LengthPos = l.HeaderWidth
	l.PayloadPos = l.LengthPos + l.LengthWidth
	l.ChecksumPos = l.PayloadPos + l.PayloadSize
	l.FooterPos = l.ChecksumPos + l.ChecksumWidth
	l.TotalSize = l.FooterPos + l.FooterWidth

	switch s.Checksum.Range {
	case RangeFullFrame:
		l.ChecksumStart = l.HeaderPos
	case RangeWithLengthField:
		l.ChecksumStart = l.LengthPos
	default:
		l.ChecksumStart = l.PayloadPos
	}
	l.ChecksumEnd = l.PayloadPos + l.PayloadSize

	if s.Length != nil {
		v := l.PayloadSize
		switch s.Length.Mode {
		case LengthWithChecksum:
			v = l.PayloadSize + l.ChecksumWidth
		case LengthFullFrame:
			v = 1 + l.PayloadSize + l.ChecksumWidth
		}
		// Include flags stack on top of the mode's base value. A schema
		// that double-counts a segment this way overstates the length;
		// that is declared schema responsibility, not corrected here.
		if s.Length.IncludeHeader {
			v += l.HeaderWidth
		}
		if s.Length.IncludeFooter {
			v += l.FooterWidth
		}
		if s.Length.IncludeChecksum {
			v += l.ChecksumWidth
		}
		l.LengthValue = v
	}

	return l
}

// HeaderBytes returns the header marker bytes, most-significant byte first.
// Marker bytes use a fixed MSB-first convention independent of the schema's
// numeric byte order.
func (s *FrameSchema) HeaderBytes() []byte { return markerBytes(s.Header) }

// FooterBytes returns the footer marker bytes, most-significant byte first.
func (s *FrameSchema) FooterBytes() []byte { return markerBytes(s.Footer) }

func markerBytes(m *Marker) []byte {
	if m == nil {
		return nil
	}
	out := make([]byte, m.Width)
	for i := 0; i < m.Width; i++ {
		out[i] = byte(m.Value >> (8 * (m.Width - 1 - i)))
	}
	return out
}
