// Package schema owns the declarative frame description and its canonical
// wire layout.
//
// Ownership boundary:
// - field and frame schema types, validated once at construction
// - layout computation (offsets, padding, checksum range, total size)
// - schema document loading (JSON and TOML)
// - concurrent schema registry
package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/danmuck/framectl/internal/checksum"
)

// FieldType names one primitive payload field type.
type FieldType string

const (
	TypeInt32   FieldType = "int32"
	TypeUint8   FieldType = "uint8"
	TypeUint16  FieldType = "uint16"
	TypeInt8    FieldType = "int8"
	TypeInt16   FieldType = "int16"
	TypeFloat32 FieldType = "float32"
	TypeBool    FieldType = "bool"
	TypeChar    FieldType = "char"
)

// ByteOrder selects how multi-byte numeric payload fields are serialized.
// Header and footer markers are always MSB-first regardless of this setting.
type ByteOrder string

const (
	LittleEndian ByteOrder = "little"
	BigEndian    ByteOrder = "big"
)

// ChecksumRange selects which frame segments feed the checksum.
type ChecksumRange string

const (
	RangeDataOnly        ChecksumRange = "data_only"
	RangeWithLengthField ChecksumRange = "with_length_field"
	RangeFullFrame       ChecksumRange = "full_frame"
)

// LengthMode selects the base value encoded in the length field.
type LengthMode string

const (
	LengthDataOnly     LengthMode = "data_only"
	LengthWithChecksum LengthMode = "with_checksum"
	LengthFullFrame    LengthMode = "full_frame"
)

// FieldSpec describes one payload field. Length is the fixed byte count for
// char fields and zero otherwise.
type FieldSpec struct {
	Name   string
	Type   FieldType
	Length int
}

// Width returns the serialized byte width of the field, or 0 for an
// unknown type.
func (f FieldSpec) Width() int {
	switch f.Type {
	case TypeInt32, TypeFloat32:
		return 4
	case TypeUint16, TypeInt16:
		return 2
	case TypeUint8, TypeInt8, TypeBool:
		return 1
	case TypeChar:
		return f.Length
	}
	return 0
}

// Marker is a fixed header or footer value with its wire width in bytes.
type Marker struct {
	Value uint64
	Width int
}

// LengthField configures the optional single length byte. The include flags
// are applied on top of the mode's base value; a schema combining
// LengthFullFrame with include flags double-counts those segments, which is
// the schema author's responsibility.
type LengthField struct {
	Mode            LengthMode
	IncludeHeader   bool
	IncludeFooter   bool
	IncludeChecksum bool
}

// Checksum configures the integrity algorithm and its input range.
type Checksum struct {
	Algorithm checksum.Algorithm
	Range     ChecksumRange
}

// FrameSchema is the immutable description of one frame layout. It drives
// the runtime codec and every source emitter. Validate must pass before a
// schema is handed to either.
type FrameSchema struct {
	Name      string
	Fields    []FieldSpec
	Header    *Marker
	Footer    *Marker
	Length    *LengthField
	Checksum  Checksum
	Alignment int
	ByteOrder ByteOrder
}

// SchemaError reports a schema rejected at construction.
type SchemaError struct {
	Name string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %q: %v", e.Name, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Order returns the binary byte order for numeric payload fields.
func (s *FrameSchema) Order() binary.ByteOrder {
	if s.ByteOrder == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Validate checks the schema once at construction time. All findings are
// collected so an author sees every problem in one pass.
func (s *FrameSchema) Validate() error {
	var errs *multierror.Error

	if s.Name == "" {
		errs = multierror.Append(errs, fmt.Errorf("missing name"))
	}
	if len(s.Fields) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("no fields"))
	}

	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("field[%d]: missing name", i))
		}
		if seen[f.Name] {
			errs = multierror.Append(errs, fmt.Errorf("field[%d] %q: duplicate name", i, f.Name))
		}
		seen[f.Name] = true

		switch f.Type {
		case TypeInt32, TypeUint8, TypeUint16, TypeInt8, TypeInt16, TypeFloat32, TypeBool:
			if f.Length != 0 {
				errs = multierror.Append(errs, fmt.Errorf("field[%d] %q: length only applies to char", i, f.Name))
			}
		case TypeChar:
			if f.Length <= 0 {
				errs = multierror.Append(errs, fmt.Errorf("field[%d] %q: char requires length > 0", i, f.Name))
			}
		default:
			errs = multierror.Append(errs, fmt.Errorf("field[%d] %q: unknown type %q", i, f.Name, f.Type))
		}
		if f.Width() == 0 && f.Type != TypeChar {
			errs = multierror.Append(errs, fmt.Errorf("field[%d] %q: zero width", i, f.Name))
		}
	}

	if s.Header != nil && (s.Header.Width < 1 || s.Header.Width > 8) {
		errs = multierror.Append(errs, fmt.Errorf("header width %d out of range 1..8", s.Header.Width))
	}
	if s.Footer != nil && (s.Footer.Width < 1 || s.Footer.Width > 8) {
		errs = multierror.Append(errs, fmt.Errorf("footer width %d out of range 1..8", s.Footer.Width))
	}

	if s.Length != nil {
		switch s.Length.Mode {
		case LengthDataOnly, LengthWithChecksum, LengthFullFrame:
		default:
			errs = multierror.Append(errs, fmt.Errorf("unknown length mode %q", s.Length.Mode))
		}
		// The length field is a single byte on the wire; a schema whose
		// declared measure overflows it would encode a truncated value.
		if v := s.Layout().LengthValue; v > 0xFF {
			errs = multierror.Append(errs, fmt.Errorf("length field value %d does not fit one byte", v))
		}
	}

	if !checksum.Valid(s.Checksum.Algorithm) {
		errs = multierror.Append(errs, fmt.Errorf("unknown checksum algorithm %q", s.Checksum.Algorithm))
	}
	switch s.Checksum.Range {
	case RangeDataOnly, RangeWithLengthField, RangeFullFrame:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown checksum range %q", s.Checksum.Range))
	}

	switch s.Alignment {
	case 1, 2, 4, 8:
	default:
		errs = multierror.Append(errs, fmt.Errorf("alignment %d not one of 1,2,4,8", s.Alignment))
	}

	switch s.ByteOrder {
	case LittleEndian, BigEndian:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown byte order %q", s.ByteOrder))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return &SchemaError{Name: s.Name, Err: err}
	}
	return nil
}
