package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/danmuck/framectl/internal/schema"
)

// encodeField serializes value into exactly f.Width() bytes using order for
// multi-byte numerics. char fields are copied verbatim, truncated or
// zero-padded to their declared length.
func encodeField(f schema.FieldSpec, value any, order binary.ByteOrder) ([]byte, error) {
	switch f.Type {
	case schema.TypeInt32:
		n, err := intValue(f, value, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		order.PutUint32(buf, uint32(int32(n)))
		return buf, nil
	case schema.TypeUint8:
		n, err := intValue(f, value, 0, math.MaxUint8)
		if err != nil {
			return nil, err
		}
		return []byte{byte(n)}, nil
	case schema.TypeUint16:
		n, err := intValue(f, value, 0, math.MaxUint16)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 2)
		order.PutUint16(buf, uint16(n))
		return buf, nil
	case schema.TypeInt8:
		n, err := intValue(f, value, math.MinInt8, math.MaxInt8)
		if err != nil {
			return nil, err
		}
		return []byte{byte(int8(n))}, nil
	case schema.TypeInt16:
		n, err := intValue(f, value, math.MinInt16, math.MaxInt16)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 2)
		order.PutUint16(buf, uint16(int16(n)))
		return buf, nil
	case schema.TypeFloat32:
		fv, err := floatValue(f, value)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		order.PutUint32(buf, math.Float32bits(fv))
		return buf, nil
	case schema.TypeBool:
		b, err := boolValue(f, value)
		if err != nil {
			return nil, err
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case schema.TypeChar:
		raw, err := charValue(f, value)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, f.Length)
		copy(buf, raw)
		return buf, nil
	}
	return nil, fmt.Errorf("%w: field %q has unknown type %q", ErrSizeMismatch, f.Name, f.Type)
}

// decodeField reads f.Width() bytes from b. char fields are trimmed of
// trailing zero bytes; bool decodes any nonzero byte as true.
func decodeField(f schema.FieldSpec, b []byte, order binary.ByteOrder) any {
	switch f.Type {
	case schema.TypeInt32:
		return int32(order.Uint32(b))
	case schema.TypeUint8:
		return b[0]
	case schema.TypeUint16:
		return order.Uint16(b)
	case schema.TypeInt8:
		return int8(b[0])
	case schema.TypeInt16:
		return int16(order.Uint16(b))
	case schema.TypeFloat32:
		return math.Float32frombits(order.Uint32(b))
	case schema.TypeBool:
		return b[0] != 0
	case schema.TypeChar:
		return strings.TrimRight(string(b), "\x00")
	}
	return nil
}

func intValue(f schema.FieldSpec, value any, min, max int64) (int64, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: field %q: non-integral value %v", ErrSizeMismatch, f.Name, v)
		}
		n = int64(v)
	default:
		return 0, fmt.Errorf("%w: field %q: cannot serialize %T as %s", ErrSizeMismatch, f.Name, value, f.Type)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%w: field %q: value %d out of range for %s", ErrSizeMismatch, f.Name, n, f.Type)
	}
	return n, nil
}

func floatValue(f schema.FieldSpec, value any) (float32, error) {
	switch v := value.(type) {
	case float32:
		return v, nil
	case float64:
		return float32(v), nil
	case int:
		return float32(v), nil
	case int32:
		return float32(v), nil
	case int64:
		return float32(v), nil
	}
	return 0, fmt.Errorf("%w: field %q: cannot serialize %T as %s", ErrSizeMismatch, f.Name, value, f.Type)
}

func boolValue(f schema.FieldSpec, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	}
	return false, fmt.Errorf("%w: field %q: cannot serialize %T as %s", ErrSizeMismatch, f.Name, value, f.Type)
}

func charValue(f schema.FieldSpec, value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	}
	return nil, fmt.Errorf("%w: field %q: cannot serialize %T as %s", ErrSizeMismatch, f.Name, value, f.Type)
}
