package emit

import (
	"fmt"
	"strings"

	"github.com/danmuck/framectl/internal/checksum"
	"github.com/danmuck/framectl/internal/schema"
)

type pyEmitter struct{}

func (pyEmitter) Language() string { return "python" }

func (pyEmitter) FileName(s *schema.FrameSchema, side Side) string {
	return fmt.Sprintf("%s_%s.py", s.Name, side)
}

func (pyEmitter) Emit(s *schema.FrameSchema) (string, error) {
	lay := s.Layout()
	format, err := pyStructFormat(s, lay)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s: frame codec generated from schema. Do not edit by hand.\n", s.Name)
	b.WriteString("import struct\n\n")

	fmt.Fprintf(&b, "PACKET_PAYLOAD_SIZE = %d\n", lay.PayloadSize)
	fmt.Fprintf(&b, "PACKET_TOTAL_SIZE = %d\n", lay.TotalSize)
	fmt.Fprintf(&b, "PACKET_FMT = '%s'\n", format)
	if s.Header != nil {
		fmt.Fprintf(&b, "PACKET_HEADER = bytes([%s])\n", pyByteList(s.HeaderBytes()))
	}
	if s.Footer != nil {
		fmt.Fprintf(&b, "PACKET_FOOTER = bytes([%s])\n", pyByteList(s.FooterBytes()))
	}
	fmt.Fprintf(&b, "_PAYLOAD_POS = %d\n", lay.PayloadPos)
	if s.Length != nil {
		fmt.Fprintf(&b, "_LENGTH_POS = %d\n", lay.LengthPos)
		fmt.Fprintf(&b, "_LENGTH_VALUE = %d\n", byte(lay.LengthValue))
	}
	if s.Checksum.Algorithm != checksum.None {
		fmt.Fprintf(&b, "_CHECKSUM_POS = %d\n", lay.ChecksumPos)
		fmt.Fprintf(&b, "_CHECKSUM_START = %d\n", lay.ChecksumStart)
		fmt.Fprintf(&b, "_CHECKSUM_END = %d\n", lay.ChecksumEnd)
	}
	b.WriteString("\n")

	if fn := pyChecksumFunc(s.Checksum.Algorithm); fn != "" {
		b.WriteString(fn)
		b.WriteString("\n")
	}

	// encode
	b.WriteString("def encode(obj):\n")
	packArgs := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		switch f.Type {
		case schema.TypeChar:
			packArgs = append(packArgs,
				fmt.Sprintf("obj['%s'].encode('utf-8')[:%d].ljust(%d, b'\\x00')", f.Name, f.Length, f.Length))
		case schema.TypeBool:
			packArgs = append(packArgs, fmt.Sprintf("bool(obj['%s'])", f.Name))
		default:
			packArgs = append(packArgs, fmt.Sprintf("obj['%s']", f.Name))
		}
	}
	fmt.Fprintf(&b, "    payload = struct.pack(PACKET_FMT, %s)\n", strings.Join(packArgs, ", "))
	b.WriteString("    if len(payload) != PACKET_PAYLOAD_SIZE:\n")
	b.WriteString("        raise ValueError('packed size mismatch')\n")
	b.WriteString("    frame = bytearray(PACKET_TOTAL_SIZE)\n")
	if s.Header != nil {
		fmt.Fprintf(&b, "    frame[%d:%d] = PACKET_HEADER\n", lay.HeaderPos, lay.HeaderPos+lay.HeaderWidth)
	}
	if s.Length != nil {
		b.WriteString("    frame[_LENGTH_POS] = _LENGTH_VALUE\n")
	}
	b.WriteString("    frame[_PAYLOAD_POS:_PAYLOAD_POS + PACKET_PAYLOAD_SIZE] = payload\n")
	if s.Checksum.Algorithm != checksum.None {
		b.WriteString("    chk = _checksum(frame[_CHECKSUM_START:_CHECKSUM_END])\n")
		b.WriteString("    frame[_CHECKSUM_POS] = chk & 0xFF\n")
		if lay.ChecksumWidth == 2 {
			b.WriteString("    frame[_CHECKSUM_POS + 1] = (chk >> 8) & 0xFF\n")
		}
	}
	if s.Footer != nil {
		fmt.Fprintf(&b, "    frame[%d:%d] = PACKET_FOOTER\n", lay.FooterPos, lay.FooterPos+lay.FooterWidth)
	}
	b.WriteString("    return bytes(frame)\n\n")

	// decode
	b.WriteString("def decode(buf):\n")
	b.WriteString("    if len(buf) != PACKET_TOTAL_SIZE:\n")
	b.WriteString("        raise ValueError('length mismatch')\n")
	if s.Header != nil {
		b.WriteString("    if buf[0] != PACKET_HEADER[0]:\n")
		b.WriteString("        raise ValueError('header mismatch')\n")
	}
	if s.Footer != nil {
		b.WriteString("    if buf[-1] != PACKET_FOOTER[-1]:\n")
		b.WriteString("        raise ValueError('footer mismatch')\n")
	}
	if s.Checksum.Algorithm != checksum.None {
		b.WriteString("    chk = _checksum(buf[_CHECKSUM_START:_CHECKSUM_END])\n")
		b.WriteString("    if buf[_CHECKSUM_POS] != chk & 0xFF:\n")
		b.WriteString("        raise ValueError('checksum mismatch')\n")
		if lay.ChecksumWidth == 2 {
			b.WriteString("    if buf[_CHECKSUM_POS + 1] != (chk >> 8) & 0xFF:\n")
			b.WriteString("        raise ValueError('checksum mismatch')\n")
		}
	}
	b.WriteString("    vals = struct.unpack(PACKET_FMT, bytes(buf[_PAYLOAD_POS:_PAYLOAD_POS + PACKET_PAYLOAD_SIZE]))\n")
	b.WriteString("    obj = {}\n")
	for i, f := range s.Fields {
		switch f.Type {
		case schema.TypeChar:
			fmt.Fprintf(&b, "    obj['%s'] = vals[%d].rstrip(b'\\x00').decode('utf-8', errors='ignore')\n", f.Name, i)
		case schema.TypeBool:
			fmt.Fprintf(&b, "    obj['%s'] = bool(vals[%d])\n", f.Name, i)
		default:
			fmt.Fprintf(&b, "    obj['%s'] = vals[%d]\n", f.Name, i)
		}
	}
	b.WriteString("    return obj\n")

	return b.String(), nil
}

// pyStructFormat renders the payload as one struct format string. Alignment
// padding appears as explicit 'x' pad bytes so the format mirrors the
// canonical layout instead of re-deriving it.
func pyStructFormat(s *schema.FrameSchema, lay schema.Layout) (string, error) {
	var b strings.Builder
	if s.ByteOrder == schema.BigEndian {
		b.WriteString(">")
	} else {
		b.WriteString("<")
	}
	for _, fl := range lay.Fields {
		if fl.Padding > 0 {
			fmt.Fprintf(&b, "%dx", fl.Padding)
		}
		switch fl.Field.Type {
		case schema.TypeInt32:
			b.WriteString("i")
		case schema.TypeUint8:
			b.WriteString("B")
		case schema.TypeUint16:
			b.WriteString("H")
		case schema.TypeInt8:
			b.WriteString("b")
		case schema.TypeInt16:
			b.WriteString("h")
		case schema.TypeFloat32:
			b.WriteString("f")
		case schema.TypeBool:
			b.WriteString("?")
		case schema.TypeChar:
			fmt.Fprintf(&b, "%ds", fl.Field.Length)
		default:
			return "", fmt.Errorf("field %q: no struct format for type %q", fl.Field.Name, fl.Field.Type)
		}
	}
	return b.String(), nil
}

func pyByteList(bs []byte) string {
	parts := make([]string, len(bs))
	for i, v := range bs {
		parts[i] = fmt.Sprintf("0x%02X", v)
	}
	return strings.Join(parts, ", ")
}

func pyChecksumFunc(alg checksum.Algorithm) string {
	switch alg {
	case checksum.Sum:
		return `def _checksum(buf):
    return sum(buf) & 0xFF
`
	case checksum.Xor:
		return `def _checksum(buf):
    x = 0
    for b in buf:
        x ^= b
    return x
`
	case checksum.CRC8:
		return `def _checksum(buf):
    crc = 0
    for b in buf:
        crc ^= b
        for _ in range(8):
            if crc & 0x80:
                crc = ((crc << 1) ^ 0x07) & 0xFF
            else:
                crc = (crc << 1) & 0xFF
    return crc
`
	case checksum.CRC16:
		return `def _checksum(buf):
    crc = 0
    for b in buf:
        crc ^= b << 8
        for _ in range(8):
            if crc & 0x8000:
                crc = ((crc << 1) ^ 0x1021) & 0xFFFF
            else:
                crc = (crc << 1) & 0xFFFF
    return crc
`
	}
	return ""
}
