package emit

import (
	"fmt"
	"strings"

	"github.com/danmuck/framectl/internal/checksum"
	"github.com/danmuck/framectl/internal/schema"
)

type cEmitter struct{}

func (cEmitter) Language() string { return "c" }

func (cEmitter) FileName(s *schema.FrameSchema, side Side) string {
	return fmt.Sprintf("%s_%s.c", s.Name, side)
}

func (cEmitter) Emit(s *schema.FrameSchema) (string, error) {
	return emitC(s, "#include <stdint.h>\n#include <string.h>")
}

// cppEmitter reuses the C body with C++ includes.
type cppEmitter struct{}

func (cppEmitter) Language() string { return "cpp" }

func (cppEmitter) FileName(s *schema.FrameSchema, side Side) string {
	return fmt.Sprintf("%s_%s.cpp", s.Name, side)
}

func (cppEmitter) Emit(s *schema.FrameSchema) (string, error) {
	return emitC(s, "#include <cstdint>\n#include <cstring>")
}

func cType(t schema.FieldType) string {
	switch t {
	case schema.TypeInt32:
		return "int32_t"
	case schema.TypeUint8, schema.TypeBool:
		return "uint8_t"
	case schema.TypeUint16:
		return "uint16_t"
	case schema.TypeInt8:
		return "int8_t"
	case schema.TypeInt16:
		return "int16_t"
	case schema.TypeFloat32:
		return "float"
	}
	return ""
}

func emitC(s *schema.FrameSchema, includes string) (string, error) {
	lay := s.Layout()
	var b strings.Builder

	fmt.Fprintf(&b, "/* %s: frame codec generated from schema. Do not edit by hand. */\n", s.Name)
	b.WriteString(includes)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "static const int PACKET_PAYLOAD_SIZE = %d;\n", lay.PayloadSize)
	fmt.Fprintf(&b, "static const int PACKET_TOTAL_SIZE = %d;\n", lay.TotalSize)
	if s.Header != nil {
		fmt.Fprintf(&b, "static const uint64_t PACKET_HEADER = 0x%X;\n", s.Header.Value)
		fmt.Fprintf(&b, "static const int PACKET_HEADER_LEN = %d;\n", s.Header.Width)
	}
	if s.Footer != nil {
		fmt.Fprintf(&b, "static const uint64_t PACKET_FOOTER = 0x%X;\n", s.Footer.Value)
		fmt.Fprintf(&b, "static const int PACKET_FOOTER_LEN = %d;\n", s.Footer.Width)
	}
	b.WriteString("\n")

	if fn := cChecksumFunc(s.Checksum.Algorithm); fn != "" {
		b.WriteString(fn)
		b.WriteString("\n")
	}

	b.WriteString("typedef struct {\n")
	for _, f := range s.Fields {
		if f.Type == schema.TypeChar {
			fmt.Fprintf(&b, "    char %s[%d];\n", f.Name, f.Length)
			continue
		}
		ct := cType(f.Type)
		if ct == "" {
			return "", fmt.Errorf("field %q: no C mapping for type %q", f.Name, f.Type)
		}
		fmt.Fprintf(&b, "    %s %s;\n", ct, f.Name)
	}
	fmt.Fprintf(&b, "} %s;\n\n", s.Name)

	if h := cHelpers(s); h != "" {
		b.WriteString(h)
		b.WriteString("\n")
	}

	// encode writes every segment at its absolute layout offset.
	fmt.Fprintf(&b, "int encode(const %s *in, unsigned char *out) {\n", s.Name)
	b.WriteString("    memset(out, 0, (size_t)PACKET_TOTAL_SIZE);\n")
	for i, hb := range s.HeaderBytes() {
		fmt.Fprintf(&b, "    out[%d] = 0x%02Xu;\n", lay.HeaderPos+i, hb)
	}
	if s.Length != nil {
		fmt.Fprintf(&b, "    out[%d] = %du; /* length field */\n", lay.LengthPos, byte(lay.LengthValue))
	}
	for _, fl := range lay.Fields {
		off := lay.PayloadPos + fl.Offset
		f := fl.Field
		switch f.Type {
		case schema.TypeInt32:
			fmt.Fprintf(&b, "    put_u32(out + %d, (uint32_t)in->%s);\n", off, f.Name)
		case schema.TypeFloat32:
			fmt.Fprintf(&b, "    { uint32_t bits; memcpy(&bits, &in->%s, 4); put_u32(out + %d, bits); }\n", f.Name, off)
		case schema.TypeUint16:
			fmt.Fprintf(&b, "    put_u16(out + %d, in->%s);\n", off, f.Name)
		case schema.TypeInt16:
			fmt.Fprintf(&b, "    put_u16(out + %d, (uint16_t)in->%s);\n", off, f.Name)
		case schema.TypeUint8:
			fmt.Fprintf(&b, "    out[%d] = in->%s;\n", off, f.Name)
		case schema.TypeInt8:
			fmt.Fprintf(&b, "    out[%d] = (unsigned char)in->%s;\n", off, f.Name)
		case schema.TypeBool:
			fmt.Fprintf(&b, "    out[%d] = in->%s ? 1u : 0u;\n", off, f.Name)
		case schema.TypeChar:
			fmt.Fprintf(&b, "    memcpy(out + %d, in->%s, %d);\n", off, f.Name, f.Length)
		default:
			return "", fmt.Errorf("field %q: no C mapping for type %q", f.Name, f.Type)
		}
	}
	if s.Checksum.Algorithm != checksum.None {
		fmt.Fprintf(&b, "    { uint16_t c = packet_checksum(out + %d, %d);\n",
			lay.ChecksumStart, lay.ChecksumEnd-lay.ChecksumStart)
		fmt.Fprintf(&b, "      out[%d] = (unsigned char)(c & 0xFFu);\n", lay.ChecksumPos)
		if lay.ChecksumWidth == 2 {
			fmt.Fprintf(&b, "      out[%d] = (unsigned char)(c >> 8);\n", lay.ChecksumPos+1)
		}
		b.WriteString("    }\n")
	}
	for i, fb := range s.FooterBytes() {
		fmt.Fprintf(&b, "    out[%d] = 0x%02Xu;\n", lay.FooterPos+i, fb)
	}
	b.WriteString("    return PACKET_TOTAL_SIZE;\n}\n\n")

	// decode: 0 ok, -1 length, -2 header, -3 footer, -4 checksum.
	fmt.Fprintf(&b, "int decode(const unsigned char *in, int len, %s *out) {\n", s.Name)
	b.WriteString("    if (len != PACKET_TOTAL_SIZE) return -1;\n")
	if s.Header != nil {
		msb := byte(s.Header.Value >> (8 * (s.Header.Width - 1)))
		fmt.Fprintf(&b, "    if (in[0] != 0x%02Xu) return -2;\n", msb)
	}
	if s.Footer != nil {
		fmt.Fprintf(&b, "    if (in[len - 1] != 0x%02Xu) return -3;\n", byte(s.Footer.Value))
	}
	if s.Checksum.Algorithm != checksum.None {
		fmt.Fprintf(&b, "    { uint16_t c = packet_checksum(in + %d, %d);\n",
			lay.ChecksumStart, lay.ChecksumEnd-lay.ChecksumStart)
		fmt.Fprintf(&b, "      if (in[%d] != (unsigned char)(c & 0xFFu)) return -4;\n", lay.ChecksumPos)
		if lay.ChecksumWidth == 2 {
			fmt.Fprintf(&b, "      if (in[%d] != (unsigned char)(c >> 8)) return -4;\n", lay.ChecksumPos+1)
		}
		b.WriteString("    }\n")
	}
	for _, fl := range lay.Fields {
		off := lay.PayloadPos + fl.Offset
		f := fl.Field
		switch f.Type {
		case schema.TypeInt32:
			fmt.Fprintf(&b, "    out->%s = (int32_t)get_u32(in + %d);\n", f.Name, off)
		case schema.TypeFloat32:
			fmt.Fprintf(&b, "    { uint32_t bits = get_u32(in + %d); memcpy(&out->%s, &bits, 4); }\n", off, f.Name)
		case schema.TypeUint16:
			fmt.Fprintf(&b, "    out->%s = get_u16(in + %d);\n", f.Name, off)
		case schema.TypeInt16:
			fmt.Fprintf(&b, "    out->%s = (int16_t)get_u16(in + %d);\n", f.Name, off)
		case schema.TypeUint8:
			fmt.Fprintf(&b, "    out->%s = in[%d];\n", f.Name, off)
		case schema.TypeInt8:
			fmt.Fprintf(&b, "    out->%s = (int8_t)in[%d];\n", f.Name, off)
		case schema.TypeBool:
			fmt.Fprintf(&b, "    out->%s = in[%d] ? 1u : 0u;\n", f.Name, off)
		case schema.TypeChar:
			fmt.Fprintf(&b, "    memcpy(out->%s, in + %d, %d);\n", f.Name, off, f.Length)
		}
	}
	b.WriteString("    return 0;\n}\n")

	return b.String(), nil
}

// cHelpers emits byte-order-explicit load/store helpers. Generated C never
// relies on host endianness or struct layout for the wire image.
func cHelpers(s *schema.FrameSchema) string {
	need16, need32 := false, false
	for _, f := range s.Fields {
		switch f.Type {
		case schema.TypeUint16, schema.TypeInt16:
			need16 = true
		case schema.TypeInt32, schema.TypeFloat32:
			need32 = true
		}
	}
	little := s.ByteOrder != schema.BigEndian

	var b strings.Builder
	if need16 {
		if little {
			b.WriteString(`static void put_u16(unsigned char *p, uint16_t v) {
    p[0] = (unsigned char)(v & 0xFFu);
    p[1] = (unsigned char)(v >> 8);
}
static uint16_t get_u16(const unsigned char *p) {
    return (uint16_t)(p[0] | ((uint16_t)p[1] << 8));
}
`)
		} else {
			b.WriteString(`static void put_u16(unsigned char *p, uint16_t v) {
    p[0] = (unsigned char)(v >> 8);
    p[1] = (unsigned char)(v & 0xFFu);
}
static uint16_t get_u16(const unsigned char *p) {
    return (uint16_t)(((uint16_t)p[0] << 8) | p[1]);
}
`)
		}
	}
	if need32 {
		if little {
			b.WriteString(`static void put_u32(unsigned char *p, uint32_t v) {
    p[0] = (unsigned char)(v & 0xFFu);
    p[1] = (unsigned char)((v >> 8) & 0xFFu);
    p[2] = (unsigned char)((v >> 16) & 0xFFu);
    p[3] = (unsigned char)(v >> 24);
}
static uint32_t get_u32(const unsigned char *p) {
    return (uint32_t)p[0] | ((uint32_t)p[1] << 8) | ((uint32_t)p[2] << 16) | ((uint32_t)p[3] << 24);
}
`)
		} else {
			b.WriteString(`static void put_u32(unsigned char *p, uint32_t v) {
    p[0] = (unsigned char)(v >> 24);
    p[1] = (unsigned char)((v >> 16) & 0xFFu);
    p[2] = (unsigned char)((v >> 8) & 0xFFu);
    p[3] = (unsigned char)(v & 0xFFu);
}
static uint32_t get_u32(const unsigned char *p) {
    return ((uint32_t)p[0] << 24) | ((uint32_t)p[1] << 16) | ((uint32_t)p[2] << 8) | (uint32_t)p[3];
}
`)
		}
	}
	return b.String()
}

func cChecksumFunc(alg checksum.Algorithm) string {
	switch alg {
	case checksum.Sum:
		return `/* sum: low byte of the arithmetic sum of the input */
static uint16_t packet_checksum(const unsigned char *buf, int len) {
    uint32_t s = 0;
    for (int i = 0; i < len; ++i) s += buf[i];
    return (uint16_t)(s & 0xFFu);
}
`
	case checksum.Xor:
		return `/* xor of all input bytes */
static uint16_t packet_checksum(const unsigned char *buf, int len) {
    uint8_t x = 0;
    for (int i = 0; i < len; ++i) x ^= buf[i];
    return (uint16_t)x;
}
`
	case checksum.CRC8:
		return `/* CRC-8, polynomial 0x07, MSB-first, initial value 0 */
static uint16_t packet_checksum(const unsigned char *buf, int len) {
    uint8_t crc = 0;
    for (int i = 0; i < len; ++i) {
        crc ^= buf[i];
        for (int bit = 0; bit < 8; ++bit) {
            if (crc & 0x80u) crc = (uint8_t)((crc << 1) ^ 0x07u);
            else crc = (uint8_t)(crc << 1);
        }
    }
    return (uint16_t)crc;
}
`
	case checksum.CRC16:
		return `/* CRC-16/CCITT, polynomial 0x1021, MSB-first, initial value 0 */
static uint16_t packet_checksum(const unsigned char *buf, int len) {
    uint16_t crc = 0;
    for (int i = 0; i < len; ++i) {
        crc = (uint16_t)(crc ^ ((uint16_t)buf[i] << 8));
        for (int bit = 0; bit < 8; ++bit) {
            if (crc & 0x8000u) crc = (uint16_t)((crc << 1) ^ 0x1021u);
            else crc = (uint16_t)(crc << 1);
        }
    }
    return crc;
}
`
	}
	return ""
}
