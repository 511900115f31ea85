package emit

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/framectl/internal/checksum"
	"github.com/danmuck/framectl/internal/codec"
	"github.com/danmuck/framectl/internal/logging"
	"github.com/danmuck/framectl/internal/schema"
)

func TestMain(m *testing.M) {
	logging.ConfigureTests()
	os.Exit(m.Run())
}

func telemetrySchema() *schema.FrameSchema {
	return &schema.FrameSchema{
		Name: "Telemetry",
		Fields: []schema.FieldSpec{
			{Name: "x", Type: schema.TypeInt32},
			{Name: "y", Type: schema.TypeFloat32},
		},
		Header:    &schema.Marker{Value: 0xAA, Width: 1},
		Footer:    &schema.Marker{Value: 0x55, Width: 1},
		Checksum:  schema.Checksum{Algorithm: checksum.Sum, Range: schema.RangeDataOnly},
		Alignment: 1,
		ByteOrder: schema.LittleEndian,
	}
}

func TestForLanguage(t *testing.T) {
	for lang, want := range map[string]string{
		"c": "c", "cpp": "cpp", "python": "python", "py": "python",
	} {
		em, err := ForLanguage(lang)
		require.NoError(t, err, "language %q", lang)
		assert.Equal(t, want, em.Language())
	}
	_, err := ForLanguage("rust")
	assert.Error(t, err)
}

func TestFileNames(t *testing.T) {
	s := telemetrySchema()
	c, _ := ForLanguage("c")
	assert.Equal(t, "Telemetry_send.c", c.FileName(s, SideSend))
	cpp, _ := ForLanguage("cpp")
	assert.Equal(t, "Telemetry_recv.cpp", cpp.FileName(s, SideRecv))
	py, _ := ForLanguage("python")
	assert.Equal(t, "Telemetry_send.py", py.FileName(s, SideSend))
}

func TestPythonOutput(t *testing.T) {
	em, err := ForLanguage("python")
	require.NoError(t, err)
	src, err := em.Emit(telemetrySchema())
	require.NoError(t, err)

	for _, want := range []string{
		"PACKET_PAYLOAD_SIZE = 8",
		"PACKET_TOTAL_SIZE = 11",
		"PACKET_FMT = '<if'",
		"PACKET_HEADER = bytes([0xAA])",
		"PACKET_FOOTER = bytes([0x55])",
		"_CHECKSUM_START = 1",
		"_CHECKSUM_END = 9",
		"return sum(buf) & 0xFF",
		"def encode(obj):",
		"def decode(buf):",
		"raise ValueError('checksum mismatch')",
	} {
		assert.Contains(t, src, want)
	}
	// No length field configured, so no length constants.
	assert.NotContains(t, src, "_LENGTH_POS")
}

func TestPythonFormatPadding(t *testing.T) {
	s := telemetrySchema()
	s.Fields = []schema.FieldSpec{
		{Name: "flag", Type: schema.TypeUint8},
		{Name: "value", Type: schema.TypeInt32},
	}
	s.Alignment = 4
	s.ByteOrder = schema.BigEndian

	em, _ := ForLanguage("python")
	src, err := em.Emit(s)
	require.NoError(t, err)
	assert.Contains(t, src, "PACKET_FMT = '>B3xi'")
	assert.Contains(t, src, "PACKET_PAYLOAD_SIZE = 8")
}

func TestCOutput(t *testing.T) {
	em, err := ForLanguage("c")
	require.NoError(t, err)
	src, err := em.Emit(telemetrySchema())
	require.NoError(t, err)

	for _, want := range []string{
		"#include <stdint.h>",
		"static const int PACKET_TOTAL_SIZE = 11;",
		"static const uint64_t PACKET_HEADER = 0xAA;",
		"int32_t x;",
		"float y;",
		"} Telemetry;",
		"out[0] = 0xAAu;",
		"packet_checksum(out + 1, 8)",
		"out[10] = 0x55u;",
		"int decode(const unsigned char *in, int len, Telemetry *out)",
		"if (len != PACKET_TOTAL_SIZE) return -1;",
		"if (in[0] != 0xAAu) return -2;",
		"if (in[len - 1] != 0x55u) return -3;",
	} {
		assert.Contains(t, src, want)
	}
}

// Both backends must place fields at the offsets the canonical layout
// computed, not re-derive them.
func TestCrossBackendOffsets(t *testing.T) {
	s := telemetrySchema()
	s.Fields = []schema.FieldSpec{
		{Name: "flag", Type: schema.TypeUint8},
		{Name: "value", Type: schema.TypeInt32},
	}
	s.Alignment = 4

	py, _ := ForLanguage("python")
	pySrc, err := py.Emit(s)
	require.NoError(t, err)
	c, _ := ForLanguage("c")
	cSrc, err := c.Emit(s)
	require.NoError(t, err)

	// Payload starts after the 1-byte header; the int32 sits 4 bytes into
	// the payload, so at absolute offset 5.
	assert.Contains(t, pySrc, "PACKET_FMT = '<B3xi'")
	assert.Contains(t, cSrc, "out[1] = in->flag;")
	assert.Contains(t, cSrc, "put_u32(out + 5, (uint32_t)in->value);")
	for _, src := range []string{pySrc, cSrc} {
		assert.Contains(t, src, "PACKET_PAYLOAD_SIZE = 8")
		assert.Contains(t, src, "PACKET_TOTAL_SIZE = 11")
	}
}

func TestCppOutputSharesBody(t *testing.T) {
	s := telemetrySchema()
	c, _ := ForLanguage("c")
	cpp, _ := ForLanguage("cpp")
	cSrc, err := c.Emit(s)
	require.NoError(t, err)
	cppSrc, err := cpp.Emit(s)
	require.NoError(t, err)
	assert.Contains(t, cppSrc, "#include <cstdint>")
	// Same body once the include blocks are stripped.
	stripC := strings.Replace(cSrc, "#include <stdint.h>\n#include <string.h>", "", 1)
	stripCpp := strings.Replace(cppSrc, "#include <cstdint>\n#include <cstring>", "", 1)
	assert.Equal(t, stripC, stripCpp)
}

func TestEmitDeterministic(t *testing.T) {
	s := telemetrySchema()
	for _, lang := range Languages() {
		em, err := ForLanguage(lang)
		require.NoError(t, err)
		a, err := em.Emit(s)
		require.NoError(t, err)
		b, err := em.Emit(s)
		require.NoError(t, err)
		assert.Equal(t, a, b, "language %q", lang)
	}
}

// The generated backends must produce the same bytes as the native encoder.
// This runs the emitted Python against a schema exercising every field type,
// alignment padding, a 2-byte header, the length field and a checksummed
// length range, then round-trips the frame through the native decoder.
func TestGeneratedPythonMatchesNativeEncoder(t *testing.T) {
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not installed")
	}

	s := &schema.FrameSchema{
		Name: "Burst",
		Fields: []schema.FieldSpec{
			{Name: "a", Type: schema.TypeInt8},
			{Name: "f", Type: schema.TypeUint8},
			{Name: "g", Type: schema.TypeInt16},
			{Name: "b", Type: schema.TypeUint16},
			{Name: "c", Type: schema.TypeInt32},
			{Name: "d", Type: schema.TypeFloat32},
			{Name: "e", Type: schema.TypeBool},
			{Name: "tag", Type: schema.TypeChar, Length: 8},
		},
		Header:    &schema.Marker{Value: 0xAABB, Width: 2},
		Footer:    &schema.Marker{Value: 0x5544, Width: 2},
		Length:    &schema.LengthField{Mode: schema.LengthWithChecksum},
		Checksum:  schema.Checksum{Algorithm: checksum.CRC16, Range: schema.RangeWithLengthField},
		Alignment: 4,
		ByteOrder: schema.BigEndian,
	}
	require.NoError(t, s.Validate())

	values := map[string]any{
		"a": -5, "f": 200, "g": -12345, "b": 40000,
		"c": -123456, "d": 1.5, "e": true, "tag": "hi",
	}
	native, err := codec.Encode(s, values)
	require.NoError(t, err)

	em, err := ForLanguage("python")
	require.NoError(t, err)
	src, err := em.Emit(s)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gen.py"), []byte(src), 0o644))

	prog := fmt.Sprintf(`import sys
sys.path.insert(0, %q)
import gen
obj = {'a': -5, 'f': 200, 'g': -12345, 'b': 40000, 'c': -123456, 'd': 1.5, 'e': True, 'tag': 'hi'}
frame = gen.encode(obj)
gen.decode(frame)
sys.stdout.write(frame.hex())
`, dir)
	out, err := exec.Command(python, "-c", prog).CombinedOutput()
	require.NoError(t, err, "python output: %s", out)
	assert.Equal(t, hex.EncodeToString(native), string(out))

	res, err := codec.Decode(s, native)
	require.NoError(t, err)
	want := map[string]any{
		"a": int8(-5), "f": uint8(200), "g": int16(-12345), "b": uint16(40000),
		"c": int32(-123456), "d": float32(1.5), "e": true, "tag": "hi",
	}
	assert.Equal(t, want, res.Fields)
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(telemetrySchema(), "c", "python", dir))

	for _, name := range []string{"Telemetry_send.c", "Telemetry_recv.py"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, "missing %s", name)
		assert.NotEmpty(t, data)
	}
}

func TestGenerateFailedSideDoesNotStopOther(t *testing.T) {
	dir := t.TempDir()
	err := Generate(telemetrySchema(), "rust", "python", dir)
	require.Error(t, err)

	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "rust", gerr.Language)
	assert.Equal(t, SideSend, gerr.Side)

	// The receive side still got written.
	_, statErr := os.Stat(filepath.Join(dir, "Telemetry_recv.py"))
	assert.NoError(t, statErr)
}
