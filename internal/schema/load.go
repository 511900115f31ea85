package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/framectl/internal/checksum"
)

// Load reads a schema document from path and validates it. The extension
// selects the decoder: .toml uses the TOML layout, anything else is treated
// as the legacy JSON layout.
func Load(path string) (*FrameSchema, error) {
	var (
		s   *FrameSchema
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		s, err = loadTOML(path)
	} else {
		s, err = loadJSON(path)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// jsonSchema mirrors the legacy JSON document keys. Marker values may be
// numbers or hex strings like "0xAA".
type jsonSchema struct {
	StructName  string      `json:"structName"`
	Fields      []jsonField `json:"fields"`
	Verify      string      `json:"verify"`
	VerifyRange string      `json:"verify_range"`
	Align       int         `json:"align"`
	Endian      string      `json:"endian"`

	Header    json.RawMessage `json:"header"`
	HeaderLen int             `json:"header_len"`
	Footer    json.RawMessage `json:"footer"`
	FooterLen int             `json:"footer_len"`

	DataLen             *bool  `json:"data_len"`
	DataLenMode         string `json:"data_len_mode"`
	DataLenInclHeader   bool   `json:"data_len_include_header"`
	DataLenInclFooter   bool   `json:"data_len_include_footer"`
	DataLenInclChecksum bool   `json:"data_len_include_checksum"`
}

type jsonField struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Length int    `json:"length"`
}

func loadJSON(path string) (*FrameSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema load failed (%s): %w", path, err)
	}
	// Tolerate a UTF-8 BOM from editors that insert one.
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))

	var doc jsonSchema
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema parse failed (%s): %w", path, err)
	}

	s := &FrameSchema{
		Name:      doc.StructName,
		Alignment: 4,
		ByteOrder: LittleEndian,
		Checksum:  Checksum{Algorithm: checksum.Sum, Range: RangeDataOnly},
	}
	if doc.Align != 0 {
		s.Alignment = doc.Align
	}
	if doc.Endian != "" {
		s.ByteOrder = ByteOrder(doc.Endian)
	}
	if doc.Verify != "" {
		s.Checksum.Algorithm = checksum.Algorithm(doc.Verify)
	}
	if doc.VerifyRange != "" {
		s.Checksum.Range = ChecksumRange(doc.VerifyRange)
	}

	for _, f := range doc.Fields {
		s.Fields = append(s.Fields, FieldSpec{
			Name:   f.Name,
			Type:   canonicalType(f.Type),
			Length: charLength(f),
		})
	}

	header, err := markerFromJSON(doc.Header, doc.HeaderLen, 0xAA)
	if err != nil {
		return nil, fmt.Errorf("schema parse failed (%s): header: %w", path, err)
	}
	s.Header = header
	footer, err := markerFromJSON(doc.Footer, doc.FooterLen, 0x55)
	if err != nil {
		return nil, fmt.Errorf("schema parse failed (%s): footer: %w", path, err)
	}
	s.Footer = footer

	// data_len defaults to present, matching the legacy documents.
	if doc.DataLen == nil || *doc.DataLen {
		lf := &LengthField{
			Mode:            LengthDataOnly,
			IncludeHeader:   doc.DataLenInclHeader,
			IncludeFooter:   doc.DataLenInclFooter,
			IncludeChecksum: doc.DataLenInclChecksum,
		}
		if doc.DataLenMode != "" {
			lf.Mode = LengthMode(doc.DataLenMode)
		}
		s.Length = lf
	}

	return s, nil
}

// canonicalType maps legacy aliases onto the canonical type names.
func canonicalType(t string) FieldType {
	switch t {
	case "int":
		return TypeInt32
	case "float":
		return TypeFloat32
	}
	return FieldType(t)
}

func charLength(f jsonField) int {
	if canonicalType(f.Type) != TypeChar {
		return 0
	}
	if f.Length == 0 {
		return 32 // legacy default for char fields without a length
	}
	// Declared values pass through unchanged so validation can reject a
	// negative length instead of masking it.
	return f.Length
}

// markerFromJSON resolves a header/footer entry. A missing key falls back to
// the legacy default value; an explicit null disables the marker. Values may
// be numbers or decimal/hex strings.
func markerFromJSON(raw json.RawMessage, width int, fallback uint64) (*Marker, error) {
	if width == 0 {
		width = 1
	}
	if raw == nil {
		return &Marker{Value: fallback, Width: width}, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return nil, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		val, err := parseMarkerString(asString)
		if err != nil {
			return nil, err
		}
		return &Marker{Value: val, Width: width}, nil
	}
	var asNumber uint64
	if err := json.Unmarshal(raw, &asNumber); err != nil {
		return nil, fmt.Errorf("unsupported marker value %s", trimmed)
	}
	return &Marker{Value: asNumber, Width: width}, nil
}

func parseMarkerString(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// tomlSchema mirrors the TOML document layout.
type tomlSchema struct {
	Name      string       `toml:"name"`
	Alignment int          `toml:"alignment"`
	ByteOrder string       `toml:"byte_order"`
	Header    tomlMarker   `toml:"header"`
	Footer    tomlMarker   `toml:"footer"`
	Length    tomlLength   `toml:"length"`
	Checksum  tomlChecksum `toml:"checksum"`
	Fields    []tomlField  `toml:"fields"`
}

type tomlMarker struct {
	Value int64 `toml:"value"`
	Width int   `toml:"width"`
}

type tomlLength struct {
	Mode            string `toml:"mode"`
	IncludeHeader   bool   `toml:"include_header"`
	IncludeFooter   bool   `toml:"include_footer"`
	IncludeChecksum bool   `toml:"include_checksum"`
}

type tomlChecksum struct {
	Algorithm string `toml:"algorithm"`
	Range     string `toml:"range"`
}

type tomlField struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Length int    `toml:"length"`
}

func loadTOML(path string) (*FrameSchema, error) {
	var doc tomlSchema
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("schema load failed (%s): %w", path, err)
	}

	s := &FrameSchema{
		Name:      doc.Name,
		Alignment: 1,
		ByteOrder: LittleEndian,
		Checksum:  Checksum{Algorithm: checksum.None, Range: RangeDataOnly},
	}
	if meta.IsDefined("alignment") {
		s.Alignment = doc.Alignment
	}
	if meta.IsDefined("byte_order") {
		s.ByteOrder = ByteOrder(doc.ByteOrder)
	}
	if meta.IsDefined("checksum", "algorithm") {
		s.Checksum.Algorithm = checksum.Algorithm(doc.Checksum.Algorithm)
	}
	if meta.IsDefined("checksum", "range") {
		s.Checksum.Range = ChecksumRange(doc.Checksum.Range)
	}
	if meta.IsDefined("header") {
		s.Header = markerFromTOML(doc.Header)
	}
	if meta.IsDefined("footer") {
		s.Footer = markerFromTOML(doc.Footer)
	}
	if meta.IsDefined("length") {
		lf := &LengthField{
			Mode:            LengthDataOnly,
			IncludeHeader:   doc.Length.IncludeHeader,
			IncludeFooter:   doc.Length.IncludeFooter,
			IncludeChecksum: doc.Length.IncludeChecksum,
		}
		if doc.Length.Mode != "" {
			lf.Mode = LengthMode(doc.Length.Mode)
		}
		s.Length = lf
	}
	for _, f := range doc.Fields {
		s.Fields = append(s.Fields, FieldSpec{
			Name:   f.Name,
			Type:   canonicalType(f.Type),
			Length: f.Length,
		})
	}

	return s, nil
}

func markerFromTOML(m tomlMarker) *Marker {
	width := m.Width
	if width == 0 {
		width = 1
	}
	return &Marker{Value: uint64(m.Value), Width: width}
}
