package dataflash

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	head1      = 0xA3
	head2      = 0x95
	headerSize = 3

	fmtType   = 0x80
	fmtLength = 89

	arrayLen = 32
)

var (
	ErrUnknownFormatChar = errors.New("unknown format character")
	ErrBadDefinition     = errors.New("invalid message definition")
)

// fmtFormat describes FMT frames themselves. It is known before any frame is
// read and can never be redefined.
var fmtFormat = Format{
	Type:    fmtType,
	Length:  fmtLength,
	Name:    "FMT",
	Format:  "BBnNZ",
	Columns: []string{"Type", "Length", "Name", "Format", "Columns"},
}

// fieldSize returns the encoded width of a format character.
func fieldSize(c byte) (int, bool) {
	switch c {
	case 'b', 'B', 'M':
		return 1, true
	case 'h', 'H', 'c', 'C':
		return 2, true
	case 'i', 'I', 'f', 'e', 'E', 'L', 'n':
		return 4, true
	case 'q', 'Q', 'd':
		return 8, true
	case 'N':
		return 16, true
	case 'Z', 'a':
		return 64, true
	default:
		return 0, false
	}
}

// BodySize is the number of payload bytes following the three byte header.
func (f Format) BodySize() (int, error) {
	total := 0
	for i := 0; i < len(f.Format); i++ {
		n, ok := fieldSize(f.Format[i])
		if !ok {
			return 0, fmt.Errorf("%w %q in %s", ErrUnknownFormatChar, f.Format[i], f.Name)
		}
		total += n
	}
	return total, nil
}

// Validate checks that the definition can be used to decode instances.
func (f Format) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: type %d has no name", ErrBadDefinition, f.Type)
	}
	if f.Format == "" {
		return fmt.Errorf("%w: %s has no fields", ErrBadDefinition, f.Name)
	}
	if len(f.Format) != len(f.Columns) {
		return fmt.Errorf("%w: %s has %d format characters and %d columns", ErrBadDefinition, f.Name, len(f.Format), len(f.Columns))
	}
	for i, col := range f.Columns {
		if col == "" {
			return fmt.Errorf("%w: %s column %d is empty", ErrBadDefinition, f.Name, i)
		}
	}
	size, err := f.BodySize()
	if err != nil {
		return err
	}
	if size+headerSize != int(f.Length) {
		return fmt.Errorf("%w: %s declares length %d, format %q needs %d", ErrBadDefinition, f.Name, f.Length, f.Format, size+headerSize)
	}
	return nil
}

func decodeBody(f *Format, body []byte) Fields {
	fields := make(Fields, len(f.Columns))
	pos := 0
	for i := 0; i < len(f.Format); i++ {
		c := f.Format[i]
		n, _ := fieldSize(c)
		fields[f.Columns[i]] = decodeField(c, body[pos:pos+n])
		pos += n
	}
	return fields
}

func decodeField(c byte, b []byte) any {
	le := binary.LittleEndian
	switch c {
	case 'b':
		return int64(int8(b[0]))
	case 'B', 'M':
		return uint64(b[0])
	case 'h':
		return int64(int16(le.Uint16(b)))
	case 'H':
		return uint64(le.Uint16(b))
	case 'i':
		return int64(int32(le.Uint32(b)))
	case 'I':
		return uint64(le.Uint32(b))
	case 'q':
		return int64(le.Uint64(b))
	case 'Q':
		return le.Uint64(b)
	case 'f':
		return math.Float32frombits(le.Uint32(b))
	case 'd':
		return math.Float64frombits(le.Uint64(b))
	case 'c':
		return float64(int16(le.Uint16(b))) * 0.01
	case 'C':
		return float64(le.Uint16(b)) * 0.01
	case 'e':
		return float64(int32(le.Uint32(b))) * 0.01
	case 'E':
		return float64(le.Uint32(b)) * 0.01
	case 'L':
		return float64(int32(le.Uint32(b))) * 1e-7
	case 'n', 'N', 'Z':
		return decodeString(b)
	case 'a':
		out := make([]int16, arrayLen)
		for i := range out {
			out[i] = int16(le.Uint16(b[i*2:]))
		}
		return out
	default:
		return nil
	}
}

func decodeString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(string(b), "�")
}

// definitionFromFields turns the fields of an FMT record into a Format.
func definitionFromFields(fields Fields) Format {
	def := Format{}
	if v, ok := fields["Type"].(uint64); ok {
		def.Type = uint8(v)
	}
	if v, ok := fields["Length"].(uint64); ok {
		def.Length = uint8(v)
	}
	def.Name, _ = fields["Name"].(string)
	def.Format, _ = fields["Format"].(string)
	cols, _ := fields["Columns"].(string)
	if strings.TrimSpace(cols) != "" {
		for _, c := range strings.Split(cols, ",") {
			def.Columns = append(def.Columns, strings.TrimSpace(c))
		}
	}
	return def
}
