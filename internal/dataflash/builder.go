package dataflash

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// NewFormat builds a Format for the given layout and computes its length.
func NewFormat(typ uint8, name, format string, columns ...string) (Format, error) {
	f := Format{Type: typ, Name: name, Format: format, Columns: columns}
	size, err := f.BodySize()
	if err != nil {
		return Format{}, err
	}
	if size+headerSize > math.MaxUint8 {
		return Format{}, fmt.Errorf("%w: %s is %d bytes long", ErrBadDefinition, name, size+headerSize)
	}
	f.Length = uint8(size + headerSize)
	return f, nil
}

// EncodeFormat returns the FMT frame announcing f.
func EncodeFormat(f Format) ([]byte, error) {
	return EncodeMessage(fmtFormat,
		uint64(f.Type),
		uint64(f.Length),
		f.Name,
		f.Format,
		strings.Join(f.Columns, ","),
	)
}

// EncodeMessage encodes one instance of f. Values are given in column order;
// scaled kinds (c, C, e, E, L) take the scaled value and are stored as the
// nearest raw integer.
func EncodeMessage(f Format, values ...any) ([]byte, error) {
	if len(values) != len(f.Format) {
		return nil, fmt.Errorf("%s expects %d values, got %d", f.Name, len(f.Format), len(values))
	}
	size, err := f.BodySize()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, headerSize+size)
	buf[0], buf[1], buf[2] = head1, head2, f.Type
	pos := headerSize
	for i := 0; i < len(f.Format); i++ {
		c := f.Format[i]
		n, _ := fieldSize(c)
		if err := encodeField(c, buf[pos:pos+n], values[i]); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", f.Name, columnName(f, i), err)
		}
		pos += n
	}
	return buf, nil
}

func columnName(f Format, i int) string {
	if i < len(f.Columns) {
		return f.Columns[i]
	}
	return fmt.Sprintf("#%d", i)
}

func encodeField(c byte, dst []byte, v any) error {
	le := binary.LittleEndian
	switch c {
	case 'n', 'N', 'Z':
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", v)
		}
		if len(s) > len(dst) {
			return fmt.Errorf("string %q longer than %d bytes", s, len(dst))
		}
		copy(dst, s)
		return nil
	case 'a':
		arr, ok := v.([]int16)
		if !ok {
			return fmt.Errorf("want []int16, got %T", v)
		}
		if len(arr) > arrayLen {
			return fmt.Errorf("array longer than %d", arrayLen)
		}
		for i, x := range arr {
			le.PutUint16(dst[i*2:], uint16(x))
		}
		return nil
	}

	f, ok := toFloat(v)
	if !ok {
		return fmt.Errorf("want number, got %T", v)
	}
	switch c {
	case 'b':
		dst[0] = byte(int8(f))
	case 'B', 'M':
		dst[0] = byte(f)
	case 'h':
		le.PutUint16(dst, uint16(int16(f)))
	case 'H':
		le.PutUint16(dst, uint16(f))
	case 'i':
		le.PutUint32(dst, uint32(int32(f)))
	case 'I':
		le.PutUint32(dst, uint32(f))
	case 'q':
		if i, ok := v.(int64); ok {
			le.PutUint64(dst, uint64(i))
		} else {
			le.PutUint64(dst, uint64(int64(f)))
		}
	case 'Q':
		if u, ok := v.(uint64); ok {
			le.PutUint64(dst, u)
		} else {
			le.PutUint64(dst, uint64(f))
		}
	case 'f':
		le.PutUint32(dst, math.Float32bits(float32(f)))
	case 'd':
		le.PutUint64(dst, math.Float64bits(f))
	case 'c':
		le.PutUint16(dst, uint16(int16(math.Round(f*100))))
	case 'C':
		le.PutUint16(dst, uint16(math.Round(f*100)))
	case 'e':
		le.PutUint32(dst, uint32(int32(math.Round(f*100))))
	case 'E':
		le.PutUint32(dst, uint32(math.Round(f*100)))
	case 'L':
		le.PutUint32(dst, uint32(int32(math.Round(f*1e7))))
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormatChar, c)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
