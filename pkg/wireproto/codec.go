package wireproto

import (
	"errors"
	"fmt"
)

// WireType identifies how a field's payload is encoded on the wire.
type WireType uint8

const (
	WireVarint WireType = 0
	WireI64    WireType = 1
	WireLEN    WireType = 2
	WireSGroup WireType = 3 // deprecated, rejected
	WireEGroup WireType = 4 // deprecated, rejected
	WireI32    WireType = 5
)

// ErrVarintOverflow is returned by ReadVarint when a varint exceeds 10 bytes
// without terminating, which cannot represent a valid 64-bit value.
var ErrVarintOverflow = errors.New("wireproto: varint exceeds 10 bytes")

// ErrTruncated is returned when a field or varint runs past the end of the buffer.
var ErrTruncated = errors.New("wireproto: field extends past end of buffer")

// ErrUnsupportedWireType is returned for deprecated group wire types (3, 4) or
// any wire type outside 0, 1, 2, 5.
type ErrUnsupportedWireType struct {
	WireType WireType
}

func (e *ErrUnsupportedWireType) Error() string {
	return fmt.Sprintf("wireproto: unsupported wire type %d", e.WireType)
}

// Field is one decoded top-level field of a message.
type Field struct {
	Number uint32
	Type   WireType
	// RawSlice spans the tag, length (if any), and value — replaying it
	// byte-for-byte reproduces this field's contribution to the original buffer.
	RawSlice []byte
	// DataSlice is the value only. For WireLEN fields this is the submessage
	// bytes (suitable for recursive ParseFields); for other wire types it
	// equals RawSlice's value portion.
	DataSlice []byte
}

// ReadVarint decodes a LEB128 varint from buf starting at offset off.
// It returns the decoded value and the number of bytes consumed.
func ReadVarint(buf []byte, off int) (uint64, int, error) {
	var result uint64
	var shift uint
	pos := off
	for i := 0; i < 10; i++ {
		if pos >= len(buf) {
			return 0, 0, ErrTruncated
		}
		b := buf[pos]
		pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, pos - off, nil
		}
		shift += 7
	}
	return 0, 0, ErrVarintOverflow
}

// WriteVarint appends the LEB128 encoding of v to buf and returns the result.
func WriteVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// SkipField advances past one field (tag + payload) starting at pos and
// returns the position immediately after it.
func SkipField(buf []byte, pos int, wt WireType) (int, error) {
	switch wt {
	case WireVarint:
		_, n, err := ReadVarint(buf, pos)
		if err != nil {
			return 0, err
		}
		return pos + n, nil
	case WireI64:
		if pos+8 > len(buf) {
			return 0, ErrTruncated
		}
		return pos + 8, nil
	case WireI32:
		if pos+4 > len(buf) {
			return 0, ErrTruncated
		}
		return pos + 4, nil
	case WireLEN:
		length, n, err := ReadVarint(buf, pos)
		if err != nil {
			return 0, err
		}
		end := pos + n + int(length)
		if end > len(buf) || end < pos {
			return 0, ErrTruncated
		}
		return end, nil
	default:
		return 0, &ErrUnsupportedWireType{WireType: wt}
	}
}

// ParseFields walks buf top-to-bottom and returns every field in order.
// It does not recurse into LEN submessages; callers recurse explicitly by
// calling ParseFields again on a field's DataSlice.
func ParseFields(buf []byte) ([]Field, error) {
	var fields []Field
	pos := 0
	for pos < len(buf) {
		start := pos
		tag, n, err := ReadVarint(buf, pos)
		if err != nil {
			return nil, err
		}
		pos += n
		number := uint32(tag >> 3)
		wt := WireType(tag & 0x7)

		switch wt {
		case WireVarint, WireI64, WireI32:
			end, err := SkipField(buf, pos, wt)
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{
				Number:    number,
				Type:      wt,
				RawSlice:  buf[start:end],
				DataSlice: buf[pos:end],
			})
			pos = end
		case WireLEN:
			length, ln, err := ReadVarint(buf, pos)
			if err != nil {
				return nil, err
			}
			dataStart := pos + ln
			dataEnd := dataStart + int(length)
			if dataEnd > len(buf) || dataEnd < dataStart {
				return nil, ErrTruncated
			}
			fields = append(fields, Field{
				Number:    number,
				Type:      wt,
				RawSlice:  buf[start:dataEnd],
				DataSlice: buf[dataStart:dataEnd],
			})
			pos = dataEnd
		default:
			return nil, &ErrUnsupportedWireType{WireType: wt}
		}
	}
	return fields, nil
}

// AppendTag writes the tag byte(s) for (fieldNumber, wt) to buf.
func AppendTag(buf []byte, fieldNumber uint32, wt WireType) []byte {
	tag := uint64(fieldNumber)<<3 | uint64(wt)
	return WriteVarint(buf, tag)
}

// AppendLenField writes a complete LEN-wire-type field (tag + length + value).
func AppendLenField(buf []byte, fieldNumber uint32, value []byte) []byte {
	buf = AppendTag(buf, fieldNumber, WireLEN)
	buf = WriteVarint(buf, uint64(len(value)))
	return append(buf, value...)
}

// AppendStringField writes a LEN field carrying a UTF-8 string.
func AppendStringField(buf []byte, fieldNumber uint32, s string) []byte {
	return AppendLenField(buf, fieldNumber, []byte(s))
}

// AppendVarintField writes a varint-wire-type field.
func AppendVarintField(buf []byte, fieldNumber uint32, v uint64) []byte {
	buf = AppendTag(buf, fieldNumber, WireVarint)
	return WriteVarint(buf, v)
}

// FindFirst returns the first field with the given number, or false if absent.
func FindFirst(fields []Field, number uint32) (Field, bool) {
	for _, f := range fields {
		if f.Number == number {
			return f, true
		}
	}
	return Field{}, false
}

// FindAll returns every field with the given number, in order.
func FindAll(fields []Field, number uint32) []Field {
	var out []Field
	for _, f := range fields {
		if f.Number == number {
			out = append(out, f)
		}
	}
	return out
}
