package wireproto

import (
	"bytes"
	"errors"
	"testing"
)

func TestVarintRoundTrip(t *testing.T) {
	tests := []uint64{0, 1, 127, 128, 300, 16384, 1 << 40, ^uint64(0)}

	for _, v := range tests {
		buf := WriteVarint(nil, v)
		got, n, err := ReadVarint(buf, 0)
		if err != nil {
			t.Fatalf("ReadVarint(%d): unexpected error: %v", v, err)
		}
		if n != len(buf) {
			t.Errorf("ReadVarint(%d): consumed %d bytes, want %d", v, n, len(buf))
		}
		if got != v {
			t.Errorf("ReadVarint round trip = %d, want %d", got, v)
		}
	}
}

func TestReadVarintOverflow(t *testing.T) {
	buf := bytes.Repeat([]byte{0x80}, 10)
	_, _, err := ReadVarint(buf, 0)
	if err != ErrVarintOverflow {
		t.Errorf("expected ErrVarintOverflow, got %v", err)
	}
}

func TestReadVarintTruncated(t *testing.T) {
	buf := []byte{0x80}
	_, _, err := ReadVarint(buf, 0)
	if err != ErrTruncated {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestParseFieldsRoundTrip(t *testing.T) {
	var msg []byte
	msg = AppendStringField(msg, 1, "hello")
	msg = AppendVarintField(msg, 2, 42)
	msg = AppendLenField(msg, 3, []byte{0x01, 0x02, 0x03})

	fields, err := ParseFields(msg)
	if err != nil {
		t.Fatalf("ParseFields: unexpected error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("got %d fields, want 3", len(fields))
	}

	var rebuilt []byte
	for _, f := range fields {
		rebuilt = append(rebuilt, f.RawSlice...)
	}
	if !bytes.Equal(rebuilt, msg) {
		t.Errorf("concatenated raw slices do not reproduce original buffer")
	}
}

func TestParseFieldsNested(t *testing.T) {
	var inner []byte
	inner = AppendStringField(inner, 1, "nested")

	var outer []byte
	outer = AppendLenField(outer, 5, inner)

	fields, err := ParseFields(outer)
	if err != nil {
		t.Fatalf("ParseFields: unexpected error: %v", err)
	}
	if len(fields) != 1 || fields[0].Number != 5 {
		t.Fatalf("unexpected top-level fields: %+v", fields)
	}

	innerFields, err := ParseFields(fields[0].DataSlice)
	if err != nil {
		t.Fatalf("ParseFields(nested): unexpected error: %v", err)
	}
	if len(innerFields) != 1 || innerFields[0].Number != 1 {
		t.Fatalf("unexpected nested fields: %+v", innerFields)
	}
}

func TestParseFieldsTruncated(t *testing.T) {
	msg := AppendStringField(nil, 1, "hello")
	_, err := ParseFields(msg[:len(msg)-2])
	if err == nil {
		t.Error("expected error for truncated LEN field, got nil")
	}
}

func TestParseFieldsRejectsGroups(t *testing.T) {
	// tag with wire type 3 (deprecated start-group)
	buf := WriteVarint(nil, uint64(1)<<3|3)
	_, err := ParseFields(buf)
	if err == nil {
		t.Fatal("expected error for deprecated group wire type, got nil")
	}
	var uw *ErrUnsupportedWireType
	if !errors.As(err, &uw) {
		t.Errorf("expected ErrUnsupportedWireType, got %T: %v", err, err)
	}
}

func TestFindFirstAndFindAll(t *testing.T) {
	var msg []byte
	msg = AppendVarintField(msg, 3, 1)
	msg = AppendVarintField(msg, 3, 2)
	msg = AppendVarintField(msg, 4, 3)

	fields, err := ParseFields(msg)
	if err != nil {
		t.Fatalf("ParseFields: unexpected error: %v", err)
	}

	first, ok := FindFirst(fields, 3)
	if !ok {
		t.Fatal("FindFirst(3): not found")
	}
	v, _, err := ReadVarint(first.DataSlice, 0)
	if err != nil || v != 1 {
		t.Errorf("FindFirst(3) value = %d, err=%v, want 1", v, err)
	}

	all := FindAll(fields, 3)
	if len(all) != 2 {
		t.Fatalf("FindAll(3) returned %d fields, want 2", len(all))
	}
}

func BenchmarkParseFields(b *testing.B) {
	var msg []byte
	for i := 0; i < 50; i++ {
		msg = AppendStringField(msg, uint32(i+1), "some field value of moderate length")
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseFields(msg); err != nil {
			b.Fatal(err)
		}
	}
}
