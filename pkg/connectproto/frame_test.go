package connectproto

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestEncodeExtractRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		flags   uint8
		payload []byte
	}{
		{"empty payload", 0x00, nil},
		{"gzip flag", FlagGzip, []byte("hello world")},
		{"end stream flag", FlagEndStream, []byte{1, 2, 3}},
		{"both flags", FlagGzip | FlagEndStream, []byte("compressed-ish")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(tt.flags, tt.payload)

			ex := NewExtractor(MaxResponseFrame)
			frames, err := ex.Feed(encoded)
			if err != nil {
				t.Fatalf("Feed: unexpected error: %v", err)
			}
			if len(frames) != 1 {
				t.Fatalf("got %d frames, want 1", len(frames))
			}
			if frames[0].Flags != tt.flags {
				t.Errorf("flags = %#x, want %#x", frames[0].Flags, tt.flags)
			}
			if !bytes.Equal(frames[0].Payload, tt.payload) {
				t.Errorf("payload = %v, want %v", frames[0].Payload, tt.payload)
			}
			if len(ex.Residual()) != 0 {
				t.Errorf("residual buffer not empty: %v", ex.Residual())
			}
		})
	}
}

func TestExtractArbitraryChunking(t *testing.T) {
	encoded := Encode(FlagGzip, []byte("a reasonably sized payload for chunk testing"))

	r := rand.New(rand.NewSource(1))
	ex := NewExtractor(MaxRequestFrame)
	var allFrames []Frame
	for pos := 0; pos < len(encoded); {
		n := 1 + r.Intn(3)
		if pos+n > len(encoded) {
			n = len(encoded) - pos
		}
		frames, err := ex.Feed(encoded[pos : pos+n])
		if err != nil {
			t.Fatalf("Feed: unexpected error: %v", err)
		}
		allFrames = append(allFrames, frames...)
		pos += n
	}

	if len(allFrames) != 1 {
		t.Fatalf("got %d frames across chunked feed, want 1", len(allFrames))
	}
	if !bytes.Equal(allFrames[0].Payload, []byte("a reasonably sized payload for chunk testing")) {
		t.Errorf("payload mismatch after chunked extraction")
	}
}

func TestExtractMultipleFramesInOneChunk(t *testing.T) {
	encoded := append(Encode(0, []byte("first")), Encode(FlagEndStream, []byte("second"))...)

	ex := NewExtractor(MaxRequestFrame)
	frames, err := ex.Feed(encoded)
	if err != nil {
		t.Fatalf("Feed: unexpected error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if string(frames[0].Payload) != "first" || string(frames[1].Payload) != "second" {
		t.Errorf("unexpected frame payloads: %+v", frames)
	}
}

func TestExtractRejectsOversizedFrame(t *testing.T) {
	encoded := Encode(0, make([]byte, 100))

	ex := NewExtractor(50)
	_, err := ex.Feed(encoded)
	if err == nil {
		t.Fatal("expected FrameTooLargeError, got nil")
	}
	var tooLarge *FrameTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Errorf("expected FrameTooLargeError, got %T: %v", err, err)
	}
}
