package connectproto

import (
	"encoding/binary"
	"fmt"
)

const (
	// FlagGzip marks a frame's payload as gzip-compressed.
	FlagGzip uint8 = 1 << 0
	// FlagEndStream marks a frame as the terminal frame of its stream.
	FlagEndStream uint8 = 1 << 1

	headerSize = 5 // 1 flag byte + 4 length bytes

	// MaxRequestFrame is the largest payload accepted on a client-to-upstream frame.
	MaxRequestFrame = 10 * 1024 * 1024
	// MaxResponseFrame is the largest payload accepted on an upstream-to-client frame.
	MaxResponseFrame = 100 * 1024 * 1024
)

// FrameTooLargeError is returned when a frame declares a payload beyond the
// per-direction cap. It is an unrecoverable protocol error for the stream.
type FrameTooLargeError struct {
	Declared uint32
	Max      uint32
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("connectproto: frame length %d exceeds maximum %d", e.Declared, e.Max)
}

// Frame is one decoded Connect-Protocol frame.
type Frame struct {
	Flags   uint8
	Payload []byte
}

// IsGzip reports whether the frame's payload is gzip-compressed.
func (f Frame) IsGzip() bool { return f.Flags&FlagGzip != 0 }

// IsEndStream reports whether the frame marks the end of its stream.
func (f Frame) IsEndStream() bool { return f.Flags&FlagEndStream != 0 }

// Encode produces the wire representation of (flags, payload): a 1-byte
// flags field, a 4-byte big-endian length equal to len(payload) exactly,
// then the payload itself.
func Encode(flags uint8, payload []byte) []byte {
	out := make([]byte, headerSize+len(payload))
	out[0] = flags
	binary.BigEndian.PutUint32(out[1:5], uint32(len(payload)))
	copy(out[5:], payload)
	return out
}

// Extractor incrementally decodes frames from a growing byte stream,
// tolerating arrival across arbitrary chunk boundaries.
type Extractor struct {
	buf    []byte
	maxLen uint32
}

// NewExtractor returns an Extractor that rejects any frame whose declared
// length exceeds maxLen.
func NewExtractor(maxLen uint32) *Extractor {
	return &Extractor{maxLen: maxLen}
}

// Feed appends newly-arrived bytes and returns every complete frame that
// can now be extracted, in order. Any partial trailing frame remains
// buffered for the next call. A non-nil error means the stream has
// violated the frame-size cap and must not be fed further.
func (e *Extractor) Feed(chunk []byte) ([]Frame, error) {
	e.buf = append(e.buf, chunk...)

	var frames []Frame
	for {
		if len(e.buf) < headerSize {
			break
		}
		length := binary.BigEndian.Uint32(e.buf[1:5])
		if length > e.maxLen {
			return frames, &FrameTooLargeError{Declared: length, Max: e.maxLen}
		}
		total := headerSize + int(length)
		if len(e.buf) < total {
			break
		}
		flags := e.buf[0]
		payload := make([]byte, length)
		copy(payload, e.buf[headerSize:total])
		frames = append(frames, Frame{Flags: flags, Payload: payload})
		e.buf = e.buf[total:]
	}
	return frames, nil
}

// Residual returns the bytes currently buffered that do not yet form a
// complete frame.
func (e *Extractor) Residual() []byte {
	return e.buf
}
