// Package wireproto implements a minimal protobuf wire-format codec.
//
// There are no generated message types here. The codec reads and writes
// the wire format directly: varints, tag/wire-type pairs, and length-
// delimited (LEN) submessages. It exists so that callers can locate and
// replace one nested field deep inside a message without knowing, or
// depending on, that message's full schema.
//
// The central guarantee is round-tripping: concatenating the RawSlice of
// every field returned by ParseFields reproduces the input buffer
// byte-for-byte. Callers exploit this to copy untouched fields verbatim
// and only re-encode the handful of fields they actually change.
package wireproto
