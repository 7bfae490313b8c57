// Package connectproto implements the 5-byte-prefixed framing shared by
// the Connect-Protocol/gRPC-Web transport on both legs of the proxy: one
// byte of flags, a 4-byte big-endian length, then that many payload bytes.
//
// Extract is built to tolerate a TCP stream arriving in arbitrary chunks:
// callers feed it whatever bytes are currently available and it returns
// every complete frame found so far, leaving a partial trailing frame
// buffered internally.
package connectproto
