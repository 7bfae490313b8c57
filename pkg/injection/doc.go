// Package injection decides which intercepted requests should receive an
// extra synthesized conversation entry (a system-style note carrying
// configured context material) and performs that rewrite directly on the
// wire-format bytes, without ever materializing the enclosing message as
// generated protobuf types.
package injection
