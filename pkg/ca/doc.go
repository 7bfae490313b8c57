// Package ca implements the embedded certificate authority the proxy uses
// to terminate TLS for its one configured upstream host.
//
// A root key pair and self-signed certificate are created on first run and
// persisted to a directory; later runs load them. MintLeaf issues a
// short-lived leaf certificate for a requested SNI, signed by that root,
// so the client sees a certificate chain for the exact hostname it asked
// for without the proxy ever touching the real upstream's private key.
package ca
