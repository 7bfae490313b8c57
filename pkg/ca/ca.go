package ca

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	rootKeyBits   = 4096
	leafKeyBits   = 2048
	rootValidity  = 10 * 365 * 24 * time.Hour
	leafValidity  = 3 * 30 * 24 * time.Hour // a few months
	leafClockSkew = 5 * time.Minute

	rootCertFile = "ca.pem"
	rootKeyFile  = "ca.key"
)

// Authority mints leaf certificates for arbitrary SNIs, signed by a
// persistent root created on first use.
type Authority struct {
	mu       sync.RWMutex
	rootCert *x509.Certificate
	rootDER  []byte
	rootKey  *rsa.PrivateKey

	cache *leafCache
}

// LoadOrGenerateRoot loads the root key and certificate from dir, creating
// them on first use. The subject name is fixed: it identifies this proxy's
// own CA, not any host it intercepts.
func LoadOrGenerateRoot(dir string) (*Authority, error) {
	certPath := filepath.Join(dir, rootCertFile)
	keyPath := filepath.Join(dir, rootKeyFile)

	if _, err := os.Stat(certPath); err == nil {
		if _, err := os.Stat(keyPath); err == nil {
			return loadRoot(certPath, keyPath)
		}
	}
	return generateRoot(dir, certPath, keyPath)
}

func loadRoot(certPath, keyPath string) (*Authority, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, &CertificateError{Op: "load root certificate", Err: err}
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, &CertificateError{Op: "load root key", Err: err}
	}

	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, &CertificateError{Op: "decode root certificate", Err: fmt.Errorf("no PEM block found")}
	}
	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, &CertificateError{Op: "decode root key", Err: fmt.Errorf("no PEM block found")}
	}

	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, &CertificateError{Op: "parse root certificate", Err: err}
	}
	key, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, &CertificateError{Op: "parse root key", Err: err}
	}

	return &Authority{
		rootCert: cert,
		rootDER:  certBlock.Bytes,
		rootKey:  key,
		cache:    newLeafCache(defaultLeafCacheSize),
	}, nil
}

func generateRoot(dir, certPath, keyPath string) (*Authority, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, &CertificateError{Op: "create CA directory", Err: err}
	}

	key, err := rsa.GenerateKey(rand.Reader, rootKeyBits)
	if err != nil {
		return nil, &CertificateError{Op: "generate root key", Err: err}
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, &CertificateError{Op: "generate root serial", Err: err}
	}

	notBefore := time.Now().Add(-leafClockSkew)
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"siphon intercepting proxy"},
			CommonName:   "siphon local interception root",
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(rootValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, &CertificateError{Op: "create root certificate", Err: err}
	}

	certFile, err := os.Create(certPath)
	if err != nil {
		return nil, &CertificateError{Op: "write root certificate", Err: err}
	}
	defer certFile.Close()
	if err := pem.Encode(certFile, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		return nil, &CertificateError{Op: "encode root certificate", Err: err}
	}

	keyFile, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, &CertificateError{Op: "write root key", Err: err}
	}
	defer keyFile.Close()
	if err := pem.Encode(keyFile, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}); err != nil {
		return nil, &CertificateError{Op: "encode root key", Err: err}
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, &CertificateError{Op: "parse generated root certificate", Err: err}
	}

	return &Authority{
		rootCert: cert,
		rootDER:  der,
		rootKey:  key,
		cache:    newLeafCache(defaultLeafCacheSize),
	}, nil
}

// MintLeaf returns a TLS certificate chain (leaf + root) and private key
// for sni, minting a fresh leaf or returning a cached one. The leaf's SAN
// always contains exactly the requested SNI.
func (a *Authority) MintLeaf(sni string) (*tls.Certificate, error) {
	if cert, ok := a.cache.get(sni); ok {
		return cert, nil
	}

	a.mu.RLock()
	rootCert, rootDER, rootKey := a.rootCert, a.rootDER, a.rootKey
	a.mu.RUnlock()

	key, err := rsa.GenerateKey(rand.Reader, leafKeyBits)
	if err != nil {
		return nil, &CertificateError{Op: fmt.Sprintf("generate leaf key for %q", sni), Err: err}
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, &CertificateError{Op: fmt.Sprintf("generate leaf serial for %q", sni), Err: err}
	}

	notBefore := time.Now().Add(-leafClockSkew)
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: sni,
		},
		NotBefore:   notBefore,
		NotAfter:    notBefore.Add(leafValidity),
		KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:    []string{sni},
	}
	if ip := net.ParseIP(sni); ip != nil {
		template.DNSNames = nil
		template.IPAddresses = []net.IP{ip}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, rootCert, &key.PublicKey, rootKey)
	if err != nil {
		return nil, &CertificateError{Op: fmt.Sprintf("sign leaf for %q", sni), Err: err}
	}

	cert := &tls.Certificate{
		Certificate: [][]byte{der, rootDER},
		PrivateKey:  key,
	}
	a.cache.put(sni, cert)
	return cert, nil
}

// RootCertificate returns the authority's self-signed root certificate.
func (a *Authority) RootCertificate() *x509.Certificate {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rootCert
}
