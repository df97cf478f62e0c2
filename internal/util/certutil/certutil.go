/*
Copyright 2024 Alexandre Mahdhaoui

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package certutil issues self-signed certificates for the API server, e.g. for development setups and tests.
package certutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	serialNumberBits = 128

	// DefaultValidity is the validity of the certificates issued by a CA created with NewCA.
	DefaultValidity = time.Hour
)

var (
	ErrNewCA        = errors.New("creating CA")
	ErrIssueCert    = errors.New("issuing certificate")
	ErrWriteKeyPair = errors.New("writing key pair")
	errSerialNumber = errors.New("generating serial number")
)

// Files holds the paths written by WriteKeyPair.
type Files struct {
	CertPath string
	KeyPath  string
	CAPath   string
}

// ------------------------------------------------------- CA ------------------------------------------------------- //

// CA is a self-signed certificate authority. It and the certificates it issues share the same validity.
type CA struct {
	key      *ecdsa.PrivateKey
	pool     *x509.CertPool
	rootCert *x509.Certificate
	validity time.Duration
}

// NewCA creates a new CA valid for DefaultValidity.
func NewCA() (*CA, error) {
	return NewCAWithValidity(DefaultValidity)
}

// NewCAWithValidity creates a new CA valid for validity from now.
func NewCAWithValidity(validity time.Duration) (*CA, error) {
	if validity <= 0 {
		return nil, fmt.Errorf("%w: validity must be positive, got %s", ErrNewCA, validity)
	}

	serial, err := newSerialNumber()
	if err != nil {
		return nil, errors.Join(err, ErrNewCA)
	}

	template := &x509.Certificate{
		Subject:               pkix.Name{Organization: []string{"vmpatch CA"}},
		SerialNumber:          serial,
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(validity),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Join(err, ErrNewCA)
	}

	raw, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	if err != nil {
		return nil, errors.Join(err, ErrNewCA)
	}

	root, err := x509.ParseCertificate(raw)
	if err != nil {
		return nil, errors.Join(err, ErrNewCA)
	}

	pool := x509.NewCertPool()
	pool.AddCert(root)

	return &CA{key: key, pool: pool, rootCert: root, validity: validity}, nil
}

// Pool returns a pool trusting only this CA.
func (ca *CA) Pool() *x509.CertPool {
	return ca.pool
}

// Cert returns the CA certificate in PEM format.
func (ca *CA) Cert() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ca.rootCert.Raw})
}

// ------------------------------------------------ CertifiedKeypair ------------------------------------------------ //

// NewCertifiedKeyPEM issues a server and client certificate for hosts. Hosts parsing as IP addresses become IP SANs,
// the others DNS SANs.
func (ca *CA) NewCertifiedKeyPEM(hosts ...string) (key []byte, cert []byte, err error) {
	serial, err := newSerialNumber()
	if err != nil {
		return nil, nil, errors.Join(err, ErrIssueCert)
	}

	template := &x509.Certificate{
		Subject:      pkix.Name{Organization: []string{"vmpatch"}},
		SerialNumber: serial,
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     ca.rootCert.NotAfter,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, errors.Join(err, ErrIssueCert)
	}

	raw, err := x509.CreateCertificate(rand.Reader, template, ca.rootCert, k.Public(), ca.key)
	if err != nil {
		return nil, nil, errors.Join(err, ErrIssueCert)
	}

	kb, err := x509.MarshalPKCS8PrivateKey(k)
	if err != nil {
		return nil, nil, errors.Join(err, ErrIssueCert)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: kb}),
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: raw}),
		nil
}

// WriteKeyPair issues a certificate for hosts and writes it, its key and the CA certificate into dir.
func (ca *CA) WriteKeyPair(dir string, hosts ...string) (Files, error) {
	key, cert, err := ca.NewCertifiedKeyPEM(hosts...)
	if err != nil {
		return Files{}, err
	}

	files := Files{
		CertPath: filepath.Join(dir, "tls.crt"),
		KeyPath:  filepath.Join(dir, "tls.key"),
		CAPath:   filepath.Join(dir, "ca.crt"),
	}

	for path, content := range map[string][]byte{
		files.CertPath: cert,
		files.KeyPath:  key,
		files.CAPath:   ca.Cert(),
	} {
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return Files{}, errors.Join(err, ErrWriteKeyPair)
		}
	}

	return files, nil
}

func newSerialNumber() (*big.Int, error) {
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), serialNumberBits))
	if err != nil {
		return nil, errors.Join(err, errSerialNumber)
	}

	return n, nil
}
