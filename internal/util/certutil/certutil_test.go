//go:build unit

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

package certutil_test

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandremahdhaoui/vmpatch/internal/util/certutil"
)

func parseCert(t *testing.T, b []byte) *x509.Certificate {
	t.Helper()

	block, rest := pem.Decode(b)
	require.NotNil(t, block)
	assert.Empty(t, rest)
	assert.Equal(t, "CERTIFICATE", block.Type)

	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	return cert
}

func TestNewCA(t *testing.T) {
	ca, err := certutil.NewCA()
	require.NoError(t, err)

	cert := parseCert(t, ca.Cert())
	assert.True(t, cert.IsCA)
	assert.NotNil(t, ca.Pool())
}

func TestNewCertifiedKeyPEM(t *testing.T) {
	ca, err := certutil.NewCA()
	require.NoError(t, err)

	key, certPEM, err := ca.NewCertifiedKeyPEM("localhost", "127.0.0.1")
	require.NoError(t, err)

	cert := parseCert(t, certPEM)
	assert.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.True(t, cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))

	_, err = cert.Verify(x509.VerifyOptions{
		DNSName:   "localhost",
		Roots:     ca.Pool(),
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	require.NoError(t, err)

	_, err = tls.X509KeyPair(certPEM, key)
	assert.NoError(t, err)

	t.Run("serial numbers are unique", func(t *testing.T) {
		_, other, err := ca.NewCertifiedKeyPEM("localhost")
		require.NoError(t, err)
		assert.NotEqual(t, cert.SerialNumber, parseCert(t, other).SerialNumber)
	})
}

func TestWriteKeyPair(t *testing.T) {
	ca, err := certutil.NewCA()
	require.NoError(t, err)

	dir := t.TempDir()

	files, err := ca.WriteKeyPair(dir, "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "tls.crt"), files.CertPath)

	_, err = tls.LoadX509KeyPair(files.CertPath, files.KeyPath)
	require.NoError(t, err)

	caPEM, err := os.ReadFile(files.CAPath)
	require.NoError(t, err)
	assert.Equal(t, ca.Cert(), caPEM)

	_, err = ca.WriteKeyPair(filepath.Join(dir, "missing"), "localhost")
	assert.ErrorIs(t, err, certutil.ErrWriteKeyPair)
}

func TestNewCAWithValidity(t *testing.T) {
	ca, err := certutil.NewCAWithValidity(30 * 24 * time.Hour)
	require.NoError(t, err)

	root := parseCert(t, ca.Cert())
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), root.NotAfter, time.Minute)

	_, certPEM, err := ca.NewCertifiedKeyPEM("vmpatch.example")
	require.NoError(t, err)
	assert.Equal(t, root.NotAfter, parseCert(t, certPEM).NotAfter)

	_, err = certutil.NewCAWithValidity(0)
	assert.ErrorIs(t, err, certutil.ErrNewCA)
}
