// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tlsutil builds the server TLS configuration of the vmpatch API.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var (
	ErrCertNotFound      = errors.New("certificate file not found")
	ErrKeyNotFound       = errors.New("key file not found")
	ErrCANotFound        = errors.New("CA file not found")
	ErrInvalidClientAuth = errors.New("invalid clientAuth value")
	ErrLoadCertFailed    = errors.New("failed to load certificate")
	ErrLoadCAFailed      = errors.New("failed to load CA file")
	ErrParseCAFailed     = errors.New("failed to parse CA certificate")
)

// Config holds the TLS configuration of a server.
type Config struct {
	// Enabled enables TLS for the server.
	Enabled bool `json:"enabled"`
	// ClientAuth is one of "none", "request" or "require". Client certificates are verified against CAPath.
	ClientAuth string `json:"clientAuth"`
	// CertPath is the path to the server certificate file.
	CertPath string `json:"certPath"`
	// KeyPath is the path to the server private key file.
	KeyPath string `json:"keyPath"`
	// CAPath is the path to the CA certificate used to verify clients.
	CAPath string `json:"caPath"`
}

// BuildTLSConfig builds a tls.Config from config. It returns nil, nil when TLS is disabled.
func BuildTLSConfig(config *Config) (*tls.Config, error) {
	if config == nil || !config.Enabled {
		return nil, nil
	}

	if _, err := os.Stat(config.CertPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCertNotFound, config.CertPath)
	}

	if _, err := os.Stat(config.KeyPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, config.KeyPath)
	}

	clientAuth, err := ParseClientAuth(config.ClientAuth)
	if err != nil {
		return nil, err
	}

	cert, err := tls.LoadX509KeyPair(config.CertPath, config.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadCertFailed, err)
	}

	out := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		ClientAuth:   clientAuth,
	}

	if clientAuth == tls.NoClientCert {
		return out, nil
	}

	caBytes, err := os.ReadFile(config.CAPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrCANotFound, config.CAPath)
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadCAFailed, err)
	}

	out.ClientCAs = x509.NewCertPool()
	if !out.ClientCAs.AppendCertsFromPEM(caBytes) {
		return nil, ErrParseCAFailed
	}

	return out, nil
}

// ParseClientAuth maps a clientAuth value to a tls.ClientAuthType. The empty string means "none".
func ParseClientAuth(clientAuth string) (tls.ClientAuthType, error) {
	switch clientAuth {
	case "", "none":
		return tls.NoClientCert, nil
	case "request":
		return tls.VerifyClientCertIfGiven, nil
	case "require":
		return tls.RequireAndVerifyClientCert, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid values: none, request, require)", ErrInvalidClientAuth, clientAuth)
	}
}
