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

package ssh

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

var (
	errEmptyAddress       = errors.New("address cannot be empty")
	errEmptyUsername      = errors.New("username cannot be empty")
	errEmptyKeyPath       = errors.New("private key path cannot be empty")
	errReadPrivateKey     = errors.New("unable to read private key")
	errParsePrivateKey    = errors.New("unable to parse private key")
	errPassphraseRequired = errors.New("private key is encrypted and no passphrase was provided")
)

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// loadSigner reads and parses the private key referenced by the credential.
func loadSigner(credential types.RemoteCredential) (ssh.Signer, error) {
	if credential.Username == "" {
		return nil, errors.Join(errEmptyUsername, types.ErrConfiguration)
	}

	if credential.KeyPath == "" {
		return nil, errors.Join(errEmptyKeyPath, types.ErrConfiguration)
	}

	path, err := ExpandHome(credential.KeyPath)
	if err != nil {
		return nil, errors.Join(err, errReadPrivateKey, types.ErrConfiguration)
	}

	key, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(err, errReadPrivateKey, types.ErrConfiguration)
	}

	var signer ssh.Signer
	if credential.Passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(credential.Passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(key)
	}

	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		return nil, errors.Join(errPassphraseRequired, types.ErrConfiguration)
	}

	if err != nil {
		return nil, errors.Join(err, errParsePrivateKey, types.ErrConfiguration)
	}

	return signer, nil
}

// hostPort returns address as "host:port", adding defaultPort when address has no port. Bare IPv6 addresses are
// accepted.
func hostPort(address string, defaultPort int) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", errors.Join(errEmptyAddress, types.ErrConfiguration)
	}

	if host, port, err := net.SplitHostPort(address); err == nil {
		return net.JoinHostPort(host, port), nil
	}

	host := strings.TrimSuffix(strings.TrimPrefix(address, "["), "]")

	return net.JoinHostPort(host, strconv.Itoa(defaultPort)), nil
}
