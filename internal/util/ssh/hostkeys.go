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
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

// HostKeyPolicy decides what happens when a guest presents a host key that is not in the known_hosts file.
type HostKeyPolicy string

const (
	// HostKeyPolicyStrict rejects unknown host keys.
	HostKeyPolicyStrict HostKeyPolicy = "strict"
	// HostKeyPolicyTOFU accepts an unknown host key and records it (trust-on-first-use).
	HostKeyPolicyTOFU HostKeyPolicy = "tofu"
)

var (
	errUnknownHostKeyPolicy = errors.New("unknown host key policy")
	errKnownHostsMissing    = errors.New("known_hosts file does not exist")
	errKnownHostsPrepare    = errors.New("preparing known_hosts file")
	errKnownHostsLoad       = errors.New("loading known_hosts file")
	errKnownHostsRecord     = errors.New("recording host key")
)

// HostKeys verifies guest host keys against an OpenSSH known_hosts file.
//
// A key that differs from the recorded one is rejected under every policy.
type HostKeys struct {
	path   string
	policy HostKeyPolicy

	// mu serializes reads and appends of the known_hosts file.
	mu sync.Mutex
}

// NewHostKeys returns a HostKeys backed by the known_hosts file at path.
//
// Under HostKeyPolicyStrict the file must exist. Under HostKeyPolicyTOFU the file (and its parent directory) is
// created when missing.
func NewHostKeys(path string, policy HostKeyPolicy) (*HostKeys, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, errors.Join(err, types.ErrConfiguration)
	}

	switch policy {
	case HostKeyPolicyStrict:
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Join(err, fmt.Errorf("%w: %s", errKnownHostsMissing, path), types.ErrConfiguration)
		}
	case HostKeyPolicyTOFU:
		if err := ensureFile(path); err != nil {
			return nil, errors.Join(err, errKnownHostsPrepare, types.ErrConfiguration)
		}
	default:
		return nil, errors.Join(fmt.Errorf("%w: %q", errUnknownHostKeyPolicy, policy), types.ErrConfiguration)
	}

	return &HostKeys{
		path:   path,
		policy: policy,
	}, nil
}

// Policy returns the configured policy.
func (h *HostKeys) Policy() HostKeyPolicy {
	return h.policy
}

// Callback loads the known_hosts file and returns a callback for one connection. The file is read on every call so
// keys recorded by concurrent connections are taken into account.
func (h *HostKeys) Callback() (ssh.HostKeyCallback, error) {
	h.mu.Lock()
	cb, err := knownhosts.New(h.path)
	h.mu.Unlock()

	if err != nil {
		return nil, errors.Join(err, errKnownHostsLoad, types.ErrConfiguration)
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := cb(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if h.policy == HostKeyPolicyTOFU && errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			return h.record(hostname, key)
		}

		return err
	}, nil
}

func (h *HostKeys) record(hostname string, key ssh.PublicKey) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.Join(err, errKnownHostsRecord)
	}
	defer runFuncAndLogErr(f.Close)

	if _, err := fmt.Fprintln(f, knownhosts.Line([]string{hostname}, key)); err != nil {
		return errors.Join(err, errKnownHostsRecord)
	}

	slog.Warn("trusting host key on first use",
		"host", hostname,
		"fingerprint", ssh.FingerprintSHA256(key),
		"knownHosts", h.path,
	)

	return nil
}

func ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	return f.Close()
}
