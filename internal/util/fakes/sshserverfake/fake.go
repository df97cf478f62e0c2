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

// Package sshserverfake is an in-process SSH server that answers "exec" requests with canned outcomes.
package sshserverfake

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Response is what the fake answers to a single exec request.
type Response struct {
	Stdout     string
	Stderr     string
	ExitStatus int
	// Delay is waited before answering. The wait is interrupted when the client closes the connection.
	Delay time.Duration
}

// Handler returns the Response for a command.
type Handler = func(command string) Response

type Fake struct {
	t *testing.T

	listener   net.Listener
	hostSigner ssh.Signer
	authorized ssh.PublicKey

	mu       sync.Mutex
	handler  Handler
	commands []string

	openConns   atomic.Int64
	closedConns atomic.Int64

	wg sync.WaitGroup
}

// New starts a Fake on 127.0.0.1 with a fresh ed25519 host key. Only the public key of authorizedKeyPath is accepted.
// The server is stopped with t.Cleanup.
func New(t *testing.T, authorizedKeyPath string) *Fake {
	t.Helper()

	b, err := os.ReadFile(authorizedKeyPath)
	require.NoError(t, err)

	clientSigner, err := ssh.ParsePrivateKey(b)
	require.NoError(t, err)

	return start(t, clientSigner.PublicKey())
}

// NewWithEncryptedKey is like New for a passphrase-protected authorized key.
func NewWithEncryptedKey(t *testing.T, authorizedKeyPath, passphrase string) *Fake {
	t.Helper()

	b, err := os.ReadFile(authorizedKeyPath)
	require.NoError(t, err)

	clientSigner, err := ssh.ParsePrivateKeyWithPassphrase(b, []byte(passphrase))
	require.NoError(t, err)

	return start(t, clientSigner.PublicKey())
}

func start(t *testing.T, authorized ssh.PublicKey) *Fake {
	t.Helper()

	_, hostKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	hostSigner, err := ssh.NewSignerFromKey(hostKey)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &Fake{
		t:          t,
		listener:   listener,
		hostSigner: hostSigner,
		authorized: authorized,
		handler:    func(string) Response { return Response{} },
	}

	f.wg.Add(1)

	go f.serve()

	t.Cleanup(func() {
		_ = f.listener.Close()
		f.wg.Wait()
	})

	return f
}

// Addr returns the "host:port" the server listens on.
func (f *Fake) Addr() string {
	return f.listener.Addr().String()
}

// HostPublicKey returns the server's host key.
func (f *Fake) HostPublicKey() ssh.PublicKey {
	return f.hostSigner.PublicKey()
}

// KnownHostsLine returns a known_hosts line trusting this server.
func (f *Fake) KnownHostsLine() string {
	return f.KnownHostsLineFor(f.Addr())
}

// KnownHostsLineFor returns a known_hosts line binding this server's host key to addr.
func (f *Fake) KnownHostsLineFor(addr string) string {
	return knownhosts.Line([]string{addr}, f.HostPublicKey())
}

// SetHandler replaces the handler answering exec requests.
func (f *Fake) SetHandler(h Handler) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handler = h

	return f
}

// Commands returns every command received so far.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.commands...)
}

// OpenConns returns the number of accepted connections that are not closed yet.
func (f *Fake) OpenConns() int64 {
	return f.openConns.Load()
}

// ClosedConns returns the number of connections closed so far.
func (f *Fake) ClosedConns() int64 {
	return f.closedConns.Load()
}

func (f *Fake) serve() {
	defer f.wg.Done()

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), f.authorized.Marshal()) {
				return &ssh.Permissions{}, nil
			}

			return nil, errors.New("unauthorized key")
		},
	}
	config.AddHostKey(f.hostSigner)

	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}

		f.openConns.Add(1)
		f.wg.Add(1)

		go func() {
			defer f.wg.Done()
			defer func() {
				_ = conn.Close()
				f.openConns.Add(-1)
				f.closedConns.Add(1)
			}()

			f.handleConn(conn, config)
		}()
	}
}

func (f *Fake) handleConn(conn net.Conn, config *ssh.ServerConfig) {
	sshConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	defer func() { _ = sshConn.Close() }()

	go ssh.DiscardRequests(reqs)

	// closed is closed once the client goes away.
	closed := make(chan struct{})

	go func() {
		_ = sshConn.Wait()
		close(closed)
	}()

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}

		ch, chReqs, err := newChan.Accept()
		if err != nil {
			return
		}

		go f.handleSession(ch, chReqs, closed)
	}
}

func (f *Fake) handleSession(ch ssh.Channel, reqs <-chan *ssh.Request, closed <-chan struct{}) {
	defer func() { _ = ch.Close() }()

	for req := range reqs {
		if req.Type != "exec" {
			if req.WantReply {
				_ = req.Reply(req.Type == "signal", nil)
			}

			continue
		}

		command := parseString(req.Payload)
		_ = req.Reply(true, nil)

		f.mu.Lock()
		f.commands = append(f.commands, command)
		h := f.handler
		f.mu.Unlock()

		resp := h(command)

		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-closed:
				return
			}
		}

		_, _ = ch.Write([]byte(resp.Stdout))
		_, _ = ch.Stderr().Write([]byte(resp.Stderr))

		status := make([]byte, 4)
		binary.BigEndian.PutUint32(status, uint32(resp.ExitStatus)) //nolint:gosec

		_, _ = ch.SendRequest("exit-status", false, status)

		return
	}
}

// parseString decodes an SSH wire string: a uint32 length followed by the bytes.
func parseString(payload []byte) string {
	if len(payload) < 4 {
		return ""
	}

	n := binary.BigEndian.Uint32(payload)
	if int(n) > len(payload)-4 {
		return ""
	}

	return string(payload[4 : 4+n])
}

// WriteClientKey generates an unencrypted ed25519 key in OpenSSH format under dir and returns its path.
func WriteClientKey(t *testing.T, dir string) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	path := filepath.Join(dir, "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	return path
}

// WriteEncryptedClientKey is like WriteClientKey but protects the key with passphrase.
func WriteEncryptedClientKey(t *testing.T, dir, passphrase string) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte(passphrase))
	require.NoError(t, err)

	path := filepath.Join(dir, "id_ed25519_enc")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	return path
}
