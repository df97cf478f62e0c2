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

package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

const (
	DefaultPort           = 22
	DefaultConnectTimeout = 10 * time.Second
)

var (
	errNilHostKeys      = errors.New("host keys cannot be nil")
	errDial             = errors.New("unable to connect")
	errHandshake        = errors.New("ssh handshake failed")
	errHostKeyRejected  = errors.New("host key verification failed")
	errCredRejected     = errors.New("public key rejected by remote host")
	errNewSession       = errors.New("unable to create SSH session")
	errConnectionLost   = errors.New("connection lost before the command reported an exit status")
	errNonPositiveLimit = errors.New("timeout must be positive")
)

// Options configures a Client.
type Options struct {
	// HostKeys verifies the identity of every guest. Required.
	HostKeys *HostKeys
	// Port is used when an address carries no port. Defaults to DefaultPort.
	Port int
	// ConnectTimeout bounds the TCP dial and the SSH handshake. Defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// Client implements Executor with golang.org/x/crypto/ssh.
type Client struct {
	hostKeys       *HostKeys
	port           int
	connectTimeout time.Duration
}

// NewClient returns a new Client. Options are copied; zero values are replaced by defaults.
func NewClient(opts Options) (*Client, error) {
	if opts.HostKeys == nil {
		return nil, errors.Join(errNilHostKeys, types.ErrConfiguration)
	}

	if opts.Port == 0 {
		opts.Port = DefaultPort
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	return &Client{
		hostKeys:       opts.HostKeys,
		port:           opts.Port,
		connectTimeout: opts.ConnectTimeout,
	}, nil
}

// Execute implements Executor.
func (c *Client) Execute(
	ctx context.Context,
	address string,
	credential types.RemoteCredential,
	command string,
	timeout time.Duration,
) (types.CommandOutcome, error) {
	if timeout <= 0 {
		return types.CommandOutcome{}, errors.Join(errNonPositiveLimit, types.ErrConfiguration)
	}

	addr, err := hostPort(address, c.port)
	if err != nil {
		return types.CommandOutcome{}, err
	}

	signer, err := loadSigner(credential)
	if err != nil {
		return types.CommandOutcome{}, err
	}

	hostKeyCallback, err := c.hostKeys.Callback()
	if err != nil {
		return types.CommandOutcome{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := c.connect(ctx, addr, credential.Username, signer, hostKeyCallback)
	if err != nil {
		return types.CommandOutcome{}, err
	}
	defer runFuncAndLogErr(client.Close)

	return c.run(ctx, client, addr, command)
}

// connect dials addr and performs the SSH handshake. The returned client owns the TCP connection.
func (c *Client) connect(
	ctx context.Context,
	addr, username string,
	signer ssh.Signer,
	hostKeyCallback ssh.HostKeyCallback,
) (*ssh.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	dialer := &net.Dialer{}

	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, classifyContext(ctx, dialCtx, errors.Join(err, fmt.Errorf("%w to %s", errDial, addr), types.ErrConnect))
	}

	// closing the connection is the only way to interrupt a handshake in progress.
	stop := context.AfterFunc(dialCtx, func() { _ = conn.Close() })

	hostKeyRejected := false
	config := &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			if err := hostKeyCallback(hostname, remote, key); err != nil {
				hostKeyRejected = true
				return err
			}

			return nil
		},
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)

	interrupted := !stop()

	switch {
	case err == nil && interrupted:
		// the handshake completed but the deadline fired right after: the connection is already closed.
		_ = sshConn.Close()
		return nil, classifyContext(ctx, dialCtx, errors.Join(errHandshake, types.ErrConnect))
	case err == nil:
		return ssh.NewClient(sshConn, chans, reqs), nil
	}

	_ = conn.Close()

	switch {
	case interrupted:
		return nil, classifyContext(ctx, dialCtx, errors.Join(err, errHandshake, types.ErrConnect))
	case hostKeyRejected:
		return nil, errors.Join(err, fmt.Errorf("%w for %s", errHostKeyRejected, addr), types.ErrAuth)
	case strings.Contains(err.Error(), "unable to authenticate"):
		return nil, errors.Join(err, fmt.Errorf("%w for user %q", errCredRejected, username), types.ErrAuth)
	default:
		return nil, errors.Join(err, errHandshake, types.ErrConnect)
	}
}

// run executes command in a new session. When ctx is done before the command returns, the remote process is sent a
// best-effort SIGKILL and the connection is closed.
func (c *Client) run(ctx context.Context, client *ssh.Client, addr, command string) (types.CommandOutcome, error) {
	session, err := client.NewSession()
	if err != nil {
		return types.CommandOutcome{}, errors.Join(err, errNewSession, types.ErrConnect)
	}
	defer runFuncAndLogErr(session.Close)

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	slog.InfoContext(ctx, "executing remote command", "addr", addr, "command", command)

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = client.Close()
		<-done

		return types.CommandOutcome{
				ExitStatus: -1,
				Stdout:     stdoutBuf.Bytes(),
				Stderr:     stderrBuf.Bytes(),
			},
			classifyContext(ctx, ctx, fmt.Errorf("command on %s did not complete", addr))
	}

	outcome := types.CommandOutcome{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
	}

	var exitErr *ssh.ExitError

	switch {
	case err == nil:
		outcome.ExitStatus = 0
	case errors.As(err, &exitErr):
		// 128+n when the process was killed by signal n.
		outcome.ExitStatus = exitErr.ExitStatus()
	default:
		outcome.ExitStatus = -1
		return outcome, errors.Join(err, errConnectionLost, types.ErrConnect)
	}

	if len(outcome.Stderr) > 0 {
		slog.DebugContext(ctx, "remote command produced stderr", "addr", addr, "exitStatus", outcome.ExitStatus)
	}

	return outcome, nil
}

// classifyContext turns an interrupted operation into ErrCanceled or ErrTimeout. parent is the caller's context,
// scoped is the (possibly tighter) context that bounded the operation. When neither is done, err is returned as is.
func classifyContext(parent, scoped context.Context, err error) error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return errors.Join(err, types.ErrCanceled)
	case scoped.Err() != nil:
		return errors.Join(err, types.ErrTimeout)
	default:
		return err
	}
}

func runFuncAndLogErr(f func() error) {
	if err := f(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Debug("error closing ssh session or connection", "err", err.Error())
	}
}
