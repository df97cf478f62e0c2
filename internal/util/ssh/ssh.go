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

// Package ssh runs single commands on remote guests.
//
// Every call to Execute opens its own TCP connection, authenticates with public-key material only, runs exactly one
// command in a fresh session and closes the connection before returning, including on timeout, cancellation and
// authentication failure. Nothing is pooled or reused between calls.
package ssh

import (
	"context"
	"time"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

// Executor runs one command line on a remote host.
type Executor interface {
	// Execute connects to address, runs command and returns its outcome.
	//
	// A non-zero exit status is not an error: it is reported in the returned CommandOutcome. Errors wrap one of
	// types.ErrConnect, types.ErrAuth, types.ErrTimeout, types.ErrCanceled or types.ErrConfiguration.
	//
	// Once the command has been dispatched, cancelling ctx only stops the local wait: the remote process may keep
	// running.
	Execute(
		ctx context.Context,
		address string,
		credential types.RemoteCredential,
		command string,
		timeout time.Duration,
	) (types.CommandOutcome, error)
}
