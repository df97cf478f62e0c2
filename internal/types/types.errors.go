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

package types

import "errors"

// Classified errors. Every failure leaving the core wraps exactly one of them (see Classify).
var (
	ErrConnect             = errors.New("cannot connect to remote host")
	ErrAuth                = errors.New("authentication failed")
	ErrTimeout             = errors.New("operation timed out")
	ErrCanceled            = errors.New("operation canceled")
	ErrNotFound            = errors.New("vm not found")
	ErrAddressNotReported  = errors.New("vm has no reported ip address")
	ErrUnsupportedGuest    = errors.New("vm guest os is not supported")
	ErrEndpointUnreachable = errors.New("hypervisor endpoint unreachable")
	ErrInventory           = errors.New("traversing hypervisor inventory")
	ErrRemoteCommandFailed = errors.New("remote command exited with a non-zero status")
	ErrConfiguration       = errors.New("invalid configuration")
)

// ErrorKind is the stable, machine readable name of an error classification.
type ErrorKind string

const (
	ErrorKindConnect             ErrorKind = "connect_error"
	ErrorKindAuth                ErrorKind = "auth_error"
	ErrorKindTimeout             ErrorKind = "timeout"
	ErrorKindCanceled            ErrorKind = "canceled"
	ErrorKindNotFound            ErrorKind = "not_found"
	ErrorKindAddressNotReported  ErrorKind = "address_not_reported"
	ErrorKindUnsupportedGuest    ErrorKind = "unsupported_guest"
	ErrorKindEndpointUnreachable ErrorKind = "endpoint_unreachable"
	ErrorKindInventory           ErrorKind = "inventory_error"
	ErrorKindRemoteCommandFailed ErrorKind = "remote_command_failed"
	ErrorKindConfiguration       ErrorKind = "configuration_error"
	ErrorKindInternal            ErrorKind = "internal"
)

// classifications is ordered: the first sentinel found in the error tree wins. Configuration comes first because a
// bad credential file is a local problem even when it surfaces during an SSH call.
var classifications = []struct {
	err  error
	kind ErrorKind
}{
	{ErrConfiguration, ErrorKindConfiguration},
	{ErrAuth, ErrorKindAuth},
	{ErrTimeout, ErrorKindTimeout},
	{ErrCanceled, ErrorKindCanceled},
	{ErrNotFound, ErrorKindNotFound},
	{ErrAddressNotReported, ErrorKindAddressNotReported},
	{ErrUnsupportedGuest, ErrorKindUnsupportedGuest},
	{ErrEndpointUnreachable, ErrorKindEndpointUnreachable},
	{ErrInventory, ErrorKindInventory},
	{ErrRemoteCommandFailed, ErrorKindRemoteCommandFailed},
	{ErrConnect, ErrorKindConnect},
}

// Classify returns the ErrorKind of err. Unclassified non-nil errors are reported as ErrorKindInternal; nil returns
// an empty kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	for _, c := range classifications {
		if errors.Is(err, c.err) {
			return c.kind
		}
	}

	return ErrorKindInternal
}
