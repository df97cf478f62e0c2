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

import (
	"fmt"
	"time"
)

// ----------------------------------------------------- POWER STATE ------------------------------------------------ //

// PowerState is the power state of a VM as reported by the hypervisor.
type PowerState string

const (
	PowerStateOn        PowerState = "poweredOn"
	PowerStateOff       PowerState = "poweredOff"
	PowerStateSuspended PowerState = "suspended"
	PowerStateUnknown   PowerState = "unknown"
)

// ------------------------------------------------------- VM RECORD ------------------------------------------------ //

// VMRecord describes one VM of a hypervisor inventory snapshot.
//
// Address is empty when the guest did not report any network address to the hypervisor (e.g. the guest agent is not
// running). That is still a valid record: the VM exists but cannot be reached yet.
type VMRecord struct {
	Name       string
	Address    string
	GuestOS    string
	PowerState PowerState
}

// HasAddress reports whether the guest reported an address.
func (r VMRecord) HasAddress() bool {
	return r.Address != ""
}

// --------------------------------------------------- HYPERVISOR ENDPOINT ------------------------------------------ //

// HypervisorKind selects the directory backend used to talk to a hypervisor management endpoint.
type HypervisorKind string

const (
	// VSphereHypervisorKind talks to an ESXi host or a vCenter server.
	VSphereHypervisorKind HypervisorKind = "vsphere"
	// LibvirtHypervisorKind talks to a libvirt daemon.
	LibvirtHypervisorKind HypervisorKind = "libvirt"
)

// HypervisorEndpoint holds everything needed to open one authenticated session against a hypervisor management
// endpoint.
type HypervisorEndpoint struct {
	Kind HypervisorKind

	// URL is the address of the endpoint.
	//
	// For vsphere it may be a bare host ("192.168.1.10") or a full URL ("https://vcenter/sdk").
	// For libvirt it is a connection URI ("qemu+tcp://host/system").
	URL string

	Username string
	Password string

	// Insecure disables TLS certificate verification (vsphere only).
	Insecure bool
	// CAPath is an optional PEM bundle used to verify the endpoint certificate (vsphere only).
	CAPath string

	// Timeout bounds the whole session: connect, login, inventory traversal and logout.
	Timeout time.Duration
}

// String never prints the password.
func (e HypervisorEndpoint) String() string {
	return fmt.Sprintf("%s://%s@%s", e.Kind, e.Username, e.URL)
}

// Retargets reports whether override points at another endpoint than e.
func (e HypervisorEndpoint) Retargets(override HypervisorEndpoint) bool {
	return (override.Kind != "" && override.Kind != e.Kind) || (override.URL != "" && override.URL != e.URL)
}

// Merge returns a copy of e where every non-zero field of override, except Insecure, takes precedence.
//
// When override retargets e, the credentials and CA of e are not carried over: only Insecure and Timeout are kept.
func (e HypervisorEndpoint) Merge(override HypervisorEndpoint) HypervisorEndpoint {
	out := e

	if e.Retargets(override) {
		out = HypervisorEndpoint{
			Kind:     e.Kind,
			URL:      e.URL,
			Insecure: e.Insecure,
			Timeout:  e.Timeout,
		}
	}

	if override.Kind != "" {
		out.Kind = override.Kind
	}

	if override.URL != "" {
		out.URL = override.URL
	}

	if override.Username != "" {
		out.Username = override.Username
	}

	if override.Password != "" {
		out.Password = override.Password
	}

	if override.CAPath != "" {
		out.CAPath = override.CAPath
	}

	if override.Timeout > 0 {
		out.Timeout = override.Timeout
	}

	return out
}
