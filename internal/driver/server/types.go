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

package server

import "github.com/alexandremahdhaoui/vmpatch/internal/types"

// The field names are those of the chat agent tool definitions.

// ----------------------------------------------------- REQUESTS --------------------------------------------------- //

type hypervisorEndpoint struct {
	HostIP         string `json:"esxi_host_ip,omitempty"`
	Username       string `json:"esxi_username,omitempty"`
	Password       string `json:"esxi_password,omitempty"`
	HypervisorKind string `json:"hypervisor_kind,omitempty"`
}

func (h hypervisorEndpoint) endpoint() types.HypervisorEndpoint {
	return types.HypervisorEndpoint{
		Kind:     types.HypervisorKind(h.HypervisorKind),
		URL:      h.HostIP,
		Username: h.Username,
		Password: h.Password,
	}
}

type vmDiscoveryRequest struct {
	hypervisorEndpoint

	VMName string `json:"vm_name"`
}

type vmConfig struct {
	IPAddress  string `json:"ip_address"`
	Username   string `json:"username,omitempty"`
	SSHKeyPath string `json:"ssh_key_path,omitempty"`
}

func (v vmConfig) target() types.UpgradeTarget {
	return types.UpgradeTarget{
		Address: v.IPAddress,
		Credential: types.RemoteCredential{
			Username: v.Username,
			KeyPath:  v.SSHKeyPath,
		},
	}
}

// ---------------------------------------------------- RESPONSES --------------------------------------------------- //

type vmSummary struct {
	VMName     string `json:"vm_name"`
	IPAddress  string `json:"ip_address"`
	GuestOS    string `json:"guest_os"`
	PowerState string `json:"power_state"`
}

func toVMSummary(vm types.VMRecord) vmSummary {
	return vmSummary{
		VMName:     vm.Name,
		IPAddress:  vm.Address,
		GuestOS:    vm.GuestOS,
		PowerState: string(vm.PowerState),
	}
}

type vmResponse struct {
	Status string `json:"status"`
	vmSummary
}

type vmListResponse struct {
	Status       string      `json:"status"`
	PoweredOnVMs []vmSummary `json:"powered_on_vms"`
}

type upgradeResponse struct {
	Status         string `json:"status"`
	PackageManager string `json:"package_manager"`
	Details        string `json:"details"`
}

type failureResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorKind string `json:"error_kind"`
	Details   string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
