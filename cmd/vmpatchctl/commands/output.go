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

package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"sigs.k8s.io/yaml"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

type vmOutput struct {
	VMName     string `json:"vm_name"`
	IPAddress  string `json:"ip_address"`
	GuestOS    string `json:"guest_os"`
	PowerState string `json:"power_state"`
}

func toVMOutput(vm types.VMRecord) vmOutput {
	return vmOutput{
		VMName:     vm.Name,
		IPAddress:  vm.Address,
		GuestOS:    vm.GuestOS,
		PowerState: string(vm.PowerState),
	}
}

type upgradeOutput struct {
	Status         string `json:"status"`
	PackageManager string `json:"package_manager"`
	Details        string `json:"details"`
}

func toUpgradeOutput(result types.UpgradeResult) upgradeOutput {
	return upgradeOutput{
		Status:         string(result.Status),
		PackageManager: result.PackageManager,
		Details:        result.Detail,
	}
}

func (o *rootOptions) print(w io.Writer, v any) error {
	switch o.output {
	case outputYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}

		_, err = w.Write(b)

		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	}
}

// failure prefixes err with its kind. The transcript of a failed remote command is written to w first.
func failure(w io.Writer, err error, details string) error {
	if details != "" {
		_, _ = fmt.Fprintln(w, details)
	}

	return fmt.Errorf("%s: %w", types.Classify(err), err)
}
