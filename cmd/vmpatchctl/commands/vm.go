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
	"os"

	"github.com/spf13/cobra"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

// hypervisorPasswordEnvKey holds the password of the endpoint named by --hypervisor-url, which does not inherit the
// configured one.
const hypervisorPasswordEnvKey = "VMPATCHCTL_HYPERVISOR_PASSWORD" //nolint:gosec

type vmOptions struct {
	kind     string
	url      string
	username string
}

func (v *vmOptions) endpoint() types.HypervisorEndpoint {
	return types.HypervisorEndpoint{
		Kind:     types.HypervisorKind(v.kind),
		URL:      v.url,
		Username: v.username,
		Password: os.Getenv(hypervisorPasswordEnvKey),
	}
}

func newVMCommand(o *rootOptions) *cobra.Command {
	v := &vmOptions{}

	cmd := &cobra.Command{
		Use:   "vm",
		Short: "Query the VMs of the hypervisor",
	}

	cmd.PersistentFlags().StringVar(&v.kind, "hypervisor-kind", "", "Override the hypervisor kind: vsphere or libvirt")
	cmd.PersistentFlags().StringVar(&v.url, "hypervisor-url", "",
		"Override the ESXi/vCenter host or URL, or the libvirt connection URI. Requires --hypervisor-username, and the "+
			"password in "+hypervisorPasswordEnvKey+" for vsphere")
	cmd.PersistentFlags().StringVar(&v.username, "hypervisor-username", "", "Override the hypervisor username")

	cmd.AddCommand(newVMGetCommand(o, v))
	cmd.AddCommand(newVMListCommand(o, v))

	return cmd
}

func newVMGetCommand(o *rootOptions, v *vmOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Resolve a Linux VM by exact name to its IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vmpatch, flush, err := o.vmpatch()
			if err != nil {
				return err
			}
			defer flush()

			vm, err := vmpatch.ResolveVM(cmd.Context(), v.endpoint(), args[0])
			if err != nil {
				return failure(cmd.ErrOrStderr(), err, "")
			}

			return o.print(cmd.OutOrStdout(), toVMOutput(vm))
		},
	}
}

func newVMListCommand(o *rootOptions, v *vmOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the powered on VMs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vmpatch, flush, err := o.vmpatch()
			if err != nil {
				return err
			}
			defer flush()

			vms, err := vmpatch.ListPoweredOnVMs(cmd.Context(), v.endpoint())
			if err != nil {
				return failure(cmd.ErrOrStderr(), err, "")
			}

			out := make([]vmOutput, 0, len(vms))
			for _, vm := range vms {
				out = append(out, toVMOutput(vm))
			}

			return o.print(cmd.OutOrStdout(), out)
		},
	}
}
