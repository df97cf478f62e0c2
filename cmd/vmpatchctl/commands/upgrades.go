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
	"context"

	"github.com/spf13/cobra"

	"github.com/alexandremahdhaoui/vmpatch/internal/controller"
	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

type upgradesOptions struct {
	username string
	keyPath  string
}

func (u *upgradesOptions) target(address string) types.UpgradeTarget {
	return types.UpgradeTarget{
		Address: address,
		Credential: types.RemoteCredential{
			Username: u.username,
			KeyPath:  u.keyPath,
		},
	}
}

type upgradeOperation func(
	vmpatch controller.VMPatch,
	ctx context.Context,
	target types.UpgradeTarget,
) (types.UpgradeResult, error)

func newUpgradesCommand(o *rootOptions) *cobra.Command {
	u := &upgradesOptions{}

	cmd := &cobra.Command{
		Use:   "upgrades",
		Short: "Check or apply apt upgrades on a VM over SSH",
	}

	cmd.PersistentFlags().StringVarP(&u.username, "username", "u", "", "SSH username (default: ssh.defaultUsername)")
	cmd.PersistentFlags().StringVarP(&u.keyPath, "key", "k", "", "SSH private key path (default: ssh.defaultKeyPath)")

	cmd.AddCommand(newUpgradeCommand(o, u, "check ADDRESS", "List the pending apt upgrades",
		controller.VMPatch.CheckUpgrades))

	cmd.AddCommand(newUpgradeCommand(o, u, "apply ADDRESS",
		"Apply every pending apt upgrade. Interrupting vmpatchctl does not stop an upgrade already running",
		controller.VMPatch.ApplyUpgrades))

	return cmd
}

func newUpgradeCommand(o *rootOptions, u *upgradesOptions, use, short string, op upgradeOperation) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vmpatch, flush, err := o.vmpatch()
			if err != nil {
				return err
			}
			defer flush()

			result, err := op(vmpatch, cmd.Context(), u.target(args[0]))
			if err != nil {
				return failure(cmd.ErrOrStderr(), err, result.Detail)
			}

			return o.print(cmd.OutOrStdout(), toUpgradeOutput(result))
		},
	}
}
