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

// Package commands defines the vmpatchctl command tree. Every command runs one VMPatch operation and prints its
// outcome as JSON or YAML.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexandremahdhaoui/vmpatch/internal/app"
	"github.com/alexandremahdhaoui/vmpatch/internal/config"
	"github.com/alexandremahdhaoui/vmpatch/internal/controller"
)

// VMPatchFactory builds the VMPatch a command runs against.
type VMPatchFactory func(cfg *config.Config) (controller.VMPatch, error)

var errUnknownOutput = errors.New("unknown output format")

type rootOptions struct {
	configPath string
	output     string
	verbose    bool

	factory VMPatchFactory
}

// Root returns the root command of vmpatchctl.
func Root() *cobra.Command {
	return NewRoot(func(cfg *config.Config) (controller.VMPatch, error) {
		return app.NewVMPatch(cfg, nil)
	})
}

// NewRoot returns the root command of vmpatchctl, running its operations against the VMPatch built by factory.
func NewRoot(factory VMPatchFactory) *cobra.Command {
	o := &rootOptions{factory: factory}

	cmd := &cobra.Command{
		Use:   "vmpatchctl",
		Short: "Find VMs on a hypervisor and manage their apt upgrades",
		Long: `vmpatchctl resolves VMs through ESXi/vCenter or libvirt and checks or applies apt upgrades over SSH.

The configuration file is the one of vmpatch-api. Secrets may be passed through
VMPATCH_HYPERVISOR_PASSWORD and VMPATCH_SSH_KEY_PASSPHRASE.

Examples:
  # Resolve a VM to its address
  vmpatchctl vm get OpenVPN-Server-Prod

  # Check then apply upgrades
  vmpatchctl upgrades check 192.168.1.100 -u ubuntu
  vmpatchctl upgrades apply 192.168.1.100 -u ubuntu -o yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch o.output {
			case outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("%w: %q (valid values: %s, %s)", errUnknownOutput, o.output, outputJSON, outputYAML)
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", os.Getenv(config.PathEnvKey),
		"Path to the configuration file (default: $"+config.PathEnvKey+", or built-in defaults)")
	cmd.PersistentFlags().StringVarP(&o.output, "output", "o", outputJSON, "Output format: json or yaml")
	cmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Log debug messages to stderr")

	cmd.AddCommand(newVMCommand(o))
	cmd.AddCommand(newUpgradesCommand(o))
	cmd.AddCommand(newCertsCommand(o))
	cmd.AddCommand(Version())

	return cmd
}

// vmpatch loads the configuration, sets up logging to stderr and builds the VMPatch.
func (o *rootOptions) vmpatch() (controller.VMPatch, func(), error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, func() {}, err
	}

	if o.verbose {
		cfg.Logging.Level = "debug"
	} else if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}

	_, flush, err := app.SetupLogging(cfg, "stderr")
	if err != nil {
		return nil, func() {}, err
	}

	vmpatch, err := o.factory(cfg)
	if err != nil {
		flush()
		return nil, func() {}, err
	}

	return vmpatch, flush, nil
}
