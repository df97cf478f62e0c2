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
	"time"

	"github.com/spf13/cobra"

	"github.com/alexandremahdhaoui/vmpatch/internal/util/certutil"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/tlsutil"
)

const defaultCertValidity = 90 * 24 * time.Hour

type certsOptions struct {
	dir      string
	hosts    []string
	validity time.Duration
}

func newCertsCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Manage the TLS certificates of vmpatch-api",
	}

	cmd.AddCommand(newCertsGenerateCommand(o))

	return cmd
}

func newCertsGenerateCommand(o *rootOptions) *cobra.Command {
	c := &certsOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a self-signed CA and a server certificate for vmpatch-api",
		Long: `Write ca.crt, tls.crt and tls.key into --dir and print the matching apiServer.tls configuration.

The CA is self-signed: use it for development setups or private networks only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := os.MkdirAll(c.dir, 0o700); err != nil {
				return err
			}

			ca, err := certutil.NewCAWithValidity(c.validity)
			if err != nil {
				return err
			}

			files, err := ca.WriteKeyPair(c.dir, c.hosts...)
			if err != nil {
				return err
			}

			return o.print(cmd.OutOrStdout(), tlsutil.Config{
				Enabled:  true,
				CertPath: files.CertPath,
				KeyPath:  files.KeyPath,
				CAPath:   files.CAPath,
			})
		},
	}

	cmd.Flags().StringVar(&c.dir, "dir", ".", "Directory the CA and server key pair are written to")
	cmd.Flags().StringSliceVar(&c.hosts, "host", []string{"localhost", "127.0.0.1"},
		"DNS name or IP address of the server certificate, repeatable")
	cmd.Flags().DurationVar(&c.validity, "validity", defaultCertValidity, "Validity of the CA and server certificate")

	return cmd
}
