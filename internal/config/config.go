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

// Package config loads the configuration shared by vmpatch-api and vmpatchctl.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"

	"github.com/alexandremahdhaoui/vmpatch/internal/adapter"
	"github.com/alexandremahdhaoui/vmpatch/internal/types"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/logging"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/ssh"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/tlsutil"
)

const (
	// PathEnvKey is the environment variable naming the configuration file.
	PathEnvKey = "VMPATCH_CONFIG_PATH"
	// HypervisorPasswordEnvKey overrides hypervisor.password.
	HypervisorPasswordEnvKey = "VMPATCH_HYPERVISOR_PASSWORD" //nolint:gosec
	// SSHKeyPassphraseEnvKey overrides ssh.defaultKeyPassphrase.
	SSHKeyPassphraseEnvKey = "VMPATCH_SSH_KEY_PASSPHRASE" //nolint:gosec

	DefaultKeyPath        = "~/.ssh/openwebui_vm_key"
	DefaultKnownHostsPath = "~/.ssh/known_hosts"
	DefaultAPIPort        = 8000
	DefaultMetricsPort    = 8080
	DefaultMetricsPath    = "/metrics"
	DefaultProbesPort     = 8081
	DefaultLivenessPath   = "/healthz"
	DefaultReadinessPath  = "/readyz"
)

var (
	ErrLoad     = errors.New("loading configuration")
	ErrValidate = errors.New("validating configuration")

	errPathEnvNotSet = fmt.Errorf("environment variable %q must be set", PathEnvKey)
)

// Config is used to configure vmpatch.
//
// Secrets may be passed through environment variables instead of the file.
type Config struct {
	// Hypervisor is the default hypervisor management endpoint. Requests may override any field but Insecure.
	Hypervisor struct {
		// Kind is "vsphere" or "libvirt".
		Kind types.HypervisorKind `json:"kind"`
		// URL is the ESXi/vCenter host or URL, or the libvirt connection URI.
		URL      string `json:"url"`
		Username string `json:"username"`
		Password string `json:"password"`
		// Insecure skips the verification of the endpoint TLS certificate.
		Insecure bool   `json:"insecure"`
		CAPath   string `json:"caPath"`
		// Timeout bounds a whole hypervisor session.
		Timeout metav1.Duration `json:"timeout"`
	} `json:"hypervisor"`

	// SSH configures the connections to the guests.
	SSH struct {
		DefaultUsername      string `json:"defaultUsername"`
		DefaultKeyPath       string `json:"defaultKeyPath"`
		DefaultKeyPassphrase string `json:"defaultKeyPassphrase"`
		KnownHostsPath       string `json:"knownHostsPath"`
		// HostKeyPolicy is "strict" or "tofu".
		HostKeyPolicy  ssh.HostKeyPolicy `json:"hostKeyPolicy"`
		Port           int               `json:"port"`
		ConnectTimeout metav1.Duration   `json:"connectTimeout"`
		CommandTimeout metav1.Duration   `json:"commandTimeout"`
	} `json:"ssh"`

	// Upgrades configures the upgrade check and apply operations.
	Upgrades struct {
		// MaxDetailBytes bounds the transcript returned to the caller.
		MaxDetailBytes int `json:"maxDetailBytes"`
		// RequireLinuxGuest rejects VMs whose guest OS is not Linux. Defaults to true.
		RequireLinuxGuest *bool `json:"requireLinuxGuest"`
		// CommandEnv is set on the sudo command line of every apt-get call. Empty by default: sudo refuses it unless
		// the sudoers rule of the SSH user carries the SETENV tag.
		CommandEnv map[string]string `json:"commandEnv"`
	} `json:"upgrades"`

	// APIServer is the configuration for the API server.
	APIServer struct {
		Port int            `json:"port"`
		TLS  tlsutil.Config `json:"tls"`
	} `json:"apiServer"`

	// MetricsServer is the configuration for the metrics server.
	MetricsServer struct {
		Path string `json:"path"`
		Port int    `json:"port"`
	} `json:"metricsServer"`

	// ProbesServer is the configuration for the probes server.
	ProbesServer struct {
		LivenessPath  string `json:"livenessPath"`
		ReadinessPath string `json:"readinessPath"`
		Port          int    `json:"port"`
	} `json:"probesServer"`

	Logging struct {
		Development bool `json:"development"`
		// Level is one of "debug", "info", "warn" or "error".
		Level string `json:"level"`
	} `json:"logging"`
}

// ------------------------------------------------------ LOAD ------------------------------------------------------ //

// LoadFromEnv loads the file named by VMPATCH_CONFIG_PATH.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(PathEnvKey)
	if path == "" {
		return nil, errors.Join(errPathEnvNotSet, types.ErrConfiguration, ErrLoad)
	}

	return Load(path)
}

// Load reads, defaults and validates the configuration file at path. An empty path yields the defaults, completed by
// the environment.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Join(err, types.ErrConfiguration, ErrLoad)
		}

		// Parse YAML (uses json tags)
		if err := yaml.UnmarshalStrict(b, config); err != nil {
			return nil, errors.Join(err, types.ErrConfiguration, ErrLoad)
		}
	}

	if v := os.Getenv(HypervisorPasswordEnvKey); v != "" {
		config.Hypervisor.Password = v
	}

	if v := os.Getenv(SSHKeyPassphraseEnvKey); v != "" {
		config.SSH.DefaultKeyPassphrase = v
	}

	config.Default()

	if err := config.Validate(); err != nil {
		return nil, errors.Join(err, ErrLoad)
	}

	return config, nil
}

// Default sets every unset field to its default value.
func (c *Config) Default() {
	defaultString(&c.Hypervisor.Kind, types.VSphereHypervisorKind)
	defaultDuration(&c.Hypervisor.Timeout, adapter.DefaultHypervisorTimeout)

	defaultString(&c.SSH.DefaultKeyPath, DefaultKeyPath)
	defaultString(&c.SSH.KnownHostsPath, DefaultKnownHostsPath)
	defaultString(&c.SSH.HostKeyPolicy, ssh.HostKeyPolicyStrict)
	defaultInt(&c.SSH.Port, ssh.DefaultPort)
	defaultDuration(&c.SSH.ConnectTimeout, ssh.DefaultConnectTimeout)
	defaultDuration(&c.SSH.CommandTimeout, adapter.DefaultCommandTimeout)

	defaultInt(&c.Upgrades.MaxDetailBytes, adapter.DefaultMaxDetailBytes)

	if c.Upgrades.RequireLinuxGuest == nil {
		c.Upgrades.RequireLinuxGuest = ptr.To(true)
	}

	defaultInt(&c.APIServer.Port, DefaultAPIPort)
	defaultInt(&c.MetricsServer.Port, DefaultMetricsPort)
	defaultString(&c.MetricsServer.Path, DefaultMetricsPath)
	defaultInt(&c.ProbesServer.Port, DefaultProbesPort)
	defaultString(&c.ProbesServer.LivenessPath, DefaultLivenessPath)
	defaultString(&c.ProbesServer.ReadinessPath, DefaultReadinessPath)
}

// ---------------------------------------------------- VALIDATE ---------------------------------------------------- //

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Hypervisor.Kind {
	case types.VSphereHypervisorKind, types.LibvirtHypervisorKind:
	default:
		errs = append(errs, fmt.Errorf("hypervisor.kind: unknown kind %q", c.Hypervisor.Kind))
	}

	switch c.SSH.HostKeyPolicy {
	case ssh.HostKeyPolicyStrict, ssh.HostKeyPolicyTOFU:
	default:
		errs = append(errs, fmt.Errorf("ssh.hostKeyPolicy: unknown policy %q", c.SSH.HostKeyPolicy))
	}

	for name, d := range map[string]metav1.Duration{
		"hypervisor.timeout": c.Hypervisor.Timeout,
		"ssh.connectTimeout": c.SSH.ConnectTimeout,
		"ssh.commandTimeout": c.SSH.CommandTimeout,
	} {
		if d.Duration <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %s", name, d.Duration))
		}
	}

	for name, port := range map[string]int{
		"ssh.port":           c.SSH.Port,
		"apiServer.port":     c.APIServer.Port,
		"metricsServer.port": c.MetricsServer.Port,
		"probesServer.port":  c.ProbesServer.Port,
	} {
		if port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s: invalid port %d", name, port))
		}
	}

	if c.Upgrades.MaxDetailBytes <= 0 {
		errs = append(errs, fmt.Errorf("upgrades.maxDetailBytes: must be positive, got %d", c.Upgrades.MaxDetailBytes))
	}

	if tls := c.APIServer.TLS; tls.Enabled {
		if tls.CertPath == "" || tls.KeyPath == "" {
			errs = append(errs, errors.New("apiServer.tls: certPath and keyPath must be set when tls is enabled"))
		}

		if _, err := tlsutil.ParseClientAuth(tls.ClientAuth); err != nil {
			errs = append(errs, fmt.Errorf("apiServer.tls.clientAuth: %w", err))
		} else if tls.ClientAuth != "" && tls.ClientAuth != "none" && tls.CAPath == "" {
			errs = append(errs, errors.New("apiServer.tls: caPath must be set when clientAuth is enabled"))
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	if len(errs) == 0 {
		return nil
	}

	return errors.Join(append(errs, types.ErrConfiguration, ErrValidate)...)
}

// ---------------------------------------------------- ACCESSORS --------------------------------------------------- //

// HypervisorEndpoint returns the default hypervisor endpoint.
func (c *Config) HypervisorEndpoint() types.HypervisorEndpoint {
	return types.HypervisorEndpoint{
		Kind:     c.Hypervisor.Kind,
		URL:      c.Hypervisor.URL,
		Username: c.Hypervisor.Username,
		Password: c.Hypervisor.Password,
		Insecure: c.Hypervisor.Insecure,
		CAPath:   c.Hypervisor.CAPath,
		Timeout:  c.Hypervisor.Timeout.Duration,
	}
}

// RemoteCredential returns the default guest credential.
func (c *Config) RemoteCredential() types.RemoteCredential {
	return types.RemoteCredential{
		Username:   c.SSH.DefaultUsername,
		KeyPath:    c.SSH.DefaultKeyPath,
		Passphrase: c.SSH.DefaultKeyPassphrase,
	}
}

// RequireLinuxGuest reports whether resolved VMs must run Linux.
func (c *Config) RequireLinuxGuest() bool {
	return ptr.Deref(c.Upgrades.RequireLinuxGuest, true)
}

// ----------------------------------------------------- HELPERS ---------------------------------------------------- //

func defaultString[T ~string](field *T, value T) {
	if *field == "" {
		*field = value
	}
}

func defaultInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

func defaultDuration(field *metav1.Duration, value time.Duration) {
	if field.Duration == 0 {
		field.Duration = value
	}
}
