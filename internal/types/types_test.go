//go:build unit

package types_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

func TestClassify(t *testing.T) {
	for _, tt := range []struct {
		name     string
		err      error
		expected types.ErrorKind
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "unclassified", err: assert.AnError, expected: types.ErrorKindInternal},
		{name: "context error", err: context.DeadlineExceeded, expected: types.ErrorKindInternal},
		{name: "joined", err: errors.Join(assert.AnError, types.ErrAuth), expected: types.ErrorKindAuth},
		{name: "wrapped", err: fmt.Errorf("dial: %w", types.ErrConnect), expected: types.ErrorKindConnect},
		{name: "not found", err: types.ErrNotFound, expected: types.ErrorKindNotFound},
		{
			name:     "address not reported",
			err:      types.ErrAddressNotReported,
			expected: types.ErrorKindAddressNotReported,
		},
		{name: "unsupported guest", err: types.ErrUnsupportedGuest, expected: types.ErrorKindUnsupportedGuest},
		{name: "unreachable", err: types.ErrEndpointUnreachable, expected: types.ErrorKindEndpointUnreachable},
		{name: "inventory", err: types.ErrInventory, expected: types.ErrorKindInventory},
		{name: "canceled", err: types.ErrCanceled, expected: types.ErrorKindCanceled},
		{
			name:     "remote command failed",
			err:      types.ErrRemoteCommandFailed,
			expected: types.ErrorKindRemoteCommandFailed,
		},
		{
			name:     "configuration wins over auth",
			err:      errors.Join(types.ErrAuth, types.ErrConfiguration),
			expected: types.ErrorKindConfiguration,
		},
		{
			name:     "timeout wins over connect",
			err:      errors.Join(types.ErrConnect, types.ErrTimeout),
			expected: types.ErrorKindTimeout,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, types.Classify(tt.err))
		})
	}
}

func TestHypervisorEndpoint(t *testing.T) {
	base := types.HypervisorEndpoint{
		Kind:     types.VSphereHypervisorKind,
		URL:      "192.168.1.10",
		Username: "root",
		Password: "secret",
		Insecure: true,
		CAPath:   "/etc/vmpatch/ca.pem",
		Timeout:  30 * time.Second,
	}

	t.Run("Merge", func(t *testing.T) {
		t.Run("empty override", func(t *testing.T) {
			assert.Equal(t, base, base.Merge(types.HypervisorEndpoint{}))
		})

		t.Run("override", func(t *testing.T) {
			actual := base.Merge(types.HypervisorEndpoint{
				Kind:     types.LibvirtHypervisorKind,
				URL:      "qemu+ssh://ops@10.0.0.2/system",
				Username: "ops",
				Password: "other",
				Timeout:  time.Minute,
			})

			assert.Equal(t, types.HypervisorEndpoint{
				Kind:     types.LibvirtHypervisorKind,
				URL:      "qemu+ssh://ops@10.0.0.2/system",
				Username: "ops",
				Password: "other",
				Insecure: true,
				Timeout:  time.Minute,
			}, actual)
		})

		t.Run("retargeting drops the configured credentials", func(t *testing.T) {
			for _, override := range []types.HypervisorEndpoint{
				{URL: "attacker.example"},
				{Kind: types.LibvirtHypervisorKind},
				{Kind: types.LibvirtHypervisorKind, URL: "qemu+ext:///system?command=/usr/bin/id"},
			} {
				assert.True(t, base.Retargets(override), override.String())

				actual := base.Merge(override)
				assert.Empty(t, actual.Username, override.String())
				assert.Empty(t, actual.Password, override.String())
				assert.Empty(t, actual.CAPath, override.String())
				assert.Equal(t, base.Timeout, actual.Timeout)
			}
		})

		t.Run("same endpoint keeps the configured credentials", func(t *testing.T) {
			override := types.HypervisorEndpoint{Kind: base.Kind, URL: base.URL, Timeout: time.Minute}
			assert.False(t, base.Retargets(override))

			expected := base
			expected.Timeout = time.Minute
			assert.Equal(t, expected, base.Merge(override))
		})

		t.Run("insecure is not overridable", func(t *testing.T) {
			secure := base
			secure.Insecure = false

			assert.False(t, secure.Merge(types.HypervisorEndpoint{Insecure: true}).Insecure)
		})
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "vsphere://root@192.168.1.10", base.String())
		assert.NotContains(t, fmt.Sprint(base), "secret")
	})
}

func TestRemoteCredential(t *testing.T) {
	c := types.RemoteCredential{Username: "ubuntu", KeyPath: "~/.ssh/id_ed25519", Passphrase: "hunter2"}

	assert.Equal(t, "ubuntu (key=~/.ssh/id_ed25519)", c.String())
	assert.NotContains(t, fmt.Sprintf("%v", c), "hunter2")
}

func TestVMRecord(t *testing.T) {
	assert.True(t, types.VMRecord{Address: "10.0.0.1"}.HasAddress())
	assert.False(t, types.VMRecord{}.HasAddress())
	assert.True(t, types.CommandOutcome{}.Succeeded())
	assert.False(t, types.CommandOutcome{ExitStatus: 100}.Succeeded())
}
