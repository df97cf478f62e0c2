//go:build unit

package ssh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

func TestHostPort(t *testing.T) {
	tests := []struct {
		address  string
		expected string
	}{
		{address: "192.168.1.42", expected: "192.168.1.42:22"},
		{address: "192.168.1.42:2222", expected: "192.168.1.42:2222"},
		{address: " vm.example.com ", expected: "vm.example.com:22"},
		{address: "fe80::1", expected: "[fe80::1]:22"},
		{address: "[fe80::1]", expected: "[fe80::1]:22"},
		{address: "[fe80::1]:2222", expected: "[fe80::1]:2222"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			out, err := hostPort(tt.address, DefaultPort)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}

	t.Run("empty", func(t *testing.T) {
		_, err := hostPort("  ", DefaultPort)
		assert.ErrorIs(t, err, types.ErrConfiguration)
	})
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/ops")

	out, err := ExpandHome("~/.ssh/id_ed25519")
	require.NoError(t, err)
	assert.Equal(t, "/home/ops/.ssh/id_ed25519", out)

	out, err = ExpandHome("/etc/ssh/key")
	require.NoError(t, err)
	assert.Equal(t, "/etc/ssh/key", out)
}
