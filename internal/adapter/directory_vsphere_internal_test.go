//go:build unit

package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vmware/govmomi/vim25/mo"
	vimtypes "github.com/vmware/govmomi/vim25/types"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

func TestToVMRecord(t *testing.T) {
	newVM := func(name string, summary vimtypes.VirtualMachineSummary, guest *vimtypes.GuestInfo) mo.VirtualMachine {
		vm := mo.VirtualMachine{Summary: summary, Guest: guest}
		vm.Name = name

		return vm
	}

	tests := []struct {
		name     string
		vm       mo.VirtualMachine
		expected types.VMRecord
	}{
		{
			name: "guest summary",
			vm: newVM("OpenVPN-Server-Prod", vimtypes.VirtualMachineSummary{
				Guest: &vimtypes.VirtualMachineGuestSummary{
					GuestFullName: "Ubuntu Linux (64-bit)",
					IpAddress:     "192.168.1.100",
				},
				Config:  vimtypes.VirtualMachineConfigSummary{GuestFullName: "Other Linux (64-bit)"},
				Runtime: vimtypes.VirtualMachineRuntimeInfo{PowerState: vimtypes.VirtualMachinePowerStatePoweredOn},
			}, nil),
			expected: types.VMRecord{
				Name:       "OpenVPN-Server-Prod",
				Address:    "192.168.1.100",
				GuestOS:    "Ubuntu Linux (64-bit)",
				PowerState: types.PowerStateOn,
			},
		},
		{
			name: "address from guest nics and os from config",
			vm: newVM("web-01", vimtypes.VirtualMachineSummary{
				Guest:   &vimtypes.VirtualMachineGuestSummary{},
				Config:  vimtypes.VirtualMachineConfigSummary{GuestFullName: "Debian GNU/Linux 12 (64-bit)"},
				Runtime: vimtypes.VirtualMachineRuntimeInfo{PowerState: vimtypes.VirtualMachinePowerStatePoweredOn},
			}, &vimtypes.GuestInfo{
				Net: []vimtypes.GuestNicInfo{
					{IpAddress: nil},
					{IpAddress: []string{"10.0.0.7", "fe80::1"}},
				},
			}),
			expected: types.VMRecord{
				Name:       "web-01",
				Address:    "10.0.0.7",
				GuestOS:    "Debian GNU/Linux 12 (64-bit)",
				PowerState: types.PowerStateOn,
			},
		},
		{
			name: "no tools",
			vm: newVM("legacy", vimtypes.VirtualMachineSummary{
				Runtime: vimtypes.VirtualMachineRuntimeInfo{PowerState: vimtypes.VirtualMachinePowerStateSuspended},
			}, nil),
			expected: types.VMRecord{
				Name:       "legacy",
				PowerState: types.PowerStateSuspended,
			},
		},
		{
			name: "powered off",
			vm: newVM("off", vimtypes.VirtualMachineSummary{
				Runtime: vimtypes.VirtualMachineRuntimeInfo{PowerState: vimtypes.VirtualMachinePowerStatePoweredOff},
			}, nil),
			expected: types.VMRecord{Name: "off", PowerState: types.PowerStateOff},
		},
		{
			name:     "unknown power state",
			vm:       newVM("odd", vimtypes.VirtualMachineSummary{}, nil),
			expected: types.VMRecord{Name: "odd", PowerState: types.PowerStateUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toVMRecord(tt.vm))
		})
	}
}
