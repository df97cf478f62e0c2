//go:build unit

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

package adapter_test

import (
	"context"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/simulator"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25/mo"
	vimtypes "github.com/vmware/govmomi/vim25/types"

	"github.com/alexandremahdhaoui/vmpatch/internal/adapter"
	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

const (
	vcsimUser     = "administrator@vsphere.local"
	vcsimPassword = "s3cr3t"
)

// newVCSim starts a vCenter simulator accepting only vcsimUser/vcsimPassword.
func newVCSim(t *testing.T) (*simulator.Server, types.HypervisorEndpoint) {
	t.Helper()

	model := simulator.VPX()
	require.NoError(t, model.Create())

	model.Service.Listen = &url.URL{User: url.UserPassword(vcsimUser, vcsimPassword)}

	server := model.Service.NewServer()

	t.Cleanup(func() {
		server.Close()
		model.Remove()
	})

	return server, types.HypervisorEndpoint{
		Kind:     types.VSphereHypervisorKind,
		URL:      server.URL.String(),
		Username: vcsimUser,
		Password: vcsimPassword,
		Insecure: true,
		Timeout:  30 * time.Second,
	}
}

func newVSphereDirectory(t *testing.T) adapter.Directory {
	t.Helper()

	d, err := adapter.NewDirectory(map[types.HypervisorKind]adapter.Inventory{
		types.VSphereHypervisorKind: adapter.NewVSphereInventory(),
	})
	require.NoError(t, err)

	return d
}

func TestVSphereInventory(t *testing.T) {
	ctx := context.Background()

	t.Run("find by name", func(t *testing.T) {
		_, endpoint := newVCSim(t)
		directory := newVSphereDirectory(t)

		vm, err := directory.FindVMByName(ctx, endpoint, "DC0_H0_VM0")
		require.NoError(t, err)

		assert.Equal(t, "DC0_H0_VM0", vm.Name)
		assert.Equal(t, types.PowerStateOn, vm.PowerState)
	})

	t.Run("not found", func(t *testing.T) {
		_, endpoint := newVCSim(t)
		directory := newVSphereDirectory(t)

		_, err := directory.FindVMByName(ctx, endpoint, "nonexistent")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, endpoint := newVCSim(t)
		directory := newVSphereDirectory(t)

		endpoint.Password = "wrong"

		_, err := directory.FindVMByName(ctx, endpoint, "DC0_H0_VM0")
		assert.ErrorIs(t, err, types.ErrAuth)
		assert.Equal(t, types.ErrorKindAuth, types.Classify(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := l.Addr().String()
		require.NoError(t, l.Close())

		directory := newVSphereDirectory(t)

		_, err = directory.ListPoweredOnVMs(ctx, types.HypervisorEndpoint{
			Kind:     types.VSphereHypervisorKind,
			URL:      "https://" + addr + "/sdk",
			Username: vcsimUser,
			Password: vcsimPassword,
			Insecure: true,
			Timeout:  5 * time.Second,
		})
		assert.Equal(t, types.ErrorKindEndpointUnreachable, types.Classify(err))
	})

	t.Run("list powered on", func(t *testing.T) {
		server, endpoint := newVCSim(t)
		directory := newVSphereDirectory(t)

		c, err := govmomi.NewClient(ctx, server.URL, true)
		require.NoError(t, err)

		defer func() { _ = c.Logout(ctx) }()

		finder := find.NewFinder(c.Client, true)
		dc, err := finder.DefaultDatacenter(ctx)
		require.NoError(t, err)
		finder.SetDatacenter(dc)

		stopped, err := finder.VirtualMachine(ctx, "DC0_H0_VM0")
		require.NoError(t, err)

		task, err := stopped.PowerOff(ctx)
		require.NoError(t, err)
		require.NoError(t, task.Wait(ctx))

		vms, err := directory.ListPoweredOnVMs(ctx, endpoint)
		require.NoError(t, err)

		// count powered on vms independently.
		cv, err := view.NewManager(c.Client).
			CreateContainerView(ctx, c.ServiceContent.RootFolder, []string{"VirtualMachine"}, true)
		require.NoError(t, err)

		defer func() { _ = cv.Destroy(ctx) }()

		var all []mo.VirtualMachine
		require.NoError(t, cv.Retrieve(ctx, []string{"VirtualMachine"}, []string{"name", "summary"}, &all))

		expected := 0
		for _, vm := range all {
			if vm.Summary.Runtime.PowerState == vimtypes.VirtualMachinePowerStatePoweredOn {
				expected++
			}
		}

		require.Greater(t, len(all), expected)
		assert.Len(t, vms, expected)

		for _, vm := range vms {
			assert.Equal(t, types.PowerStateOn, vm.PowerState)
			assert.NotEqual(t, "DC0_H0_VM0", vm.Name)
		}
	})
}
