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

package adapter

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/vmware/govmomi/session"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/soap"
	vimtypes "github.com/vmware/govmomi/vim25/types"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

const vsphereLogoutTimeout = 5 * time.Second

var (
	errVSphereParseURL  = errors.New("parsing vsphere url")
	errVSphereCA        = errors.New("loading vsphere ca bundle")
	errVSphereConnect   = errors.New("connecting to vsphere endpoint")
	errVSphereLogin     = errors.New("logging in to vsphere endpoint")
	errVSphereView      = errors.New("creating vsphere container view")
	errVSphereRetrieve  = errors.New("retrieving vsphere virtual machines")
	vsphereVMProperties = []string{"name", "summary", "guest"}
)

// NewVSphereInventory returns an Inventory backed by an ESXi host or a vCenter server.
func NewVSphereInventory() Inventory {
	return &vsphere{}
}

type vsphere struct{}

func (v *vsphere) List(ctx context.Context, endpoint types.HypervisorEndpoint) ([]types.VMRecord, error) {
	u, err := soap.ParseURL(endpoint.URL)
	if err != nil || u == nil {
		return nil, errors.Join(err, errVSphereParseURL, types.ErrConfiguration)
	}

	// credentials are sent by Login only.
	u.User = nil

	sc := soap.NewClient(u, endpoint.Insecure)
	if endpoint.CAPath != "" {
		if err := sc.SetRootCAs(endpoint.CAPath); err != nil {
			return nil, errors.Join(err, errVSphereCA, types.ErrConfiguration)
		}
	}

	defer sc.CloseIdleConnections()

	vc, err := vim25.NewClient(ctx, sc)
	if err != nil {
		return nil, errors.Join(err, errVSphereConnect, types.ErrEndpointUnreachable)
	}

	sm := session.NewManager(vc)
	if err := sm.Login(ctx, url.UserPassword(endpoint.Username, endpoint.Password)); err != nil {
		if isInvalidLogin(err) {
			return nil, errors.Join(err, errVSphereLogin, types.ErrAuth)
		}

		return nil, errors.Join(err, errVSphereLogin, types.ErrEndpointUnreachable)
	}

	defer func() {
		// the session must be released even when ctx is already done.
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), vsphereLogoutTimeout)
		defer cancel()

		if err := sm.Logout(logoutCtx); err != nil {
			slog.WarnContext(ctx, "cannot log out from vsphere endpoint", "endpoint", endpoint.String(), "err", err.Error())
		}
	}()

	m := view.NewManager(vc)

	cv, err := m.CreateContainerView(ctx, vc.ServiceContent.RootFolder, []string{"VirtualMachine"}, true)
	if err != nil {
		return nil, errors.Join(err, errVSphereView, types.ErrInventory)
	}

	defer func() {
		destroyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), vsphereLogoutTimeout)
		defer cancel()

		_ = cv.Destroy(destroyCtx)
	}()

	var vms []mo.VirtualMachine
	if err := cv.Retrieve(ctx, []string{"VirtualMachine"}, vsphereVMProperties, &vms); err != nil {
		return nil, errors.Join(err, errVSphereRetrieve, types.ErrInventory)
	}

	out := make([]types.VMRecord, 0, len(vms))
	for _, vm := range vms {
		out = append(out, toVMRecord(vm))
	}

	return out, nil
}

func toVMRecord(vm mo.VirtualMachine) types.VMRecord {
	out := types.VMRecord{
		Name:       vm.Name,
		GuestOS:    vm.Summary.Config.GuestFullName,
		PowerState: toPowerState(vm.Summary.Runtime.PowerState),
	}

	if g := vm.Summary.Guest; g != nil {
		out.Address = g.IpAddress

		if g.GuestFullName != "" {
			out.GuestOS = g.GuestFullName
		}
	}

	if out.Address == "" && vm.Guest != nil {
		for _, nic := range vm.Guest.Net {
			if len(nic.IpAddress) > 0 && nic.IpAddress[0] != "" {
				out.Address = nic.IpAddress[0]
				break
			}
		}
	}

	return out
}

func toPowerState(s vimtypes.VirtualMachinePowerState) types.PowerState {
	switch s {
	case vimtypes.VirtualMachinePowerStatePoweredOn:
		return types.PowerStateOn
	case vimtypes.VirtualMachinePowerStatePoweredOff:
		return types.PowerStateOff
	case vimtypes.VirtualMachinePowerStateSuspended:
		return types.PowerStateSuspended
	default:
		return types.PowerStateUnknown
	}
}

func isInvalidLogin(err error) bool {
	if !soap.IsSoapFault(err) {
		return false
	}

	switch soap.ToSoapFault(err).VimFault().(type) {
	case vimtypes.InvalidLogin, *vimtypes.InvalidLogin:
		return true
	default:
		return false
	}
}
