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

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexandremahdhaoui/vmpatch/internal/adapter"
	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

const (
	OperationResolveVM        = "resolve_vm"
	OperationListPoweredOnVMs = "list_powered_on_vms"
	OperationCheckUpgrades    = "check_upgrades"
	OperationApplyUpgrades    = "apply_upgrades"
)

var (
	ErrResolveVM        = errors.New("resolving vm")
	ErrListPoweredOnVMs = errors.New("listing powered on vms")
	ErrCheckUpgrades    = errors.New("checking upgrades")
	ErrApplyUpgrades    = errors.New("applying upgrades")

	errMissingAddress     = errors.New("ip address must be specified")
	errMissingCredential  = errors.New("ssh username and key path must be specified")
	errOverrideCredential = errors.New("a hypervisor endpoint override must carry its own username and password")
)

// linuxGuestMarkers are matched case-insensitively against the guest OS label.
var linuxGuestMarkers = []string{
	"linux",
	"ubuntu",
	"debian",
	"centos",
	"red hat",
	"rhel",
	"fedora",
	"suse",
	"rocky",
	"alma",
	"alpine",
}

// ---------------------------------------------------- INTERFACES -------------------------------------------------- //

// VMPatch is the set of operations exposed to the chat agent. Discovery and upgrade operations are independent: the
// caller resolves a VM first, then passes its address to CheckUpgrades or ApplyUpgrades.
type VMPatch interface {
	// ResolveVM finds a VM by exact name. The endpoint fields that are set override the configured defaults.
	ResolveVM(ctx context.Context, endpoint types.HypervisorEndpoint, name string) (types.VMRecord, error)

	// ListPoweredOnVMs lists the powered on VMs of the endpoint, merged over the configured defaults.
	ListPoweredOnVMs(ctx context.Context, endpoint types.HypervisorEndpoint) ([]types.VMRecord, error)

	// CheckUpgrades reports pending package upgrades of the target. Unset credential fields are defaulted.
	CheckUpgrades(ctx context.Context, target types.UpgradeTarget) (types.UpgradeResult, error)

	// ApplyUpgrades upgrades every package of the target.
	//
	// Cancelling ctx once the command was sent stops waiting for it but does not abort the upgrade on the guest.
	ApplyUpgrades(ctx context.Context, target types.UpgradeTarget) (types.UpgradeResult, error)
}

// Options holds the defaults of a VMPatch.
type Options struct {
	// Hypervisor is the endpoint used when a request does not override it.
	Hypervisor types.HypervisorEndpoint
	// Credential fills the Username and KeyPath of targets that do not carry them.
	Credential types.RemoteCredential
	// RequireLinuxGuest rejects resolved VMs whose guest OS does not look like a Linux distribution.
	RequireLinuxGuest bool
}

// --------------------------------------------------- CONSTRUCTORS ------------------------------------------------- //

// NewVMPatch returns a VMPatch. metrics may be nil.
func NewVMPatch(
	directory adapter.Directory,
	upgrader adapter.Upgrader,
	opts Options,
	metrics *Metrics,
) VMPatch {
	return &vmPatch{
		directory: directory,
		upgrader:  upgrader,
		opts:      opts,
		metrics:   metrics,
	}
}

// ---------------------------------------------- CONCRETE IMPLEMENTATION ------------------------------------------- //

type vmPatch struct {
	directory adapter.Directory
	upgrader  adapter.Upgrader
	opts      Options
	metrics   *Metrics
}

// ---------------------------------------------------- ResolveVM --------------------------------------------------- //

func (v *vmPatch) ResolveVM(
	ctx context.Context,
	endpoint types.HypervisorEndpoint,
	name string,
) (out types.VMRecord, err error) {
	defer v.observe(ctx, OperationResolveVM, time.Now(), &err)

	endpoint, err = v.endpoint(endpoint)
	if err != nil {
		return types.VMRecord{}, errors.Join(err, ErrResolveVM)
	}

	slog.InfoContext(ctx, "resolving vm", "vm", name, "endpoint", endpoint.String())

	vm, err := v.directory.FindVMByName(ctx, endpoint, name)
	if err != nil {
		return types.VMRecord{}, errors.Join(err, ErrResolveVM)
	}

	if v.opts.RequireLinuxGuest && !IsLinuxGuest(vm.GuestOS) {
		return types.VMRecord{}, errors.Join(
			fmt.Errorf("vm %q is not a Linux VM (detected OS: %q)", vm.Name, vm.GuestOS),
			types.ErrUnsupportedGuest,
			ErrResolveVM,
		)
	}

	if !vm.HasAddress() {
		return types.VMRecord{}, errors.Join(
			fmt.Errorf("vm %q found but no ip address was reported: ensure the guest tools are running", vm.Name),
			types.ErrAddressNotReported,
			ErrResolveVM,
		)
	}

	return vm, nil
}

// IsLinuxGuest reports whether a guest OS label names Linux or a known Linux distribution.
func IsLinuxGuest(guestOS string) bool {
	label := strings.ToLower(guestOS)

	for _, marker := range linuxGuestMarkers {
		if strings.Contains(label, marker) {
			return true
		}
	}

	return false
}

// ------------------------------------------------ ListPoweredOnVMs ------------------------------------------------ //

func (v *vmPatch) ListPoweredOnVMs(
	ctx context.Context,
	endpoint types.HypervisorEndpoint,
) (out []types.VMRecord, err error) {
	defer v.observe(ctx, OperationListPoweredOnVMs, time.Now(), &err)

	endpoint, err = v.endpoint(endpoint)
	if err != nil {
		return nil, errors.Join(err, ErrListPoweredOnVMs)
	}

	slog.InfoContext(ctx, "listing powered on vms", "endpoint", endpoint.String())

	out, err = v.directory.ListPoweredOnVMs(ctx, endpoint)
	if err != nil {
		return nil, errors.Join(err, ErrListPoweredOnVMs)
	}

	return out, nil
}

// -------------------------------------------------- CheckUpgrades ------------------------------------------------- //

func (v *vmPatch) CheckUpgrades(
	ctx context.Context,
	target types.UpgradeTarget,
) (out types.UpgradeResult, err error) {
	defer v.observe(ctx, OperationCheckUpgrades, time.Now(), &err)

	target, err = v.target(target)
	if err != nil {
		return failedResult(err), errors.Join(err, ErrCheckUpgrades)
	}

	slog.InfoContext(ctx, "checking upgrades", "address", target.Address, "credential", target.Credential.String())

	out, err = v.upgrader.Check(ctx, target)
	if err != nil {
		return out, errors.Join(err, ErrCheckUpgrades)
	}

	return out, nil
}

// -------------------------------------------------- ApplyUpgrades ------------------------------------------------- //

func (v *vmPatch) ApplyUpgrades(
	ctx context.Context,
	target types.UpgradeTarget,
) (out types.UpgradeResult, err error) {
	defer v.observe(ctx, OperationApplyUpgrades, time.Now(), &err)

	target, err = v.target(target)
	if err != nil {
		return failedResult(err), errors.Join(err, ErrApplyUpgrades)
	}

	slog.InfoContext(ctx, "applying upgrades", "address", target.Address, "credential", target.Credential.String())

	out, err = v.upgrader.Apply(ctx, target)
	if err != nil {
		return out, errors.Join(err, ErrApplyUpgrades)
	}

	return out, nil
}

// ----------------------------------------------------- HELPERS ---------------------------------------------------- //

// endpoint merges override over the configured endpoint. An override pointing at another endpoint inherits no
// credential, so it must bring its own. Its libvirt URI must not make libvirt run local programs.
func (v *vmPatch) endpoint(override types.HypervisorEndpoint) (types.HypervisorEndpoint, error) {
	out := v.opts.Hypervisor.Merge(override)

	if !v.opts.Hypervisor.Retargets(override) {
		return out, nil
	}

	if out.Username == "" || (out.Kind == types.VSphereHypervisorKind && out.Password == "") {
		return types.HypervisorEndpoint{}, errors.Join(errOverrideCredential, types.ErrConfiguration)
	}

	if out.Kind == types.LibvirtHypervisorKind {
		if err := adapter.ValidateLibvirtURI(out.URL); err != nil {
			return types.HypervisorEndpoint{}, err
		}
	}

	return out, nil
}

// target defaults the credential of t. The passphrase is only defaulted along with the key it decrypts.
func (v *vmPatch) target(t types.UpgradeTarget) (types.UpgradeTarget, error) {
	if strings.TrimSpace(t.Address) == "" {
		return t, errors.Join(errMissingAddress, types.ErrConfiguration)
	}

	if t.Credential.Username == "" {
		t.Credential.Username = v.opts.Credential.Username
	}

	if t.Credential.KeyPath == "" {
		t.Credential.KeyPath = v.opts.Credential.KeyPath
		t.Credential.Passphrase = v.opts.Credential.Passphrase
	}

	if t.Credential.Username == "" || t.Credential.KeyPath == "" {
		return t, errors.Join(errMissingCredential, types.ErrConfiguration)
	}

	return t, nil
}

func failedResult(err error) types.UpgradeResult {
	return types.UpgradeResult{
		Status:         types.UpgradeStatusFailed,
		PackageManager: adapter.AptPackageManager,
		Detail:         err.Error(),
	}
}

func (v *vmPatch) observe(ctx context.Context, operation string, start time.Time, err *error) {
	kind := types.Classify(*err)

	if *err != nil {
		slog.ErrorContext(ctx, "operation failed", "operation", operation, "kind", kind, "err", (*err).Error())
	}

	if v.metrics != nil {
		v.metrics.Observe(operation, kind, time.Since(start))
	}
}
