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
	"fmt"
	"log/slog"
	"time"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

const DefaultHypervisorTimeout = 30 * time.Second

var (
	errFindVMByName        = errors.New("finding vm by name")
	errListPoweredOnVMs    = errors.New("filtering hypervisor inventory")
	errUnknownHypervisor   = errors.New("unknown hypervisor kind")
	errEmptyVMName         = errors.New("vm name cannot be empty")
	errEmptyEndpointURL    = errors.New("hypervisor endpoint url cannot be empty")
	errEmptyEndpointUser   = errors.New("hypervisor username cannot be empty")
	errNoInventoryForKinds = errors.New("no inventory registered")
)

// --------------------------------------------------- INTERFACES --------------------------------------------------- //

// Directory resolves VMs known to a hypervisor management endpoint.
//
// Each call opens its own authenticated session and closes it before returning.
type Directory interface {
	// FindVMByName returns the VM named exactly name. When several VMs share the name, the first one met while
	// traversing the inventory is returned. A VM without reported address is still returned.
	FindVMByName(ctx context.Context, endpoint types.HypervisorEndpoint, name string) (types.VMRecord, error)
	// ListPoweredOnVMs returns every VM whose power state is poweredOn, in traversal order.
	ListPoweredOnVMs(ctx context.Context, endpoint types.HypervisorEndpoint) ([]types.VMRecord, error)
}

// Inventory is a hypervisor backend. List takes one snapshot of every VM known to the endpoint.
type Inventory interface {
	List(ctx context.Context, endpoint types.HypervisorEndpoint) ([]types.VMRecord, error)
}

// InventoryFunc adapts a function to Inventory.
type InventoryFunc func(ctx context.Context, endpoint types.HypervisorEndpoint) ([]types.VMRecord, error)

// List implements Inventory.
func (f InventoryFunc) List(ctx context.Context, endpoint types.HypervisorEndpoint) ([]types.VMRecord, error) {
	return f(ctx, endpoint)
}

// --------------------------------------------------- CONSTRUCTORS ------------------------------------------------- //

// NewDirectory returns a Directory dispatching every call to the Inventory registered for the endpoint's kind.
func NewDirectory(inventories map[types.HypervisorKind]Inventory) (Directory, error) {
	if len(inventories) == 0 {
		return nil, errors.Join(errNoInventoryForKinds, types.ErrConfiguration)
	}

	return &directoryMux{inventories: inventories}, nil
}

// --------------------------------------------- CONCRETE IMPLEMENTATION -------------------------------------------- //

type directoryMux struct {
	inventories map[types.HypervisorKind]Inventory
}

// --------------------------------------------- FindVMByName ------------------------------------------------------- //

func (d *directoryMux) FindVMByName(
	ctx context.Context,
	endpoint types.HypervisorEndpoint,
	name string,
) (types.VMRecord, error) {
	if name == "" {
		return types.VMRecord{}, errors.Join(errEmptyVMName, types.ErrConfiguration, errFindVMByName)
	}

	records, err := d.list(ctx, endpoint)
	if err != nil {
		return types.VMRecord{}, errors.Join(err, errFindVMByName)
	}

	for _, r := range records {
		if r.Name == name {
			return r, nil
		}
	}

	return types.VMRecord{}, errors.Join(
		fmt.Errorf("%w: %q", types.ErrNotFound, name),
		errFindVMByName,
	)
}

// --------------------------------------------- ListPoweredOnVMs --------------------------------------------------- //

func (d *directoryMux) ListPoweredOnVMs(
	ctx context.Context,
	endpoint types.HypervisorEndpoint,
) ([]types.VMRecord, error) {
	records, err := d.list(ctx, endpoint)
	if err != nil {
		return nil, errors.Join(err, errListPoweredOnVMs)
	}

	out := make([]types.VMRecord, 0, len(records))
	for _, r := range records {
		if r.PowerState == types.PowerStateOn {
			out = append(out, r)
		}
	}

	return out, nil
}

// --------------------------------------------- helpers ------------------------------------------------------------ //

func (d *directoryMux) list(ctx context.Context, endpoint types.HypervisorEndpoint) ([]types.VMRecord, error) {
	inventory, ok := d.inventories[endpoint.Kind]
	if !ok {
		return nil, errors.Join(fmt.Errorf("%w: %q", errUnknownHypervisor, endpoint.Kind), types.ErrConfiguration)
	}

	if endpoint.URL == "" {
		return nil, errors.Join(errEmptyEndpointURL, types.ErrConfiguration)
	}

	if endpoint.Username == "" {
		return nil, errors.Join(errEmptyEndpointUser, types.ErrConfiguration)
	}

	if endpoint.Timeout <= 0 {
		endpoint.Timeout = DefaultHypervisorTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, endpoint.Timeout)
	defer cancel()

	start := time.Now()

	records, err := inventory.List(ctx, endpoint)
	if err != nil {
		return nil, classifySession(ctx, err)
	}

	slog.DebugContext(ctx, "retrieved hypervisor inventory",
		"endpoint", endpoint.String(),
		"vms", len(records),
		"duration", time.Since(start).String(),
	)

	return records, nil
}

// classifySession adds ErrTimeout or ErrCanceled to err when the session was interrupted by ctx.
func classifySession(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, types.ErrTimeout), errors.Is(err, types.ErrCanceled):
		return err
	case errors.Is(ctx.Err(), context.Canceled):
		return errors.Join(err, types.ErrCanceled)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Join(err, types.ErrTimeout)
	default:
		return err
	}
}
