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

package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alexandremahdhaoui/vmpatch/internal/driver/server"
	"github.com/alexandremahdhaoui/vmpatch/internal/types"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/mocks/mockcontroller"
)

const testVersion = "v1.2.3"

func TestServer(t *testing.T) {
	var (
		vmpatch *mockcontroller.MockVMPatch
		handler http.Handler
	)

	setup := func(t *testing.T) func() {
		t.Helper()

		vmpatch = mockcontroller.NewMockVMPatch(t)

		var err error
		handler, err = server.New(context.Background(), vmpatch, testVersion)
		require.NoError(t, err)

		return func() {
			t.Helper()

			vmpatch.AssertExpectations(t)
		}
	}

	do := func(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
		t.Helper()

		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		out := map[string]any{}
		if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
		}

		return rr, out
	}

	openVPN := types.VMRecord{
		Name:       "OpenVPN-Server-Prod",
		Address:    "192.168.1.100",
		GuestOS:    "Ubuntu Linux (64-bit)",
		PowerState: types.PowerStateOn,
	}

	t.Run("GetLinuxVMIP", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				ResolveVM(mock.Anything, types.HypervisorEndpoint{
					URL:      "192.168.1.10",
					Username: "root",
					Password: "secret",
				}, openVPN.Name).
				Return(openVPN, nil).
				Once()

			rr, body := do(t, http.MethodPost, "/esxi/get_linux_vm_ip",
				`{"vm_name":"OpenVPN-Server-Prod","esxi_host_ip":"192.168.1.10","esxi_username":"root","esxi_password":"secret"}`)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, map[string]any{
				"status":      "success",
				"vm_name":     "OpenVPN-Server-Prod",
				"ip_address":  "192.168.1.100",
				"guest_os":    "Ubuntu Linux (64-bit)",
				"power_state": "poweredOn",
			}, body)
		})

		t.Run("configured endpoint", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				ResolveVM(mock.Anything, types.HypervisorEndpoint{}, openVPN.Name).
				Return(openVPN, nil).
				Once()

			rr, _ := do(t, http.MethodPost, "/esxi/get_linux_vm_ip", `{"vm_name":"OpenVPN-Server-Prod"}`)
			assert.Equal(t, http.StatusOK, rr.Code)
		})

		t.Run("not found", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				ResolveVM(mock.Anything, mock.Anything, "nonexistent").
				Return(types.VMRecord{}, types.ErrNotFound).
				Once()

			rr, body := do(t, http.MethodPost, "/esxi/get_linux_vm_ip", `{"vm_name":"nonexistent"}`)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "not_found", body["status"])
			assert.Equal(t, "not_found", body["error_kind"])
			assert.NotEmpty(t, body["message"])
		})

		t.Run("auth error", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				ResolveVM(mock.Anything, mock.Anything, mock.Anything).
				Return(types.VMRecord{}, errors.Join(assert.AnError, types.ErrAuth)).
				Once()

			rr, body := do(t, http.MethodPost, "/esxi/get_linux_vm_ip", `{"vm_name":"db-01"}`)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, "auth_error", body["error_kind"])
		})

		t.Run("invalid requests", func(t *testing.T) {
			for _, tt := range []struct {
				name string
				body string
			}{
				{name: "missing vm_name", body: `{"esxi_host_ip":"192.168.1.10"}`},
				{name: "empty vm_name", body: `{"vm_name":""}`},
				{name: "wrong type", body: `{"vm_name":42}`},
				{name: "unknown kind", body: `{"vm_name":"a","hypervisor_kind":"hyperv"}`},
				{name: "not json", body: `vm_name=a`},
			} {
				t.Run(tt.name, func(t *testing.T) {
					defer setup(t)()

					rr, body := do(t, http.MethodPost, "/esxi/get_linux_vm_ip", tt.body)

					assert.Equal(t, http.StatusBadRequest, rr.Code)
					assert.Equal(t, "invalid_request", body["error_kind"])
				})
			}
		})
	})

	t.Run("ListPoweredOnVMs", func(t *testing.T) {
		t.Run("GET", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				ListPoweredOnVMs(mock.Anything, types.HypervisorEndpoint{}).
				Return([]types.VMRecord{openVPN, {Name: "no-tools", PowerState: types.PowerStateOn}}, nil).
				Once()

			rr, body := do(t, http.MethodGet, "/esxi/list_powered_on_vms", "")

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "success", body["status"])

			vms, ok := body["powered_on_vms"].([]any)
			require.True(t, ok)
			require.Len(t, vms, 2)
			assert.Equal(t, "", vms[1].(map[string]any)["ip_address"])
		})

		t.Run("POST with override", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				ListPoweredOnVMs(mock.Anything, types.HypervisorEndpoint{
					Kind: types.LibvirtHypervisorKind,
					URL:  "qemu+ssh://ops@10.0.0.2/system",
				}).
				Return(nil, nil).
				Once()

			rr, body := do(t, http.MethodPost, "/esxi/list_powered_on_vms",
				`{"hypervisor_kind":"libvirt","esxi_host_ip":"qemu+ssh://ops@10.0.0.2/system"}`)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, []any{}, body["powered_on_vms"])
		})

		t.Run("POST without body", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				ListPoweredOnVMs(mock.Anything, types.HypervisorEndpoint{}).
				Return(nil, nil).
				Once()

			rr, _ := do(t, http.MethodPost, "/esxi/list_powered_on_vms", "")
			assert.Equal(t, http.StatusOK, rr.Code)
		})

		t.Run("unreachable", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				ListPoweredOnVMs(mock.Anything, mock.Anything).
				Return(nil, errors.Join(assert.AnError, types.ErrEndpointUnreachable)).
				Once()

			rr, body := do(t, http.MethodGet, "/esxi/list_powered_on_vms", "")

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, "endpoint_unreachable", body["error_kind"])
		})
	})

	t.Run("CheckUpgrades", func(t *testing.T) {
		t.Run("upgrades available", func(t *testing.T) {
			defer setup(t)()

			detail := "The following packages will be upgraded:\n  nginx-common python3"

			vmpatch.EXPECT().
				CheckUpgrades(mock.Anything, types.UpgradeTarget{
					Address:    "192.168.1.100",
					Credential: types.RemoteCredential{Username: "ubuntu", KeyPath: "/keys/vm"},
				}).
				Return(types.UpgradeResult{
					Status:         types.UpgradeStatusUpgradesAvailable,
					PackageManager: "apt",
					Detail:         detail,
				}, nil).
				Once()

			rr, body := do(t, http.MethodPost, "/vm/check_upgrades",
				`{"ip_address":"192.168.1.100","username":"ubuntu","ssh_key_path":"/keys/vm"}`)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, map[string]any{
				"status":          "upgrades_available",
				"package_manager": "apt",
				"details":         detail,
			}, body)
		})

		t.Run("up to date", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				CheckUpgrades(mock.Anything, types.UpgradeTarget{Address: "192.168.1.100"}).
				Return(types.UpgradeResult{Status: types.UpgradeStatusUpToDate, PackageManager: "apt"}, nil).
				Once()

			_, body := do(t, http.MethodPost, "/vm/check_upgrades", `{"ip_address":"192.168.1.100"}`)
			assert.Equal(t, "up_to_date", body["status"])
		})

		t.Run("timeout", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				CheckUpgrades(mock.Anything, mock.Anything).
				Return(types.UpgradeResult{
					Status:         types.UpgradeStatusFailed,
					PackageManager: "apt",
					Detail:         "operation timed out",
				}, errors.Join(assert.AnError, types.ErrTimeout)).
				Once()

			rr, body := do(t, http.MethodPost, "/vm/check_upgrades", `{"ip_address":"192.168.1.100"}`)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, "timeout", body["error_kind"])
			assert.Equal(t, "operation timed out", body["details"])
		})

		t.Run("missing ip_address", func(t *testing.T) {
			defer setup(t)()

			rr, _ := do(t, http.MethodPost, "/vm/check_upgrades", `{"username":"ubuntu"}`)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	})

	t.Run("ApplyUpgrades", func(t *testing.T) {
		t.Run("applied", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				ApplyUpgrades(mock.Anything, types.UpgradeTarget{Address: "192.168.1.100"}).
				Return(types.UpgradeResult{
					Status:         types.UpgradeStatusApplied,
					PackageManager: "apt",
					Detail:         "0 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.",
				}, nil).
				Once()

			rr, body := do(t, http.MethodPost, "/vm/apply_upgrades", `{"ip_address":"192.168.1.100"}`)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "success", body["status"])
			assert.Equal(t, "apt", body["package_manager"])
		})

		t.Run("lock held", func(t *testing.T) {
			defer setup(t)()

			stderr := "E: Could not get lock /var/lib/dpkg/lock-frontend"

			vmpatch.EXPECT().
				ApplyUpgrades(mock.Anything, mock.Anything).
				Return(types.UpgradeResult{
					Status:         types.UpgradeStatusFailed,
					PackageManager: "apt",
					Detail:         stderr,
				}, types.ErrRemoteCommandFailed).
				Once()

			rr, body := do(t, http.MethodPost, "/vm/apply_upgrades", `{"ip_address":"192.168.1.100"}`)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, "remote_command_failed", body["error_kind"])
			assert.Contains(t, body["details"], "E: Could not get lock")
		})

		t.Run("panic", func(t *testing.T) {
			defer setup(t)()

			vmpatch.EXPECT().
				ApplyUpgrades(mock.Anything, mock.Anything).
				Run(func(context.Context, types.UpgradeTarget) { panic("boom") }).
				Return(types.UpgradeResult{}, nil).
				Once()

			rr, _ := do(t, http.MethodPost, "/vm/apply_upgrades", `{"ip_address":"192.168.1.100"}`)
			assert.Equal(t, http.StatusInternalServerError, rr.Code)
		})
	})

	t.Run("Service", func(t *testing.T) {
		defer setup(t)()

		rr, body := do(t, http.MethodGet, "/", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, body["message"])

		_, body = do(t, http.MethodGet, "/status", "")
		assert.Equal(t, map[string]any{"status": "running", "version": testVersion}, body)

		rr, body = do(t, http.MethodGet, "/openapi.json", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "3.0.3", body["openapi"])
		assert.Contains(t, body["paths"], "/vm/apply_upgrades")

		rr, _ = do(t, http.MethodGet, "/nonexistent", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("RequestID", func(t *testing.T) {
		defer setup(t)()

		rr, _ := do(t, http.MethodGet, "/status", "")
		assert.NotEmpty(t, rr.Header().Get(server.RequestIDHeader))

		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.Header.Set(server.RequestIDHeader, "abc")

		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, "abc", rr.Header().Get(server.RequestIDHeader))
	})
}

func TestOpenAPIDocument(t *testing.T) {
	doc, err := server.OpenAPIDocument(context.Background())
	require.NoError(t, err)

	for _, path := range []string{
		"/",
		"/status",
		"/openapi.json",
		"/esxi/get_linux_vm_ip",
		"/esxi/list_powered_on_vms",
		"/vm/check_upgrades",
		"/vm/apply_upgrades",
	} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}
}
