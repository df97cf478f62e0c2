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

package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gorilla/mux"

	"github.com/alexandremahdhaoui/vmpatch/internal/controller"
	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

const (
	statusSuccess           = "success"
	statusError             = "error"
	statusNotFound          = "not_found"
	statusRunning           = "running"
	rootMessage             = "vmpatch tool server: VM discovery and apt upgrade management"
	contentTypeHeader       = "Content-Type"
	applicationJSON         = "application/json"
	maxRequestBodyBytes     = 1 << 20
	errorKindInvalidRequest = "invalid_request"
)

var (
	ErrLoadOpenAPI = errors.New("loading openapi document")

	//go:embed openapi.yaml
	openapiYAML []byte
)

// OpenAPIDocument returns the parsed and validated OpenAPI document of the API.
func OpenAPIDocument(ctx context.Context) (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(openapiYAML)
	if err != nil {
		return nil, errors.Join(err, ErrLoadOpenAPI)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, errors.Join(err, ErrLoadOpenAPI)
	}

	return doc, nil
}

// New returns the API handler, wrapped with the request ID, client IP, access log, panic recovery and OpenAPI
// validation middlewares.
func New(ctx context.Context, vmpatch controller.VMPatch, version string) (http.Handler, error) {
	doc, err := OpenAPIDocument(ctx)
	if err != nil {
		return nil, err
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Join(err, ErrLoadOpenAPI)
	}

	validationRouter, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, errors.Join(err, ErrLoadOpenAPI)
	}

	s := &server{
		vmpatch: vmpatch,
		version: version,
		docJSON: docJSON,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.root).Methods(http.MethodGet)
	r.HandleFunc("/status", s.status).Methods(http.MethodGet)
	r.HandleFunc("/openapi.json", s.openapi).Methods(http.MethodGet)
	r.HandleFunc("/esxi/get_linux_vm_ip", s.getLinuxVMIP).Methods(http.MethodPost)
	r.HandleFunc("/esxi/list_powered_on_vms", s.listPoweredOnVMs).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/vm/check_upgrades", s.checkUpgrades).Methods(http.MethodPost)
	r.HandleFunc("/vm/apply_upgrades", s.applyUpgrades).Methods(http.MethodPost)

	return Middlewares(validationRouter).Then(r), nil
}

type server struct {
	vmpatch controller.VMPatch
	version string
	docJSON []byte
}

// ---------------------------------------------------- DISCOVERY --------------------------------------------------- //

func (s *server) getLinuxVMIP(w http.ResponseWriter, r *http.Request) {
	req := vmDiscoveryRequest{}
	if !decode(w, r, &req) {
		return
	}

	vm, err := s.vmpatch.ResolveVM(r.Context(), req.endpoint(), req.VMName)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, vmResponse{Status: statusSuccess, vmSummary: toVMSummary(vm)})
}

func (s *server) listPoweredOnVMs(w http.ResponseWriter, r *http.Request) {
	req := hypervisorEndpoint{}
	if r.Method == http.MethodPost && r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	vms, err := s.vmpatch.ListPoweredOnVMs(r.Context(), req.endpoint())
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	out := vmListResponse{Status: statusSuccess, PoweredOnVMs: make([]vmSummary, 0, len(vms))}
	for _, vm := range vms {
		out.PoweredOnVMs = append(out.PoweredOnVMs, toVMSummary(vm))
	}

	writeJSON(w, http.StatusOK, out)
}

// ----------------------------------------------------- UPGRADES --------------------------------------------------- //

func (s *server) checkUpgrades(w http.ResponseWriter, r *http.Request) {
	req := vmConfig{}
	if !decode(w, r, &req) {
		return
	}

	result, err := s.vmpatch.CheckUpgrades(r.Context(), req.target())
	if err != nil {
		writeFailure(w, r, err, result.Detail)
		return
	}

	writeJSON(w, http.StatusOK, upgradeResponse{
		Status:         string(result.Status),
		PackageManager: result.PackageManager,
		Details:        result.Detail,
	})
}

func (s *server) applyUpgrades(w http.ResponseWriter, r *http.Request) {
	req := vmConfig{}
	if !decode(w, r, &req) {
		return
	}

	// the request context is not detached: a client leaving only stops the wait, the guest keeps upgrading.
	result, err := s.vmpatch.ApplyUpgrades(r.Context(), req.target())
	if err != nil {
		writeFailure(w, r, err, result.Detail)
		return
	}

	writeJSON(w, http.StatusOK, upgradeResponse{
		Status:         statusSuccess,
		PackageManager: result.PackageManager,
		Details:        result.Detail,
	})
}

// ------------------------------------------------------ SERVICE --------------------------------------------------- //

func (s *server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: rootMessage})
}

func (s *server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: statusRunning, Version: s.version})
}

func (s *server) openapi(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(contentTypeHeader, applicationJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.docJSON)
}

// ------------------------------------------------------ HELPERS --------------------------------------------------- //

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, failureResponse{
			Status:    statusError,
			Message:   err.Error(),
			ErrorKind: errorKindInvalidRequest,
		})

		return false
	}

	return true
}

func writeFailure(w http.ResponseWriter, r *http.Request, err error, details string) {
	kind := types.Classify(err)

	status := statusError
	if kind == types.ErrorKindNotFound {
		status = statusNotFound
	}

	slog.InfoContext(r.Context(), "request failed",
		"path", r.URL.Path,
		"request_id", GetRequestID(r.Context()),
		"client_ip", GetClientIP(r.Context()),
		"kind", kind,
	)

	writeJSON(w, http.StatusOK, failureResponse{
		Status:    status,
		Message:   err.Error(),
		ErrorKind: string(kind),
		Details:   details,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set(contentTypeHeader, applicationJSON)
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("cannot write response", "err", err.Error())
	}
}
