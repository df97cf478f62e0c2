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

// Package app wires the configuration into the VMPatch facade shared by vmpatch-api and vmpatchctl.
package app

import (
	"errors"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexandremahdhaoui/vmpatch/internal/adapter"
	"github.com/alexandremahdhaoui/vmpatch/internal/config"
	"github.com/alexandremahdhaoui/vmpatch/internal/controller"
	"github.com/alexandremahdhaoui/vmpatch/internal/types"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/logging"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/ssh"
)

var (
	ErrSetupLogging = errors.New("setting up logging")
	ErrBuild        = errors.New("building vmpatch")
)

// SetupLogging installs the logger described by config as the slog default. Entries go to stdout unless outputPaths
// are given.
func SetupLogging(config *config.Config, outputPaths ...string) (logr.Logger, func(), error) {
	level, err := logging.ParseLevel(config.Logging.Level)
	if err != nil {
		return logr.Discard(), func() {}, errors.Join(err, types.ErrConfiguration, ErrSetupLogging)
	}

	logger, flush, err := logging.Setup(logging.Options{
		Development: config.Logging.Development,
		Level:       level,
		OutputPaths: outputPaths,
	})
	if err != nil {
		return logr.Discard(), func() {}, errors.Join(err, ErrSetupLogging)
	}

	return logger, flush, nil
}

// NewVMPatch builds the SSH executor, the apt upgrader, the hypervisor directory and the facade over them. The
// metrics are registered to reg when it is not nil.
func NewVMPatch(config *config.Config, reg prometheus.Registerer) (controller.VMPatch, error) {
	hostKeys, err := ssh.NewHostKeys(config.SSH.KnownHostsPath, config.SSH.HostKeyPolicy)
	if err != nil {
		return nil, errors.Join(err, ErrBuild)
	}

	executor, err := ssh.NewClient(ssh.Options{
		HostKeys:       hostKeys,
		Port:           config.SSH.Port,
		ConnectTimeout: config.SSH.ConnectTimeout.Duration,
	})
	if err != nil {
		return nil, errors.Join(err, ErrBuild)
	}

	upgrader := adapter.NewUpgrader(executor, adapter.UpgraderOptions{
		CommandTimeout: config.SSH.CommandTimeout.Duration,
		MaxDetailBytes: config.Upgrades.MaxDetailBytes,
		CommandEnv:     config.Upgrades.CommandEnv,
	})

	directory, err := adapter.NewDirectory(map[types.HypervisorKind]adapter.Inventory{
		types.VSphereHypervisorKind: adapter.NewVSphereInventory(),
		types.LibvirtHypervisorKind: adapter.NewLibvirtInventory(),
	})
	if err != nil {
		return nil, errors.Join(err, ErrBuild)
	}

	var metrics *controller.Metrics
	if reg != nil {
		metrics = controller.NewMetrics(reg)
	}

	return controller.NewVMPatch(directory, upgrader, controller.Options{
		Hypervisor:        config.HypervisorEndpoint(),
		Credential:        config.RemoteCredential(),
		RequireLinuxGuest: config.RequireLinuxGuest(),
	}, metrics), nil
}
