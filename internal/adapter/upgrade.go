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
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/ssh"
	"github.com/alexandremahdhaoui/vmpatch/pkg/execcontext"
)

const (
	// AptPackageManager is the only package manager driven by the Upgrader.
	AptPackageManager = "apt"

	DefaultCommandTimeout = 15 * time.Minute
	DefaultMaxDetailBytes = 64 * 1024

	upgradeListingHeader = "The following packages will be upgraded:"
	upgradableFromMarker = "[upgradable from:"

	upToDateDetail  = "No upgradable packages found via apt. System is up-to-date."
	appliedNoOutput = "apt upgrade completed without output."
)

var (
	errCheckUpgrades = errors.New("apt check")
	errApplyUpgrades = errors.New("apt apply")
	errEmptyAddress  = errors.New("target address cannot be empty")
)

// --------------------------------------------------- INTERFACES --------------------------------------------------- //

// Upgrader inspects and applies package upgrades on a guest.
type Upgrader interface {
	// Check refreshes the package index and simulates an upgrade. It never changes installed packages.
	Check(ctx context.Context, target types.UpgradeTarget) (types.UpgradeResult, error)

	// Apply refreshes the package index and upgrades every package non-interactively. Apply is never retried.
	//
	// Once the command has been sent, cancelling ctx only stops waiting for it: the upgrade may still complete on
	// the guest.
	Apply(ctx context.Context, target types.UpgradeTarget) (types.UpgradeResult, error)
}

// UpgraderOptions configures an Upgrader.
type UpgraderOptions struct {
	// CommandTimeout bounds each remote command. Defaults to DefaultCommandTimeout.
	CommandTimeout time.Duration
	// MaxDetailBytes bounds UpgradeResult.Detail. The tail of the transcript is kept. Defaults to
	// DefaultMaxDetailBytes.
	MaxDetailBytes int
	// CommandEnv is set on the sudo command line, e.g. DEBIAN_FRONTEND=noninteractive. The sudoers rule must then
	// allow it with SETENV.
	CommandEnv map[string]string
}

// --------------------------------------------------- CONSTRUCTORS ------------------------------------------------- //

// NewUpgrader returns an apt Upgrader running its commands through executor.
func NewUpgrader(executor ssh.Executor, opts UpgraderOptions) Upgrader {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}

	if opts.MaxDetailBytes <= 0 {
		opts.MaxDetailBytes = DefaultMaxDetailBytes
	}

	execCtx := execcontext.Sudo(opts.CommandEnv)

	return &apt{
		executor:       executor,
		commandTimeout: opts.CommandTimeout,
		maxDetailBytes: opts.MaxDetailBytes,

		checkCmd: execcontext.Chain(execCtx,
			[]string{"apt-get", "update", "-q"},
			[]string{"apt-get", "--simulate", "upgrade"},
		),
		applyCmd: execcontext.Chain(execCtx,
			[]string{"apt-get", "update", "-q"},
			[]string{
				"apt-get", "-y", "-q",
				"-o", "Dpkg::Options::=--force-confdef",
				"-o", "Dpkg::Options::=--force-confold",
				"upgrade",
			},
		),
	}
}

// --------------------------------------------- CONCRETE IMPLEMENTATION -------------------------------------------- //

type apt struct {
	executor       ssh.Executor
	commandTimeout time.Duration
	maxDetailBytes int

	checkCmd string
	applyCmd string
}

// --------------------------------------------- Check -------------------------------------------------------------- //

func (a *apt) Check(ctx context.Context, target types.UpgradeTarget) (types.UpgradeResult, error) {
	outcome, err := a.run(ctx, target, a.checkCmd)
	if err != nil {
		return a.failed(err.Error()), errors.Join(err, errCheckUpgrades)
	}

	if !outcome.Succeeded() {
		return a.failed(diagnostics(outcome)), errors.Join(
			fmt.Errorf("%w: exit status %d", types.ErrRemoteCommandFailed, outcome.ExitStatus),
			errCheckUpgrades,
		)
	}

	listing, n := UpgradableListing(decode(outcome.Stdout))
	if n == 0 {
		return types.UpgradeResult{
			Status:         types.UpgradeStatusUpToDate,
			PackageManager: AptPackageManager,
			Detail:         upToDateDetail,
		}, nil
	}

	return types.UpgradeResult{
		Status:         types.UpgradeStatusUpgradesAvailable,
		PackageManager: AptPackageManager,
		Detail:         Truncate(listing, a.maxDetailBytes),
	}, nil
}

// --------------------------------------------- Apply -------------------------------------------------------------- //

func (a *apt) Apply(ctx context.Context, target types.UpgradeTarget) (types.UpgradeResult, error) {
	outcome, err := a.run(ctx, target, a.applyCmd)
	if err != nil {
		return a.failed(err.Error()), errors.Join(err, errApplyUpgrades)
	}

	if !outcome.Succeeded() {
		return a.failed(diagnostics(outcome)), errors.Join(
			fmt.Errorf("%w: exit status %d", types.ErrRemoteCommandFailed, outcome.ExitStatus),
			errApplyUpgrades,
		)
	}

	detail := strings.TrimSpace(decode(outcome.Stdout))
	if detail == "" {
		detail = appliedNoOutput
	}

	return types.UpgradeResult{
		Status:         types.UpgradeStatusApplied,
		PackageManager: AptPackageManager,
		Detail:         Truncate(detail, a.maxDetailBytes),
	}, nil
}

// --------------------------------------------- helpers ------------------------------------------------------------ //

func (a *apt) run(ctx context.Context, target types.UpgradeTarget, cmd string) (types.CommandOutcome, error) {
	if strings.TrimSpace(target.Address) == "" {
		return types.CommandOutcome{}, errors.Join(errEmptyAddress, types.ErrConfiguration)
	}

	outcome, err := a.executor.Execute(ctx, target.Address, target.Credential, cmd, a.commandTimeout)
	if err != nil {
		slog.ErrorContext(ctx, "remote command did not complete",
			"address", target.Address,
			"user", target.Credential.Username,
			"err", err.Error(),
		)

		return types.CommandOutcome{}, err
	}

	if !outcome.Succeeded() {
		slog.WarnContext(ctx, "remote command exited with non-zero status",
			"address", target.Address,
			"exitStatus", outcome.ExitStatus,
		)
	}

	return outcome, nil
}

func (a *apt) failed(detail string) types.UpgradeResult {
	return types.UpgradeResult{
		Status:         types.UpgradeStatusFailed,
		PackageManager: AptPackageManager,
		Detail:         Truncate(detail, a.maxDetailBytes),
	}
}

// UpgradableListing extracts the upgradable package listing from apt output. It returns the listing verbatim and the
// number of lines naming packages.
//
// Two forms are recognized: the indented block following "The following packages will be upgraded:" printed by
// apt-get, and the "pkg/suite version arch [upgradable from: old]" lines printed by "apt list --upgradable".
func UpgradableListing(output string) (string, int) {
	var (
		lines   []string
		n       int
		inBlock bool
	)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")

		switch {
		case strings.HasPrefix(line, upgradeListingHeader):
			inBlock = true
			lines = append(lines, line)
			continue
		case inBlock && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")):
			if strings.TrimSpace(line) != "" {
				lines = append(lines, line)
				n++
			}

			continue
		}

		inBlock = false

		if strings.Contains(line, upgradableFromMarker) {
			lines = append(lines, line)
			n++
		}
	}

	if n == 0 {
		return "", 0
	}

	return strings.Join(lines, "\n"), n
}

// Truncate returns s when it fits in maxBytes. Otherwise the last maxBytes bytes are kept (never splitting a UTF-8
// sequence) behind a truncation marker.
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}

	start := len(s) - maxBytes
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}

	return fmt.Sprintf("[... %d bytes truncated ...]\n%s", start, s[start:])
}

// diagnostics returns stderr followed by stdout.
func diagnostics(outcome types.CommandOutcome) string {
	stderr := strings.TrimSpace(decode(outcome.Stderr))
	stdout := strings.TrimSpace(decode(outcome.Stdout))

	switch {
	case stderr == "" && stdout == "":
		return fmt.Sprintf("remote command exited with status %d and no output", outcome.ExitStatus)
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stderr + "\n" + stdout
	}
}

func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
