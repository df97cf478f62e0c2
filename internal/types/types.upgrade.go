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

package types

import "fmt"

// ------------------------------------------------- REMOTE CREDENTIAL ---------------------------------------------- //

// RemoteCredential authenticates against a guest's SSH server using key material only.
type RemoteCredential struct {
	Username string
	// KeyPath is the path to a PEM/OpenSSH private key. A leading "~/" is expanded to the home directory.
	KeyPath string
	// Passphrase decrypts KeyPath when the key is encrypted. Empty for unencrypted keys.
	Passphrase string
}

// String never prints the passphrase.
func (c RemoteCredential) String() string {
	return fmt.Sprintf("%s (key=%s)", c.Username, c.KeyPath)
}

// ---------------------------------------------------- COMMAND OUTCOME --------------------------------------------- //

// CommandOutcome is the result of one remote command that ran to completion.
type CommandOutcome struct {
	ExitStatus int
	Stdout     []byte
	Stderr     []byte
}

// Succeeded reports whether the remote process exited with status 0.
func (o CommandOutcome) Succeeded() bool {
	return o.ExitStatus == 0
}

// ---------------------------------------------------- UPGRADE RESULT ---------------------------------------------- //

// UpgradeStatus is the outcome of an upgrade check or apply.
type UpgradeStatus string

const (
	UpgradeStatusUpToDate          UpgradeStatus = "up_to_date"
	UpgradeStatusUpgradesAvailable UpgradeStatus = "upgrades_available"
	UpgradeStatusApplied           UpgradeStatus = "applied"
	UpgradeStatusFailed            UpgradeStatus = "failed"
)

// UpgradeResult is derived deterministically from a CommandOutcome (or from the executor error when the command never
// ran). Detail is the human/LLM readable transcript, possibly truncated.
type UpgradeResult struct {
	Status         UpgradeStatus
	PackageManager string
	Detail         string
}

// UpgradeTarget identifies the guest an upgrade operation runs against.
type UpgradeTarget struct {
	Address    string
	Credential RemoteCredential
}
