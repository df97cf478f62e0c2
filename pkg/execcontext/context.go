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

// Package execcontext renders command lines sent to a remote shell.
//
// A Context carries a prefix (e.g. "sudo -n") and environment variables that are applied to every command formatted
// with it. Arguments are quoted so that the remote shell sees them verbatim.
package execcontext

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type Context interface {
	Envs() map[string]string
	PrependCmd() []string
}

func New(envs map[string]string, prependCmd []string) Context {
	return &context{
		prependCmd: prependCmd,
		envs:       envs,
	}
}

// Sudo returns a Context elevating every command with "sudo -n". The -n flag makes sudo fail instead of prompting
// for a password.
func Sudo(envs map[string]string) Context {
	return New(envs, []string{"sudo", "-n"})
}

type context struct {
	envs       map[string]string
	prependCmd []string
}

// Envs implements Context.
func (c *context) Envs() map[string]string {
	out := make(map[string]string, len(c.envs))
	maps.Copy(out, c.envs)
	return out
}

// PrependCmd implements Context.
func (c *context) PrependCmd() []string {
	out := make([]string, len(c.prependCmd))
	copy(out, c.prependCmd)
	return out
}

// FormatCmd renders one command. The prepend command comes first, then the environment assignments (sorted by key),
// then the command itself: `"sudo" "-n" DEBIAN_FRONTEND="noninteractive" "apt-get" "update"`.
func FormatCmd(ctx Context, cmd ...string) string {
	out := ""

	for _, s := range ctx.PrependCmd() {
		out = safelyAppendToCmd(out, s)
	}

	envs := ctx.Envs()
	for _, k := range slices.Sorted(maps.Keys(envs)) {
		out = fmt.Sprintf("%s%s=%q ", out, k, envs[k])
	}

	for _, s := range cmd {
		out = safelyAppendToCmd(out, s)
	}

	return strings.TrimSpace(out)
}

// Chain formats each command with ctx and joins them with "&&", so the chain stops at the first failing command.
func Chain(ctx Context, cmds ...[]string) string {
	parts := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		parts = append(parts, FormatCmd(ctx, cmd...))
	}

	return strings.Join(parts, " && ")
}

var unquottable = map[string]struct{}{
	"&&": {},
	"||": {},
	";":  {},
	"&":  {},
}

func safelyAppendToCmd(cmd string, s string) string {
	if _, ok := unquottable[s]; ok {
		return fmt.Sprintf("%s%s ", cmd, s)
	}
	return fmt.Sprintf("%s%q ", cmd, s)
}
