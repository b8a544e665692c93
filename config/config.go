// Copyright (C) 2026 pyvm contributors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config loads the specialization/JIT tuning file, mirroring how
// the teacher's root-level table configuration is loaded with
// sigs.k8s.io/yaml rather than a bespoke flag set.
package config

import "sigs.k8s.io/yaml"

// Tuning holds every runtime knob a deployment may want to override
// without a rebuild: the polymorphic cache fan-out before degrading to
// megamorphic (§4.C), the recursion limit (§5), and whether the
// template JIT is allowed to run at all or only on an explicit
// allowlist of function names (useful for bisecting a miscompiled
// specialization down to one function during development).
type Tuning struct {
	PolymorphicFanout int      `json:"polymorphicFanout"`
	RecursionLimit    int      `json:"recursionLimit"`
	JITEnabled        bool     `json:"jitEnabled"`
	JITAllowlist      []string `json:"jitAllowlist,omitempty"`
	// Portable mirrors the teacher's SNELLER_PORTABLE escape hatch for
	// machines whose reported CPU features cannot be trusted (nested
	// virtualization, emulators). jit.Compile's portable argument forces
	// its hostSupportsJIT gate to false; no code passes this field to it.
	Portable bool `json:"portable"`
}

// Default returns the tuning this runtime ships with absent a config
// file.
func Default() Tuning {
	return Tuning{
		PolymorphicFanout: 4,
		RecursionLimit:    1000,
		JITEnabled:        true,
	}
}

// Load parses a YAML tuning file's contents into a Tuning, starting from
// Default() so a partial file only overrides the fields it sets.
func Load(data []byte) (Tuning, error) {
	t := Default()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// AllowsJIT reports whether fnName may be compiled under this tuning:
// JIT must be enabled overall, and if an allowlist was given, fnName
// must appear in it.
func (t Tuning) AllowsJIT(fnName string) bool {
	if !t.JITEnabled {
		return false
	}
	if len(t.JITAllowlist) == 0 {
		return true
	}
	for _, n := range t.JITAllowlist {
		if n == fnName {
			return true
		}
	}
	return false
}
