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

// Package importhook specifies the importer collaborator §1 names as
// out of scope: the core only needs to ask "give me the module named X"
// and get back a loaded code.Code plus its Code object, never how that
// module was found, compiled, or cached on disk.
package importhook

import "github.com/tekknolagi/skybison-sub001/code"

// Importer resolves a dotted module name to its compiled Code. A real
// implementation would consult sys.path, zip importers, frozen modules,
// and __pycache__; this core never implements one, it only depends on
// the interface.
type Importer interface {
	Import(name string) (*code.Code, error)
}

// MemoryImporter is a minimal in-memory stand-in sufficient to drive
// tests: modules are pre-registered by name rather than discovered.
type MemoryImporter struct {
	modules map[string]*code.Code
}

// NewMemoryImporter returns an importer with no modules registered.
func NewMemoryImporter() *MemoryImporter {
	return &MemoryImporter{modules: map[string]*code.Code{}}
}

// Register adds name -> c to the importer's table.
func (m *MemoryImporter) Register(name string, c *code.Code) {
	m.modules[name] = c
}

// Import implements Importer.
func (m *MemoryImporter) Import(name string) (*code.Code, error) {
	c, ok := m.modules[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return c, nil
}

// NotFoundError is returned when no module is registered under Name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string { return "no module named " + e.Name }
