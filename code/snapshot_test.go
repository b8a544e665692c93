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

package code

import "testing"

func TestSnapshotRoundTrips(t *testing.T) {
	c := &Code{Code: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	s := MakeSnapshot(c)

	raw, err := s.Restore()
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(raw) != len(c.Code) {
		t.Fatalf("len(raw) = %d, want %d", len(raw), len(c.Code))
	}
	for i := range raw {
		if raw[i] != c.Code[i] {
			t.Fatalf("raw[%d] = %d, want %d", i, raw[i], c.Code[i])
		}
	}
}

func TestSnapshotDetectsCorruption(t *testing.T) {
	c := &Code{Code: []byte{1, 2, 3, 4}}
	s := MakeSnapshot(c)
	s.Hash[0] ^= 0xFF

	if _, err := s.Restore(); err == nil {
		t.Fatal("expected hash mismatch error")
	}
}
