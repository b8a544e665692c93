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

func TestLineResolvesLnotab(t *testing.T) {
	c := &Code{
		Firstlineno: 10,
		// offset 0: line 10; offset 2 (delta 2): line 11; offset 6 (delta 4): line 13
		Lnotab: []byte{2, 1, 4, 2},
	}
	cases := map[int]int{0: 10, 1: 10, 2: 11, 5: 11, 6: 13, 100: 13}
	for pc, want := range cases {
		if got := c.Line(pc); got != want {
			t.Errorf("Line(%d) = %d, want %d", pc, got, want)
		}
	}
}

func TestContentHashStableAcrossRewrites(t *testing.T) {
	c := &Code{Code: []byte{0x01, 0x02, 0x03, 0x04}}
	h1 := c.ContentHash()
	Rewrite(c)
	Rewrite(c)
	h2 := c.ContentHash()
	if h1 != h2 {
		t.Fatalf("ContentHash changed after rewriting: %x != %x", h1, h2)
	}
}
