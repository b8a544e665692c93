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

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// Snapshot is a content-addressed, compressed copy of one Code object's
// original (unrewritten) bytecode, suitable for writing to an on-disk
// bytecode cache keyed by ContentHash so a later process can skip
// re-verifying source that hasn't changed. Rewrite always runs fresh on
// load (it is cheap and its idempotence is part of §8's contract), so
// only the original bytecode is worth persisting; the cache.Tuple is
// runtime-only state and is never snapshotted.
type Snapshot struct {
	Hash       [32]byte
	Compressed []byte
	RawLen     int
}

var (
	snapEncOnce sync.Once
	snapEnc     *zstd.Encoder
	snapDecOnce sync.Once
	snapDec     *zstd.Decoder
)

func encoder() *zstd.Encoder {
	snapEncOnce.Do(func() {
		e, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(err)
		}
		snapEnc = e
	})
	return snapEnc
}

func decoder() *zstd.Decoder {
	snapDecOnce.Do(func() {
		d, err := zstd.NewReader(nil)
		if err != nil {
			panic(err)
		}
		snapDec = d
	})
	return snapDec
}

// MakeSnapshot compresses c.Code for storage, tagging it with c's content
// hash so a consumer can tell two snapshots apart without decompressing.
func MakeSnapshot(c *Code) Snapshot {
	return Snapshot{
		Hash:       c.ContentHash(),
		Compressed: encoder().EncodeAll(c.Code, nil),
		RawLen:     len(c.Code),
	}
}

// Restore decompresses s back into raw bytecode and checks it against
// the recorded hash, guarding against a truncated or corrupted cache
// entry silently producing a Code whose Rewrite output nothing
// downstream expects.
func (s Snapshot) Restore() ([]byte, error) {
	raw, err := decoder().DecodeAll(s.Compressed, make([]byte, 0, s.RawLen))
	if err != nil {
		return nil, fmt.Errorf("code: decompressing snapshot: %w", err)
	}
	got := blake2b.Sum256(raw)
	if got != s.Hash {
		return nil, fmt.Errorf("code: snapshot hash mismatch (cache corrupted or stale)")
	}
	return raw, nil
}
